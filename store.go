package main

import (
	"crypto/subtle"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/apibillme/cache"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	migrate "github.com/rubenv/sql-migrate"
)

//go:embed migrations/*
var embeddedMigrations embed.FS

type Store struct {
	db        *sqlx.DB
	log       zerolog.Logger
	userCache cache.Cache
}

type SearchEntry struct {
	Id      string `db:"id" json:"id"`
	Query   string `db:"query" json:"query"`
	Count   int    `db:"count" json:"count"`
	Status  int    `db:"status" json:"status"`
	Results int    `db:"results" json:"results"`
	Error   string `db:"error" json:"error,omitempty"`
	Created int64  `db:"created" json:"created"`
}

func NewStore(filename string) (*Store, error) {
	logger := newLogger("store")

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sqlx.Connect("sqlite3", "file:"+filename+"?_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	migrationSource := &migrate.EmbedFileSystemMigrationSource{FileSystem: embeddedMigrations, Root: "migrations"}
	n, err := migrate.Exec(db.DB, "sqlite3", migrationSource, migrate.Up)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if n > 0 {
		logger.Info().Msgf("Applied %d migration(s)", n)
	}

	return &Store{
		db:        db,
		log:       logger,
		userCache: cache.New(256, cache.WithTTL(1*time.Hour)),
	}, nil
}

func (store *Store) Close() error {
	return store.db.Close()
}

func (store *Store) InsertSearch(entry SearchEntry) error {
	_, err := store.db.NamedExec(
		`INSERT INTO searches (id, query, count, status, results, error, created)
		 VALUES (:id, :query, :count, :status, :results, :error, :created)`,
		entry,
	)
	return err
}

// RecentSearches returns up to limit entries, newest first.
func (store *Store) RecentSearches(limit int) ([]SearchEntry, error) {
	entries := []SearchEntry{}
	err := store.db.Select(&entries,
		"SELECT id, query, count, status, results, error, created FROM searches ORDER BY created DESC, rowid DESC LIMIT ?",
		limit,
	)
	return entries, err
}

func (store *Store) DeleteSearchesBefore(expiry int64) (int64, error) {
	res, err := store.db.Exec("DELETE FROM searches WHERE created < ?", expiry)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// AddUser creates or replaces a user with an argon2id hash of pass.
func (store *Store) AddUser(user string, pass string, level int) error {
	hash, err := argon2id.CreateHash(pass, argon2id.DefaultParams)
	if err != nil {
		return err
	}
	_, err = store.db.Exec("INSERT OR REPLACE INTO users (user, hash, level) VALUES (?, ?, ?)", user, hash, level)
	if err != nil {
		return err
	}
	store.userCache.Set(userCacheKey(user, hash), pass)
	return nil
}

func (store *Store) HasUsers() (bool, error) {
	var n int
	if err := store.db.Get(&n, "SELECT COUNT(*) FROM users"); err != nil {
		return false, err
	}
	return n > 0, nil
}

// userCacheKey binds a verified password to the hash it was checked
// against, so a password changed by another process misses the cache.
func userCacheKey(user string, hash string) string {
	return user + "\x00" + hash
}

func (store *Store) TestUser(user string, pass string) bool {
	var hash string
	err := store.db.Get(&hash, "SELECT hash FROM users WHERE user = ?", user)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			store.log.Err(err).Send()
		}
		return false
	}

	key := userCacheKey(user, hash)
	userPass, ok := store.userCache.Get(key)
	if ok && 1 == subtle.ConstantTimeCompare([]byte(userPass.(string)), []byte(pass)) {
		return true
	}
	match, err := argon2id.ComparePasswordAndHash(pass, hash)
	if err != nil {
		store.log.Err(err).Msg("Error comparing password hashes")
		return false
	}
	if match {
		store.userCache.Set(key, pass)
	}
	return match
}

package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SearchLog records every search passed through it. It never changes the
// result seen by the caller.
type SearchLog struct {
	next  PhotoSearcher
	store *Store
	log   zerolog.Logger
	now   func() time.Time
}

func NewSearchLog(next PhotoSearcher, store *Store) *SearchLog {
	return &SearchLog{
		next:  next,
		store: store,
		log:   newLogger("history"),
		now:   time.Now,
	}
}

func (sl *SearchLog) Random(ctx context.Context, query string, count int) SearchResult {
	res := sl.next.Random(ctx, query, count)

	entry := SearchEntry{
		Id:      uuid.NewString(),
		Query:   query,
		Count:   count,
		Status:  res.Status(),
		Results: len(res.Photos),
		Created: sl.now().Unix(),
	}
	if res.Err != nil {
		entry.Error = res.Err.Error()
	}
	if err := sl.store.InsertSearch(entry); err != nil {
		sl.log.Err(err).Str("query", query).Msg("Failed to record search")
	}
	return res
}

func (sl *SearchLog) Recent(limit int) ([]SearchEntry, error) {
	return sl.store.RecentSearches(limit)
}

func (sl *SearchLog) purge(retention time.Duration) {
	expiry := sl.now().Add(-retention).Unix()
	n, err := sl.store.DeleteSearchesBefore(expiry)
	if err != nil {
		sl.log.Err(err).Msg("Failed to purge search log")
		return
	}
	if n > 0 {
		sl.log.Debug().Int64("deleted", n).Msg("Purged search log")
	}
}

// purgeExpired runs until ctx is done. A zero retention keeps everything.
func (sl *SearchLog) purgeExpired(ctx context.Context, retention time.Duration) {
	if retention <= 0 {
		return
	}
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()
	for {
		sl.purge(retention)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

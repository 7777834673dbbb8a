package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

var mainLog zerolog.Logger

var errUsage = errors.New("usage: moodpic [adduser <name> [level]]")

func main() {
	mainLog = newLogger("main")
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		mainLog.Error().Err(err).Send()
		os.Exit(1)
	}
}

// run returns instead of exiting so deferred cleanup, including the log
// file, always happens.
func run(args []string) error {
	cfg, err := loadConfigFile(configPath())
	if err != nil {
		return fmt.Errorf("unable to load configuration: %w", err)
	}
	closer := setupLogging(cfg)
	defer closer.Close()
	mainLog = newLogger("main")

	if len(args) == 0 {
		return serve(cfg)
	}
	switch args[0] {
	case "adduser":
		return addUser(cfg, args[1:])
	}
	return errUsage
}

func serve(cfg *Config) error {
	api, err := NewUnsplashApi(cfg)
	if err != nil {
		return err
	}

	store, err := NewStore(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()
	history := NewSearchLog(api, store)

	var auth authenticator
	if cfg.Server.Auth {
		hasUsers, err := store.HasUsers()
		if err != nil {
			return err
		}
		if !hasUsers {
			return &ConfigError{Field: "server.auth", Reason: "is enabled but no users exist; run adduser first"}
		}
		auth = store
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go history.purgeExpired(ctx, cfg.Retention())

	srv := NewServer(cfg, history, history, auth)
	httpServer := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		mainLog.Info().Str("addr", cfg.Server.Listen).Msg("Starting Server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	mainLog.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func addUser(cfg *Config, args []string) error {
	if len(args) < 1 || args[0] == "" {
		return fmt.Errorf("%w: adduser needs a name", errUsage)
	}
	level := 1
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid level %q: %w", args[1], err)
		}
		level = n
	}

	pass, err := promptPassword("Password: ")
	if err != nil {
		return err
	}
	again, err := promptPassword("Repeat password: ")
	if err != nil {
		return err
	}
	if pass != again {
		return errors.New("passwords do not match")
	}
	if pass == "" {
		return errors.New("password must not be empty")
	}

	store, err := NewStore(cfg.Database)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.AddUser(args[0], pass, level); err != nil {
		return err
	}
	mainLog.Info().Str("user", args[0]).Int("level", level).Msg("User saved")
	return nil
}

func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)
	pass, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", err
	}
	return string(pass), nil
}

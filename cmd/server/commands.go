package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v3"

	"aurahr/internal/app/server"
	"aurahr/internal/domain/auth"
	"aurahr/internal/platform/config"
	"aurahr/internal/platform/storage"
)

const sessionClearNote = `Only the stored copy is removed. A running server keeps the client signed in
until its idle sweep drops the session or the process restarts. After that
the client resolves as signed out.`

func commands() []*cli.Command {
	clientFlag := &cli.StringFlag{
		Name:     "client",
		Aliases:  []string{"c"},
		Required: true,
		Usage:    "Client ID (the cid claim of the aurahr_client cookie)",
	}
	return []*cli.Command{
		{
			Name:   "serve",
			Usage:  "Start the HTTP server",
			Action: serveAction,
		},
		{
			Name:  "session",
			Usage: "Inspect persisted client sessions",
			Commands: []*cli.Command{
				{
					Name:  "show",
					Usage: "Print the identity persisted for a client",
					Flags: []cli.Flag{clientFlag},
					Action: func(ctx context.Context, cmd *cli.Command) error {
						cfg := loadConfig()
						kv, err := server.OpenStorage(ctx, cfg)
						if err != nil {
							return err
						}
						defer func() { _ = kv.Close() }()
						return runSessionShow(ctx, kv, cmd.String("client"), os.Stdout)
					},
				},
				{
					Name:        "clear",
					Usage:       "Remove the identity persisted for a client",
					Description: sessionClearNote,
					Flags:       []cli.Flag{clientFlag},
					Action: func(ctx context.Context, cmd *cli.Command) error {
						cfg := loadConfig()
						kv, err := server.OpenStorage(ctx, cfg)
						if err != nil {
							return err
						}
						defer func() { _ = kv.Close() }()
						return runSessionClear(ctx, kv, cmd.String("client"), os.Stdout)
					},
				},
			},
		},
		{
			Name:  "hash-secret",
			Usage: "Hash a secret for the secret_hash field of an accounts file",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "secret",
					Aliases: []string{"s"},
					Usage:   "Secret to hash (read from stdin when omitted)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return runHashSecret(cmd.String("secret"), os.Stdin, os.Stdout)
			},
		},
	}
}

func loadConfig() config.Config {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	return cfg
}

func serveAction(ctx context.Context, _ *cli.Command) error {
	cfg := loadConfig()

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app, err := server.New(ctx, cfg, slog.Default())
	if err != nil {
		return fmt.Errorf("initialize server: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			slog.Warn("close storage failed", "err", err)
		}
	}()
	return app.Run(ctx)
}

func runSessionShow(ctx context.Context, kv storage.KV, clientID string, w io.Writer) error {
	data, err := storage.NewPrefixed(kv, storage.ClientPrefix(clientID)).Get(ctx, auth.DefaultSessionKey)
	if errors.Is(err, storage.ErrNotFound) {
		_, err = fmt.Fprintf(w, "client %s has no persisted session\n", clientID)
		return err
	}
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}

	var identity auth.Identity
	if err := json.Unmarshal(data, &identity); err != nil {
		return fmt.Errorf("client %s: %w", clientID, &auth.StorageCorruptionError{Key: auth.DefaultSessionKey, Err: err})
	}
	out, err := json.MarshalIndent(identity, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func runSessionClear(ctx context.Context, kv storage.KV, clientID string, w io.Writer) error {
	err := storage.NewPrefixed(kv, storage.ClientPrefix(clientID)).Remove(ctx, auth.DefaultSessionKey)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("remove session: %w", err)
	}
	_, err = fmt.Fprintf(w, "cleared stored session for client %s; a running server drops it after its idle sweep\n", clientID)
	return err
}

func runHashSecret(secret string, in io.Reader, w io.Writer) error {
	if secret == "" {
		raw, err := io.ReadAll(io.LimitReader(in, 4096))
		if err != nil {
			return fmt.Errorf("read secret: %w", err)
		}
		secret = strings.TrimRight(string(raw), "\r\n")
	}
	if secret == "" {
		return errors.New("secret is required")
	}
	hash, err := auth.HashPassword(secret)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, hash)
	return err
}

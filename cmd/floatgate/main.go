package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joacominatel/floatgate/internal/config"
	"github.com/joacominatel/floatgate/internal/database/postgres"
	"github.com/joacominatel/floatgate/internal/gateway"
	"github.com/joacominatel/floatgate/internal/mcp"
)

func main() {
	dsn := flag.String("dsn", "", "PostgreSQL connection string (overrides FLOATGATE_DB_URL and config)")
	saveProfile := flag.String("save-profile", "", "save -dsn as a named connection profile and exit")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	// stdout belongs to the JSON-RPC stream, so logs go to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load()
	if err != nil {
		logger.Warn("failed to load config, using defaults", "error", err)
		cfg = &config.Config{}
	}

	if *saveProfile != "" {
		if err := saveConnectionProfile(cfg, *saveProfile, *dsn); err != nil {
			fmt.Fprintf(os.Stderr, "save profile: %v\n", err)
			os.Exit(1)
		}
		return
	}

	connDSN := *dsn
	if connDSN == "" {
		connDSN, err = cfg.ResolveDSN()
		if err != nil {
			fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("received shutdown signal")
		cancel()
	}()

	gw := gateway.New(postgres.New(), connDSN, logger)
	gw.SetLimits(
		time.Duration(cfg.Preferences.QueryTimeoutSeconds)*time.Second,
		cfg.Preferences.MaxRows,
	)
	server := mcp.NewServer(gw, logger)
	logger.Info("floatgate started (read-only mode)")

	err = server.Run(ctx)
	gw.Cleanup()

	switch err {
	case nil, context.Canceled:
		logger.Info("server shutdown")
	default:
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// saveConnectionProfile parses the DSN into a named profile and persists
// it to the config file. Passwords embedded in the DSN end up in the file;
// set password_source: keyring by hand to keep them out of it.
func saveConnectionProfile(cfg *config.Config, name, dsn string) error {
	if dsn == "" {
		return fmt.Errorf("-save-profile requires -dsn")
	}

	conn, err := config.ParseDSN(dsn)
	if err != nil {
		return err
	}
	conn.Name = name

	if cfg.HasConnection(name) {
		return fmt.Errorf("profile %q already exists", name)
	}
	cfg.AddConnection(conn)

	if err := config.Save(cfg); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "saved profile %q -> %s\n", name, conn.DisplayString())
	return nil
}

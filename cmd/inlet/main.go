// If you are AI: This is the main entrypoint for the inlet server.
// It handles configuration loading, server startup, and graceful shutdown.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"inlet/internal/config"
	"inlet/internal/log"
	"inlet/internal/server"
)

// Commit is set via ldflags at build time.
var commit = "unknown"

func main() {
	app := &cli.App{
		Name:    "inlet",
		Usage:   "RTMP ingest server with HTTP-FLV, WS-FLV and SRT push",
		Version: fmt.Sprintf("1.0.0 (commit: %s)", commit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "configs/inlet.example.yaml",
				Usage:   "Path to configuration file",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run loads configuration, starts the server, and blocks until shutdown.
func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := log.New(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	srv := server.New(cfg, logger)

	shutdownHandler := server.NewShutdownHandler(srv, context.Background())

	errc := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	waitc := make(chan error, 1)
	go func() {
		waitc <- shutdownHandler.Wait()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("server error: %w", err)
	case err := <-waitc:
		if err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("server shut down cleanly", zap.String("commit", commit))
	return nil
}

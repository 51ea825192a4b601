// Command jsonadapterd is the jsonadapter daemon.
// It listens on a Unix domain socket for requests from shell clients and
// answers with pipelines that convert command output to JSON.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	jsonadapter "github.com/Paranoid-AF/jsonadapter"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	verbose := flag.Bool("verbose", false, "log every request and response to stderr")
	flag.Parse()

	if *showVersion {
		fmt.Println("jsonadapterd", Version)
		os.Exit(0)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := jsonadapter.LoadConfig()
	if err != nil {
		slog.Warn("failed to load config, using defaults", "error", err)
		cfg = jsonadapter.DefaultConfig()
	}
	for _, w := range jsonadapter.ValidateConfig(cfg) {
		slog.Warn("config", "warning", w)
	}

	socketPath := jsonadapter.SocketPath()

	slog.Info("starting", "socket", socketPath)

	srv, err := NewServer(socketPath, cfg)
	if err != nil {
		slog.Error("failed to start server", "error", err)
		os.Exit(1)
	}

	srv.currentEngine().WarmHistory()
	if err := srv.WatchConfig(cfg); err != nil {
		slog.Warn("config changes will need a manual reload", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("ready")
		if err := srv.Serve(); err != nil && !errors.Is(err, net.ErrClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down")
		srv.Close()
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

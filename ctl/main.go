// Command jsonadapter is a one-shot client for adapter suggestions. It runs
// an in-process engine, so it needs no daemon.
//
// Usage:
//
//	jsonadapter predict "date -u"
//	jsonadapter feedback "df -h | head -1"
//	jsonadapter config show
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd(newEngine)
	if err := root.ExecuteContext(ctx); err != nil {
		slog.Debug("command failed", "error", err)
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// Command jsonadapter-repl is an interactive REPL for jsonadapter suggestions.
// It uses raw terminal input to track cursor position natively, offers the
// top suggestion as a Tab-acceptable hint, and writes a TOML transcript to
// stdout.
//
// Usage:
//
//	./jsonadapter-repl             # interactive, TOML on screen
//	./jsonadapter-repl > log.toml  # prompt on screen, TOML to file
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	jsonadapter "github.com/Paranoid-AF/jsonadapter"
	"github.com/Paranoid-AF/jsonadapter/history"
	"github.com/Paranoid-AF/jsonadapter/suggest"
)

const prompt = "> "

// hintBudget bounds how long a keystroke may wait for a prediction.
const hintBudget = 50 * time.Millisecond

func main() {
	editor, err := NewEditor()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer editor.Close()

	tty := editor.Tty()

	cfg, err := jsonadapter.LoadConfig()
	if err != nil {
		slog.Warn("failed to load config, using defaults", "error", err)
		cfg = jsonadapter.DefaultConfig()
	}

	fmt.Fprintf(tty, "\033[2J\033[H") // clear screen
	fmt.Fprintf(tty, "jsonadapter repl\r\n")
	fmt.Fprintf(tty, "\r\ncommands:\r\n")
	fmt.Fprintf(tty, "  :defs <file>  load shell functions and aliases\r\n")
	fmt.Fprintf(tty, "  :settle       wait for background discovery\r\n")
	fmt.Fprintf(tty, "  :stats        print usage counters\r\n")
	fmt.Fprintf(tty, "  :clear        reload the engine with an empty cache\r\n")
	fmt.Fprintf(tty, "  :quit         exit\r\n")
	fmt.Fprintf(tty, "\r\nkeys: tab accepts the hint, up/down recall history\r\n\r\n")

	engine := suggest.NewEngine(cfg)
	defer func() { engine.Close() }()
	engine.WarmHistory()

	if jsonadapter.HistoryEnabled(cfg) {
		lines, err := history.Recent(history.ResolvePath(), cfg.History.WarmCommands)
		if err != nil {
			slog.Warn("failed to read shell history", "error", err)
		}
		editor.SeedHistory(lines)
	}

	editor.Suggest = func(line string, cursor int) (string, bool) {
		ctx, cancel := context.WithTimeout(context.Background(), hintBudget)
		defer cancel()
		candidates := engine.Predict(ctx, line, cursor, 1)
		if len(candidates) == 0 {
			return "", false
		}
		return candidates[0].Completion, true
	}
	editor.OnDisplay = func(string) { engine.OnSuggestionDisplayed() }
	editor.OnAccept = func(hint string) { engine.OnSuggestionAccepted(hint) }

	// stdout writer: converts \n → \r\n when stdout is a terminal (raw mode),
	// passes \n through unchanged when redirected to a file.
	out := termWriter(os.Stdout)

	for {
		text, cursorPos, err := editor.ReadLine(prompt)
		if err == io.EOF || err == ErrInterrupt {
			break
		}
		if err != nil {
			fmt.Fprintf(tty, "read error: %v\r\n", err)
			break
		}

		if text == "" {
			continue
		}

		switch {
		case text == ":quit" || text == ":q":
			return

		case strings.HasPrefix(text, ":defs "):
			path := jsonadapter.ExpandHome(strings.TrimSpace(strings.TrimPrefix(text, ":defs ")))
			data, err := os.ReadFile(path)
			if err != nil {
				fmt.Fprintf(tty, "error: %v\r\n\r\n", err)
				continue
			}
			n, err := engine.LoadDefinitions(string(data))
			if err != nil {
				fmt.Fprintf(tty, "error: %v\r\n\r\n", err)
				continue
			}
			fmt.Fprintf(tty, "loaded %d definitions\r\n\r\n", n)
			continue

		case text == ":settle":
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err := engine.Settle(ctx)
			cancel()
			if err != nil {
				fmt.Fprintf(tty, "error: %v\r\n\r\n", err)
			} else {
				fmt.Fprintf(tty, "settled\r\n\r\n")
			}
			continue

		case text == ":stats":
			writeStats(out, engine.Stats())
			fmt.Fprintf(tty, "\r\n")
			continue

		case text == ":clear":
			engine.Close()
			engine = suggest.NewEngine(cfg)
			fmt.Fprintf(tty, "cache cleared\r\n\r\n")
			continue
		}

		// Enter runs the line: report it and ask for feedback, as a shell would.
		engine.OnCommandLineAccepted()
		ctx := context.Background()
		candidates := engine.Predict(ctx, text, cursorPos, 0)
		fb := engine.Feedback(ctx, text)
		engine.OnCommandLineExecuted(text, true)

		// Show brief summary on tty.
		if len(candidates) == 0 {
			fmt.Fprintf(tty, "(no candidates yet)\r\n")
		}
		for i, c := range candidates {
			fmt.Fprintf(tty, "  %d. [%.2f] %s (%s)\r\n", i+1, c.Confidence, c.Completion, c.Strategy)
		}
		if fb != nil {
			fmt.Fprintf(tty, "  feedback: %s\r\n    %s\r\n", fb.Message, strings.Join(fb.Actions, "\r\n    "))
		}
		fmt.Fprintf(tty, "\r\n")

		// TOML output to stdout (crlfWriter handles raw mode).
		if err := writeEntry(out, "line", text, cursorPos, candidates, fb); err != nil {
			slog.Warn("failed to write transcript", "error", err)
		}
	}
}

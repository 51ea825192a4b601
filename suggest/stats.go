package suggest

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	jsonadapter "github.com/Paranoid-AF/jsonadapter"
	"github.com/Paranoid-AF/jsonadapter/history"
)

// ErrNoResolver is returned by LoadDefinitions on an engine built without a
// resolver.
var ErrNoResolver = errors.New("engine has no resolver")

type counters struct {
	displayed            atomic.Int64
	accepted             atomic.Int64
	lineAccepted         atomic.Int64
	lineExecuted         atomic.Int64
	feedbackCancelled    atomic.Int64
	predictionsCancelled atomic.Int64
}

// OnSuggestionDisplayed records that the client showed a suggestion.
func (e *Engine) OnSuggestionDisplayed() { e.counters.displayed.Add(1) }

// OnSuggestionAccepted records that the user took a suggestion.
func (e *Engine) OnSuggestionAccepted(text string) {
	e.counters.accepted.Add(1)
	slog.Debug("suggestion accepted", "text", history.Redact(text))
}

// OnCommandLineAccepted records that the user submitted a command line.
func (e *Engine) OnCommandLineAccepted() { e.counters.lineAccepted.Add(1) }

// OnCommandLineExecuted records that a command line finished running.
func (e *Engine) OnCommandLineExecuted(line string, success bool) {
	e.counters.lineExecuted.Add(1)
	slog.Debug("command line executed", "line", history.Redact(line), "success", success)
}

// HandleEvent dispatches a client event to the matching counter.
func (e *Engine) HandleEvent(ev *jsonadapter.EventRequest) error {
	switch ev.Event {
	case jsonadapter.EventDisplayed:
		e.OnSuggestionDisplayed()
	case jsonadapter.EventAccepted:
		e.OnSuggestionAccepted(ev.Text)
	case jsonadapter.EventCommandAccepted:
		e.OnCommandLineAccepted()
	case jsonadapter.EventExecuted:
		e.OnCommandLineExecuted(ev.Text, ev.Success)
	default:
		return fmt.Errorf("unknown event %q", ev.Event)
	}
	return nil
}

// Stats snapshots the usage counters and cache sizes.
func (e *Engine) Stats() jsonadapter.Stats {
	return jsonadapter.Stats{
		SuggestionsDisplayed: e.counters.displayed.Load(),
		SuggestionsAccepted:  e.counters.accepted.Load(),
		CommandLinesAccepted: e.counters.lineAccepted.Load(),
		CommandLinesExecuted: e.counters.lineExecuted.Load(),
		FeedbackCancelled:    e.counters.feedbackCancelled.Load(),
		PredictionsCancelled: e.counters.predictionsCancelled.Load(),
		CachedAdapters:       e.gen.CachedAdapters(),
		ResolvedCommands:     e.gen.ResolvedCommands(),
	}
}

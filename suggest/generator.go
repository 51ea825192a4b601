// Package suggest turns command invocations into rewritten pipelines that
// end in a JSON conversion step.
package suggest

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/Paranoid-AF/jsonadapter/adapter"
	"github.com/Paranoid-AF/jsonadapter/history"
	"github.com/Paranoid-AF/jsonadapter/shell"
)

// DefaultMaxInFlight bounds concurrent background discoveries.
const DefaultMaxInFlight = 8

// Suggestion is a full replacement pipeline and the strategy behind it.
type Suggestion struct {
	Text     string
	Strategy adapter.Strategy
	Suffix   string
}

// Generator answers suggestion requests from the cache and populates the
// cache in the background on misses. Requests never wait for discovery.
type Generator struct {
	classifier *adapter.Classifier
	discovery  *adapter.Discovery
	cache      *adapter.Cache

	sem *semaphore.Weighted

	mu       sync.Mutex
	closed   bool
	inFlight int
	idle     chan struct{} // closed when inFlight drops to zero
}

// NewGenerator creates a Generator. maxInFlight <= 0 uses DefaultMaxInFlight.
func NewGenerator(classifier *adapter.Classifier, discovery *adapter.Discovery, cache *adapter.Cache, maxInFlight int) *Generator {
	if maxInFlight <= 0 {
		maxInFlight = DefaultMaxInFlight
	}
	return &Generator{
		classifier: classifier,
		discovery:  discovery,
		cache:      cache,
		sem:        semaphore.NewWeighted(int64(maxInFlight)),
	}
}

// Suggest returns the cached rewrites for cmd. The boolean is false when the
// command is not adapter-eligible at all; an eligible command with nothing
// cached yet yields an empty list and true. Every miss schedules discovery
// so that a later call can hit.
func (g *Generator) Suggest(cmd *shell.Command) ([]Suggestion, bool) {
	if cmd == nil || cmd.Name == "" {
		return nil, false
	}
	name := adapter.NormalizeName(cmd.Name)
	if name == "" || !g.classifier.IsAdapterEligible(cmd.Name) {
		return nil, false
	}

	var out []Suggestion
	for _, s := range adapter.Strategies {
		key := adapter.Key{Strategy: s, Command: name}
		suffix, ok := g.cache.TryGet(key)
		if !ok {
			g.schedule(key)
			continue
		}
		out = append(out, Suggestion{
			Text:     cmd.Text + " | " + suffix,
			Strategy: s,
			Suffix:   suffix,
		})
	}
	return out, true
}

// SuggestedPipelines is Suggest with every rewrite parsed back into a
// pipeline. Rewrites that do not parse as a single pipeline are dropped.
func (g *Generator) SuggestedPipelines(cmd *shell.Command) []*shell.Pipeline {
	sugs, ok := g.Suggest(cmd)
	if !ok {
		return nil
	}
	var out []*shell.Pipeline
	for _, s := range sugs {
		p, err := shell.ParsePipeline(s.Text)
		if err != nil {
			slog.Debug("dropping unparsable suggestion", "text", history.Redact(s.Text), "error", err)
			continue
		}
		out = append(out, p)
	}
	return out
}

// schedule starts a detached discovery for key. When the queue is full the
// attempt is dropped; the next observation of the command retries it.
func (g *Generator) schedule(key adapter.Key) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	if !g.sem.TryAcquire(1) {
		slog.Debug("discovery queue full", "key", key.String())
		return
	}
	if g.inFlight == 0 {
		g.idle = make(chan struct{})
	}
	g.inFlight++

	go func() {
		defer g.finish()
		g.cache.PopulateIfAbsent(key, func() (string, bool) {
			suffix, ok := g.discovery.Discover(key.Strategy, key.Command)
			if ok {
				slog.Debug("adapter discovered", "key", key.String(), "suffix", suffix)
			}
			return suffix, ok
		})
	}()
}

func (g *Generator) finish() {
	g.sem.Release(1)
	g.mu.Lock()
	g.inFlight--
	if g.inFlight == 0 {
		close(g.idle)
	}
	g.mu.Unlock()
}

// Settle blocks until no discovery is in flight or ctx is done. It never
// holds queue slots, so scheduling continues while it waits.
func (g *Generator) Settle(ctx context.Context) error {
	g.mu.Lock()
	if g.inFlight == 0 {
		g.mu.Unlock()
		return nil
	}
	idle := g.idle
	g.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ClearCache drops every cached adapter.
func (g *Generator) ClearCache() {
	g.cache.Clear()
}

// CachedAdapters returns the number of cached adapters.
func (g *Generator) CachedAdapters() int {
	return g.cache.Len()
}

// ResolvedCommands returns the number of commands confirmed eligible.
func (g *Generator) ResolvedCommands() int {
	return g.classifier.Resolved()
}

// Close stops scheduling new discoveries and waits for running ones.
func (g *Generator) Close() {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
	_ = g.Settle(context.Background())
}

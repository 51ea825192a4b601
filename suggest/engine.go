package suggest

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	jsonadapter "github.com/Paranoid-AF/jsonadapter"
	"github.com/Paranoid-AF/jsonadapter/adapter"
	"github.com/Paranoid-AF/jsonadapter/history"
	"github.com/Paranoid-AF/jsonadapter/shell"
)

// DefaultMaxCandidates is used when the request does not specify a limit.
const DefaultMaxCandidates = 4

// FeedbackMessage accompanies every feedback hint.
const FeedbackMessage = "A JSON adapter was found for this command."

// Engine is the session-wide entry point for shell clients. It owns one
// Generator, so every request of the session shares the adapter cache.
type Engine struct {
	gen      *Generator
	resolver *shell.Resolver

	counters counters

	history  func() ([]string, error)
	warmOnce sync.Once
}

// NewEngine builds the resolver, catalog, discovery and cache described by
// cfg. A nil cfg uses the embedded defaults.
func NewEngine(cfg *jsonadapter.Config) *Engine {
	if cfg == nil {
		cfg = jsonadapter.DefaultConfig()
	}

	res := shell.NewResolver(cfg.Shell.ScriptExtensions)
	for _, path := range cfg.Shell.DefinitionFiles {
		n, err := res.LoadDefinitionFile(jsonadapter.ExpandHome(path))
		if err != nil {
			slog.Warn("failed to load shell definitions", "path", path, "error", err)
			continue
		}
		slog.Debug("loaded shell definitions", "path", path, "count", n)
	}

	catalog := adapter.NewCatalog(res, jsonadapter.ResolveTool(cfg), cfg.Adapter.ExtraCommands)
	if cfg.Adapter.ToolAvailable != nil {
		catalog.SetToolAvailable(*cfg.Adapter.ToolAvailable)
	}
	if !catalog.ToolAvailable() {
		slog.Info("conversion tool not found, delegated adapters disabled", "tool", catalog.Tool())
	}

	classifier := adapter.NewClassifier(res)
	discovery := adapter.NewDiscovery(classifier, catalog, adapter.DiscoveryOptions{
		NamingSuffix: jsonadapter.ResolveNamingSuffix(cfg),
		ParserStage:  jsonadapter.ResolveParserStage(cfg),
	})

	e := NewEngineFromGenerator(
		NewGenerator(classifier, discovery, adapter.NewCache(), cfg.Adapter.MaxInFlight),
		res,
	)
	if jsonadapter.HistoryEnabled(cfg) {
		limit := cfg.History.WarmCommands
		e.history = func() ([]string, error) {
			return history.Recent(history.ResolvePath(), limit)
		}
	}
	return e
}

// NewEngineFromGenerator wraps an existing Generator. res receives pushed
// shell definitions and may be nil. History warm-up is disabled.
func NewEngineFromGenerator(gen *Generator, res *shell.Resolver) *Engine {
	return &Engine{gen: gen, resolver: res}
}

// Close waits for background discovery to finish.
func (e *Engine) Close() {
	e.gen.Close()
}

// Settle blocks until background discovery is idle or ctx is done.
func (e *Engine) Settle(ctx context.Context) error {
	return e.gen.Settle(ctx)
}

// Feedback inspects a command line the user ran and returns the line with
// every top-level command that has a cached adapter rewritten in place, or
// nil when none has. Commands nested inside another command, such as a
// command substitution, are left alone.
func (e *Engine) Feedback(ctx context.Context, input string) *jsonadapter.Feedback {
	input = strings.TrimRight(input, "\n")
	if strings.TrimSpace(input) == "" {
		return nil
	}
	line, err := shell.Parse(input)
	if err != nil {
		slog.Debug("feedback input does not parse", "error", err)
		return nil
	}

	type rewrite struct {
		cmd  *shell.Command
		text string
	}
	var rewrites []rewrite
	for _, cmd := range line.Commands {
		if nested(cmd, line.Commands) {
			continue
		}
		if texts, ok := FilterFeedback(cmd, e.gen.SuggestedPipelines(cmd)); ok {
			rewrites = append(rewrites, rewrite{cmd, texts[0]})
		}
	}

	if ctx.Err() != nil {
		e.counters.feedbackCancelled.Add(1)
	}
	if len(rewrites) == 0 {
		return nil
	}

	// Splice from the end so earlier offsets stay valid.
	action := input
	for i := len(rewrites) - 1; i >= 0; i-- {
		r := rewrites[i]
		action = action[:r.cmd.Start] + r.text + action[r.cmd.End:]
	}
	return &jsonadapter.Feedback{
		Message: FeedbackMessage,
		Actions: []string{action},
	}
}

// nested reports whether cmd lies inside the extent of another command.
func nested(cmd *shell.Command, all []*shell.Command) bool {
	for _, other := range all {
		if other == cmd {
			continue
		}
		if other.Start <= cmd.Start && cmd.End <= other.End && other.End-other.Start > cmd.End-cmd.Start {
			return true
		}
	}
	return false
}

// Predict returns full replacement lines for the command under the cursor,
// ranked by strategy order.
func (e *Engine) Predict(ctx context.Context, input string, cursor, maxCandidates int) []jsonadapter.Candidate {
	candidates := []jsonadapter.Candidate{}

	input = strings.TrimRight(input, "\n")
	if cursor < 0 || cursor > len(input) {
		cursor = len(input)
	}
	if strings.TrimSpace(input) == "" {
		return candidates
	}
	if maxCandidates <= 0 {
		maxCandidates = DefaultMaxCandidates
	}

	line, err := shell.Parse(input)
	if err != nil {
		slog.Debug("prediction input does not parse", "error", err)
		return candidates
	}
	cmd := line.CommandAt(cursor)
	if cmd == nil {
		return candidates
	}

	sugs, _ := e.gen.Suggest(cmd)
	for _, s := range sugs {
		if len(candidates) == maxCandidates {
			break
		}
		candidates = append(candidates, jsonadapter.Candidate{
			Completion: input[:cmd.Start] + s.Text + input[cmd.End:],
			Strategy:   s.Strategy.String(),
		})
	}
	for i := range candidates {
		candidates[i].Confidence = 0.95 - float64(i)*0.15
		if candidates[i].Confidence < 0.1 {
			candidates[i].Confidence = 0.1
		}
	}

	if ctx.Err() != nil {
		e.counters.predictionsCancelled.Add(1)
	}
	return candidates
}

// PredictCommand runs the generator on an already parsed command.
func (e *Engine) PredictCommand(ctx context.Context, cmd *shell.Command) []Suggestion {
	sugs, _ := e.gen.Suggest(cmd)
	if ctx.Err() != nil {
		e.counters.predictionsCancelled.Add(1)
	}
	return sugs
}

// LoadDefinitions registers the functions and aliases declared in src.
func (e *Engine) LoadDefinitions(src string) (int, error) {
	if e.resolver == nil {
		return 0, ErrNoResolver
	}
	return e.resolver.LoadDefinitions(strings.NewReader(src), "definitions")
}

// WarmHistory feeds recent history through the generator once per engine,
// in the background, so frequently used commands hit the cache on their
// first observation of the session.
func (e *Engine) WarmHistory() {
	if e.history == nil {
		return
	}
	e.warmOnce.Do(func() {
		go func() {
			lines, err := e.history()
			if err != nil {
				slog.Warn("failed to read shell history", "error", err)
				return
			}
			n := e.WarmFrom(context.Background(), lines)
			slog.Debug("history warm-up done", "commands", n)
		}()
	})
}

// WarmFrom schedules discovery for every distinct command in lines and
// waits for it between commands so the bounded queue never drops work.
// It returns the number of distinct command names observed.
func (e *Engine) WarmFrom(ctx context.Context, lines []string) int {
	seen := make(map[string]bool)
	for _, text := range lines {
		line, err := shell.Parse(text)
		if err != nil {
			continue
		}
		for _, cmd := range line.Commands {
			if cmd.Name == "" || seen[cmd.Name] {
				continue
			}
			seen[cmd.Name] = true
			e.gen.Suggest(cmd)
			if err := e.gen.Settle(ctx); err != nil {
				return len(seen)
			}
		}
	}
	return len(seen)
}

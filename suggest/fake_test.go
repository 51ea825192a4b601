package suggest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Paranoid-AF/jsonadapter/adapter"
	"github.com/Paranoid-AF/jsonadapter/shell"
)

// fakeResolver resolves names from an in-memory table.
type fakeResolver struct {
	mu    sync.Mutex
	names map[string]shell.Category
	// gate, when set, blocks every lookup of a name until it is closed.
	gate map[string]chan struct{}
}

func newFakeResolver(names map[string]shell.Category) *fakeResolver {
	if names == nil {
		names = make(map[string]shell.Category)
	}
	return &fakeResolver{names: names, gate: make(map[string]chan struct{})}
}

func (f *fakeResolver) Resolve(name string, allowed shell.Category) (shell.CommandInfo, bool) {
	f.mu.Lock()
	gate := f.gate[name]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	cat, ok := f.names[name]
	if !ok || allowed&cat == 0 {
		return shell.CommandInfo{}, false
	}
	return shell.CommandInfo{Name: name, Category: cat}, true
}

func (f *fakeResolver) block(name string) chan struct{} {
	ch := make(chan struct{})
	f.mu.Lock()
	f.gate[name] = ch
	f.mu.Unlock()
	return ch
}

// standardNames is a PATH with jc installed, a few catalog commands and a
// tool that ships a naming-convention adapter as a shell function.
func standardNames() map[string]shell.Category {
	return map[string]shell.Category{
		"jc":               shell.Application,
		"date":             shell.Application,
		"df":               shell.Application,
		"uptime":           shell.Application,
		"head":             shell.Application,
		"curl":             shell.Application,
		"foo-tool":         shell.ExternalScript,
		"foo-tool-adapter": shell.Function,
		"bar":              shell.Application,
		"bar-json":         shell.Alias,
		"ll":               shell.Alias,
	}
}

func newTestGenerator(t *testing.T, res *fakeResolver, opts adapter.DiscoveryOptions) *Generator {
	t.Helper()
	classifier := adapter.NewClassifier(res)
	catalog := adapter.NewCatalog(res, "jc", nil)
	discovery := adapter.NewDiscovery(classifier, catalog, opts)
	gen := NewGenerator(classifier, discovery, adapter.NewCache(), 0)
	t.Cleanup(gen.Close)
	return gen
}

func settle(t *testing.T, gen *Generator) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, gen.Settle(ctx))
}

func command(t *testing.T, text string) *shell.Command {
	t.Helper()
	line, err := shell.Parse(text)
	require.NoError(t, err)
	require.NotEmpty(t, line.Commands)
	return line.Commands[0]
}

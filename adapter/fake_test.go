package adapter

import (
	"sync"

	"github.com/Paranoid-AF/jsonadapter/shell"
)

// fakeResolver resolves names from an in-memory table and counts lookups.
type fakeResolver struct {
	mu    sync.Mutex
	names map[string]shell.Category
	calls map[string]int
}

func newFakeResolver(names map[string]shell.Category) *fakeResolver {
	if names == nil {
		names = make(map[string]shell.Category)
	}
	return &fakeResolver{names: names, calls: make(map[string]int)}
}

func (f *fakeResolver) Resolve(name string, allowed shell.Category) (shell.CommandInfo, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	cat, ok := f.names[name]
	if !ok || allowed&cat == 0 {
		return shell.CommandInfo{}, false
	}
	return shell.CommandInfo{Name: name, Category: cat}, true
}

func (f *fakeResolver) set(name string, cat shell.Category) {
	f.mu.Lock()
	f.names[name] = cat
	f.mu.Unlock()
}

func (f *fakeResolver) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

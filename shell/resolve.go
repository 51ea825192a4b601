package shell

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// DefaultScriptExtensions are file extensions that make a PATH entry an
// external script rather than an application.
var DefaultScriptExtensions = []string{".sh", ".bash", ".zsh", ".py", ".pl", ".rb", ".ps1"}

// CommandInfo describes how a name resolved.
type CommandInfo struct {
	Name     string
	Category Category
	// Path is set for applications and external scripts.
	Path string
	// Definition holds the source of a function or alias, when known.
	Definition string
}

type definition struct {
	category Category
	source   string
}

// Resolver looks up command names against shell definitions and PATH.
// It is safe for concurrent use.
type Resolver struct {
	scriptExts []string
	lookupPath func() string

	mu   sync.RWMutex
	defs map[string]definition
}

// NewResolver creates a resolver. A nil scriptExts uses DefaultScriptExtensions.
func NewResolver(scriptExts []string) *Resolver {
	if scriptExts == nil {
		scriptExts = DefaultScriptExtensions
	}
	return &Resolver{
		scriptExts: scriptExts,
		lookupPath: func() string { return os.Getenv("PATH") },
		defs:       make(map[string]definition),
	}
}

// Define registers name as a shell-level command of the given category.
// Later definitions replace earlier ones, as in a shell.
func (r *Resolver) Define(name string, cat Category, source string) {
	if name == "" {
		return
	}
	r.mu.Lock()
	r.defs[name] = definition{category: cat, source: source}
	r.mu.Unlock()
}

// Undefine removes a shell-level definition.
func (r *Resolver) Undefine(name string) {
	r.mu.Lock()
	delete(r.defs, name)
	r.mu.Unlock()
}

// Resolve reports whether name resolves as one of the allowed categories.
// Shell definitions shadow PATH entries, matching shell lookup order.
func (r *Resolver) Resolve(name string, allowed Category) (CommandInfo, bool) {
	if name == "" || allowed == 0 {
		return CommandInfo{}, false
	}

	r.mu.RLock()
	def, ok := r.defs[name]
	r.mu.RUnlock()
	if ok && allowed&def.category != 0 {
		return CommandInfo{Name: name, Category: def.category, Definition: def.source}, true
	}

	if allowed&Native == 0 {
		return CommandInfo{}, false
	}
	if strings.ContainsRune(name, '/') {
		return r.resolveFile(name, name, allowed)
	}
	for _, dir := range filepath.SplitList(r.lookupPath()) {
		if dir == "" {
			dir = "."
		}
		if info, ok := r.resolveFile(name, filepath.Join(dir, name), allowed); ok {
			return info, true
		}
		if allowed&ExternalScript == 0 {
			continue
		}
		for _, ext := range r.scriptExts {
			if info, ok := r.resolveFile(name, filepath.Join(dir, name+ext), allowed); ok {
				return info, true
			}
		}
	}
	return CommandInfo{}, false
}

func (r *Resolver) resolveFile(name, path string, allowed Category) (CommandInfo, bool) {
	if !isExecutable(path) {
		return CommandInfo{}, false
	}
	cat := Application
	if r.isScript(path) {
		cat = ExternalScript
	}
	if allowed&cat == 0 {
		return CommandInfo{}, false
	}
	return CommandInfo{Name: name, Category: cat, Path: path}, true
}

func (r *Resolver) isScript(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return false
	}
	for _, e := range r.scriptExts {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	return info.Mode().Perm()&0o111 != 0
}

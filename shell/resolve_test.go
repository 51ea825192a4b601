package shell

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePath creates executables (and one non-executable file) in a temp dir
// and points PATH at it.
func fakePath(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, mode := range map[string]os.FileMode{
		"tool":      0o755,
		"helper.sh": 0o755,
		"data":      0o644,
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\n"), mode))
	}
	t.Setenv("PATH", dir)
	return dir
}

func TestResolveApplication(t *testing.T) {
	dir := fakePath(t)
	r := NewResolver(nil)

	info, ok := r.Resolve("tool", Native)
	require.True(t, ok)
	assert.Equal(t, Application, info.Category)
	assert.Equal(t, filepath.Join(dir, "tool"), info.Path)

	_, ok = r.Resolve("tool", ExternalScript)
	assert.False(t, ok, "application must not satisfy an external-script query")
}

func TestResolveExternalScriptByStem(t *testing.T) {
	fakePath(t)
	r := NewResolver(nil)

	info, ok := r.Resolve("helper", Native)
	require.True(t, ok)
	assert.Equal(t, ExternalScript, info.Category)

	_, ok = r.Resolve("helper", Application)
	assert.False(t, ok)

	info, ok = r.Resolve("helper.sh", Native)
	require.True(t, ok)
	assert.Equal(t, ExternalScript, info.Category)
}

func TestResolveIgnoresNonExecutable(t *testing.T) {
	fakePath(t)
	r := NewResolver(nil)

	_, ok := r.Resolve("data", AnyCommand)
	assert.False(t, ok)
	_, ok = r.Resolve("missing", AnyCommand)
	assert.False(t, ok)
	_, ok = r.Resolve("", AnyCommand)
	assert.False(t, ok)
}

func TestResolveAbsolutePath(t *testing.T) {
	dir := fakePath(t)
	r := NewResolver(nil)

	info, ok := r.Resolve(filepath.Join(dir, "tool"), Application)
	require.True(t, ok)
	assert.Equal(t, Application, info.Category)
}

func TestResolveDefinitionsShadowPath(t *testing.T) {
	fakePath(t)
	r := NewResolver(nil)
	r.Define("tool", Function, "tool() { :; }")

	info, ok := r.Resolve("tool", AnyCommand)
	require.True(t, ok)
	assert.Equal(t, Function, info.Category)

	// A native-only query skips the function and falls through to PATH.
	info, ok = r.Resolve("tool", Native)
	require.True(t, ok)
	assert.Equal(t, Application, info.Category)

	r.Undefine("tool")
	info, ok = r.Resolve("tool", AnyCommand)
	require.True(t, ok)
	assert.Equal(t, Application, info.Category)
}

func TestResolveDefinitionCategoryFiltered(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	r := NewResolver(nil)
	r.Define("ll", Alias, "ll='ls -l'")

	_, ok := r.Resolve("ll", Native)
	assert.False(t, ok)

	info, ok := r.Resolve("ll", Alias|Function)
	require.True(t, ok)
	assert.Equal(t, Alias, info.Category)
	assert.Equal(t, "ll='ls -l'", info.Definition)
}

func TestLoadDefinitions(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	r := NewResolver(nil)

	src := `
alias ll='ls -l' gs=git
df_json() { df -P | jc --df; }
function uptime_json {
	uptime | jc --uptime
}
export EDITOR=vim
`
	n, err := r.LoadDefinitions(strings.NewReader(src), "rc")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	for name, want := range map[string]Category{
		"ll":          Alias,
		"gs":          Alias,
		"df_json":     Function,
		"uptime_json": Function,
	} {
		info, ok := r.Resolve(name, AnyCommand)
		require.True(t, ok, name)
		assert.Equal(t, want, info.Category, name)
	}

	info, _ := r.Resolve("df_json", Function)
	assert.Equal(t, "df_json() { df -P | jc --df; }", info.Definition)

	_, ok := r.Resolve("EDITOR", AnyCommand)
	assert.False(t, ok)
}

func TestLoadDefinitionsParseError(t *testing.T) {
	r := NewResolver(nil)
	_, err := r.LoadDefinitions(strings.NewReader("foo() {"), "broken")
	assert.Error(t, err)
}

func TestCategoryString(t *testing.T) {
	assert.Equal(t, "application|external-script", Native.String())
	assert.Equal(t, "none", Category(0).String())
	assert.True(t, AnyCommand.Has(Function|Alias))
	assert.False(t, Native.Has(Function))

	cat, ok := ParseCategory("filter")
	require.True(t, ok)
	assert.Equal(t, Filter, cat)
}

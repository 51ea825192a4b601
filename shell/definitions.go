package shell

import (
	"fmt"
	"io"
	"os"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// LoadDefinitions parses shell source and registers the functions and
// aliases it declares. It returns the number of definitions registered.
func (r *Resolver) LoadDefinitions(src io.Reader, name string) (int, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return 0, fmt.Errorf("read definitions: %w", err)
	}
	text := string(data)
	f, err := newParser().Parse(strings.NewReader(text), name)
	if err != nil {
		return 0, fmt.Errorf("parse definitions: %w", err)
	}

	n := 0
	syntax.Walk(f, func(node syntax.Node) bool {
		switch x := node.(type) {
		case *syntax.FuncDecl:
			if x.Name == nil {
				return false
			}
			r.Define(x.Name.Value, Function, sourceOf(text, x))
			n++
			// functions defined inside a function body only exist once it runs
			return false
		case *syntax.CallExpr:
			if len(x.Args) < 2 || x.Args[0].Lit() != "alias" {
				return true
			}
			for _, w := range x.Args[1:] {
				if alias := aliasName(w); alias != "" {
					r.Define(alias, Alias, sourceOf(text, w))
					n++
				}
			}
		}
		return true
	})
	return n, nil
}

// LoadDefinitionFile is LoadDefinitions for a file on disk.
func (r *Resolver) LoadDefinitionFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return r.LoadDefinitions(f, path)
}

// aliasName extracts NAME from an alias argument of the form NAME=VALUE.
func aliasName(w *syntax.Word) string {
	if len(w.Parts) == 0 {
		return ""
	}
	lit, ok := w.Parts[0].(*syntax.Lit)
	if !ok {
		return ""
	}
	name, _, found := strings.Cut(lit.Value, "=")
	if !found {
		return ""
	}
	return name
}

func sourceOf(text string, node syntax.Node) string {
	start := clampOffset(node.Pos().Offset(), len(text))
	end := clampOffset(node.End().Offset(), len(text))
	return text[start:end]
}

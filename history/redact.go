package history

import (
	"bytes"
	"regexp"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// publicVars are variables whose values are safe to log.
var publicVars = map[string]bool{
	"HOME": true, "USER": true, "LOGNAME": true, "HOSTNAME": true,
	"PWD": true, "OLDPWD": true, "SHELL": true, "PATH": true,
	"TERM": true, "LANG": true, "LC_ALL": true, "LC_CTYPE": true,
	"EDITOR": true, "PAGER": true, "TMPDIR": true, "SHLVL": true,
	"XDG_CONFIG_HOME": true, "XDG_DATA_HOME": true, "XDG_RUNTIME_DIR": true,
	"HISTFILE": true, "HISTSIZE": true, "COLUMNS": true, "LINES": true,
}

// isPublic reports whether expanding name is safe to log. Special and
// positional parameters ($?, $1, ...) are always public.
func isPublic(name string) bool {
	if publicVars[name] {
		return true
	}
	if len(name) == 1 {
		return strings.ContainsAny(name, "?!#@*-$_0123456789")
	}
	return false
}

// Redact hides values that may be secrets before a command line is logged.
// Expansions of non-public variables become $REDACTED and assignment
// values become ***. Single-quoted text is left alone since it does not
// expand.
func Redact(line string) string {
	if line == "" {
		return ""
	}
	f, err := syntax.NewParser(syntax.Variant(syntax.LangBash)).Parse(strings.NewReader(line), "")
	if err != nil {
		return redactLoose(line)
	}

	syntax.Walk(f, func(node syntax.Node) bool {
		switch n := node.(type) {
		case *syntax.ParamExp:
			if n.Param != nil && !isPublic(n.Param.Value) {
				n.Param.Value = "REDACTED"
			}
		case *syntax.Assign:
			if n.Name != nil && n.Value != nil && !publicVars[n.Name.Value] {
				n.Value.Parts = []syntax.WordPart{&syntax.Lit{Value: "***"}}
			}
		}
		return true
	})

	var buf bytes.Buffer
	if err := syntax.NewPrinter().Print(&buf, f); err != nil {
		return redactLoose(line)
	}
	return strings.TrimRight(buf.String(), "\n")
}

var (
	reExpansion = regexp.MustCompile(`\$\{?([A-Za-z_][A-Za-z0-9_]*)\}?`)
	reAssign    = regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_]*)=(\S+)`)
)

// redactLoose handles lines the parser rejects, such as an unclosed quote.
func redactLoose(line string) string {
	line = reExpansion.ReplaceAllStringFunc(line, func(m string) string {
		name := reExpansion.FindStringSubmatch(m)[1]
		if isPublic(name) {
			return m
		}
		return strings.Replace(m, name, "REDACTED", 1)
	})
	return reAssign.ReplaceAllStringFunc(line, func(m string) string {
		name := reAssign.FindStringSubmatch(m)[1]
		if publicVars[name] {
			return m
		}
		return name + "=***"
	})
}

// Package adapter discovers JSON adapters for native commands and caches
// what it finds.
//
// Two strategies exist. A naming-convention adapter is a sibling command
// named <command>-adapter (or <command>-json). A delegated adapter pipes the
// command's output through a general converter such as jc, which knows a
// fixed catalog of commands.
package adapter

import (
	"path/filepath"
	"strings"
)

// Strategy identifies how an adapter was discovered.
type Strategy int

const (
	NamingConvention Strategy = iota
	Delegated
)

// Strategies lists every strategy in suggestion order.
var Strategies = []Strategy{NamingConvention, Delegated}

func (s Strategy) String() string {
	switch s {
	case NamingConvention:
		return "naming"
	case Delegated:
		return "delegated"
	}
	return "unknown"
}

// Key identifies one cache entry.
type Key struct {
	Strategy Strategy
	Command  string
}

func (k Key) String() string {
	return k.Strategy.String() + ":" + k.Command
}

// NormalizeName strips any directory and file extension from a command
// name, so "/usr/bin/date" and "date.exe" both become "date".
func NormalizeName(name string) string {
	base := filepath.Base(name)
	if base == "." || base == "/" {
		return ""
	}
	if ext := filepath.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

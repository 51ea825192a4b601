// Package shell parses command lines into command and pipeline nodes and
// resolves command names the way an interactive shell would.
package shell

import (
	"errors"
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// ErrNotPipeline is returned by ParsePipeline when the text is not exactly
// one pipeline of named commands.
var ErrNotPipeline = errors.New("not a single pipeline")

// Command is one simple command invocation within a parsed line.
type Command struct {
	// Name is the literal command word, or empty when the command has no
	// arguments or its first word is not a plain literal (e.g. "$cmd").
	Name string
	// Text is the literal source of the invocation.
	Text string
	// Start and End are byte offsets of Text within the parsed line.
	Start int
	End   int
	// Pipeline is the pipeline this command is a stage of, or nil.
	Pipeline *Pipeline
	// Stage is the index of this command within Pipeline.
	Stage int
}

// Next returns the stage after c in its pipeline, or nil.
func (c *Command) Next() *Command {
	if c.Pipeline == nil || c.Stage+1 >= len(c.Pipeline.Stages) {
		return nil
	}
	return c.Pipeline.Stages[c.Stage+1]
}

// Pipeline is an ordered sequence of stages joined by "|" or "|&".
type Pipeline struct {
	Text   string
	Start  int
	End    int
	Stages []*Command
}

// Line is a parsed command line.
type Line struct {
	Text string
	// Commands lists every simple command in source order, including those
	// nested in subshells and command substitutions.
	Commands []*Command
}

// CommandAt returns the command whose extent contains pos. When pos falls
// between commands, the closest command starting before pos is returned.
func (l *Line) CommandAt(pos int) *Command {
	var containing, before *Command
	for _, c := range l.Commands {
		// nested commands come later in source order, so the innermost wins
		if c.Start <= pos && pos <= c.End {
			containing = c
		}
		if c.Start <= pos {
			before = c
		}
	}
	switch {
	case containing != nil:
		return containing
	case before != nil:
		return before
	case len(l.Commands) > 0:
		return l.Commands[0]
	}
	return nil
}

func newParser() *syntax.Parser {
	return syntax.NewParser(syntax.Variant(syntax.LangBash))
}

// Parse parses text and collects its commands and pipelines.
func Parse(text string) (*Line, error) {
	f, err := newParser().Parse(strings.NewReader(text), "")
	if err != nil {
		return nil, fmt.Errorf("parse command line: %w", err)
	}
	b := newLineBuilder(text)
	syntax.Walk(f, b.visit)
	return &Line{Text: text, Commands: b.commands}, nil
}

// ParsePipeline parses text that must be exactly one pipeline with at least
// two stages, every one of them a named command.
func ParsePipeline(text string) (*Pipeline, error) {
	f, err := newParser().Parse(strings.NewReader(text), "")
	if err != nil {
		return nil, fmt.Errorf("parse pipeline: %w", err)
	}
	if len(f.Stmts) != 1 || f.Stmts[0].Background || f.Stmts[0].Negated {
		return nil, ErrNotPipeline
	}
	stmt := f.Stmts[0]
	bin, ok := stmt.Cmd.(*syntax.BinaryCmd)
	if !ok || !isPipe(bin) {
		return nil, ErrNotPipeline
	}
	b := newLineBuilder(text)
	p := b.addPipeline(stmt)
	for _, st := range p.Stages {
		if st.Name == "" {
			return nil, ErrNotPipeline
		}
	}
	return p, nil
}

type lineBuilder struct {
	src      string
	commands []*Command
	stages   map[*syntax.Stmt]*Command
}

func newLineBuilder(src string) *lineBuilder {
	return &lineBuilder{src: src, stages: make(map[*syntax.Stmt]*Command)}
}

func (b *lineBuilder) visit(node syntax.Node) bool {
	stmt, ok := node.(*syntax.Stmt)
	if !ok || stmt.Cmd == nil {
		return true
	}
	switch cmd := stmt.Cmd.(type) {
	case *syntax.BinaryCmd:
		if isPipe(cmd) {
			leaves := flattenPipe(stmt)
			// Walk is pre-order, so an enclosing pipe has already claimed
			// the stages of any pipe nested on either side.
			if b.stages[leaves[0]] == nil {
				b.addPipeline(stmt)
			}
		}
	case *syntax.CallExpr:
		c := b.stages[stmt]
		if c == nil {
			c = b.newCommand(stmt)
		}
		b.commands = append(b.commands, c)
	}
	return true
}

func (b *lineBuilder) addPipeline(stmt *syntax.Stmt) *Pipeline {
	p := &Pipeline{}
	for i, leaf := range flattenPipe(stmt) {
		c := b.newCommand(leaf)
		c.Pipeline = p
		c.Stage = i
		b.stages[leaf] = c
		p.Stages = append(p.Stages, c)
	}
	p.Start = p.Stages[0].Start
	p.End = p.Stages[len(p.Stages)-1].End
	p.Text = b.src[p.Start:p.End]
	return p
}

func (b *lineBuilder) newCommand(stmt *syntax.Stmt) *Command {
	c := &Command{}
	if call, ok := stmt.Cmd.(*syntax.CallExpr); ok && len(call.Args) > 0 {
		c.Name = call.Args[0].Lit()
	}
	c.Start = clampOffset(stmt.Cmd.Pos().Offset(), len(b.src))
	c.End = clampOffset(stmt.Cmd.End().Offset(), len(b.src))
	c.Text = b.src[c.Start:c.End]
	return c
}

func clampOffset(off uint, n int) int {
	if int(off) > n {
		return n
	}
	return int(off)
}

func isPipe(cmd *syntax.BinaryCmd) bool {
	return cmd.Op == syntax.Pipe || cmd.Op == syntax.PipeAll
}

// flattenPipe returns the stage statements of a pipe in order, whichever way
// the parser nested them.
func flattenPipe(stmt *syntax.Stmt) []*syntax.Stmt {
	bin, ok := stmt.Cmd.(*syntax.BinaryCmd)
	if !ok || !isPipe(bin) {
		return []*syntax.Stmt{stmt}
	}
	return append(flattenPipe(bin.X), flattenPipe(bin.Y)...)
}

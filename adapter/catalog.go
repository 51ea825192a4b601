package adapter

import (
	"strings"
	"sync/atomic"

	"github.com/Paranoid-AF/jsonadapter/shell"
)

// DefaultTool is the converter used for delegated adapters.
const DefaultTool = "jc"

// DefaultCommands are the commands jc has a parser for.
var DefaultCommands = []string{
	"arp", "cksum", "crontab", "date", "df", "dig", "dir", "du", "file", "finger",
	"free", "hash", "id", "ifconfig", "iostat", "jobs", "lsof", "mount", "mpstat",
	"netstat", "route", "stat", "sysctl", "traceroute", "uname", "uptime", "w", "wc",
	"who", "zipinfo",
}

// Catalog is the set of commands the converter tool understands.
// Membership is case-insensitive.
type Catalog struct {
	tool     string
	commands map[string]string // lowercased name -> canonical flag
	hasTool  atomic.Bool
}

// NewCatalog builds a catalog of DefaultCommands plus extra, and checks once
// whether tool resolves as an application.
func NewCatalog(res Resolver, tool string, extra []string) *Catalog {
	if tool == "" {
		tool = DefaultTool
	}
	c := &Catalog{
		tool:     tool,
		commands: make(map[string]string, len(DefaultCommands)+len(extra)),
	}
	for _, name := range DefaultCommands {
		c.add(name)
	}
	for _, name := range extra {
		c.add(name)
	}
	if res != nil {
		_, ok := res.Resolve(tool, shell.Application)
		c.hasTool.Store(ok)
	}
	return c
}

func (c *Catalog) add(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	key := strings.ToLower(name)
	if _, exists := c.commands[key]; !exists {
		c.commands[key] = name
	}
}

// Tool returns the converter tool name.
func (c *Catalog) Tool() string { return c.tool }

// Supports reports whether the converter knows name.
func (c *Catalog) Supports(name string) bool {
	_, ok := c.commands[strings.ToLower(name)]
	return ok
}

// Flag returns the catalog spelling of name, used as the converter flag.
func (c *Catalog) Flag(name string) (string, bool) {
	flag, ok := c.commands[strings.ToLower(name)]
	return flag, ok
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int { return len(c.commands) }

// ToolAvailable reports whether the converter was found at construction.
func (c *Catalog) ToolAvailable() bool { return c.hasTool.Load() }

// SetToolAvailable overrides the detected tool availability.
func (c *Catalog) SetToolAvailable(v bool) { c.hasTool.Store(v) }

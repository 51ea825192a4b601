package adapter

import (
	"fmt"

	"github.com/Paranoid-AF/jsonadapter/shell"
)

// Naming-convention suffixes.
const (
	SuffixAdapter = "-adapter"
	SuffixJSON    = "-json"
)

// DefaultParserStage is the pipeline stage that turns converter output into
// structured data.
const DefaultParserStage = "ConvertFrom-Json"

// SiblingCategories are the categories a naming-convention adapter may
// resolve as. Adapters are often small shell functions or aliases.
const SiblingCategories = shell.AnyCommand

// DiscoveryOptions configures Discovery.
type DiscoveryOptions struct {
	// NamingSuffix is appended to a command name to find its sibling
	// adapter. Defaults to SuffixAdapter.
	NamingSuffix string
	// ParserStage follows the converter in delegated pipelines.
	// Defaults to DefaultParserStage.
	ParserStage string
}

// Discovery finds adapters for normalized command names. It has no state
// of its own; callers decide what to cache.
type Discovery struct {
	classifier   *Classifier
	catalog      *Catalog
	namingSuffix string
	parserStage  string
}

// NewDiscovery creates a Discovery.
func NewDiscovery(classifier *Classifier, catalog *Catalog, opts DiscoveryOptions) *Discovery {
	if opts.NamingSuffix == "" {
		opts.NamingSuffix = SuffixAdapter
	}
	if opts.ParserStage == "" {
		opts.ParserStage = DefaultParserStage
	}
	return &Discovery{
		classifier:   classifier,
		catalog:      catalog,
		namingSuffix: opts.NamingSuffix,
		parserStage:  opts.ParserStage,
	}
}

// NamingSuffix returns the naming-convention suffix in use.
func (d *Discovery) NamingSuffix() string { return d.namingSuffix }

// NamingConvention looks for a sibling <name><suffix> command.
func (d *Discovery) NamingConvention(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	adapterName := name + d.namingSuffix
	if _, ok := d.classifier.FindSibling(adapterName, SiblingCategories); !ok {
		return "", false
	}
	return adapterName, true
}

// Delegated builds a converter pipeline for name if the converter is
// installed and knows the command.
func (d *Discovery) Delegated(name string) (string, bool) {
	if !d.catalog.ToolAvailable() {
		return "", false
	}
	flag, ok := d.catalog.Flag(name)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%s --%s | %s", d.catalog.Tool(), flag, d.parserStage), true
}

// Discover runs a single strategy.
func (d *Discovery) Discover(s Strategy, name string) (string, bool) {
	switch s {
	case NamingConvention:
		return d.NamingConvention(name)
	case Delegated:
		return d.Delegated(name)
	}
	return "", false
}

// Candidates runs every strategy and returns the suffixes found, in
// strategy order.
func (d *Discovery) Candidates(name string) []string {
	var out []string
	for _, s := range Strategies {
		if suffix, ok := d.Discover(s, name); ok {
			out = append(out, suffix)
		}
	}
	return out
}

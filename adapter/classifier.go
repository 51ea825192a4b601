package adapter

import (
	"github.com/jellydator/ttlcache/v3"

	"github.com/Paranoid-AF/jsonadapter/shell"
)

// Resolver looks up a command name restricted to a set of categories.
// *shell.Resolver implements it.
type Resolver interface {
	Resolve(name string, allowed shell.Category) (shell.CommandInfo, bool)
}

// Eligible is the category set worth adapting: native binaries and
// external scripts.
const Eligible = shell.Application | shell.ExternalScript

// Classifier answers whether a command is worth looking for an adapter for.
// Positive answers are remembered for the life of the classifier; negative
// ones are not, since a command can appear on PATH later.
type Classifier struct {
	resolver Resolver
	resolved *ttlcache.Cache[string, shell.CommandInfo]
}

// NewClassifier creates a classifier over res.
func NewClassifier(res Resolver) *Classifier {
	return &Classifier{
		resolver: res,
		resolved: ttlcache.New[string, shell.CommandInfo](
			ttlcache.WithTTL[string, shell.CommandInfo](ttlcache.NoTTL),
			ttlcache.WithDisableTouchOnHit[string, shell.CommandInfo](),
		),
	}
}

// IsAdapterEligible reports whether name resolves as an application or
// external script.
func (c *Classifier) IsAdapterEligible(name string) bool {
	if name == "" {
		return false
	}
	if c.resolved.Has(name) {
		return true
	}
	info, ok := c.resolver.Resolve(name, Eligible)
	if !ok {
		return false
	}
	c.resolved.GetOrSet(name, info)
	return true
}

// FindSibling resolves name within the given categories.
func (c *Classifier) FindSibling(name string, allowed shell.Category) (shell.CommandInfo, bool) {
	return c.resolver.Resolve(name, allowed)
}

// Resolved returns the number of names confirmed eligible so far.
func (c *Classifier) Resolved() int {
	return c.resolved.Len()
}

package shell

import "strings"

// Category is a set of command kinds a name may resolve as.
type Category uint8

const (
	Application Category = 1 << iota
	ExternalScript
	Script
	Function
	Filter
	Alias
)

// Native is the set of categories backed by a file on PATH.
const Native = Application | ExternalScript

// AnyCommand is every category the resolver knows about.
const AnyCommand = Application | ExternalScript | Script | Function | Filter | Alias

var categoryNames = []struct {
	cat  Category
	name string
}{
	{Application, "application"},
	{ExternalScript, "external-script"},
	{Script, "script"},
	{Function, "function"},
	{Filter, "filter"},
	{Alias, "alias"},
}

// Has reports whether every category in other is also in c.
func (c Category) Has(other Category) bool {
	return other != 0 && c&other == other
}

func (c Category) String() string {
	if c == 0 {
		return "none"
	}
	var parts []string
	for _, cn := range categoryNames {
		if c&cn.cat != 0 {
			parts = append(parts, cn.name)
		}
	}
	return strings.Join(parts, "|")
}

// ParseCategory maps a single category name back to its value.
func ParseCategory(name string) (Category, bool) {
	for _, cn := range categoryNames {
		if cn.name == name {
			return cn.cat, true
		}
	}
	return 0, false
}

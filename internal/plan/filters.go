package plan

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"clipforge/internal/services"
)

// Filter is a named visual look with its fixed filtergraph.
type Filter struct {
	Name  string
	Graph string
}

var titleCaser = cases.Title(language.English)

// filterRegistry holds the built-in looks. Graphs are fixed: a given filter
// name always produces the same filtergraph.
var filterRegistry = map[string]Filter{
	"Cinematic": {
		Name:  "Cinematic",
		Graph: "curves=preset=increased_contrast,eq=brightness=-0.1:saturation=1.2",
	},
	"Vintage": {
		Name:  "Vintage",
		Graph: "curves=preset=vintage,hue=s=0.5",
	},
	"Noir": {
		Name:  "Noir",
		Graph: "colorbalance=rs=-0.3:gs=-0.3:bs=-0.3:rm=-0.3:gm=-0.3:bm=-0.3:rh=-0.3:gh=-0.3:bh=-0.3",
	},
	"Vibrant": {
		Name:  "Vibrant",
		Graph: "eq=contrast=1.2:brightness=0.05:saturation=1.4",
	},
}

// LookupFilter resolves a filter by name, case-insensitively.
func LookupFilter(name string) (Filter, error) {
	canonical := titleCaser.String(strings.ToLower(strings.TrimSpace(name)))
	filter, ok := filterRegistry[canonical]
	if !ok {
		return Filter{}, services.Wrap(services.ErrUnknownFilter, component, "lookup_filter", name, nil)
	}
	return filter, nil
}

// FilterNames returns the registered filter names in sorted order.
func FilterNames() []string {
	names := make([]string, 0, len(filterRegistry))
	for name := range filterRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

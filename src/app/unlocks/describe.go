package unlocks

import (
	"sort"
	"strings"
)

// Group collects display names per category label. Labels are sorted, names
// keep their scan order.
func Group(entries []Entry) (labels []string, names map[string][]string) {
	names = make(map[string][]string)
	for _, e := range entries {
		if _, ok := names[e.Type]; !ok {
			labels = append(labels, e.Type)
		}
		names[e.Type] = append(names[e.Type], e.Name)
	}
	sort.Strings(labels)
	return labels, names
}

// Parts renders one `Label: name` or `Labels: a, b` part per label. Every
// name is kept.
func Parts(entries []Entry) []string {
	labels, names := Group(entries)
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		parts = append(parts, Label(l, names[l]))
	}
	return parts
}

// Describe joins Parts with " | ".
func Describe(entries []Entry) string {
	return strings.Join(Parts(entries), " | ")
}

// Label renders a single group.
func Label(label string, names []string) string {
	if len(names) == 1 {
		return label + ": " + names[0]
	}
	return label + "s: " + strings.Join(names, ", ")
}

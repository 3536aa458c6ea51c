// internal/routing/slug.go
//
// Path helpers.
//
// • BuildPath(parent, child) ─ joins two path fragments with a single “/”
//   and guarantees exactly one leading slash.
// • SplitSubPath(p) ─ breaks a wildcard tail into non-empty segments for
//   the page resolver.

package routing

import (
	"strings"
)

// BuildPath joins parent + child ensuring exactly one leading slash and no
// duplicate separators at the join.
func BuildPath(parent, child string) string {
	parent = strings.Trim(parent, "/")
	child = strings.Trim(child, "/")

	switch {
	case parent == "" && child == "":
		return "/"
	case parent == "":
		return "/" + child
	case child == "":
		return "/" + parent
	default:
		return "/" + parent + "/" + child
	}
}

// SplitSubPath returns the non-empty "/"-separated segments of p.
func SplitSubPath(p string) []string {
	var segs []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

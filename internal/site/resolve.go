// internal/site/resolve.go
//
// Page resolution inside a published snapshot.
//
// Rules
// -----
//  1. Empty sub-path (or "/") → the first page flagged is_homepage, in
//     snapshot order.  No homepage → ErrNotFound.
//  2. Otherwise the segments are joined with "/" and compared to each
//     page slug exactly.  No case folding, no trailing-slash games beyond
//     trimming the separators the router leaves behind.
//  3. A miss is ErrNotFound.  A wrong URL never falls back to the homepage.
//
// Snapshots with zero pages or several homepages are data-quality issues,
// not render errors; see Validate.
package site

import "strings"

// ResolvePage returns the page addressed by subPath.
func (s *Snapshot) ResolvePage(subPath string) (*Page, error) {
	slug := JoinSegments(strings.Split(subPath, "/"))
	if slug == "" {
		for i := range s.Pages {
			if s.Pages[i].IsHomepage {
				return &s.Pages[i], nil
			}
		}
		return nil, ErrNotFound
	}
	for i := range s.Pages {
		if s.Pages[i].Slug == slug {
			return &s.Pages[i], nil
		}
	}
	return nil, ErrNotFound
}

// JoinSegments joins non-empty path segments with "/".
func JoinSegments(segs []string) string {
	out := make([]string, 0, len(segs))
	for _, s := range segs {
		if s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, "/")
}

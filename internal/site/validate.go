package site

import (
	"errors"
	"fmt"
)

// Validate reports integrity problems that resolution tolerates but a
// publish should have rejected: more than one homepage and duplicate page
// slugs.  A nil return means the snapshot is clean.
func (s *Snapshot) Validate() error {
	var errs []error
	homes := 0
	seen := make(map[string]struct{}, len(s.Pages))
	for _, p := range s.Pages {
		if p.IsHomepage {
			homes++
		}
		if _, dup := seen[p.Slug]; dup {
			errs = append(errs, fmt.Errorf("%w: %q", ErrDuplicateSlug, p.Slug))
			continue
		}
		seen[p.Slug] = struct{}{}
	}
	if homes > 1 {
		errs = append(errs, fmt.Errorf("%w: %d pages flagged", ErrMultipleHomepages, homes))
	}
	return errors.Join(errs...)
}

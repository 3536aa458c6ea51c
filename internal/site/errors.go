package site

import "errors"

// ErrNotFound reports that the requested site, domain, snapshot, or page
// genuinely does not exist or is not published.  Backends return it (or
// wrap it) for absent rows so callers can tell absence from outage.
var ErrNotFound = errors.New("site: not found")

// Integrity problems reported by Snapshot.Validate.
var (
	ErrMultipleHomepages = errors.New("site: more than one homepage")
	ErrDuplicateSlug     = errors.New("site: duplicate page slug")
)

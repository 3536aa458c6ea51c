// internal/site/domain.go
//
// Custom-domain status and hostname grammar.
//
// Context
// -------
// A `domains` row maps a tenant-owned hostname to a site.  Only rows whose
// status is `active` take part in resolution; the others (pending,
// verifying, failed) are owned by the editor and must behave exactly like
// unknown hosts.
package site

import "strings"

// DomainStatus is the verification state of a custom domain.
type DomainStatus string

// DomainActive is the only status that resolves.
const DomainActive DomainStatus = "active"

// MaxHostnameLen is the RFC 1035 limit for a full hostname.
const MaxHostnameLen = 253

// ValidHostname checks the RFC-1035-like grammar used for custom domains:
// at least two dot-separated labels, each 1–63 characters of [a-z0-9-],
// never starting or ending with a hyphen, total length ≤ 253.  The check
// is case-insensitive; a single trailing dot is tolerated.
func ValidHostname(h string) bool {
	h = strings.TrimSuffix(h, ".")
	if h == "" || len(h) > MaxHostnameLen {
		return false
	}
	labels := strings.Split(h, ".")
	if len(labels) < 2 {
		return false
	}
	for _, l := range labels {
		if len(l) == 0 || len(l) > 63 {
			return false
		}
		if l[0] == '-' || l[len(l)-1] == '-' {
			return false
		}
		for i := 0; i < len(l); i++ {
			c := l[i]
			switch {
			case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-':
			default:
				return false
			}
		}
	}
	// The top-level label may not be all-numeric (rules out bare IPv4).
	tld := labels[len(labels)-1]
	return strings.Trim(tld, "0123456789") != ""
}

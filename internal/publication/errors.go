package publication

import (
	"errors"
	"fmt"

	"github.com/yanizio/siteforge/internal/site"
)

// ErrNotFound is site.ErrNotFound, re-exported so HTTP callers need only
// this package.
var ErrNotFound = site.ErrNotFound

// ServiceError reports that the backing store could not answer: a
// transport fault, timeout, 5xx, or malformed response.  It never means
// the content is absent.  The wrapped cause stays available to errors.Is
// but is deliberately left out of Error() so log lines carry only the
// operation and status.
type ServiceError struct {
	Op     string // "resolve_domain", "resolve_slug", "fetch_snapshot"
	Status int    // upstream HTTP status when known, else 0
	Err    error
}

func (e *ServiceError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("publication %s: service error (status %d)", e.Op, e.Status)
	}
	return fmt.Sprintf("publication %s: service error", e.Op)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// IsServiceError reports whether err is (or wraps) a *ServiceError.
func IsServiceError(err error) bool {
	var se *ServiceError
	return errors.As(err, &se)
}

// ErrorKind labels err for logs and metrics: "not_found", "service", or "".
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "service"
	}
}

// statusCoder is implemented by backend errors that carry an HTTP status.
type statusCoder interface{ StatusCode() int }

// classify converts a raw backend error into the taxonomy.  Raw transport
// or driver errors never leave this package unwrapped.
func classify(op string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) {
		return err
	}
	var se *ServiceError
	if errors.As(err, &se) {
		return se
	}
	out := &ServiceError{Op: op, Err: err}
	var sc statusCoder
	if errors.As(err, &sc) {
		out.Status = sc.StatusCode()
	}
	return out
}

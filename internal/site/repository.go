// internal/site/repository.go
//
// SQL-backed publication queries.
//
// Context
// -------
// These helpers implement the backend query contract against the control-
// plane database (MySQL or Postgres through sqlx):
//
//   - `SiteIDByDomain`   - active custom domain, exact match.
//   - `SiteIDBySlug`     - published site, exact slug match.
//   - `CurrentSnapshot`  - site name and settings plus the `is_current`
//     publish, in one round-trip.
//
// Workflow
// --------
//  1. Each helper executes exactly one parameterised SELECT, rebound for
//     the active driver so `?` becomes `$1` on Postgres.
//  2. sql.ErrNoRows is translated to ErrNotFound.  Every other error is
//     returned wrapped so the publication accessor can classify it as a
//     service failure.
//  3. The snapshot JSON is decoded here; a malformed column is a backend
//     fault, not an absent site.
//
// Notes
// -----
//   - `ORDER BY p.version DESC` makes the pick deterministic should the
//     data ever carry more than one current row.
//   - The repository never logs; callers decide what to record.
package site

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Repository runs publication queries against one *sqlx.DB pool.
type Repository struct {
	db *sqlx.DB
}

// NewRepository wraps db.  The pool is owned by the caller.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// SiteIDByDomain returns the site bound to an active custom domain.
func (r *Repository) SiteIDByDomain(ctx context.Context, host string) (string, error) {
	const q = `
        SELECT site_id
        FROM   domains
        WHERE  domain = ?
          AND  status = ?
        LIMIT  1`
	var id string
	if err := r.db.GetContext(ctx, &id, r.db.Rebind(q), host, string(DomainActive)); err != nil {
		return "", notFound(err, "domain lookup")
	}
	return id, nil
}

// SiteIDBySlug returns the id of a published site.
func (r *Repository) SiteIDBySlug(ctx context.Context, slug string) (string, error) {
	const q = `
        SELECT id
        FROM   sites
        WHERE  slug   = ?
          AND  status = 'published'
        LIMIT  1`
	var id string
	if err := r.db.GetContext(ctx, &id, r.db.Rebind(q), slug); err != nil {
		return "", notFound(err, "site lookup")
	}
	return id, nil
}

// snapshotRow is the joined sites × publishes projection.
type snapshotRow struct {
	Name        string    `db:"name"`
	Settings    []byte    `db:"settings"`
	Snapshot    []byte    `db:"snapshot"`
	Version     int       `db:"version"`
	PublishedAt time.Time `db:"published_at"`
}

// CurrentSnapshot loads the current publish for siteID.
func (r *Repository) CurrentSnapshot(ctx context.Context, siteID string) (*PublishedSiteData, error) {
	const q = `
        SELECT s.name, s.settings, p.snapshot, p.version, p.published_at
        FROM   publishes p
        JOIN   sites     s ON s.id = p.site_id
        WHERE  p.site_id    = ?
          AND  p.is_current = TRUE
        ORDER  BY p.version DESC
        LIMIT  1`
	var row snapshotRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(q), siteID); err != nil {
		return nil, notFound(err, "snapshot fetch")
	}

	out := &PublishedSiteData{
		Site:        Site{Name: row.Name, Settings: rawOrNil(row.Settings)},
		Version:     row.Version,
		PublishedAt: row.PublishedAt.UTC(),
	}
	if err := json.Unmarshal(row.Snapshot, &out.Snapshot); err != nil {
		return nil, fmt.Errorf("snapshot decode: %w", err)
	}
	return out, nil
}

// notFound maps sql.ErrNoRows to ErrNotFound and wraps everything else.
func notFound(err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// rawOrNil keeps NULL settings as an absent bag rather than "null".
func rawOrNil(b []byte) json.RawMessage {
	if len(b) == 0 {
		return nil
	}
	return json.RawMessage(b)
}

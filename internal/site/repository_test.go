// internal/site/repository_test.go
//
// Unit-tests for the SQL publication queries using sqlmock.
//
// Run: go test ./internal/site -v

package site

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

const (
	qDomain   = `SELECT site_id FROM domains WHERE domain = ? AND status = ? LIMIT 1`
	qSlug     = `SELECT id FROM sites WHERE slug = ? AND status = 'published' LIMIT 1`
	qSnapshot = `SELECT s.name, s.settings, p.snapshot, p.version, p.published_at FROM publishes p JOIN sites s ON s.id = p.site_id WHERE p.site_id = ? AND p.is_current = TRUE ORDER BY p.version DESC LIMIT 1`
)

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func TestSiteIDByDomain(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(qDomain)).
		WithArgs("custom.example", "active").
		WillReturnRows(sqlmock.NewRows([]string{"site_id"}).AddRow("site-42"))

	id, err := repo.SiteIDByDomain(context.Background(), "custom.example")
	if err != nil {
		t.Fatalf("SiteIDByDomain error: %v", err)
	}
	if id != "site-42" {
		t.Fatalf("id = %q, want site-42", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

// A draft site has no row matching status = 'published'.
func TestSiteIDBySlug_DraftIsNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(qSlug)).
		WithArgs("my-restaurant").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.SiteIDBySlug(context.Background(), "my-restaurant")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSiteIDBySlug_DriverErrorIsNotNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(qSlug)).
		WithArgs("x").
		WillReturnError(sql.ErrConnDone)

	_, err := repo.SiteIDBySlug(context.Background(), "x")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want wrapped driver error", err)
	}
	if !errors.Is(err, sql.ErrConnDone) {
		t.Fatalf("err = %v, want to wrap sql.ErrConnDone", err)
	}
}

func TestCurrentSnapshot(t *testing.T) {
	repo, mock := newMockRepo(t)
	at := time.Date(2025, 6, 5, 10, 0, 0, 0, time.UTC)

	snap := `{"pages":[{"id":"p1","slug":"pricing","title":"Pricing","is_homepage":false,"seo":{},` +
		`"sections":[{"id":"s1","type":"hero","variant":"centered","content":{"title":"Hi"},"sort_order":1}]}]}`

	mock.ExpectQuery(regexp.QuoteMeta(qSnapshot)).
		WithArgs("site-42").
		WillReturnRows(sqlmock.NewRows([]string{"name", "settings", "snapshot", "version", "published_at"}).
			AddRow("Bistro", []byte(`{"primaryColor":"#c00"}`), []byte(snap), 3, at))

	got, err := repo.CurrentSnapshot(context.Background(), "site-42")
	if err != nil {
		t.Fatalf("CurrentSnapshot error: %v", err)
	}
	if got.Site.Name != "Bistro" || got.Version != 3 || !got.PublishedAt.Equal(at) {
		t.Fatalf("unexpected header: %+v", got)
	}
	if len(got.Snapshot.Pages) != 1 || got.Snapshot.Pages[0].Slug != "pricing" {
		t.Fatalf("unexpected pages: %+v", got.Snapshot.Pages)
	}
	if got.Theme().PrimaryColor != "#c00" {
		t.Fatalf("theme = %+v", got.Theme())
	}
}

func TestCurrentSnapshot_NoCurrentPublish(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(qSnapshot)).
		WithArgs("site-1").
		WillReturnError(sql.ErrNoRows)

	if _, err := repo.CurrentSnapshot(context.Background(), "site-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCurrentSnapshot_MalformedColumn(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(qSnapshot)).
		WithArgs("site-1").
		WillReturnRows(sqlmock.NewRows([]string{"name", "settings", "snapshot", "version", "published_at"}).
			AddRow("X", nil, []byte(`{"pages":"nope"}`), 1, time.Now()))

	_, err := repo.CurrentSnapshot(context.Background(), "site-1")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want decode error", err)
	}
}

// Package grant reads grant metadata from the structured store.
package grant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kailas-cloud/grantmatch/internal/domain/grant"
)

// querier is the subset of *pgxpool.Pool the repository needs.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

const selectColumns = `SELECT name, status, is_pinned, COALESCE(agency, ''), COALESCE(category, ''), expiration_date FROM grants`

// Active listings order pinned grants first, then by name.
const activeOrder = ` ORDER BY is_pinned DESC, name ASC`

// Repo implements the grant metadata queries over Postgres.
type Repo struct {
	db querier
}

// New creates a grant repository.
func New(db querier) *Repo {
	return &Repo{db: db}
}

// Ping checks database connectivity.
func (r *Repo) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// ListActiveByCategory returns active grants with the exact category.
func (r *Repo) ListActiveByCategory(ctx context.Context, category string) ([]grant.Grant, error) {
	return r.list(ctx, "list grants by category",
		selectColumns+` WHERE status = 'active' AND category = $1`+activeOrder, category)
}

// ListActiveByAgency returns active grants with the exact agency.
func (r *Repo) ListActiveByAgency(ctx context.Context, agency string) ([]grant.Grant, error) {
	return r.list(ctx, "list grants by agency",
		selectColumns+` WHERE status = 'active' AND agency = $1`+activeOrder, agency)
}

// SearchActiveByName returns active grants whose name contains keyword, case-insensitively.
func (r *Repo) SearchActiveByName(ctx context.Context, keyword string) ([]grant.Grant, error) {
	return r.list(ctx, "search grants by name",
		selectColumns+` WHERE status = 'active' AND name ILIKE '%' || $1 || '%'`+activeOrder, escapeLike(keyword))
}

// DistinctAgencies returns the non-empty agencies of active grants.
func (r *Repo) DistinctAgencies(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "agency")
}

// DistinctCategories returns the non-empty categories of active grants.
func (r *Repo) DistinctCategories(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "category")
}

// Upsert inserts or replaces a grant row.
func (r *Repo) Upsert(ctx context.Context, g grant.Grant) error {
	var expires *time.Time
	if t := g.ExpiresAt(); !t.IsZero() {
		expires = &t
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO grants (name, status, is_pinned, agency, category, expiration_date)
		 VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6)
		 ON CONFLICT (name) DO UPDATE SET
		   status = EXCLUDED.status,
		   is_pinned = EXCLUDED.is_pinned,
		   agency = EXCLUDED.agency,
		   category = EXCLUDED.category,
		   expiration_date = EXCLUDED.expiration_date,
		   updated_at = NOW()`,
		g.Name(), string(g.Status()), g.Pinned(), g.Agency(), string(g.Category()), expires)
	if err != nil {
		return fmt.Errorf("upsert grant %s: %w", g.Name(), err)
	}
	return nil
}

func (r *Repo) list(ctx context.Context, op, sql string, arg string) ([]grant.Grant, error) {
	rows, err := r.db.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []grant.Grant
	for rows.Next() {
		var (
			name, status, agency, category string
			pinned                         bool
			expires                        *time.Time
		)
		if err := rows.Scan(&name, &status, &pinned, &agency, &category, &expires); err != nil {
			return nil, fmt.Errorf("scan grant: %w", err)
		}
		var exp time.Time
		if expires != nil {
			exp = *expires
		}
		g, err := grant.New(name, grant.Status(status), pinned, agency, grant.Category(category), exp)
		if err != nil {
			return nil, fmt.Errorf("decode grant %s: %w", name, err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// distinct is only called with the fixed column names above.
func (r *Repo) distinct(ctx context.Context, column string) ([]string, error) {
	col := pgx.Identifier{column}.Sanitize()
	rows, err := r.db.Query(ctx,
		`SELECT DISTINCT `+col+` FROM grants
		 WHERE status = 'active' AND `+col+` IS NOT NULL AND `+col+` <> ''
		 ORDER BY 1`)
	if err != nil {
		return nil, fmt.Errorf("distinct %s: %w", column, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan %s: %w", column, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes LIKE wildcards in user input literal.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

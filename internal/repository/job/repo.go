// Package job persists search jobs as Postgres rows with jsonb result columns.
package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kailas-cloud/grantmatch/internal/domain"
	"github.com/kailas-cloud/grantmatch/internal/domain/job"
	"github.com/kailas-cloud/grantmatch/internal/domain/search/result"
)

// DefaultTable is the table created by the bundled migrations.
const DefaultTable = "search_jobs"

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repo implements usecase/job.Store.
type Repo struct {
	db    querier
	table string
}

// New creates a job repository over the named table.
func New(db querier, table string) *Repo {
	return &Repo{db: db, table: pgx.Identifier{table}.Sanitize()}
}

const columns = `id, status, rag_status, query, fingerprint, filters, filtered_grants, rag_grants, all_grants, error, created_at, completed_at`

// Create inserts a new job.
func (r *Repo) Create(ctx context.Context, j *job.SearchJob) error {
	rec, err := encode(j)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO `+r.table+` (`+columns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), $11, $12)`,
		j.ID, string(j.Status), string(j.RagStatus), j.Query, j.Fingerprint,
		rec.filters, rec.filtered, rec.rag, rec.all, j.Error, j.CreatedAt, j.CompletedAt)
	if err != nil {
		return fmt.Errorf("create job %s: %w", j.ID, err)
	}
	return nil
}

// Get loads a job by id.
func (r *Repo) Get(ctx context.Context, id uuid.UUID) (*job.SearchJob, error) {
	j, err := r.scan(r.db.QueryRow(ctx,
		`SELECT `+columns+` FROM `+r.table+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return j, nil
}

// Update writes the mutable fields. Rows whose rag stage already finished are not touched.
func (r *Repo) Update(ctx context.Context, j *job.SearchJob) error {
	rec, err := encode(j)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE `+r.table+` SET
		   status = $2, rag_status = $3, rag_grants = $4, all_grants = $5,
		   error = NULLIF($6, ''), completed_at = $7
		 WHERE id = $1 AND rag_status NOT IN ('completed', 'error')`,
		j.ID, string(j.Status), string(j.RagStatus), rec.rag, rec.all, j.Error, j.CompletedAt)
	if err != nil {
		return fmt.Errorf("update job %s: %w", j.ID, err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.Get(ctx, j.ID); err != nil {
			return err
		}
		return fmt.Errorf("update job %s: %w", j.ID, domain.ErrJobTerminal)
	}
	return nil
}

// FindInFlight returns the newest non-terminal job with the fingerprint created after since.
// The boolean is false when none exists.
func (r *Repo) FindInFlight(ctx context.Context, fingerprint string, since time.Time) (*job.SearchJob, bool, error) {
	j, err := r.scan(r.db.QueryRow(ctx,
		`SELECT `+columns+` FROM `+r.table+`
		 WHERE fingerprint = $1 AND rag_status IN ('pending', 'in_progress') AND created_at > $2
		 ORDER BY created_at DESC LIMIT 1`, fingerprint, since.UTC()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("find in-flight job: %w", err)
	}
	return j, true, nil
}

type record struct {
	filters, filtered, rag, all []byte
}

func encode(j *job.SearchJob) (record, error) {
	var rec record
	var err error
	if rec.filters, err = json.Marshal(j.Filters); err != nil {
		return rec, fmt.Errorf("encode filters: %w", err)
	}
	if rec.filtered, err = marshalScored(j.FilteredGrants); err != nil {
		return rec, fmt.Errorf("encode filtered grants: %w", err)
	}
	if rec.rag, err = marshalScored(j.RagGrants); err != nil {
		return rec, fmt.Errorf("encode rag grants: %w", err)
	}
	if j.AllGrants != nil {
		if rec.all, err = json.Marshal(j.AllGrants); err != nil {
			return rec, fmt.Errorf("encode all grants: %w", err)
		}
	}
	return rec, nil
}

func marshalScored(s []result.Scored) ([]byte, error) {
	if s == nil {
		s = []result.Scored{}
	}
	return json.Marshal(s)
}

func (r *Repo) scan(row pgx.Row) (*job.SearchJob, error) {
	var (
		j                 job.SearchJob
		status, ragStatus string
		filters, filtered []byte
		rag, all          []byte
		errText           *string
		createdAt         time.Time
	)
	if err := row.Scan(&j.ID, &status, &ragStatus, &j.Query, &j.Fingerprint,
		&filters, &filtered, &rag, &all, &errText, &createdAt, &j.CompletedAt); err != nil {
		return nil, err
	}
	j.Status = job.Status(status)
	j.RagStatus = job.RagStatus(ragStatus)
	j.CreatedAt = createdAt.UTC()
	if errText != nil {
		j.Error = *errText
	}
	if err := json.Unmarshal(filters, &j.Filters); err != nil {
		return nil, fmt.Errorf("decode filters: %w", err)
	}
	if err := json.Unmarshal(filtered, &j.FilteredGrants); err != nil {
		return nil, fmt.Errorf("decode filtered grants: %w", err)
	}
	if err := json.Unmarshal(rag, &j.RagGrants); err != nil {
		return nil, fmt.Errorf("decode rag grants: %w", err)
	}
	if len(all) > 0 {
		if err := json.Unmarshal(all, &j.AllGrants); err != nil {
			return nil, fmt.Errorf("decode all grants: %w", err)
		}
	}
	if j.CompletedAt != nil {
		t := j.CompletedAt.UTC()
		j.CompletedAt = &t
	}
	return &j, nil
}

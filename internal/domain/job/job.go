// Package job models the async search job that carries slow semantic results.
//
// A job is created with filtered results already in hand, then advanced by the
// background stage: partial/pending -> partial/in_progress -> completed|error.
// Once the rag stage is terminal the job rejects further mutation.
package job

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/grantmatch/internal/domain"
	"github.com/kailas-cloud/grantmatch/internal/domain/search/result"
)

// Status is the overall completeness of a job.
type Status string

// Job status constants.
const (
	StatusPartial    Status = "partial"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// RagStatus is the state of the background semantic stage.
type RagStatus string

// Rag status constants.
const (
	RagPending    RagStatus = "pending"
	RagInProgress RagStatus = "in_progress"
	RagCompleted  RagStatus = "completed"
	RagError      RagStatus = "error"
)

// IsTerminal reports whether the rag stage finished.
func (s RagStatus) IsTerminal() bool {
	return s == RagCompleted || s == RagError
}

// Filters are the structured filters resolved for the job's query.
type Filters struct {
	Category string `json:"category,omitempty"`
	Agency   string `json:"agency,omitempty"`
}

// SearchJob is the persisted record polled by clients.
type SearchJob struct {
	ID             uuid.UUID       `json:"jobId"`
	Status         Status          `json:"status"`
	RagStatus      RagStatus       `json:"ragStatus"`
	Query          string          `json:"query"`
	Fingerprint    string          `json:"-"`
	Filters        Filters         `json:"filters"`
	FilteredGrants []result.Scored `json:"filteredGrants"`
	RagGrants      []result.Scored `json:"ragGrants"`
	AllGrants      []result.Scored `json:"allGrants,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	CompletedAt    *time.Time      `json:"completedAt,omitempty"`
	Error          string          `json:"error,omitempty"`
}

// New creates a job in the partial/pending state.
func New(query string, filters Filters, filtered []result.Scored, now time.Time) *SearchJob {
	if filtered == nil {
		filtered = []result.Scored{}
	}
	return &SearchJob{
		ID:             uuid.New(),
		Status:         StatusPartial,
		RagStatus:      RagPending,
		Query:          query,
		Fingerprint:    Fingerprint(query, filters),
		Filters:        filters,
		FilteredGrants: filtered,
		RagGrants:      []result.Scored{},
		CreatedAt:      now.UTC(),
	}
}

// Fingerprint identifies equivalent semantic runs.
func Fingerprint(query string, filters Filters) string {
	q := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	return q + "|" + strings.ToLower(filters.Category) + "|" + strings.ToLower(filters.Agency)
}

// IsTerminal reports whether the job accepts no further transitions.
func (j *SearchJob) IsTerminal() bool { return j.RagStatus.IsTerminal() }

// Start marks the semantic stage as running.
func (j *SearchJob) Start() error {
	if j.IsTerminal() {
		return fmt.Errorf("start job %s: %w", j.ID, domain.ErrJobTerminal)
	}
	j.RagStatus = RagInProgress
	return nil
}

// Complete records semantic results and the merged result set.
func (j *SearchJob) Complete(rag, all []result.Scored, now time.Time) error {
	if j.IsTerminal() {
		return fmt.Errorf("complete job %s: %w", j.ID, domain.ErrJobTerminal)
	}
	if rag == nil {
		rag = []result.Scored{}
	}
	if all == nil {
		all = []result.Scored{}
	}
	t := now.UTC()
	j.RagStatus = RagCompleted
	j.Status = StatusCompleted
	j.RagGrants = rag
	j.AllGrants = all
	j.CompletedAt = &t
	return nil
}

// Fail records the stage error.
func (j *SearchJob) Fail(cause error, now time.Time) error {
	if j.IsTerminal() {
		return fmt.Errorf("fail job %s: %w", j.ID, domain.ErrJobTerminal)
	}
	t := now.UTC()
	j.RagStatus = RagError
	j.Status = StatusError
	j.CompletedAt = &t
	if cause != nil {
		j.Error = cause.Error()
	}
	return nil
}

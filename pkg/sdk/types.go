package sdk

import (
	"time"

	"github.com/google/uuid"
)

// Rag status values of a search job.
const (
	RagPending    = "pending"
	RagInProgress = "in_progress"
	RagCompleted  = "completed"
	RagError      = "error"
)

// Grant is one ranked grant.
type Grant struct {
	Name   string  `json:"name"`
	Score  float64 `json:"score"`
	Source string  `json:"source"`
	Reason string  `json:"reason"`
}

// SearchResponse is the answer of POST /search.
type SearchResponse struct {
	Results      []Grant `json:"results"`
	Query        string  `json:"query"`
	SearchTimeMs float64 `json:"searchTimeMs"`
}

// Filters are the structured filters applied to a query.
type Filters struct {
	Category string `json:"category,omitempty"`
	Agency   string `json:"agency,omitempty"`
}

// SearchJob is the polled record of an async semantic search.
type SearchJob struct {
	JobID          uuid.UUID  `json:"jobId"`
	Status         string     `json:"status"`
	RagStatus      string     `json:"ragStatus"`
	Query          string     `json:"query"`
	Filters        Filters    `json:"filters"`
	FilteredGrants []Grant    `json:"filteredGrants"`
	RagGrants      []Grant    `json:"ragGrants"`
	AllGrants      []Grant    `json:"allGrants,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	Error          string     `json:"error,omitempty"`
}

// Terminal reports whether the semantic stage finished.
func (j *SearchJob) Terminal() bool {
	return j.RagStatus == RagCompleted || j.RagStatus == RagError
}

// Preferences refine a recommendation request.
type Preferences struct {
	Agency   string `json:"agency,omitempty"`
	Category string `json:"category,omitempty"`
	NofoID   string `json:"nofoId,omitempty"`
}

// SimilarGrant is one grant resembling a target grant.
type SimilarGrant struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Similarity       float64  `json:"similarity"`
	MatchingCriteria []string `json:"matchingCriteria"`
}

// RecommendResponse is the answer of POST /recommendations.
// JobID is set when semantic results arrive later through a search job.
type RecommendResponse struct {
	Grants          []Grant        `json:"grants"`
	SearchMethod    string         `json:"searchMethod"`
	ToolUsed        string         `json:"toolUsed,omitempty"`
	Filters         *Filters       `json:"filters,omitempty"`
	JobID           *uuid.UUID     `json:"jobId,omitempty"`
	RagStatus       string         `json:"ragStatus,omitempty"`
	TargetNofo      string         `json:"targetNofo,omitempty"`
	Recommendations []SimilarGrant `json:"recommendations,omitempty"`
}

// SimilarResponse is the answer of POST /grant-recommendations.
type SimilarResponse struct {
	TargetNofo      string         `json:"targetNofo"`
	Recommendations []SimilarGrant `json:"recommendations"`
}

// Health is the answer of GET /health.
type Health struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

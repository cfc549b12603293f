package chi

import (
	"github.com/google/uuid"

	"github.com/kailas-cloud/grantmatch/internal/domain/job"
	"github.com/kailas-cloud/grantmatch/internal/domain/search/result"
	"github.com/kailas-cloud/grantmatch/internal/usecase/similar"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest       = "bad_request"
	CodeValidationFailed = "validation_failed"
	CodeNotFound         = "not_found"
	CodeNotConfigured    = "not_configured"
	CodeDependencyError  = "dependency_error"
	CodeInternalError    = "internal_error"
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type searchRequest struct {
	Query string `json:"query"`
}

type searchResponse struct {
	Results      []result.Scored `json:"results"`
	Query        string          `json:"query"`
	SearchTimeMs float64         `json:"searchTimeMs"`
}

type userPreferences struct {
	Agency   string `json:"agency,omitempty"`
	Category string `json:"category,omitempty"`
	NofoID   string `json:"nofoId,omitempty"`
}

type recommendRequest struct {
	Query           string           `json:"query"`
	UserPreferences *userPreferences `json:"userPreferences,omitempty"`
}

type recommendResponse struct {
	Grants          []result.Scored       `json:"grants"`
	SearchMethod    string                `json:"searchMethod"`
	ToolUsed        string                `json:"toolUsed,omitempty"`
	Filters         *job.Filters          `json:"filters,omitempty"`
	JobID           *uuid.UUID            `json:"jobId,omitempty"`
	RagStatus       job.RagStatus         `json:"ragStatus,omitempty"`
	TargetNofo      string                `json:"targetNofo,omitempty"`
	Recommendations []similar.Recommended `json:"recommendations,omitempty"`
}

type grantRecommendationsRequest struct {
	NofoID string `json:"nofoId"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

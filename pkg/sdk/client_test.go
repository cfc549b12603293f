package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNew_InvalidURL(t *testing.T) {
	for _, u := range []string{"", "localhost:8080", "://bad"} {
		if _, err := New(u); err == nil {
			t.Errorf("New(%q): expected error", u)
		}
	}
}

func TestSearch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/search" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["query"] != "broadband" {
			t.Errorf("query = %q", body["query"])
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"results":      []map[string]any{{"name": "g1", "score": 0.9, "source": "hybrid", "reason": "keyword"}},
			"query":        "broadband",
			"searchTimeMs": 12.5,
		})
	})

	resp, err := c.Search(context.Background(), "broadband")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Name != "g1" || resp.SearchTimeMs != 12.5 {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestRecommend_SendsPreferences(t *testing.T) {
	id := uuid.New()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Query           string       `json:"query"`
			UserPreferences *Preferences `json:"userPreferences"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.UserPreferences == nil || body.UserPreferences.Agency != "HRSA" {
			t.Errorf("preferences not sent: %+v", body)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"grants":       []any{},
			"searchMethod": "semantic",
			"jobId":        id.String(),
			"ragStatus":    "pending",
		})
	})

	resp, err := c.Recommend(context.Background(), "rural clinics", &Preferences{Agency: "HRSA"})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if resp.JobID == nil || *resp.JobID != id || resp.RagStatus != RagPending {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestAPIError_MapsSentinels(t *testing.T) {
	tests := []struct {
		status int
		code   string
		want   error
	}{
		{http.StatusBadRequest, "validation_failed", ErrValidation},
		{http.StatusNotFound, "not_found", ErrNotFound},
		{http.StatusInternalServerError, "not_configured", ErrNotConfigured},
		{http.StatusBadGateway, "dependency_error", ErrDependency},
	}
	for _, tt := range tests {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, tt.status, map[string]string{"code": tt.code, "message": "nofoId: is required"})
		})
		_, err := c.SimilarGrants(context.Background(), "")
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.code, tt.want, err)
		}
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != tt.status {
			t.Errorf("%s: expected APIError with status %d, got %v", tt.code, tt.status, err)
		}
	}
}

func TestHealth_DegradedStillReturnsReport(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "degraded",
			"checks": map[string]string{"postgres": "error"},
		})
	})

	h, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if h.Status != "degraded" || h.Checks["postgres"] != "error" {
		t.Errorf("unexpected report %+v", h)
	}
}

func TestClient_WithObservability(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"results": []any{}, "query": "zz"})
	}, WithLogger(slog.Default()), WithPrometheus(reg))

	if _, err := c.Search(context.Background(), "zz"); err != nil {
		t.Fatalf("Search: %v", err)
	}

	count, err := testutil.GatherAndCount(reg, "grantmatch_sdk_operations_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 series, got %d", count)
	}
}

func TestClient_PrometheusReuse(t *testing.T) {
	reg := prometheus.NewRegistry()
	for i := 0; i < 2; i++ {
		if _, err := New("http://localhost:8080", WithPrometheus(reg)); err != nil {
			t.Fatalf("New #%d: %v", i, err)
		}
	}
}

// Package result holds the transient scored search hit shared by every ranking stage.
package result

import "math"

// Source names the stage that produced a result.
type Source string

// Result provenance constants.
const (
	Hybrid   Source = "hybrid"
	Category Source = "category"
	Agency   Source = "agency"
	DBFilter Source = "db_filter"
	RAG      Source = "rag"
)

// Scored is a single ranked grant.
type Scored struct {
	Name   string  `json:"name"`
	Score  float64 `json:"score"`
	Source Source  `json:"source"`
	Reason string  `json:"reason"`
}

// New creates a scored result.
func New(name string, score float64, source Source, reason string) Scored {
	return Scored{Name: name, Score: score, Source: source, Reason: reason}
}

// Round2 rounds a score to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Names returns the grant names in order.
func Names(rs []Scored) []string {
	out := make([]string, len(rs))
	for i := range rs {
		out[i] = rs[i].Name
	}
	return out
}

// Hit is one raw index match before fusion; Location is the chunk's source document path.
type Hit struct {
	Location string
	Score    float64
}

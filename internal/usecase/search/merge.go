package search

import (
	"sort"

	"github.com/kailas-cloud/grantmatch/internal/domain/grant"
	"github.com/kailas-cloud/grantmatch/internal/domain/job"
	"github.com/kailas-cloud/grantmatch/internal/domain/search/result"
)

// FilterScore is the fixed confidence of a structured filter match.
const FilterScore = 1.0

// Table is the dedup table of grant identifier to best-seen result.
// A row keeps the position of its first insertion; ranking ties resolve by that position.
type Table struct {
	pos  map[string]int
	rows []result.Scored
}

// NewTable creates an empty dedup table.
func NewTable() *Table {
	return &Table{pos: make(map[string]int)}
}

// Upsert inserts r or, if the grant is already present, keeps the higher score.
func (t *Table) Upsert(r result.Scored) {
	if i, ok := t.pos[r.Name]; ok {
		if r.Score > t.rows[i].Score {
			t.rows[i] = r
		}
		return
	}
	t.pos[r.Name] = len(t.rows)
	t.rows = append(t.rows, r)
}

// AddIfAbsent inserts r only when the grant is not present yet.
func (t *Table) AddIfAbsent(r result.Scored) bool {
	if _, ok := t.pos[r.Name]; ok {
		return false
	}
	t.pos[r.Name] = len(t.rows)
	t.rows = append(t.rows, r)
	return true
}

// Has reports whether the grant is present.
func (t *Table) Has(name string) bool {
	_, ok := t.pos[name]
	return ok
}

// Len returns the number of distinct grants.
func (t *Table) Len() int { return len(t.rows) }

// Ranked returns rows by descending score, ties in insertion order.
func (t *Table) Ranked() []result.Scored {
	out := make([]result.Scored, len(t.rows))
	copy(out, t.rows)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// Merge folds hybrid results and category/agency filter matches into one ranking.
// Filter matches enter at FilterScore and never replace a hybrid entry.
func Merge(hybrid []result.Scored, categoryMatches, agencyMatches []grant.Grant, filters job.Filters) []result.Scored {
	t := NewTable()
	for _, r := range hybrid {
		t.Upsert(r)
	}
	AddGrants(t, categoryMatches, result.Category, "Category: "+categoryLabel(categoryMatches, filters.Category))
	AddGrants(t, agencyMatches, result.Agency, "Agency: "+agencyLabel(agencyMatches, filters.Agency))
	return t.Ranked()
}

// AddGrants inserts absent grants at FilterScore with a fixed reason.
func AddGrants(t *Table, gs []grant.Grant, source result.Source, reason string) {
	for i := range gs {
		t.AddIfAbsent(result.New(gs[i].Name(), FilterScore, source, reason))
	}
}

func categoryLabel(gs []grant.Grant, fallback string) string {
	if fallback != "" || len(gs) == 0 {
		return fallback
	}
	return string(gs[0].Category())
}

func agencyLabel(gs []grant.Grant, fallback string) string {
	if fallback != "" || len(gs) == 0 {
		return fallback
	}
	return gs[0].Agency()
}

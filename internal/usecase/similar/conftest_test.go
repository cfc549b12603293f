package similar

import (
	"context"
	"errors"
	"sort"

	"github.com/kailas-cloud/grantmatch/internal/domain"
	"github.com/kailas-cloud/grantmatch/internal/domain/grant"
)

var errUnreadable = errors.New("corrupt document")

// mapStore serves summaries from memory; ids in broken fail to read.
type mapStore struct {
	docs   map[string]*grant.Summary
	broken map[string]bool
	idsErr error
}

func (m *mapStore) IDs(context.Context) ([]string, error) {
	if m.idsErr != nil {
		return nil, m.idsErr
	}
	ids := make([]string, 0, len(m.docs)+len(m.broken))
	for id := range m.docs {
		ids = append(ids, id)
	}
	for id := range m.broken {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *mapStore) Get(_ context.Context, id string) (*grant.Summary, error) {
	if m.broken[id] {
		return nil, errUnreadable
	}
	s, ok := m.docs[id]
	if !ok {
		return nil, domain.ErrGrantNotFound
	}
	return s, nil
}

func summary(name string, eligibility ...string) *grant.Summary {
	s := &grant.Summary{GrantName: name}
	for _, e := range eligibility {
		s.EligibilityCriteria = append(s.EligibilityCriteria, grant.Criterion{Item: e})
	}
	return s
}

// Package similar recommends grants whose summary terms overlap a target grant's.
package similar

import (
	"strings"
	"unicode"

	"github.com/kailas-cloud/grantmatch/internal/domain/grant"
)

// minTermLength is the shortest kept token, in runes.
const minTermLength = 4

var stopWords = map[string]bool{
	"about": true, "above": true, "after": true, "also": true, "among": true, "been": true,
	"before": true, "being": true, "between": true, "both": true, "could": true, "does": true,
	"during": true, "each": true, "either": true, "from": true, "have": true, "having": true,
	"here": true, "into": true, "itself": true, "just": true, "many": true, "more": true,
	"most": true, "much": true, "must": true, "only": true, "other": true, "over": true,
	"same": true, "shall": true, "should": true, "some": true, "such": true, "than": true,
	"that": true, "their": true, "them": true, "then": true, "there": true, "these": true,
	"they": true, "this": true, "those": true, "through": true, "under": true, "until": true,
	"upon": true, "very": true, "were": true, "what": true, "when": true, "where": true,
	"which": true, "while": true, "will": true, "with": true, "within": true, "without": true,
	"would": true, "your": true,
}

// Terms is an ordered set of significant terms.
type Terms struct {
	order []string
	set   map[string]struct{}
}

// ExtractTerms builds the term set of a summary from its eligibility and narrative texts.
func ExtractTerms(s *grant.Summary) Terms {
	if s == nil {
		return ExtractText()
	}
	return ExtractText(s.TermSources()...)
}

// ExtractText tokenizes texts in order into one term set.
func ExtractText(texts ...string) Terms {
	t := Terms{set: make(map[string]struct{})}
	for _, text := range texts {
		for _, w := range strings.Fields(stripPunct(strings.ToLower(text))) {
			if len([]rune(w)) < minTermLength || stopWords[w] {
				continue
			}
			if _, ok := t.set[w]; ok {
				continue
			}
			t.set[w] = struct{}{}
			t.order = append(t.order, w)
		}
	}
	return t
}

func stripPunct(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return -1
		}
		return r
	}, s)
}

// Len returns the number of distinct terms.
func (t Terms) Len() int { return len(t.order) }

// Has reports whether term is in the set.
func (t Terms) Has(term string) bool {
	_, ok := t.set[term]
	return ok
}

// List returns the terms in first-seen order.
func (t Terms) List() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Jaccard is |a ∩ b| / |a ∪ b|; it is 0 when either set is empty.
func Jaccard(a, b Terms) float64 {
	if a.Len() == 0 || b.Len() == 0 {
		return 0
	}
	small, large := a, b
	if small.Len() > large.Len() {
		small, large = large, small
	}
	inter := 0
	for _, w := range small.order {
		if large.Has(w) {
			inter++
		}
	}
	union := a.Len() + b.Len() - inter
	return float64(inter) / float64(union)
}

// Shared returns up to limit terms of target that also occur in other, in target order.
func Shared(target, other Terms, limit int) []string {
	out := make([]string, 0, min(limit, target.Len()))
	for _, w := range target.order {
		if len(out) == limit {
			break
		}
		if other.Has(w) {
			out = append(out, w)
		}
	}
	return out
}

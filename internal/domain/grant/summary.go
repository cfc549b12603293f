package grant

// Criterion is one eligibility item or narrative section of a summary.
type Criterion struct {
	Item        string `json:"item"`
	Description string `json:"description"`
}

// Summary is the structured extraction of a grant's NOFO document.
// Keys follow the extraction document format, mixing PascalCase and camelCase.
type Summary struct {
	GrantName                string      `json:"GrantName"`
	EligibilityCriteria      []Criterion `json:"EligibilityCriteria"`
	ProjectNarrativeSections []Criterion `json:"ProjectNarrativeSections"`
	KeyDeadlines             []Criterion `json:"KeyDeadlines,omitempty"`
	Status                   Status      `json:"status,omitempty"`
	IsPinned                 bool        `json:"isPinned,omitempty"`
}

// TermSources returns the item and description texts used for similarity.
// Eligibility criteria come first, then narrative sections.
func (s *Summary) TermSources() []string {
	out := make([]string, 0, 2*(len(s.EligibilityCriteria)+len(s.ProjectNarrativeSections)))
	for _, c := range s.EligibilityCriteria {
		out = append(out, c.Item, c.Description)
	}
	for _, c := range s.ProjectNarrativeSections {
		out = append(out, c.Item, c.Description)
	}
	return out
}

// Package grant models funding opportunities and their extracted summaries.
package grant

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a grant.
type Status string

// Grant status constants.
const (
	Active   Status = "active"
	Archived Status = "archived"
)

// IsValid checks if the status is one of the supported values.
func (s Status) IsValid() bool {
	return s == Active || s == Archived
}

// Category is the closed funding category enum.
type Category string

// Known funding categories.
const (
	Research             Category = "Research"
	Evaluation           Category = "Evaluation"
	Education            Category = "Education"
	Training             Category = "Training"
	Health               Category = "Health"
	CommunityDevelopment Category = "Community Development"
	Environment          Category = "Environment"
	Infrastructure       Category = "Infrastructure"
	Technology           Category = "Technology"
	ArtsAndCulture       Category = "Arts and Culture"
	SocialServices       Category = "Social Services"
	EconomicDevelopment  Category = "Economic Development"
	PublicSafety         Category = "Public Safety"
	Agriculture          Category = "Agriculture"
	CapacityBuilding     Category = "Capacity Building"
	Other                Category = "Other"
)

var categories = []Category{
	Research, Evaluation, Education, Training, Health, CommunityDevelopment,
	Environment, Infrastructure, Technology, ArtsAndCulture, SocialServices,
	EconomicDevelopment, PublicSafety, Agriculture, CapacityBuilding, Other,
}

// Categories returns the closed category list in declaration order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// IsValid checks if the category belongs to the closed enum.
func (c Category) IsValid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

// Grant is the searchable metadata of one funding opportunity.
// Name doubles as the grant identifier and the folder segment of its chunk locations.
type Grant struct {
	name      string
	status    Status
	pinned    bool
	agency    string
	category  Category
	expiresAt time.Time
}

// New creates a validated grant.
func New(name string, status Status, pinned bool, agency string, category Category, expiresAt time.Time) (Grant, error) {
	if name == "" {
		return Grant{}, fmt.Errorf("grant name is required")
	}
	if !status.IsValid() {
		return Grant{}, fmt.Errorf("invalid grant status %q", status)
	}
	if category != "" && !category.IsValid() {
		return Grant{}, fmt.Errorf("invalid grant category %q", category)
	}
	return Grant{
		name: name, status: status, pinned: pinned,
		agency: agency, category: category, expiresAt: expiresAt,
	}, nil
}

// Name returns the grant identifier.
func (g *Grant) Name() string { return g.name }

// Status returns the lifecycle state.
func (g *Grant) Status() Status { return g.status }

// Pinned reports whether the grant is promoted in listings.
func (g *Grant) Pinned() bool { return g.pinned }

// Agency returns the free-text funding agency.
func (g *Grant) Agency() string { return g.agency }

// Category returns the funding category.
func (g *Grant) Category() Category { return g.category }

// ExpiresAt returns the expiration time; zero means unknown.
func (g *Grant) ExpiresAt() time.Time { return g.expiresAt }

// IsActive reports whether the grant appears in search listings.
func (g *Grant) IsActive() bool { return g.status == Active }

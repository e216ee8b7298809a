package domain

import (
	"context"
	"fmt"
	"time"
)

// Profile is the role-specific document a user owns. The set of
// implementations is closed: *Company, *CraftProvider and *Craftworker.
type Profile interface {
	ProfileRole() Role
	OwnerUserID() string
	isProfile()
}

// ProfileFor returns an empty profile of the shape selected by role.
func ProfileFor(role Role) (Profile, error) {
	switch role {
	case RoleCompany:
		return &Company{}, nil
	case RoleProvider:
		return &CraftProvider{}, nil
	case RoleCraftworker:
		return &Craftworker{}, nil
	}
	return nil, Validation(fmt.Sprintf("unknown role %q", role))
}

// Company is the profile of a hiring company
type Company struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	CompanyName   string    `json:"companyName"`
	Industry      string    `json:"industry,omitempty"`
	Location      string    `json:"location"`
	ContactPerson string    `json:"contactPerson"`
	Phone         string    `json:"phone"`
	Description   string    `json:"description,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (c *Company) ProfileRole() Role   { return RoleCompany }
func (c *Company) OwnerUserID() string { return c.UserID }
func (c *Company) isProfile()          {}

// RosterStatus is the state of a craftworker inside a provider's roster
type RosterStatus string

const (
	RosterActive   RosterStatus = "active"
	RosterInactive RosterStatus = "inactive"
)

// Valid reports whether s is active or inactive
func (s RosterStatus) Valid() bool {
	return s == RosterActive || s == RosterInactive
}

// RosterEntry links a craftworker to a provider's roster
type RosterEntry struct {
	CraftsmanID string       `json:"craftsmanId"`
	AddedAt     time.Time    `json:"addedAt"`
	Status      RosterStatus `json:"status"`
}

// CraftProvider is the profile of a staffing agency. Roster holds each
// craftsman id at most once, ordered by AddedAt.
type CraftProvider struct {
	ID            string        `json:"id"`
	UserID        string        `json:"userId"`
	CompanyName   string        `json:"companyName"`
	Location      string        `json:"location"`
	ContactPerson string        `json:"contactPerson"`
	Phone         string        `json:"phone"`
	Description   string        `json:"description,omitempty"`
	Roster        []RosterEntry `json:"roster"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

func (p *CraftProvider) ProfileRole() Role   { return RoleProvider }
func (p *CraftProvider) OwnerUserID() string { return p.UserID }
func (p *CraftProvider) isProfile()          {}

// Entry returns the roster entry for craftworkerID
func (p *CraftProvider) Entry(craftworkerID string) (RosterEntry, bool) {
	for _, e := range p.Roster {
		if e.CraftsmanID == craftworkerID {
			return e, true
		}
	}
	return RosterEntry{}, false
}

// HasActiveMember reports whether craftworkerID is on the roster with status active
func (p *CraftProvider) HasActiveMember(craftworkerID string) bool {
	e, ok := p.Entry(craftworkerID)
	return ok && e.Status == RosterActive
}

// ActiveRosterCount counts active roster entries
func (p *CraftProvider) ActiveRosterCount() int {
	n := 0
	for _, e := range p.Roster {
		if e.Status == RosterActive {
			n++
		}
	}
	return n
}

// RosterIDs returns the craftsman ids on the roster in roster order
func (p *CraftProvider) RosterIDs() []string {
	ids := make([]string, 0, len(p.Roster))
	for _, e := range p.Roster {
		ids = append(ids, e.CraftsmanID)
	}
	return ids
}

// Location is a craftworker's home base
type Location struct {
	City  string `json:"city"`
	State string `json:"state"`
}

// Craftworker is the profile of an individual tradesperson.
// IsIndependent is true exactly when ProviderID is nil.
type Craftworker struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	FullName       string    `json:"fullName"`
	Phone          string    `json:"phone"`
	Location       Location  `json:"location"`
	Skills         []string  `json:"skills"`
	Experience     string    `json:"experience"`
	Certifications []string  `json:"certifications"`
	Bio            string    `json:"bio,omitempty"`
	ProfilePicture string    `json:"profilePicture,omitempty"`
	ProviderID     *string   `json:"providerId"`
	IsIndependent  bool      `json:"isIndependent"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (c *Craftworker) ProfileRole() Role   { return RoleCraftworker }
func (c *Craftworker) OwnerUserID() string { return c.UserID }
func (c *Craftworker) isProfile()          {}

// FullLocation renders "city, state"
func (c *Craftworker) FullLocation() string {
	return c.Location.City + ", " + c.Location.State
}

// SetProvider records an affiliation; nil makes the craftworker independent.
func (c *Craftworker) SetProvider(providerID *string) {
	if providerID == nil || *providerID == "" {
		c.ProviderID = nil
		c.IsIndependent = true
		return
	}
	id := *providerID
	c.ProviderID = &id
	c.IsIndependent = false
}

// AffiliatedWith reports whether the craftworker currently points at providerID
func (c *Craftworker) AffiliatedWith(providerID string) bool {
	return c.ProviderID != nil && *c.ProviderID == providerID
}

// CompanyRepository defines data access for company profiles
type CompanyRepository interface {
	Create(ctx context.Context, company *Company) error
	GetByID(ctx context.Context, id string) (*Company, error)
	GetByUserID(ctx context.Context, userID string) (*Company, error)
	Update(ctx context.Context, company *Company) error
}

// ProviderRepository defines data access for provider profiles and rosters
type ProviderRepository interface {
	Create(ctx context.Context, provider *CraftProvider) error
	GetByID(ctx context.Context, id string) (*CraftProvider, error)
	GetByUserID(ctx context.Context, userID string) (*CraftProvider, error)
	// GetForUpdate loads the provider and holds a write lock on it until
	// the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id string) (*CraftProvider, error)
	// Update writes profile fields only; the roster is changed through the
	// roster methods below.
	Update(ctx context.Context, provider *CraftProvider) error
	AddRosterEntry(ctx context.Context, providerID string, entry RosterEntry) error
	RemoveRosterEntry(ctx context.Context, providerID, craftworkerID string) error
	SetRosterStatus(ctx context.Context, providerID, craftworkerID string, status RosterStatus) error
	List(ctx context.Context) ([]*CraftProvider, error)
}

// CraftworkerSearch filters craftworkers for roster recruiting
type CraftworkerSearch struct {
	Name       string
	Location   string
	Skills     []string
	ExcludeIDs []string
	Offset     int
	Limit      int
}

// CraftworkerRepository defines data access for craftworker profiles
type CraftworkerRepository interface {
	Create(ctx context.Context, craftworker *Craftworker) error
	GetByID(ctx context.Context, id string) (*Craftworker, error)
	GetByUserID(ctx context.Context, userID string) (*Craftworker, error)
	GetForUpdate(ctx context.Context, id string) (*Craftworker, error)
	// Update writes profile fields only; affiliation is changed with SetAffiliation.
	Update(ctx context.Context, craftworker *Craftworker) error
	// SetAffiliation sets providerId and isIndependent together.
	SetAffiliation(ctx context.Context, id string, providerID *string) error
	Search(ctx context.Context, q CraftworkerSearch) ([]*Craftworker, int, error)
	List(ctx context.Context) ([]*Craftworker, error)
}

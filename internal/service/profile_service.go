package service

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/aryan0dhankhar/crafthire/internal/domain"
	"github.com/aryan0dhankhar/crafthire/internal/observability/tracing"
	"github.com/aryan0dhankhar/crafthire/internal/validation"
)

// CompanyFields are the editable fields of a company or provider profile.
// Providers ignore Industry.
type CompanyFields struct {
	CompanyName   string `json:"companyName" validate:"required,max=100"`
	Industry      string `json:"industry" validate:"max=50"`
	Location      string `json:"location" validate:"required,max=100"`
	ContactPerson string `json:"contactPerson" validate:"required,max=50"`
	Phone         string `json:"phone" validate:"required,phone"`
	Description   string `json:"description" validate:"max=500"`
}

// LocationFields is a craftworker's city and state
type LocationFields struct {
	City  string `json:"city" validate:"required,max=60"`
	State string `json:"state" validate:"required,max=60"`
}

// CraftworkerFields are the editable fields of a craftworker profile.
// Affiliation is not among them.
type CraftworkerFields struct {
	FullName       string         `json:"fullName" validate:"required,max=80"`
	Phone          string         `json:"phone" validate:"required,phone"`
	Location       LocationFields `json:"location"`
	Skills         []string       `json:"skills" validate:"dive,max=50"`
	Experience     string         `json:"experience" validate:"required,max=200"`
	Certifications []string       `json:"certifications" validate:"dive,max=100"`
	Bio            string         `json:"bio" validate:"max=500"`
	ProfilePicture string         `json:"profilePicture"`
}

// CompanyPatch is a partial company or provider profile update; nil fields are kept
type CompanyPatch struct {
	CompanyName   *string `json:"companyName"`
	Industry      *string `json:"industry"`
	Location      *string `json:"location"`
	ContactPerson *string `json:"contactPerson"`
	Phone         *string `json:"phone"`
	Description   *string `json:"description"`
}

// LocationPatch updates city and state independently
type LocationPatch struct {
	City  *string `json:"city"`
	State *string `json:"state"`
}

// CraftworkerPatch is a partial craftworker profile update; nil fields are kept.
// It has no affiliation fields.
type CraftworkerPatch struct {
	FullName       *string        `json:"fullName"`
	Phone          *string        `json:"phone"`
	Location       *LocationPatch `json:"location"`
	Skills         *[]string      `json:"skills"`
	Experience     *string        `json:"experience"`
	Certifications *[]string      `json:"certifications"`
	Bio            *string        `json:"bio"`
	ProfilePicture *string        `json:"profilePicture"`
}

// ProfileService reads and edits the caller's own profile
type ProfileService struct {
	store    domain.Store
	validate *validation.Validator
	logger   *slog.Logger
}

// NewProfileService creates a new profile service
func NewProfileService(store domain.Store, validate *validation.Validator, logger *slog.Logger) *ProfileService {
	if logger == nil {
		logger = slog.Default()
	}
	if validate == nil {
		validate = validation.New()
	}
	return &ProfileService{store: store, validate: validate, logger: logger}
}

// Get returns the caller's profile in its role's shape
func (s *ProfileService) Get(ctx context.Context, caller domain.Caller) (domain.Profile, error) {
	switch caller.Role {
	case domain.RoleCompany:
		return companyOf(ctx, s.store, caller)
	case domain.RoleProvider:
		return providerOf(ctx, s.store, caller)
	case domain.RoleCraftworker:
		return craftworkerOf(ctx, s.store, caller)
	}
	return nil, domain.Forbidden("Invalid role")
}

// UpdateCompany applies patch to the caller's company profile
func (s *ProfileService) UpdateCompany(ctx context.Context, caller domain.Caller, patch CompanyPatch) (*domain.Company, error) {
	ctx, span := tracing.Start(ctx, "profile", "update_company", attribute.String("user.id", caller.UserID))
	var (
		out *domain.Company
		err error
	)
	defer func() { tracing.End(span, err) }()

	err = s.store.WithinTx(ctx, func(tx domain.Store) error {
		c, err := companyOf(ctx, tx, caller)
		if err != nil {
			return err
		}
		fields := CompanyFields{
			CompanyName:   c.CompanyName,
			Industry:      c.Industry,
			Location:      c.Location,
			ContactPerson: c.ContactPerson,
			Phone:         c.Phone,
			Description:   c.Description,
		}
		patch.apply(&fields, true)
		if err := s.validate.Struct(fields); err != nil {
			return err
		}
		fields.copyToCompany(c)
		if err := tx.Companies().Update(ctx, c); err != nil {
			return fmt.Errorf("failed to update company profile: %w", err)
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("company profile updated", slog.String("company_id", out.ID))
	return out, nil
}

// UpdateProvider applies patch to the caller's provider profile. The
// roster is not touched.
func (s *ProfileService) UpdateProvider(ctx context.Context, caller domain.Caller, patch CompanyPatch) (*domain.CraftProvider, error) {
	ctx, span := tracing.Start(ctx, "profile", "update_provider", attribute.String("user.id", caller.UserID))
	var (
		out *domain.CraftProvider
		err error
	)
	defer func() { tracing.End(span, err) }()

	err = s.store.WithinTx(ctx, func(tx domain.Store) error {
		p, err := providerOf(ctx, tx, caller)
		if err != nil {
			return err
		}
		fields := CompanyFields{
			CompanyName:   p.CompanyName,
			Location:      p.Location,
			ContactPerson: p.ContactPerson,
			Phone:         p.Phone,
			Description:   p.Description,
		}
		patch.apply(&fields, false)
		if err := s.validate.Struct(fields); err != nil {
			return err
		}
		p.CompanyName = fields.CompanyName
		p.Location = fields.Location
		p.ContactPerson = fields.ContactPerson
		p.Phone = fields.Phone
		p.Description = fields.Description
		if err := tx.Providers().Update(ctx, p); err != nil {
			return fmt.Errorf("failed to update provider profile: %w", err)
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("provider profile updated", slog.String("provider_id", out.ID))
	return out, nil
}

// UpdateCraftworker applies patch to the caller's craftworker profile.
// providerId and isIndependent are never changed here.
func (s *ProfileService) UpdateCraftworker(ctx context.Context, caller domain.Caller, patch CraftworkerPatch) (*domain.Craftworker, error) {
	ctx, span := tracing.Start(ctx, "profile", "update_craftworker", attribute.String("user.id", caller.UserID))
	var (
		out *domain.Craftworker
		err error
	)
	defer func() { tracing.End(span, err) }()

	err = s.store.WithinTx(ctx, func(tx domain.Store) error {
		c, err := craftworkerOf(ctx, tx, caller)
		if err != nil {
			return err
		}
		fields := craftworkerFieldsOf(c)
		patch.apply(&fields)
		if err := s.validate.Struct(fields); err != nil {
			return err
		}
		fields.copyTo(c)
		if err := tx.Craftworkers().Update(ctx, c); err != nil {
			return fmt.Errorf("failed to update craftworker profile: %w", err)
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("craftworker profile updated", slog.String("craftworker_id", out.ID))
	return out, nil
}

func (p CompanyPatch) apply(f *CompanyFields, withIndustry bool) {
	if p.CompanyName != nil {
		f.CompanyName = *p.CompanyName
	}
	if withIndustry && p.Industry != nil {
		f.Industry = *p.Industry
	}
	if p.Location != nil {
		f.Location = *p.Location
	}
	if p.ContactPerson != nil {
		f.ContactPerson = *p.ContactPerson
	}
	if p.Phone != nil {
		f.Phone = *p.Phone
	}
	if p.Description != nil {
		f.Description = *p.Description
	}
}

func (f CompanyFields) copyToCompany(c *domain.Company) {
	c.CompanyName = f.CompanyName
	c.Industry = f.Industry
	c.Location = f.Location
	c.ContactPerson = f.ContactPerson
	c.Phone = f.Phone
	c.Description = f.Description
}

func craftworkerFieldsOf(c *domain.Craftworker) CraftworkerFields {
	return CraftworkerFields{
		FullName:       c.FullName,
		Phone:          c.Phone,
		Location:       LocationFields{City: c.Location.City, State: c.Location.State},
		Skills:         c.Skills,
		Experience:     c.Experience,
		Certifications: c.Certifications,
		Bio:            c.Bio,
		ProfilePicture: c.ProfilePicture,
	}
}

// empty location parts are ignored, matching partial form submits
func (p CraftworkerPatch) apply(f *CraftworkerFields) {
	if p.FullName != nil {
		f.FullName = *p.FullName
	}
	if p.Phone != nil {
		f.Phone = *p.Phone
	}
	if p.Location != nil {
		if p.Location.City != nil && *p.Location.City != "" {
			f.Location.City = *p.Location.City
		}
		if p.Location.State != nil && *p.Location.State != "" {
			f.Location.State = *p.Location.State
		}
	}
	if p.Skills != nil {
		f.Skills = *p.Skills
	}
	if p.Experience != nil {
		f.Experience = *p.Experience
	}
	if p.Certifications != nil {
		f.Certifications = *p.Certifications
	}
	if p.Bio != nil {
		f.Bio = *p.Bio
	}
	if p.ProfilePicture != nil {
		f.ProfilePicture = *p.ProfilePicture
	}
}

func (f CraftworkerFields) copyTo(c *domain.Craftworker) {
	c.FullName = f.FullName
	c.Phone = f.Phone
	c.Location = domain.Location{City: f.Location.City, State: f.Location.State}
	c.Skills = nonEmpty(f.Skills)
	c.Experience = f.Experience
	c.Certifications = nonEmpty(f.Certifications)
	c.Bio = f.Bio
	c.ProfilePicture = f.ProfilePicture
}

// nonEmpty returns a non-nil slice so JSON renders [] instead of null
func nonEmpty(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

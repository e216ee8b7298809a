package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"

	"github.com/aryan0dhankhar/crafthire/internal/domain"
	"github.com/aryan0dhankhar/crafthire/internal/observability/tracing"
	"github.com/aryan0dhankhar/crafthire/internal/security/auth"
	"github.com/aryan0dhankhar/crafthire/internal/validation"
)

// AuthService handles authentication operations
type AuthService struct {
	store    domain.Store
	tokens   *auth.TokenManager
	validate *validation.Validator
	logger   *slog.Logger
	now      Clock
}

// NewAuthService creates a new authentication service
func NewAuthService(
	store domain.Store,
	tokens *auth.TokenManager,
	validate *validation.Validator,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	if validate == nil {
		validate = validation.New()
	}

	return &AuthService{
		store:    store,
		tokens:   tokens,
		validate: validate,
		logger:   logger,
		now:      utcNow,
	}
}

// RegisterInput is the registration payload. Profile fields are flat and
// only those belonging to Role are read.
type RegisterInput struct {
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=6"`
	Role     domain.Role `json:"role" validate:"required,oneof=company provider craftworker"`

	CompanyName   string `json:"companyName"`
	Industry      string `json:"industry"`
	Location      string `json:"location"`
	ContactPerson string `json:"contactPerson"`
	Description   string `json:"description"`

	FullName       string   `json:"fullName"`
	City           string   `json:"city"`
	State          string   `json:"state"`
	Skills         []string `json:"skills"`
	Experience     string   `json:"experience"`
	Certifications []string `json:"certifications"`
	Bio            string   `json:"bio"`

	Phone string `json:"phone"`
}

// AuthResult is returned by register, login and me
type AuthResult struct {
	User    *domain.User `json:"user"`
	Profile any          `json:"profile"`
	*auth.TokenPair
}

// Register creates a user and the profile for its role in one transaction
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	ctx, span := tracing.Start(ctx, "auth", "register", attribute.String("user.role", string(in.Role)))
	var err error
	defer func() { tracing.End(span, err) }()

	in.Email = normalizeEmail(in.Email)
	if err = s.validate.Struct(in); err != nil {
		return nil, err
	}

	profile, err := s.buildProfile(in)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         in.Role,
		IsActive:     true,
	}

	err = s.store.WithinTx(ctx, func(tx domain.Store) error {
		if _, err := tx.Users().GetByEmail(ctx, user.Email); err == nil {
			return domain.Conflict("User already exists with this email")
		} else if !domain.IsKind(err, domain.KindNotFound) {
			return err
		}

		if err := tx.Users().Create(ctx, user); err != nil {
			if domain.IsKind(err, domain.KindConflict) {
				return domain.Wrap(domain.KindConflict, "User already exists with this email", err)
			}
			return fmt.Errorf("failed to create user: %w", err)
		}
		return s.createProfile(ctx, tx, user, profile)
	})
	if err != nil {
		return nil, err
	}

	pair, err := s.tokens.GeneratePair(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	return &AuthResult{User: user, Profile: ViewOf(profile), TokenPair: &pair}, nil
}

// buildProfile validates the role's fields and returns an unsaved profile
func (s *AuthService) buildProfile(in RegisterInput) (domain.Profile, error) {
	switch in.Role {
	case domain.RoleCompany, domain.RoleProvider:
		fields := CompanyFields{
			CompanyName:   in.CompanyName,
			Location:      in.Location,
			ContactPerson: in.ContactPerson,
			Phone:         in.Phone,
			Description:   in.Description,
		}
		if in.Role == domain.RoleCompany {
			fields.Industry = in.Industry
		}
		if err := s.validate.Struct(fields); err != nil {
			return nil, err
		}
		if in.Role == domain.RoleProvider {
			return &domain.CraftProvider{
				ID:            uuid.NewString(),
				CompanyName:   fields.CompanyName,
				Location:      fields.Location,
				ContactPerson: fields.ContactPerson,
				Phone:         fields.Phone,
				Description:   fields.Description,
				Roster:        []domain.RosterEntry{},
			}, nil
		}
		c := &domain.Company{ID: uuid.NewString()}
		fields.copyToCompany(c)
		return c, nil

	case domain.RoleCraftworker:
		fields := CraftworkerFields{
			FullName:       in.FullName,
			Phone:          in.Phone,
			Location:       LocationFields{City: in.City, State: in.State},
			Skills:         in.Skills,
			Experience:     in.Experience,
			Certifications: in.Certifications,
			Bio:            in.Bio,
		}
		if err := s.validate.Struct(fields); err != nil {
			return nil, err
		}
		c := &domain.Craftworker{ID: uuid.NewString()}
		fields.copyTo(c)
		c.SetProvider(nil)
		return c, nil
	}
	return nil, domain.Validation("Invalid role")
}

func (s *AuthService) createProfile(ctx context.Context, tx domain.Store, user *domain.User, profile domain.Profile) error {
	var err error
	switch p := profile.(type) {
	case *domain.Company:
		p.UserID = user.ID
		err = tx.Companies().Create(ctx, p)
	case *domain.CraftProvider:
		p.UserID = user.ID
		err = tx.Providers().Create(ctx, p)
	case *domain.Craftworker:
		p.UserID = user.ID
		err = tx.Craftworkers().Create(ctx, p)
	default:
		err = domain.Validation("Invalid role")
	}
	if err != nil {
		return fmt.Errorf("failed to create %s profile: %w", user.Role, err)
	}
	return nil
}

// Login authenticates a user and returns a token pair
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	ctx, span := tracing.Start(ctx, "auth", "login")
	var err error
	defer func() { tracing.End(span, err) }()

	email = normalizeEmail(email)
	if email == "" || password == "" {
		err = domain.Validation("Email and password are required")
		return nil, err
	}

	user, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			s.logger.Info("login attempt with non-existent email", slog.String("email", email))
			err = domain.Unauthorized("Invalid credentials")
		}
		return nil, err
	}

	if !user.IsActive {
		s.logger.Info("login attempt on deactivated account", slog.String("user_id", user.ID))
		err = domain.Unauthorized("Account is deactivated")
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.logger.Info("login failed with wrong password", slog.String("user_id", user.ID))
		err = domain.Unauthorized("Invalid credentials")
		return nil, err
	}

	now := s.now()
	user.LastLogin = &now
	if err = s.store.Users().Update(ctx, user); err != nil {
		s.logger.Error("failed to record last login",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to record login: %w", err)
	}

	profile, err := loadProfile(ctx, s.store, user)
	if err != nil {
		return nil, err
	}

	pair, err := s.tokens.GeneratePair(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	return &AuthResult{User: user, Profile: ViewOf(profile), TokenPair: &pair}, nil
}

// Refresh exchanges a refresh token for a new pair. The user must still
// exist and be active.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	if refreshToken == "" {
		return nil, domain.Validation("Refresh token required")
	}

	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, domain.Wrap(domain.KindUnauthorized, "Invalid refresh token", err)
	}

	user, err := s.store.Users().GetByID(ctx, claims.UserID)
	if err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			return nil, domain.Wrap(domain.KindUnauthorized, "Invalid refresh token", err)
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.Unauthorized("Invalid refresh token")
	}

	pair, err := s.tokens.GeneratePair(user)
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

// Me returns the caller's user record and profile
func (s *AuthService) Me(ctx context.Context, caller domain.Caller) (*AuthResult, error) {
	user, err := s.store.Users().GetByID(ctx, caller.UserID)
	if err != nil {
		return nil, notFoundAs(err, "User not found")
	}
	profile, err := loadProfile(ctx, s.store, user)
	if err != nil && !domain.IsKind(err, domain.KindNotFound) {
		return nil, err
	}
	res := &AuthResult{User: user}
	if profile != nil {
		res.Profile = ViewOf(profile)
	}
	return res, nil
}

// ChangePassword changes the caller's password
func (s *AuthService) ChangePassword(ctx context.Context, caller domain.Caller, oldPassword, newPassword string) error {
	if err := s.validate.Var("newPassword", newPassword, "required,min=6"); err != nil {
		return err
	}

	user, err := s.store.Users().GetByID(ctx, caller.UserID)
	if err != nil {
		return notFoundAs(err, "User not found")
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)) != nil {
		return domain.Unauthorized("Current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash new password", slog.String("error", err.Error()))
		return fmt.Errorf("failed to change password: %w", err)
	}

	user.PasswordHash = string(hash)
	if err := s.store.Users().Update(ctx, user); err != nil {
		s.logger.Error("failed to update user password", slog.String("error", err.Error()))
		return fmt.Errorf("failed to change password: %w", err)
	}

	s.logger.Info("user changed password", slog.String("user_id", user.ID))
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

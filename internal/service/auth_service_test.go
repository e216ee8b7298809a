package service

import (
	"context"
	"testing"
	"time"

	"github.com/aryan0dhankhar/crafthire/internal/domain"
	"github.com/aryan0dhankhar/crafthire/internal/repository/memory"
	"github.com/aryan0dhankhar/crafthire/internal/security/auth"
)

func newAuthService(t *testing.T) (*AuthService, *memory.Store, *auth.TokenManager) {
	t.Helper()
	store := memory.NewStore()
	tm := auth.NewTokenManager("secret", "refresh-secret", "", time.Hour, 24*time.Hour)
	return NewAuthService(store, tm, nil, nil), store, tm
}

func craftworkerRegistration(email string) RegisterInput {
	return RegisterInput{
		Email:      email,
		Password:   "Password123",
		Role:       domain.RoleCraftworker,
		FullName:   "Kim Welder",
		Phone:      "+15551230000",
		City:       "Austin",
		State:      "TX",
		Skills:     []string{"Welding"},
		Experience: "5 years",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	s, store, tm := newAuthService(t)
	ctx := context.Background()

	// Register
	r, err := s.Register(ctx, craftworkerRegistration("Kim@Example.com"))
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if r.User.ID == "" || r.TokenPair == nil || r.AccessToken == "" || r.RefreshToken == "" {
		t.Fatalf("expected user id and tokens")
	}
	if r.User.Email != "kim@example.com" {
		t.Fatalf("expected normalized email, got %q", r.User.Email)
	}
	view, ok := r.Profile.(CraftworkerView)
	if !ok {
		t.Fatalf("expected craftworker profile view, got %T", r.Profile)
	}
	if !view.IsIndependent || view.ProviderID != nil || view.FullLocation != "Austin, TX" {
		t.Fatalf("unexpected profile %+v", view.Craftworker)
	}
	if _, err := store.Craftworkers().GetByUserID(ctx, r.User.ID); err != nil {
		t.Fatalf("profile not stored: %v", err)
	}

	claims, err := tm.ValidateAccessToken(r.AccessToken)
	if err != nil || claims.Role != domain.RoleCraftworker || claims.UserID != r.User.ID {
		t.Fatalf("unexpected claims %+v err=%v", claims, err)
	}

	// Duplicate email
	if _, err := s.Register(ctx, craftworkerRegistration("kim@example.com")); !domain.IsKind(err, domain.KindConflict) {
		t.Fatalf("expected duplicate email conflict, got %v", err)
	}

	// Login ok
	lr, err := s.Login(ctx, "kim@example.com", "Password123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if lr.AccessToken == "" || lr.User.LastLogin == nil {
		t.Fatalf("expected token and last login on login")
	}

	// Login wrong password
	if _, err := s.Login(ctx, "kim@example.com", "Wrong"); !domain.IsKind(err, domain.KindUnauthorized) {
		t.Fatalf("expected invalid credentials error, got %v", err)
	}
	if _, err := s.Login(ctx, "nobody@example.com", "Password123"); !domain.IsKind(err, domain.KindUnauthorized) {
		t.Fatalf("expected unknown email to be unauthorized, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	s, store, _ := newAuthService(t)
	ctx := context.Background()

	in := craftworkerRegistration("short@example.com")
	in.Password = "12345"
	if _, err := s.Register(ctx, in); !domain.IsKind(err, domain.KindValidation) {
		t.Fatalf("expected short password to fail validation, got %v", err)
	}

	in = craftworkerRegistration("nocity@example.com")
	in.City = ""
	if _, err := s.Register(ctx, in); !domain.IsKind(err, domain.KindValidation) {
		t.Fatalf("expected missing city to fail validation, got %v", err)
	}

	company := RegisterInput{
		Email:         "acme@example.com",
		Password:      "Password123",
		Role:          domain.RoleCompany,
		CompanyName:   "Acme",
		Location:      "Denver",
		ContactPerson: "Ann",
		Phone:         "not-a-phone",
	}
	if _, err := s.Register(ctx, company); !domain.IsKind(err, domain.KindValidation) {
		t.Fatalf("expected bad phone to fail validation, got %v", err)
	}

	// nothing was written
	if _, err := store.Users().GetByEmail(ctx, "acme@example.com"); !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected no user after failed registration, got %v", err)
	}
}

func TestLoginDeactivated(t *testing.T) {
	s, store, _ := newAuthService(t)
	ctx := context.Background()

	r, err := s.Register(ctx, craftworkerRegistration("idle@example.com"))
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	u, _ := store.Users().GetByID(ctx, r.User.ID)
	u.IsActive = false
	if err := store.Users().Update(ctx, u); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	_, err = s.Login(ctx, "idle@example.com", "Password123")
	if !domain.IsKind(err, domain.KindUnauthorized) || domain.MessageOf(err) != "Account is deactivated" {
		t.Fatalf("expected deactivated error, got %v", err)
	}
	if _, err := s.Refresh(ctx, r.RefreshToken); !domain.IsKind(err, domain.KindUnauthorized) {
		t.Fatalf("expected refresh to fail for inactive user, got %v", err)
	}
}

func TestRefreshAndMe(t *testing.T) {
	s, _, _ := newAuthService(t)
	ctx := context.Background()

	r, err := s.Register(ctx, RegisterInput{
		Email:         "agency@example.com",
		Password:      "Password123",
		Role:          domain.RoleProvider,
		CompanyName:   "Crew Co",
		Location:      "Dallas",
		ContactPerson: "Pat",
		Phone:         "15550001111",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if _, err := s.Refresh(ctx, r.AccessToken); !domain.IsKind(err, domain.KindUnauthorized) {
		t.Fatalf("expected access token to be rejected as refresh token, got %v", err)
	}
	pair, err := s.Refresh(ctx, r.RefreshToken)
	if err != nil || pair.AccessToken == "" {
		t.Fatalf("refresh failed: %v", err)
	}

	me, err := s.Me(ctx, domain.Caller{UserID: r.User.ID, Role: domain.RoleProvider})
	if err != nil {
		t.Fatalf("me failed: %v", err)
	}
	pv, ok := me.Profile.(ProviderView)
	if !ok || pv.CompanyName != "Crew Co" || pv.ActiveRosterCount != 0 {
		t.Fatalf("unexpected profile %#v", me.Profile)
	}
	if me.TokenPair != nil {
		t.Fatalf("me must not issue tokens")
	}
}

func TestChangePassword(t *testing.T) {
	s, _, _ := newAuthService(t)
	ctx := context.Background()
	reg, err := s.Register(ctx, craftworkerRegistration("bob@example.com"))
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	caller := domain.Caller{UserID: reg.User.ID, Role: domain.RoleCraftworker}

	// Wrong old password
	if err := s.ChangePassword(ctx, caller, "bad", "NewPass123"); err == nil {
		t.Fatalf("expected wrong old password error")
	}
	// Too short
	if err := s.ChangePassword(ctx, caller, "Password123", "123"); !domain.IsKind(err, domain.KindValidation) {
		t.Fatalf("expected short password error, got %v", err)
	}
	// Good change
	if err := s.ChangePassword(ctx, caller, "Password123", "NewPass123"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}
	// Old password should no longer work
	if _, err := s.Login(ctx, "bob@example.com", "Password123"); err == nil {
		t.Fatalf("expected old password to fail after change")
	}
	// New password works
	if _, err := s.Login(ctx, "bob@example.com", "NewPass123"); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
}

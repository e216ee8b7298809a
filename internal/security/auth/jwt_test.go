package auth

import (
	"testing"
	"time"

	"github.com/aryan0dhankhar/crafthire/internal/domain"
)

func testUser() *domain.User {
	return &domain.User{ID: "u-1", Email: "a@example.com", Role: domain.RoleProvider}
}

func TestPairRoundTrip(t *testing.T) {
	tm := NewTokenManager("access", "refresh", "", time.Hour, 24*time.Hour)
	pair, err := tm.GeneratePair(testUser())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if pair.ExpiresIn != 3600 {
		t.Fatalf("expected 3600s expiry, got %d", pair.ExpiresIn)
	}

	claims, err := tm.ValidateAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("validate access: %v", err)
	}
	if claims.Caller() != (domain.Caller{UserID: "u-1", Email: "a@example.com", Role: domain.RoleProvider}) {
		t.Fatalf("unexpected caller %+v", claims.Caller())
	}

	if _, err := tm.ValidateRefreshToken(pair.RefreshToken); err != nil {
		t.Fatalf("validate refresh: %v", err)
	}
}

func TestTokenTypesAreNotInterchangeable(t *testing.T) {
	tm := NewTokenManager("same", "same", "", time.Hour, time.Hour)
	pair, _ := tm.GeneratePair(testUser())

	if _, err := tm.ValidateAccessToken(pair.RefreshToken); !domain.IsKind(err, domain.KindUnauthorized) {
		t.Fatalf("expected refresh token rejected as access token, got %v", err)
	}
	if _, err := tm.ValidateRefreshToken(pair.AccessToken); !domain.IsKind(err, domain.KindUnauthorized) {
		t.Fatalf("expected access token rejected as refresh token, got %v", err)
	}
}

func TestExpiredToken(t *testing.T) {
	tm := NewTokenManager("access", "refresh", "", time.Minute, time.Hour)
	issued := time.Now().Add(-time.Hour)
	tm.now = func() time.Time { return issued }
	token, _ := tm.GenerateAccessToken(testUser())

	tm.now = time.Now
	_, err := tm.ValidateAccessToken(token)
	if !domain.IsKind(err, domain.KindUnauthorized) || domain.MessageOf(err) != "Token expired" {
		t.Fatalf("expected expired token error, got %v", err)
	}
}

func TestWrongSecret(t *testing.T) {
	a := NewTokenManager("one", "r", "", time.Hour, time.Hour)
	b := NewTokenManager("two", "r", "", time.Hour, time.Hour)
	token, _ := a.GenerateAccessToken(testUser())
	if _, err := b.ValidateAccessToken(token); err == nil {
		t.Fatalf("expected signature failure")
	}
}

func TestExtractToken(t *testing.T) {
	if tok, err := ExtractToken("Bearer abc"); err != nil || tok != "abc" {
		t.Fatalf("expected abc, got %q %v", tok, err)
	}
	for _, h := range []string{"", "abc", "Basic abc", "Bearer a b"} {
		if _, err := ExtractToken(h); err == nil {
			t.Fatalf("expected error for %q", h)
		}
	}
}

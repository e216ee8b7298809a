package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aryan0dhankhar/crafthire/internal/domain"
)

// TokenType separates access tokens from refresh tokens
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

type Claims struct {
	UserID    string      `json:"userId"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	TokenType TokenType   `json:"typ"`
	jwt.RegisteredClaims
}

// Caller converts verified claims into the identity passed to services
func (c *Claims) Caller() domain.Caller {
	return domain.Caller{UserID: c.UserID, Email: c.Email, Role: c.Role}
}

// TokenPair is returned by login, register and refresh
type TokenPair struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	issuer        string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewTokenManager signs access and refresh tokens with separate secrets
func NewTokenManager(accessSecret, refreshSecret, issuer string, accessTTL, refreshTTL time.Duration) *TokenManager {
	if issuer == "" {
		issuer = "crafthire"
	}
	if accessTTL <= 0 {
		accessTTL = 24 * time.Hour
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		issuer:        issuer,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// GeneratePair issues an access and a refresh token for user
func (tm *TokenManager) GeneratePair(user *domain.User) (TokenPair, error) {
	access, err := tm.generate(user, TokenAccess, tm.accessSecret, tm.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := tm.generate(user, TokenRefresh, tm.refreshSecret, tm.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(tm.accessTTL.Seconds()),
	}, nil
}

// GenerateAccessToken issues an access token only
func (tm *TokenManager) GenerateAccessToken(user *domain.User) (string, error) {
	return tm.generate(user, TokenAccess, tm.accessSecret, tm.accessTTL)
}

func (tm *TokenManager) generate(user *domain.User, typ TokenType, secret []byte, ttl time.Duration) (string, error) {
	if user == nil || user.ID == "" {
		return "", fmt.Errorf("user id required")
	}
	if !user.Role.Valid() {
		return "", fmt.Errorf("invalid role %q", user.Role)
	}
	now := tm.now()
	claims := Claims{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    tm.issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateAccessToken verifies an access token
func (tm *TokenManager) ValidateAccessToken(tokenString string) (*Claims, error) {
	return tm.validate(tokenString, TokenAccess, tm.accessSecret)
}

// ValidateRefreshToken verifies a refresh token
func (tm *TokenManager) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return tm.validate(tokenString, TokenRefresh, tm.refreshSecret)
}

func (tm *TokenManager) validate(tokenString string, want TokenType, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithIssuer(tm.issuer), jwt.WithTimeFunc(tm.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.Wrap(domain.KindUnauthorized, "Token expired", err)
		}
		return nil, domain.Wrap(domain.KindUnauthorized, "Invalid token", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, domain.Unauthorized("Invalid token")
	}
	if claims.TokenType != want {
		return nil, domain.Unauthorized("Invalid token type")
	}
	if !claims.Role.Valid() || claims.UserID == "" {
		return nil, domain.Unauthorized("Invalid token claims")
	}
	return claims, nil
}

// ExtractToken returns the bearer token from an Authorization header
func ExtractToken(authHeader string) (string, error) {
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", domain.Unauthorized("Invalid authorization header")
	}
	return parts[1], nil
}

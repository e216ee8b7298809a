package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/aryan0dhankhar/crafthire/internal/domain"
	"github.com/aryan0dhankhar/crafthire/internal/service"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *service.AuthService
	logger      *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// AuthLoginRequest represents login request
type AuthLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest carries the refresh token issued at login
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// ChangePasswordRequest represents change password request
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if err := decode(r, &req); err != nil {
		h.logger.Warn("failed to decode register request",
			slog.String("error", err.Error()),
		)
		fail(w, r, h.logger, err)
		return
	}

	result, err := h.authService.Register(r.Context(), req)
	if err != nil {
		h.logger.Info("registration failed",
			slog.String("email", req.Email),
			slog.String("error", err.Error()),
		)
		fail(w, r, h.logger, err)
		return
	}

	respond(w, http.StatusCreated, "User registered successfully", result)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req AuthLoginRequest
	if err := decode(r, &req); err != nil {
		fail(w, r, h.logger, err)
		return
	}

	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		fail(w, r, h.logger, domain.Validation("Email and password are required"))
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}

	respond(w, http.StatusOK, "Login successful", result)
}

// Refresh handles POST /api/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := decode(r, &req); err != nil {
		fail(w, r, h.logger, err)
		return
	}
	if req.RefreshToken == "" {
		fail(w, r, h.logger, domain.Validation("Refresh token required"))
		return
	}

	pair, err := h.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}

	respond(w, http.StatusOK, "Token refreshed successfully", pair)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOf(w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.authService.Me(r.Context(), caller)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}

	respond(w, http.StatusOK, "", result)
}

// Logout handles POST /api/auth/logout. Tokens are stateless so there is
// nothing to revoke; clients discard them.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if caller, ok := callerOf(w, r, h.logger); ok {
		h.logger.Info("user logged out", slog.String("user_id", caller.UserID))
		respond(w, http.StatusOK, "Logout successful", nil)
	}
}

// ChangePassword handles POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOf(w, r, h.logger)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if err := decode(r, &req); err != nil {
		fail(w, r, h.logger, err)
		return
	}

	if req.CurrentPassword == "" || req.NewPassword == "" {
		fail(w, r, h.logger, domain.Validation("currentPassword and newPassword are required"))
		return
	}

	if err := h.authService.ChangePassword(r.Context(), caller, req.CurrentPassword, req.NewPassword); err != nil {
		fail(w, r, h.logger, err)
		return
	}

	respond(w, http.StatusOK, "Password changed successfully", nil)
}

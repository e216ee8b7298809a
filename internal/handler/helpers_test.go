package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aryan0dhankhar/crafthire/internal/events"
	"github.com/aryan0dhankhar/crafthire/internal/infrastructure/logger"
	"github.com/aryan0dhankhar/crafthire/internal/repository/memory"
	"github.com/aryan0dhankhar/crafthire/internal/security"
	"github.com/aryan0dhankhar/crafthire/internal/security/audit"
	"github.com/aryan0dhankhar/crafthire/internal/security/auth"
	"github.com/aryan0dhankhar/crafthire/internal/security/middleware"
	"github.com/aryan0dhankhar/crafthire/internal/service"
	"github.com/aryan0dhankhar/crafthire/internal/validation"
	"github.com/aryan0dhankhar/crafthire/pkg/cache"
)

// testServer runs the full API over the memory store
type testServer struct {
	t      *testing.T
	server *httptest.Server
	store  *memory.Store
	tokens *auth.TokenManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := discardLogger()
	store := memory.NewStore()
	tokens := auth.NewTokenManager("test-access-secret", "test-refresh-secret", "crafthire-test", 15*time.Minute, time.Hour)
	validate := validation.New()
	hub := events.NewHub(log)
	authz := security.NewAuthorizationService(log)
	auditLog := audit.NewLogger(log)

	authService := service.NewAuthService(store, tokens, validate, log)
	profiles := service.NewProfileService(store, validate, log)
	jobs := service.NewJobService(store, cache.NewMemory(), time.Minute, validate, log)
	roster := service.NewRosterService(store, hub, log)
	applications := service.NewApplicationService(store, hub, log)

	mux := http.NewServeMux()
	Routes{
		Auth:        NewAuthHandler(authService, log),
		Company:     NewCompanyHandler(profiles, jobs, applications, log),
		Craftworker: NewCraftworkerHandler(profiles, jobs, applications, log),
		Provider:    NewProviderHandler(profiles, roster, jobs, applications, log),
		Events:      NewEventsHandler(tokens, authz, hub, log, []string{"http://localhost:3000"}),
		Health:      NewHealthHandler(store, nil, log),
		Authz:       authz,
		Audit:       auditLog,
	}.Register(mux)

	h := middleware.Chain(mux,
		middleware.JWTMiddleware(tokens, log),
		middleware.ValidateJSONContentType(log),
	)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return &testServer{t: t, server: srv, store: store, tokens: tokens}
}

// envelope mirrors Response with the payload left raw
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Kind    string          `json:"kind"`
	Data    json.RawMessage `json:"data"`
}

func (e envelope) into(t *testing.T, dst any) {
	t.Helper()
	if err := json.Unmarshal(e.Data, dst); err != nil {
		t.Fatalf("decode data %s: %v", e.Data, err)
	}
}

func (s *testServer) do(method, path, token string, body any) (int, envelope) {
	s.t.Helper()
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			s.t.Fatalf("marshal body: %v", err)
		}
		rdr = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.server.URL+path, rdr)
	if err != nil {
		s.t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.server.Client().Do(req)
	if err != nil {
		s.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && err != io.EOF {
		s.t.Fatalf("%s %s: decode response: %v", method, path, err)
	}
	return resp.StatusCode, env
}

// account is a registered user with its bearer token
type account struct {
	UserID    string
	ProfileID string
	Token     string
}

func (s *testServer) register(body map[string]any) account {
	s.t.Helper()
	status, env := s.do(http.MethodPost, "/api/auth/register", "", body)
	if status != http.StatusCreated {
		s.t.Fatalf("register %v: status %d, message %q", body["email"], status, env.Message)
	}
	var res struct {
		User    struct{ ID string } `json:"user"`
		Profile struct{ ID string } `json:"profile"`
		Token   string              `json:"token"`
	}
	env.into(s.t, &res)
	return account{UserID: res.User.ID, ProfileID: res.Profile.ID, Token: res.Token}
}

func (s *testServer) registerCompany(email string) account {
	return s.register(map[string]any{
		"email":         email,
		"password":      "secret123",
		"role":          "company",
		"companyName":   "Harbor Builders",
		"industry":      "Construction",
		"location":      "Austin, TX",
		"contactPerson": "Dana Reyes",
		"phone":         "+15125550100",
	})
}

func (s *testServer) registerProvider(email string) account {
	return s.register(map[string]any{
		"email":         email,
		"password":      "secret123",
		"role":          "provider",
		"companyName":   "Lone Star Crews",
		"location":      "Dallas, TX",
		"contactPerson": "Sam Ortiz",
		"phone":         "+12145550100",
	})
}

func (s *testServer) registerCraftworker(email, name string) account {
	return s.register(map[string]any{
		"email":      email,
		"password":   "secret123",
		"role":       "craftworker",
		"fullName":   name,
		"phone":      "+15125550111",
		"city":       "Austin",
		"state":      "TX",
		"skills":     []string{"welding", "pipefitting"},
		"experience": "8 years structural welding",
	})
}

func jobBody(title string) map[string]any {
	return map[string]any{
		"title":             title,
		"description":       "Structural steel work on a mid-rise build",
		"location":          "Austin, TX",
		"startDate":         "2030-05-01T00:00:00Z",
		"endDate":           "2030-05-20T00:00:00Z",
		"numberOfPositions": 3,
		"skillsRequired":    []string{"welding"},
	}
}

func assertStatus(t *testing.T, got, want int, env envelope) {
	t.Helper()
	if got != want {
		t.Fatalf("Expected status %d, got %d (message %q, kind %q)", want, got, env.Message, env.Kind)
	}
}

func discardLogger() *slog.Logger {
	return logger.New(io.Discard, "error")
}

type errString string

func (e errString) Error() string { return string(e) }

package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aryan0dhankhar/crafthire/internal/domain"
	"github.com/aryan0dhankhar/crafthire/internal/events"
	"github.com/aryan0dhankhar/crafthire/internal/featureflags"
	"github.com/aryan0dhankhar/crafthire/internal/observability/metrics"
	"github.com/aryan0dhankhar/crafthire/internal/security"
	"github.com/aryan0dhankhar/crafthire/internal/security/auth"
	"github.com/aryan0dhankhar/crafthire/internal/security/middleware"
)

const (
	pingInterval = 15 * time.Second
	writeWait    = 5 * time.Second
)

// Subscriber hands out per-user event streams
type Subscriber interface {
	Subscribe(userID string) *events.Subscription
}

// EventsHandler streams a user's notifications over a websocket
type EventsHandler struct {
	tokens         *auth.TokenManager
	authz          *security.AuthorizationService
	hub            Subscriber
	logger         *slog.Logger
	allowedOrigins []string
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(tokens *auth.TokenManager, authz *security.AuthorizationService, hub Subscriber, logger *slog.Logger, allowedOrigins []string) *EventsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventsHandler{
		tokens:         tokens,
		authz:          authz,
		hub:            hub,
		logger:         logger,
		allowedOrigins: allowedOrigins,
	}
}

func (h *EventsHandler) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// non-browser clients
				return true
			}
			if middleware.OriginAllowed(h.allowedOrigins, origin) {
				return true
			}
			h.logger.Warn("websocket origin rejected", slog.String("origin", origin))
			return false
		},
	}
}

// authenticate accepts the token from the Authorization header or the
// token query parameter.
func (h *EventsHandler) authenticate(r *http.Request) (*auth.Claims, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("token"))
	if header := r.Header.Get("Authorization"); header != "" {
		tok, err := auth.ExtractToken(header)
		if err != nil {
			return nil, err
		}
		raw = tok
	}
	if raw == "" {
		return nil, domain.Unauthorized("No token provided")
	}
	claims, err := h.tokens.ValidateAccessToken(raw)
	if err != nil {
		return nil, err
	}
	if err := h.authz.ValidatePermission(claims.Role, security.PermReceiveEvents); err != nil {
		return nil, err
	}
	return claims, nil
}

// ServeHTTP handles GET /ws/events
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !featureflags.Enabled(featureflags.RealtimeEvents) {
		fail(w, r, h.logger, domain.NotFound("Realtime events are disabled"))
		return
	}

	claims, err := h.authenticate(r)
	if err != nil {
		fail(w, r, h.logger, err)
		return
	}

	upgrader := h.upgrader()
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer ws.Close()

	sub := h.hub.Subscribe(claims.UserID)
	defer sub.Close()

	metrics.IncrementWebsocket()
	defer metrics.DecrementWebsocket()

	h.logger.Debug("event stream opened", slog.String("user_id", claims.UserID))

	if err := h.stream(ws, sub); err != nil {
		h.logger.Debug("event stream ended",
			slog.String("user_id", claims.UserID),
			slog.String("reason", err.Error()),
		)
	}
}

// stream writes events until the client goes away or the subscription is
// closed. Inbound frames are drained only to observe the close.
func (h *EventsHandler) stream(ws *websocket.Conn, sub *events.Subscription) error {
	closed := make(chan error, 1)
	go func() {
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				closed <- err
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				return nil
			}
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteJSON(ev); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					h.logger.Debug("websocket closed", slog.String("error", err.Error()))
				}
				return err
			}
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait)); err != nil {
				return err
			}
		case err := <-closed:
			return err
		}
	}
}

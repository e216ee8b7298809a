package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/crafthire/internal/domain"
	"github.com/aryan0dhankhar/crafthire/internal/events"
	"github.com/aryan0dhankhar/crafthire/internal/observability/metrics"
)

// Clock returns the current time; services take one so tests can pin it
type Clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }

// notifier publishes best-effort notifications. A failed publish is logged
// and counted but never fails the operation that triggered it.
type notifier struct {
	pub    domain.EventPublisher
	logger *slog.Logger
}

func newNotifier(pub domain.EventPublisher, logger *slog.Logger) notifier {
	if pub == nil {
		pub = events.Discard{}
	}
	return notifier{pub: pub, logger: logger}
}

func (n notifier) notify(ctx context.Context, userID string, ev domain.Event) {
	if userID == "" {
		return
	}
	if err := n.pub.Publish(ctx, userID, ev); err != nil {
		n.logger.Warn("failed to publish event",
			slog.String("type", string(ev.Type)),
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		metrics.ObserveEventPublished(string(ev.Type), "failed")
		return
	}
	metrics.ObserveEventPublished(string(ev.Type), "sent")
}

// companyOf resolves the caller's company profile
func companyOf(ctx context.Context, store domain.Store, caller domain.Caller) (*domain.Company, error) {
	if caller.Role != domain.RoleCompany {
		return nil, domain.Forbidden("Access denied. Company role required")
	}
	c, err := store.Companies().GetByUserID(ctx, caller.UserID)
	if err != nil {
		return nil, notFoundAs(err, "Company profile not found")
	}
	return c, nil
}

// providerOf resolves the caller's provider profile
func providerOf(ctx context.Context, store domain.Store, caller domain.Caller) (*domain.CraftProvider, error) {
	if caller.Role != domain.RoleProvider {
		return nil, domain.Forbidden("Access denied. Provider role required")
	}
	p, err := store.Providers().GetByUserID(ctx, caller.UserID)
	if err != nil {
		return nil, notFoundAs(err, "Provider profile not found")
	}
	return p, nil
}

// craftworkerOf resolves the caller's craftworker profile
func craftworkerOf(ctx context.Context, store domain.Store, caller domain.Caller) (*domain.Craftworker, error) {
	if caller.Role != domain.RoleCraftworker {
		return nil, domain.Forbidden("Access denied. Craftworker role required")
	}
	c, err := store.Craftworkers().GetByUserID(ctx, caller.UserID)
	if err != nil {
		return nil, notFoundAs(err, "Craftworker profile not found")
	}
	return c, nil
}

// notFoundAs rewrites a NotFound error with a caller-facing message
func notFoundAs(err error, msg string) error {
	if domain.IsKind(err, domain.KindNotFound) {
		return domain.Wrap(domain.KindNotFound, msg, err)
	}
	return err
}

// loadProfile returns the profile matching user.Role
func loadProfile(ctx context.Context, store domain.Store, user *domain.User) (domain.Profile, error) {
	var (
		p   domain.Profile
		err error
	)
	switch user.Role {
	case domain.RoleCompany:
		p, err = store.Companies().GetByUserID(ctx, user.ID)
	case domain.RoleProvider:
		p, err = store.Providers().GetByUserID(ctx, user.ID)
	case domain.RoleCraftworker:
		p, err = store.Craftworkers().GetByUserID(ctx, user.ID)
	default:
		return nil, domain.Validation("Invalid role")
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func pageCount(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

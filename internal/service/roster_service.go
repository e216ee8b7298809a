package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/aryan0dhankhar/crafthire/internal/domain"
	"github.com/aryan0dhankhar/crafthire/internal/observability/metrics"
	"github.com/aryan0dhankhar/crafthire/internal/observability/tracing"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

// SearchQuery filters craftworkers a provider may recruit
type SearchQuery struct {
	Name     string
	Location string
	Skills   []string
	Page     int
	Limit    int
}

// RosterService keeps a provider's roster and each craftworker's
// affiliation consistent. Every mutation locks the provider row, then the
// craftworker row, and commits both documents in one transaction.
type RosterService struct {
	store    domain.Store
	notifier notifier
	logger   *slog.Logger
	now      Clock
}

// NewRosterService creates a roster service
func NewRosterService(store domain.Store, pub domain.EventPublisher, logger *slog.Logger) *RosterService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RosterService{
		store:    store,
		notifier: newNotifier(pub, logger),
		logger:   logger,
		now:      utcNow,
	}
}

// Add puts craftworkerID on the caller's roster as active and points the
// craftworker at the provider.
func (s *RosterService) Add(ctx context.Context, caller domain.Caller, craftworkerID string) (roster []domain.RosterEntry, err error) {
	ctx, span := tracing.Start(ctx, "roster", "add", attribute.String("craftworker.id", craftworkerID))
	defer func() {
		observeRoster("add", err)
		tracing.End(span, err)
	}()

	craftworkerID = strings.TrimSpace(craftworkerID)
	if craftworkerID == "" {
		return nil, domain.Validation("Craftworker ID is required")
	}

	var (
		provider    *domain.CraftProvider
		craftworker *domain.Craftworker
		entry       domain.RosterEntry
	)
	err = s.store.WithinTx(ctx, func(tx domain.Store) error {
		p, err := lockedProvider(ctx, tx, caller)
		if err != nil {
			return err
		}
		c, err := tx.Craftworkers().GetForUpdate(ctx, craftworkerID)
		if err != nil {
			return notFoundAs(err, "Craftworker not found")
		}
		if _, exists := p.Entry(c.ID); exists {
			return domain.Conflict("Craftworker already in roster")
		}

		entry = domain.RosterEntry{CraftsmanID: c.ID, AddedAt: s.now(), Status: domain.RosterActive}
		if err := tx.Providers().AddRosterEntry(ctx, p.ID, entry); err != nil {
			if domain.IsKind(err, domain.KindConflict) {
				return domain.Wrap(domain.KindConflict, "Craftworker already in roster", err)
			}
			return fmt.Errorf("failed to add roster entry: %w", err)
		}
		if err := tx.Craftworkers().SetAffiliation(ctx, c.ID, &p.ID); err != nil {
			return fmt.Errorf("failed to set craftworker affiliation: %w", err)
		}

		p.Roster = append(p.Roster, entry)
		provider, craftworker = p, c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("craftworker added to roster",
		slog.String("provider_id", provider.ID),
		slog.String("craftworker_id", craftworker.ID),
	)
	s.notifier.notify(ctx, craftworker.UserID, domain.Event{
		Type:          domain.EventRosterAdded,
		CraftworkerID: craftworker.ID,
		ProviderID:    provider.ID,
		Status:        string(entry.Status),
		OccurredAt:    entry.AddedAt,
	})
	return provider.Roster, nil
}

// Remove takes craftworkerID off the caller's roster. The craftworker
// becomes independent only if it still points at this provider.
func (s *RosterService) Remove(ctx context.Context, caller domain.Caller, craftworkerID string) (err error) {
	ctx, span := tracing.Start(ctx, "roster", "remove", attribute.String("craftworker.id", craftworkerID))
	defer func() {
		observeRoster("remove", err)
		tracing.End(span, err)
	}()

	var (
		providerID string
		notifyUser string
		cleared    bool
	)
	err = s.store.WithinTx(ctx, func(tx domain.Store) error {
		p, err := lockedProvider(ctx, tx, caller)
		if err != nil {
			return err
		}
		if _, ok := p.Entry(craftworkerID); !ok {
			return domain.NotFound("Craftworker not found in roster")
		}
		providerID = p.ID

		c, err := tx.Craftworkers().GetForUpdate(ctx, craftworkerID)
		switch {
		case domain.IsKind(err, domain.KindNotFound):
			c = nil
		case err != nil:
			return fmt.Errorf("failed to load craftworker: %w", err)
		}

		if err := tx.Providers().RemoveRosterEntry(ctx, p.ID, craftworkerID); err != nil {
			return notFoundAs(err, "Craftworker not found in roster")
		}
		if c == nil {
			return nil
		}
		notifyUser = c.UserID
		if c.AffiliatedWith(p.ID) {
			if err := tx.Craftworkers().SetAffiliation(ctx, c.ID, nil); err != nil {
				return fmt.Errorf("failed to clear craftworker affiliation: %w", err)
			}
			cleared = true
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("craftworker removed from roster",
		slog.String("provider_id", providerID),
		slog.String("craftworker_id", craftworkerID),
		slog.Bool("affiliation_cleared", cleared),
	)
	s.notifier.notify(ctx, notifyUser, domain.Event{
		Type:          domain.EventRosterRemoved,
		CraftworkerID: craftworkerID,
		ProviderID:    providerID,
		OccurredAt:    s.now(),
	})
	return nil
}

// SetStatus changes only the roster entry's status; the craftworker
// document is left alone.
func (s *RosterService) SetStatus(ctx context.Context, caller domain.Caller, craftworkerID string, status domain.RosterStatus) (entry domain.RosterEntry, err error) {
	ctx, span := tracing.Start(ctx, "roster", "set_status",
		attribute.String("craftworker.id", craftworkerID),
		attribute.String("roster.status", string(status)),
	)
	defer func() {
		observeRoster("set_status", err)
		tracing.End(span, err)
	}()

	if !status.Valid() {
		return domain.RosterEntry{}, domain.Validation("Status must be active or inactive")
	}

	err = s.store.WithinTx(ctx, func(tx domain.Store) error {
		p, err := lockedProvider(ctx, tx, caller)
		if err != nil {
			return err
		}
		cur, ok := p.Entry(craftworkerID)
		if !ok {
			return domain.NotFound("Craftworker not found in roster")
		}
		if err := tx.Providers().SetRosterStatus(ctx, p.ID, craftworkerID, status); err != nil {
			return notFoundAs(err, "Craftworker not found in roster")
		}
		cur.Status = status
		entry = cur
		return nil
	})
	if err != nil {
		return domain.RosterEntry{}, err
	}

	s.logger.Info("roster status updated",
		slog.String("craftworker_id", craftworkerID),
		slog.String("status", string(status)),
	)
	return entry, nil
}

// Roster returns the caller's roster in insertion order joined with each
// craftworker's display fields.
func (s *RosterService) Roster(ctx context.Context, caller domain.Caller) ([]RosterMember, error) {
	p, err := providerOf(ctx, s.store, caller)
	if err != nil {
		return nil, err
	}
	out := make([]RosterMember, 0, len(p.Roster))
	for _, e := range p.Roster {
		m := RosterMember{RosterEntry: e}
		c, err := s.store.Craftworkers().GetByID(ctx, e.CraftsmanID)
		switch {
		case err == nil:
			m.Craftworker = craftworkerSummary(c)
		case !domain.IsKind(err, domain.KindNotFound):
			return nil, fmt.Errorf("failed to load roster craftworker: %w", err)
		}
		out = append(out, m)
	}
	return out, nil
}

// Search finds craftworkers not yet on the caller's roster. Matching is
// case-insensitive substring on name, city or state, and any listed skill.
func (s *RosterService) Search(ctx context.Context, caller domain.Caller, q SearchQuery) (SearchResult, error) {
	ctx, span := tracing.Start(ctx, "roster", "search")
	var err error
	defer func() { tracing.End(span, err) }()

	p, err := providerOf(ctx, s.store, caller)
	if err != nil {
		return SearchResult{}, err
	}

	page, limit := q.Page, q.Limit
	if page < 1 {
		page = 1
	}
	switch {
	case limit < 1:
		limit = defaultSearchLimit
	case limit > maxSearchLimit:
		limit = maxSearchLimit
	}

	items, total, err := s.store.Craftworkers().Search(ctx, domain.CraftworkerSearch{
		Name:       strings.TrimSpace(q.Name),
		Location:   strings.TrimSpace(q.Location),
		Skills:     cleanSkills(q.Skills),
		ExcludeIDs: p.RosterIDs(),
		Offset:     (page - 1) * limit,
		Limit:      limit,
	})
	if err != nil {
		return SearchResult{}, fmt.Errorf("failed to search craftworkers: %w", err)
	}

	res := SearchResult{
		Items: make([]*CraftworkerSummary, 0, len(items)),
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: pageCount(total, limit),
	}
	for _, c := range items {
		res.Items = append(res.Items, craftworkerSummary(c))
	}
	return res, nil
}

// lockedProvider resolves the caller's provider and holds its row lock
// for the rest of the transaction.
func lockedProvider(ctx context.Context, tx domain.Store, caller domain.Caller) (*domain.CraftProvider, error) {
	p, err := providerOf(ctx, tx, caller)
	if err != nil {
		return nil, err
	}
	locked, err := tx.Providers().GetForUpdate(ctx, p.ID)
	if err != nil {
		return nil, notFoundAs(err, "Provider profile not found")
	}
	return locked, nil
}

func observeRoster(op string, err error) {
	result := "success"
	if err != nil {
		result = string(domain.KindOf(err))
	}
	metrics.ObserveRosterOperation(op, result)
}

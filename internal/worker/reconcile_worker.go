package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/aryan0dhankhar/crafthire/internal/domain"
	"github.com/aryan0dhankhar/crafthire/internal/observability/metrics"
)

// Repair kinds
const (
	RepairOrphaned = "orphaned_affiliation"
	RepairRelinked = "relinked"
	RepairFlag     = "independence_flag"
)

// Repair is one craftworker whose affiliation disagreed with the rosters
type Repair struct {
	Kind          string  `json:"kind"`
	CraftworkerID string  `json:"craftworkerId"`
	From          *string `json:"from"`
	To            *string `json:"to"`
	Applied       bool    `json:"applied"`
}

// Report summarizes one reconciliation pass
type Report struct {
	Providers    int      `json:"providers"`
	Craftworkers int      `json:"craftworkers"`
	Repairs      []Repair `json:"repairs"`
}

// ReconcileWorker periodically compares every craftworker's providerId
// with the rosters that list it and repairs disagreements:
//   - a providerId naming a provider whose roster lacks the craftworker is
//     cleared, or moved to the only roster that does list it
//   - an independent craftworker listed in exactly one roster is linked to it
//   - a craftworker listed in several rosters keeps its current providerId
type ReconcileWorker struct {
	store    domain.Store
	logger   *slog.Logger
	interval time.Duration
	dryRun   bool
}

// NewReconcileWorker creates a new reconcile worker. In dry-run mode repairs
// are reported but not written.
func NewReconcileWorker(store domain.Store, logger *slog.Logger, interval time.Duration, dryRun bool) *ReconcileWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconcileWorker{
		store:    store,
		logger:   logger,
		interval: interval,
		dryRun:   dryRun,
	}
}

// Start runs a pass every interval until ctx is done
func (w *ReconcileWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("reconcile worker started",
		slog.Duration("interval", w.interval),
		slog.Bool("dry_run", w.dryRun),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("reconcile worker stopped")
			return
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil {
				w.logger.Error("reconcile pass failed", slog.String("error", err.Error()))
			}
		}
	}
}

// RunOnce performs a single pass
func (w *ReconcileWorker) RunOnce(ctx context.Context) (Report, error) {
	report, err := w.run(ctx)
	if err != nil {
		metrics.ObserveReconcileRun("error")
		return report, err
	}
	metrics.ObserveReconcileRun("success")

	if len(report.Repairs) > 0 {
		w.logger.Info("reconcile pass finished",
			slog.Int("providers", report.Providers),
			slog.Int("craftworkers", report.Craftworkers),
			slog.Int("repairs", len(report.Repairs)),
		)
	} else {
		w.logger.Debug("reconcile pass found no drift", slog.Int("craftworkers", report.Craftworkers))
	}
	return report, nil
}

func (w *ReconcileWorker) run(ctx context.Context) (Report, error) {
	providers, err := w.store.Providers().List(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list providers: %w", err)
	}
	craftworkers, err := w.store.Craftworkers().List(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list craftworkers: %w", err)
	}

	rosters := map[string][]string{}
	for _, p := range providers {
		for _, e := range p.Roster {
			rosters[e.CraftsmanID] = append(rosters[e.CraftsmanID], p.ID)
		}
	}

	report := Report{Providers: len(providers), Craftworkers: len(craftworkers), Repairs: []Repair{}}
	for _, c := range craftworkers {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		kind, target, ok := diagnose(c, rosters[c.ID])
		if !ok {
			continue
		}

		repair := Repair{Kind: kind, CraftworkerID: c.ID, From: c.ProviderID, To: target}
		applied, err := w.apply(ctx, c, target)
		if err != nil {
			w.logger.Error("failed to repair craftworker affiliation",
				slog.String("craftworker_id", c.ID),
				slog.String("kind", kind),
				slog.String("error", err.Error()),
			)
			return report, fmt.Errorf("failed to repair craftworker %s: %w", c.ID, err)
		}
		repair.Applied = applied
		if applied {
			metrics.ObserveReconcileRepair(kind)
		}
		w.logger.Info("craftworker affiliation drift",
			slog.String("craftworker_id", c.ID),
			slog.String("kind", kind),
			slog.String("from", deref(c.ProviderID)),
			slog.String("to", deref(target)),
			slog.Bool("applied", applied),
		)
		report.Repairs = append(report.Repairs, repair)
	}
	return report, nil
}

// diagnose decides the providerId c should have given the rosters that
// list it. ok is false when c needs no repair.
func diagnose(c *domain.Craftworker, listedBy []string) (kind string, target *string, ok bool) {
	current := c.ProviderID
	if current != nil && contains(listedBy, *current) {
		if c.IsIndependent {
			return RepairFlag, current, true
		}
		return "", nil, false
	}

	if len(listedBy) == 1 {
		id := listedBy[0]
		return RepairRelinked, &id, true
	}
	if current != nil {
		return RepairOrphaned, nil, true
	}
	if !c.IsIndependent {
		return RepairFlag, nil, true
	}
	return "", nil, false
}

// apply writes target under the roster locks, provider rows first. The
// repair is skipped if the craftworker or the rosters changed since the
// snapshot was taken.
func (w *ReconcileWorker) apply(ctx context.Context, c *domain.Craftworker, target *string) (bool, error) {
	applied := false
	err := w.store.WithinTx(ctx, func(tx domain.Store) error {
		locked := map[string]*domain.CraftProvider{}
		for _, id := range lockOrder(c.ProviderID, target) {
			p, err := tx.Providers().GetForUpdate(ctx, id)
			if err != nil {
				if domain.IsKind(err, domain.KindNotFound) {
					continue
				}
				return err
			}
			locked[id] = p
		}

		fresh, err := tx.Craftworkers().GetForUpdate(ctx, c.ID)
		if err != nil {
			if domain.IsKind(err, domain.KindNotFound) {
				return nil
			}
			return err
		}
		if deref(fresh.ProviderID) != deref(c.ProviderID) || fresh.IsIndependent != c.IsIndependent {
			return nil
		}
		if target != nil {
			p, ok := locked[*target]
			if !ok {
				return nil
			}
			if _, listed := p.Entry(c.ID); !listed {
				return nil
			}
		}
		if c.ProviderID != nil && deref(target) != *c.ProviderID {
			if p, ok := locked[*c.ProviderID]; ok {
				if _, listed := p.Entry(c.ID); listed {
					return nil
				}
			}
		}

		if w.dryRun {
			return nil
		}
		if err := tx.Craftworkers().SetAffiliation(ctx, c.ID, target); err != nil {
			return err
		}
		applied = true
		return nil
	})
	return applied, err
}

func lockOrder(ids ...*string) []string {
	seen := map[string]bool{}
	var out []string
	for _, id := range ids {
		if id != nil && *id != "" && !seen[*id] {
			seen[*id] = true
			out = append(out, *id)
		}
	}
	sort.Strings(out)
	return out
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

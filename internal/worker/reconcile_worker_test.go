package worker

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aryan0dhankhar/crafthire/internal/domain"
	"github.com/aryan0dhankhar/crafthire/internal/repository/memory"
)

type seed struct {
	t     *testing.T
	ctx   context.Context
	store *memory.Store
}

func newSeed(t *testing.T) *seed {
	return &seed{t: t, ctx: context.Background(), store: memory.NewStore()}
}

func (s *seed) user(id string, role domain.Role) string {
	s.t.Helper()
	u := &domain.User{ID: "u-" + id, Email: id + "@example.com", Role: role, IsActive: true}
	if err := s.store.Users().Create(s.ctx, u); err != nil {
		s.t.Fatalf("create user %s: %v", id, err)
	}
	return u.ID
}

func (s *seed) provider(id string) {
	s.t.Helper()
	p := &domain.CraftProvider{ID: id, UserID: s.user(id, domain.RoleProvider), CompanyName: "Agency " + id, Location: "Dallas", ContactPerson: "Pat", Phone: "15550000002"}
	if err := s.store.Providers().Create(s.ctx, p); err != nil {
		s.t.Fatalf("create provider: %v", err)
	}
}

// craftworker creates a craftworker pointing at providerID (empty for
// independent) and lists it in the given rosters without touching the
// affiliation.
func (s *seed) craftworker(id, providerID string, rosters ...string) {
	s.t.Helper()
	c := &domain.Craftworker{
		ID:         id,
		UserID:     s.user(id, domain.RoleCraftworker),
		FullName:   "Worker " + id,
		Phone:      "15550000003",
		Location:   domain.Location{City: "Austin", State: "TX"},
		Experience: "3 years",
	}
	if providerID != "" {
		c.SetProvider(&providerID)
	} else {
		c.SetProvider(nil)
	}
	if err := s.store.Craftworkers().Create(s.ctx, c); err != nil {
		s.t.Fatalf("create craftworker: %v", err)
	}
	for _, p := range rosters {
		entry := domain.RosterEntry{CraftsmanID: id, AddedAt: time.Now().UTC(), Status: domain.RosterActive}
		if err := s.store.Providers().AddRosterEntry(s.ctx, p, entry); err != nil {
			s.t.Fatalf("add roster entry: %v", err)
		}
	}
}

func (s *seed) affiliation(id string) (string, bool) {
	s.t.Helper()
	c, err := s.store.Craftworkers().GetByID(s.ctx, id)
	if err != nil {
		s.t.Fatalf("load craftworker %s: %v", id, err)
	}
	return deref(c.ProviderID), c.IsIndependent
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedDrift(t *testing.T) *seed {
	s := newSeed(t)
	s.provider("p1")
	s.provider("p2")
	s.craftworker("cw-ok", "p1", "p1")
	s.craftworker("cw-orphan", "p1")
	s.craftworker("cw-unlinked", "", "p2")
	s.craftworker("cw-moved", "p1", "p2")
	s.craftworker("cw-multi", "p1", "p1", "p2")
	s.craftworker("cw-free", "")
	return s
}

func TestReconcileRepairsDrift(t *testing.T) {
	s := seedDrift(t)
	w := NewReconcileWorker(s.store, quietLogger(), time.Minute, false)

	report, err := w.RunOnce(s.ctx)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if report.Providers != 2 || report.Craftworkers != 6 {
		t.Fatalf("unexpected counts %+v", report)
	}
	if len(report.Repairs) != 3 {
		t.Fatalf("Expected 3 repairs, got %+v", report.Repairs)
	}
	kinds := map[string]string{}
	for _, r := range report.Repairs {
		if !r.Applied {
			t.Fatalf("repair not applied: %+v", r)
		}
		kinds[r.CraftworkerID] = r.Kind
	}
	if kinds["cw-orphan"] != RepairOrphaned || kinds["cw-unlinked"] != RepairRelinked || kinds["cw-moved"] != RepairRelinked {
		t.Fatalf("unexpected repair kinds %v", kinds)
	}

	if p, indep := s.affiliation("cw-orphan"); p != "" || !indep {
		t.Fatalf("cw-orphan should be independent, got %q %v", p, indep)
	}
	if p, indep := s.affiliation("cw-unlinked"); p != "p2" || indep {
		t.Fatalf("cw-unlinked should point at p2, got %q %v", p, indep)
	}
	if p, _ := s.affiliation("cw-moved"); p != "p2" {
		t.Fatalf("cw-moved should point at p2, got %q", p)
	}
	if p, _ := s.affiliation("cw-multi"); p != "p1" {
		t.Fatalf("cw-multi should keep p1, got %q", p)
	}
	if p, indep := s.affiliation("cw-free"); p != "" || !indep {
		t.Fatalf("cw-free changed: %q %v", p, indep)
	}

	report, err = w.RunOnce(s.ctx)
	if err != nil {
		t.Fatalf("second RunOnce: %v", err)
	}
	if len(report.Repairs) != 0 {
		t.Fatalf("Expected a clean second pass, got %+v", report.Repairs)
	}
}

func TestReconcileDryRunWritesNothing(t *testing.T) {
	s := seedDrift(t)
	w := NewReconcileWorker(s.store, quietLogger(), time.Minute, true)

	report, err := w.RunOnce(s.ctx)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if len(report.Repairs) != 3 {
		t.Fatalf("Expected 3 reported repairs, got %+v", report.Repairs)
	}
	for _, r := range report.Repairs {
		if r.Applied {
			t.Fatalf("dry run applied %+v", r)
		}
	}
	if p, _ := s.affiliation("cw-orphan"); p != "p1" {
		t.Fatalf("dry run changed cw-orphan to %q", p)
	}
	if _, indep := s.affiliation("cw-unlinked"); !indep {
		t.Fatalf("dry run linked cw-unlinked")
	}
}

func TestDiagnose(t *testing.T) {
	p1 := "p1"
	linked := &domain.Craftworker{ID: "c"}
	linked.SetProvider(&p1)
	free := &domain.Craftworker{ID: "c"}
	free.SetProvider(nil)

	if _, _, ok := diagnose(linked, []string{"p1", "p2"}); ok {
		t.Fatalf("multi-roster member with a valid providerId needs no repair")
	}
	if _, _, ok := diagnose(free, []string{"p1", "p2"}); ok {
		t.Fatalf("independent multi-roster member is left alone")
	}
	if kind, target, ok := diagnose(linked, nil); !ok || kind != RepairOrphaned || target != nil {
		t.Fatalf("unexpected diagnosis %q %v %v", kind, target, ok)
	}
	if kind, target, ok := diagnose(free, []string{"p2"}); !ok || kind != RepairRelinked || deref(target) != "p2" {
		t.Fatalf("unexpected diagnosis %q %v %v", kind, target, ok)
	}

	flagged := &domain.Craftworker{ID: "c", ProviderID: &p1, IsIndependent: true}
	if kind, target, ok := diagnose(flagged, []string{"p1"}); !ok || kind != RepairFlag || deref(target) != "p1" {
		t.Fatalf("unexpected diagnosis %q %v %v", kind, target, ok)
	}
}

func TestReconcileWorkerStops(t *testing.T) {
	s := newSeed(t)
	w := NewReconcileWorker(s.store, quietLogger(), 5*time.Millisecond, false)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("worker did not stop after cancel")
	}
}

package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aryan0dhankhar/crafthire/internal/domain"
	"github.com/aryan0dhankhar/crafthire/internal/repository/memory"
)

// recorder is an EventPublisher that keeps what it was given
type recorder struct {
	mu     sync.Mutex
	events map[string][]domain.Event
}

func newRecorder() *recorder {
	return &recorder{events: map[string][]domain.Event{}}
}

func (r *recorder) Publish(_ context.Context, userID string, ev domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[userID] = append(r.events[userID], ev)
	return nil
}

func (r *recorder) types(userID string) []domain.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.EventType
	for _, ev := range r.events[userID] {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	t     *testing.T
	ctx   context.Context
	store *memory.Store
	pub   *recorder
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		t:     t,
		ctx:   context.Background(),
		store: memory.NewStore(),
		pub:   newRecorder(),
		now:   time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (f *fixture) clock() time.Time { return f.now }

func (f *fixture) user(id string, role domain.Role) domain.Caller {
	f.t.Helper()
	u := &domain.User{ID: "u-" + id, Email: id + "@example.com", Role: role, IsActive: true}
	if err := f.store.Users().Create(f.ctx, u); err != nil {
		f.t.Fatalf("create user %s: %v", id, err)
	}
	return domain.Caller{UserID: u.ID, Email: u.Email, Role: role}
}

func (f *fixture) company(id string) (domain.Caller, *domain.Company) {
	f.t.Helper()
	caller := f.user(id, domain.RoleCompany)
	c := &domain.Company{ID: id, UserID: caller.UserID, CompanyName: "Company " + id, Location: "Denver", ContactPerson: "Ann", Phone: "15550000001"}
	if err := f.store.Companies().Create(f.ctx, c); err != nil {
		f.t.Fatalf("create company: %v", err)
	}
	return caller, c
}

func (f *fixture) provider(id string) (domain.Caller, *domain.CraftProvider) {
	f.t.Helper()
	caller := f.user(id, domain.RoleProvider)
	p := &domain.CraftProvider{ID: id, UserID: caller.UserID, CompanyName: "Agency " + id, Location: "Dallas", ContactPerson: "Pat", Phone: "15550000002"}
	if err := f.store.Providers().Create(f.ctx, p); err != nil {
		f.t.Fatalf("create provider: %v", err)
	}
	return caller, p
}

func (f *fixture) craftworker(id, name, city string, skills ...string) (domain.Caller, *domain.Craftworker) {
	f.t.Helper()
	caller := f.user(id, domain.RoleCraftworker)
	c := &domain.Craftworker{
		ID:         id,
		UserID:     caller.UserID,
		FullName:   name,
		Phone:      "15550000003",
		Location:   domain.Location{City: city, State: "TX"},
		Skills:     skills,
		Experience: "3 years",
	}
	if err := f.store.Craftworkers().Create(f.ctx, c); err != nil {
		f.t.Fatalf("create craftworker: %v", err)
	}
	return caller, c
}

func (f *fixture) job(companyID, id string, status domain.JobStatus) *domain.Job {
	f.t.Helper()
	j := &domain.Job{
		ID:                id,
		CompanyID:         companyID,
		Title:             "Job " + id,
		Description:       "Build things",
		SkillsRequired:    []string{"welding"},
		Location:          "Austin, TX",
		StartDate:         f.now.Add(48 * time.Hour),
		EndDate:           f.now.Add(10 * 24 * time.Hour),
		NumberOfPositions: 2,
		Status:            status,
	}
	if err := f.store.Jobs().Create(f.ctx, j); err != nil {
		f.t.Fatalf("create job: %v", err)
	}
	return j
}

func (f *fixture) rosterService() *RosterService {
	s := NewRosterService(f.store, f.pub, nil)
	s.now = f.clock
	return s
}

func (f *fixture) applicationService() *ApplicationService {
	s := NewApplicationService(f.store, f.pub, nil)
	s.now = f.clock
	return s
}

func (f *fixture) craftworkerDoc(id string) *domain.Craftworker {
	f.t.Helper()
	c, err := f.store.Craftworkers().GetByID(f.ctx, id)
	if err != nil {
		f.t.Fatalf("load craftworker %s: %v", id, err)
	}
	return c
}

func (f *fixture) providerDoc(id string) *domain.CraftProvider {
	f.t.Helper()
	p, err := f.store.Providers().GetByID(f.ctx, id)
	if err != nil {
		f.t.Fatalf("load provider %s: %v", id, err)
	}
	return p
}

func strptr(s string) *string { return &s }

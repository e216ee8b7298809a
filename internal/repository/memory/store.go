// Package memory is an in-process domain.Store. Transactions are
// serialized and roll back by restoring a snapshot taken at begin.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aryan0dhankhar/crafthire/internal/domain"
)

type data struct {
	users        map[string]*domain.User
	companies    map[string]*domain.Company
	providers    map[string]*domain.CraftProvider
	craftworkers map[string]*domain.Craftworker
	jobs         map[string]*domain.Job
	applications map[string]*domain.Application
}

func newData() *data {
	return &data{
		users:        map[string]*domain.User{},
		companies:    map[string]*domain.Company{},
		providers:    map[string]*domain.CraftProvider{},
		craftworkers: map[string]*domain.Craftworker{},
		jobs:         map[string]*domain.Job{},
		applications: map[string]*domain.Application{},
	}
}

func (d *data) clone() *data {
	out := newData()
	for k, v := range d.users {
		out.users[k] = cloneUser(v)
	}
	for k, v := range d.companies {
		out.companies[k] = cloneCompany(v)
	}
	for k, v := range d.providers {
		out.providers[k] = cloneProvider(v)
	}
	for k, v := range d.craftworkers {
		out.craftworkers[k] = cloneCraftworker(v)
	}
	for k, v := range d.jobs {
		out.jobs[k] = cloneJob(v)
	}
	for k, v := range d.applications {
		out.applications[k] = cloneApplication(v)
	}
	return out
}

type state struct {
	txMu sync.Mutex   // held by a transaction or a standalone write
	mu   sync.RWMutex // guards data
	data *data
}

// Store implements domain.Store in memory
type Store struct {
	s    *state
	inTx bool
	now  func() time.Time
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		s:   &state{data: newData()},
		now: func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the clock used for created/updated timestamps
func (st *Store) SetClock(now func() time.Time) {
	st.now = now
}

func (st *Store) Users() domain.UserRepository               { return &userRepo{st} }
func (st *Store) Companies() domain.CompanyRepository        { return &companyRepo{st} }
func (st *Store) Providers() domain.ProviderRepository       { return &providerRepo{st} }
func (st *Store) Craftworkers() domain.CraftworkerRepository { return &craftworkerRepo{st} }
func (st *Store) Jobs() domain.JobRepository                 { return &jobRepo{st} }
func (st *Store) Applications() domain.ApplicationRepository { return &applicationRepo{st} }
func (st *Store) Ping(ctx context.Context) error             { return ctx.Err() }

// WithinTx runs fn with exclusive write access. If fn fails every write
// it made is discarded.
func (st *Store) WithinTx(ctx context.Context, fn func(tx domain.Store) error) error {
	if st.inTx {
		return fn(st)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	st.s.txMu.Lock()
	defer st.s.txMu.Unlock()

	st.s.mu.RLock()
	snapshot := st.s.data.clone()
	st.s.mu.RUnlock()

	tx := &Store{s: st.s, inTx: true, now: st.now}
	if err := fn(tx); err != nil {
		st.s.mu.Lock()
		st.s.data = snapshot
		st.s.mu.Unlock()
		return err
	}
	return nil
}

func (st *Store) read(fn func(d *data) error) error {
	st.s.mu.RLock()
	defer st.s.mu.RUnlock()
	return fn(st.s.data)
}

func (st *Store) write(fn func(d *data) error) error {
	if !st.inTx {
		st.s.txMu.Lock()
		defer st.s.txMu.Unlock()
	}
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	return fn(st.s.data)
}

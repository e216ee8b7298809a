package service

import (
	"sync"
	"testing"

	"github.com/aryan0dhankhar/crafthire/internal/domain"
)

func TestRosterAddLinksBothDocuments(t *testing.T) {
	f := newFixture(t)
	s := f.rosterService()
	pCaller, p := f.provider("p1")
	_, c := f.craftworker("c1", "Kim", "Austin", "welding")

	roster, err := s.Add(f.ctx, pCaller, c.ID)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if len(roster) != 1 || roster[0].CraftsmanID != c.ID || roster[0].Status != domain.RosterActive {
		t.Fatalf("unexpected roster %+v", roster)
	}
	if !roster[0].AddedAt.Equal(f.now) {
		t.Fatalf("expected addedAt %v, got %v", f.now, roster[0].AddedAt)
	}

	doc := f.craftworkerDoc(c.ID)
	if !doc.AffiliatedWith(p.ID) || doc.IsIndependent {
		t.Fatalf("expected craftworker linked to provider, got provider=%v independent=%v", doc.ProviderID, doc.IsIndependent)
	}
	if got := f.pub.types(c.UserID); len(got) != 1 || got[0] != domain.EventRosterAdded {
		t.Fatalf("expected roster.added event, got %v", got)
	}
}

func TestRosterAddTwiceConflicts(t *testing.T) {
	f := newFixture(t)
	s := f.rosterService()
	pCaller, p := f.provider("p1")
	_, c := f.craftworker("c1", "Kim", "Austin")

	if _, err := s.Add(f.ctx, pCaller, c.ID); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	_, err := s.Add(f.ctx, pCaller, c.ID)
	if !domain.IsKind(err, domain.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if n := len(f.providerDoc(p.ID).Roster); n != 1 {
		t.Fatalf("expected exactly one entry, got %d", n)
	}
}

func TestRosterAddUnknownCraftworker(t *testing.T) {
	f := newFixture(t)
	s := f.rosterService()
	pCaller, p := f.provider("p1")

	if _, err := s.Add(f.ctx, pCaller, "missing"); !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := s.Add(f.ctx, pCaller, ""); !domain.IsKind(err, domain.KindValidation) {
		t.Fatalf("expected validation error for empty id, got %v", err)
	}
	if len(f.providerDoc(p.ID).Roster) != 0 {
		t.Fatalf("roster must stay empty")
	}

	// a caller without a provider profile
	other := f.user("ghost", domain.RoleProvider)
	if _, err := s.Add(f.ctx, other, "missing"); !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected provider profile not found, got %v", err)
	}
}

func TestRosterRemoveMakesIndependent(t *testing.T) {
	f := newFixture(t)
	s := f.rosterService()
	pCaller, p := f.provider("p1")
	_, c := f.craftworker("c1", "Kim", "Austin")

	if _, err := s.Add(f.ctx, pCaller, c.ID); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := s.Remove(f.ctx, pCaller, c.ID); err != nil {
		t.Fatalf("remove failed: %v", err)
	}

	if _, ok := f.providerDoc(p.ID).Entry(c.ID); ok {
		t.Fatalf("expected entry removed")
	}
	doc := f.craftworkerDoc(c.ID)
	if doc.ProviderID != nil || !doc.IsIndependent {
		t.Fatalf("expected independent craftworker, got provider=%v independent=%v", doc.ProviderID, doc.IsIndependent)
	}

	if err := s.Remove(f.ctx, pCaller, c.ID); !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected not found on second remove, got %v", err)
	}
}

func TestRosterRemoveKeepsReassignedAffiliation(t *testing.T) {
	f := newFixture(t)
	s := f.rosterService()
	p1Caller, _ := f.provider("p1")
	p2Caller, p2 := f.provider("p2")
	_, c := f.craftworker("c1", "Kim", "Austin")

	if _, err := s.Add(f.ctx, p1Caller, c.ID); err != nil {
		t.Fatalf("add to p1 failed: %v", err)
	}
	if _, err := s.Add(f.ctx, p2Caller, c.ID); err != nil {
		t.Fatalf("add to p2 failed: %v", err)
	}
	if err := s.Remove(f.ctx, p1Caller, c.ID); err != nil {
		t.Fatalf("remove from p1 failed: %v", err)
	}

	if doc := f.craftworkerDoc(c.ID); !doc.AffiliatedWith(p2.ID) {
		t.Fatalf("expected craftworker to stay with p2, got %v", doc.ProviderID)
	}
}

func TestRosterSetStatus(t *testing.T) {
	f := newFixture(t)
	s := f.rosterService()
	pCaller, p := f.provider("p1")
	_, c := f.craftworker("c1", "Kim", "Austin")

	if _, err := s.SetStatus(f.ctx, pCaller, c.ID, domain.RosterInactive); !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected not found before add, got %v", err)
	}
	if _, err := s.Add(f.ctx, pCaller, c.ID); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	before := f.craftworkerDoc(c.ID)

	entry, err := s.SetStatus(f.ctx, pCaller, c.ID, domain.RosterInactive)
	if err != nil {
		t.Fatalf("set status failed: %v", err)
	}
	if entry.Status != domain.RosterInactive {
		t.Fatalf("expected inactive entry, got %s", entry.Status)
	}
	if !f.providerDoc(p.ID).Roster[0].AddedAt.Equal(entry.AddedAt) {
		t.Fatalf("addedAt must not change")
	}
	after := f.craftworkerDoc(c.ID)
	if !after.UpdatedAt.Equal(before.UpdatedAt) || !after.AffiliatedWith(p.ID) {
		t.Fatalf("craftworker document must be untouched")
	}

	if _, err := s.SetStatus(f.ctx, pCaller, c.ID, "paused"); !domain.IsKind(err, domain.KindValidation) {
		t.Fatalf("expected validation error for bad status, got %v", err)
	}
}

func TestRosterReadJoinsCraftworkers(t *testing.T) {
	f := newFixture(t)
	s := f.rosterService()
	pCaller, _ := f.provider("p1")
	_, c := f.craftworker("c1", "Kim", "Austin", "welding")

	if _, err := s.Add(f.ctx, pCaller, c.ID); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	members, err := s.Roster(f.ctx, pCaller)
	if err != nil {
		t.Fatalf("roster failed: %v", err)
	}
	if len(members) != 1 || members[0].Craftworker == nil || members[0].Craftworker.FullName != "Kim" {
		t.Fatalf("unexpected roster %+v", members)
	}
	if members[0].Craftworker.FullLocation != "Austin, TX" {
		t.Fatalf("unexpected location %q", members[0].Craftworker.FullLocation)
	}
}

func TestSearchBySkillExcludesRoster(t *testing.T) {
	f := newFixture(t)
	s := f.rosterService()
	pCaller, _ := f.provider("p1")
	_, a := f.craftworker("c1", "Alex", "Austin", "Welding", "Framing")
	_, b := f.craftworker("c2", "Blake", "Houston", "MIG welding")
	f.craftworker("c3", "Casey", "Dallas", "Plumbing")

	if _, err := s.Add(f.ctx, pCaller, a.ID); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	res, err := s.Search(f.ctx, pCaller, SearchQuery{Skills: []string{"welding"}})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if res.Total != 1 || len(res.Items) != 1 || res.Items[0].ID != b.ID {
		t.Fatalf("expected only %s, got %+v", b.ID, res.Items)
	}
	if res.Page != 1 || res.Limit != 20 || res.Pages != 1 {
		t.Fatalf("unexpected paging %+v", res)
	}
}

func TestSearchPagingAndLocation(t *testing.T) {
	f := newFixture(t)
	s := f.rosterService()
	pCaller, _ := f.provider("p1")
	f.craftworker("c1", "Alex", "Austin")
	f.craftworker("c2", "Blake", "Austin")
	f.craftworker("c3", "Casey", "Dallas")

	res, err := s.Search(f.ctx, pCaller, SearchQuery{Location: "aus", Page: 2, Limit: 1})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if res.Total != 2 || res.Pages != 2 || len(res.Items) != 1 || res.Items[0].FullName != "Blake" {
		t.Fatalf("unexpected page %+v", res)
	}

	res, err = s.Search(f.ctx, pCaller, SearchQuery{Location: "tx", Limit: 500})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if res.Limit != 100 || res.Total != 3 {
		t.Fatalf("expected state match and clamped limit, got %+v", res)
	}

	res, err = s.Search(f.ctx, pCaller, SearchQuery{Name: "CAS"})
	if err != nil || res.Total != 1 || res.Items[0].FullName != "Casey" {
		t.Fatalf("expected case-insensitive name match, got %+v err=%v", res, err)
	}
}

func TestConcurrentAddsKeepOneEntry(t *testing.T) {
	f := newFixture(t)
	s := f.rosterService()
	pCaller, p := f.provider("p1")
	_, c := f.craftworker("c1", "Kim", "Austin")

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Add(f.ctx, pCaller, c.ID); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 {
		t.Fatalf("expected exactly one successful add, got %d", succeeded)
	}
	if n := len(f.providerDoc(p.ID).Roster); n != 1 {
		t.Fatalf("expected one roster entry, got %d", n)
	}
}

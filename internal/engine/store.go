package engine

import (
	"sort"
	"sync"
	"time"

	"github.com/andrewbyteforge/dexsniper/internal/domain"
)

// oppState is the per-entry lifecycle inside the store.
// Active → Claimed → {Executed, Failed}; Active → Expired on sweep.
type oppState int

const (
	oppActive oppState = iota
	oppClaimed
	oppExecuted
	oppFailed
	oppExpired
)

type oppEntry struct {
	opp       domain.Opportunity
	state     oppState
	claimedAt time.Time
}

// OpportunityStore is the concurrent registry of live opportunities.
// Claim is the one correctness-critical operation: exactly one caller may
// transition an entry from Active to Claimed; everyone else loses the race
// and gets ErrAlreadyClaimed.
type OpportunityStore struct {
	mu      sync.Mutex
	entries map[string]*oppEntry
}

// NewOpportunityStore creates an empty store.
func NewOpportunityStore() *OpportunityStore {
	return &OpportunityStore{entries: make(map[string]*oppEntry)}
}

// Put registers a new opportunity. Re-putting an existing id is a no-op so a
// rescan cannot resurrect a claimed or executed entry.
func (s *OpportunityStore) Put(opp domain.Opportunity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[opp.ID]; exists {
		return
	}
	s.entries[opp.ID] = &oppEntry{opp: opp, state: oppActive}
}

// Get returns the opportunity by id regardless of state.
func (s *OpportunityStore) Get(id string) (domain.Opportunity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return domain.Opportunity{}, false
	}
	return e.opp, true
}

// ListFilter narrows ListActive results. Zero values match everything.
type ListFilter struct {
	Strategy domain.StrategyKind
	Network  string
}

// ListActive returns non-expired Active opportunities sorted by
// confidence × expected profit, best first.
func (s *OpportunityStore) ListActive(filter ListFilter, now time.Time) []domain.Opportunity {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Opportunity, 0, len(s.entries))
	for _, e := range s.entries {
		if e.state != oppActive || e.opp.IsExpired(now) {
			continue
		}
		if filter.Strategy != "" && e.opp.Strategy != filter.Strategy {
			continue
		}
		if filter.Network != "" && e.opp.Network != filter.Network {
			continue
		}
		out = append(out, e.opp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score() > out[j].Score() })
	return out
}

// Claim atomically takes exclusive ownership of an Active opportunity for
// execution. Concurrent callers for the same id: one wins, the rest get
// ErrAlreadyClaimed (or ErrOpportunityExpired / ErrOpportunityNotFound).
func (s *OpportunityStore) Claim(id string, now time.Time) (domain.Opportunity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return domain.Opportunity{}, domain.ErrOpportunityNotFound
	}
	switch e.state {
	case oppActive:
		if e.opp.IsExpired(now) {
			e.state = oppExpired
			return domain.Opportunity{}, domain.ErrOpportunityExpired
		}
		e.state = oppClaimed
		e.claimedAt = now
		return e.opp, nil
	case oppExpired:
		return domain.Opportunity{}, domain.ErrOpportunityExpired
	default:
		return domain.Opportunity{}, domain.ErrAlreadyClaimed
	}
}

// Release marks a claimed opportunity as failed. The entry stays terminal —
// a released opportunity is never re-claimable; a fresh scan must produce a
// new one.
func (s *OpportunityStore) Release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[id]; ok && e.state == oppClaimed {
		e.state = oppFailed
	}
}

// MarkExecuted finalizes a claimed opportunity after a successful trade.
func (s *OpportunityStore) MarkExecuted(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[id]; ok && e.state == oppClaimed {
		e.state = oppExecuted
	}
}

// SweepExpired drops entries whose expiry has passed and evicts terminal
// entries older than their expiry, returning how many active opportunities
// were expired. Entries with ExpiresAt in the future are never touched.
func (s *OpportunityStore) SweepExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	expired := 0
	for id, e := range s.entries {
		if !e.opp.IsExpired(now) {
			continue
		}
		if e.state == oppActive {
			expired++
		}
		delete(s.entries, id)
	}
	return expired
}

// Len returns the number of entries currently held, any state.
func (s *OpportunityStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

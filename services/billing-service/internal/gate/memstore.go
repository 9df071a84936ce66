package gate

import (
	"context"
	"sync"
)

// MemStore is an in-memory Store used in tests and for single-process runs
// without a database. The mutex makes TryIncrement a true check-and-increment,
// so racing callers cannot both pass the limit.
type MemStore struct {
	mu      sync.Mutex
	periods map[string]UsagePeriod
}

func NewMemStore() *MemStore {
	return &MemStore{periods: make(map[string]UsagePeriod)}
}

func (s *MemStore) Load(ctx context.Context, accountID string) (UsagePeriod, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.periods[accountID]
	return p, ok, nil
}

func (s *MemStore) TryIncrement(ctx context.Context, accountID string, month string, limit int) (UsagePeriod, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.periods[accountID]
	if p.ResetMonth != month || p.Count < 0 {
		p = UsagePeriod{Count: 0, ResetMonth: month}
	}
	if p.Count >= limit {
		return p, false, nil
	}
	p.Count++
	s.periods[accountID] = p
	return p, true, nil
}

// Seed overwrites the stored period for an account, for tests.
func (s *MemStore) Seed(accountID string, p UsagePeriod) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.periods[accountID] = p
}

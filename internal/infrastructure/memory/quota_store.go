package memory

import (
	"context"
	"sync"

	"assetsync-service/internal/application"
	"assetsync-service/internal/domain"
)

type QuotaStore struct {
	mu   sync.Mutex
	recs map[string]domain.QuotaRecord
}

var _ application.QuotaStore = (*QuotaStore)(nil)

func NewQuotaStore() *QuotaStore {
	return &QuotaStore{recs: make(map[string]domain.QuotaRecord)}
}

func (s *QuotaStore) Get(_ context.Context, userID string) (domain.QuotaRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recs[userID]
	if !ok {
		return domain.QuotaRecord{}, application.ErrNotFound
	}
	return r, nil
}

// Increment applies the day-reset and the increment under one lock.
func (s *QuotaStore) Increment(_ context.Context, userID string, today domain.Date) (domain.QuotaRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recs[userID]
	if !ok {
		return domain.QuotaRecord{}, application.ErrNotFound
	}
	r = r.Incremented(today)
	s.recs[userID] = r
	return r, nil
}

// SetRole creates the user when missing and keeps existing counters otherwise.
func (s *QuotaStore) SetRole(_ context.Context, userID string, role domain.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.recs[userID]
	r.UserID, r.Role = userID, role
	s.recs[userID] = r
	return nil
}

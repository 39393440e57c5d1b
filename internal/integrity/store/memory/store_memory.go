package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"vigil/internal/integrity"
	"vigil/internal/integrity/store"
	"vigil/pkg/platform/sentinel"
)

// InMemoryStore keeps reports in maps keyed by id and token.
type InMemoryStore struct {
	mu      sync.RWMutex
	reports map[uuid.UUID]*integrity.Report
	byToken map[string]uuid.UUID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		reports: make(map[uuid.UUID]*integrity.Report),
		byToken: make(map[string]uuid.UUID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, report *integrity.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byToken[report.AnonymousToken]; exists {
		return sentinel.ErrConflict
	}
	cp := *report
	s.reports[report.ID] = &cp
	s.byToken[report.AnonymousToken] = report.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*integrity.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	report, ok := s.reports[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *report
	return &cp, nil
}

func (s *InMemoryStore) FindByToken(_ context.Context, token string) (*integrity.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byToken[token]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.reports[id]
	return &cp, nil
}

func (s *InMemoryStore) List(_ context.Context, filter store.Filter) ([]*integrity.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*integrity.Report
	for _, report := range s.reports {
		if filter.Status != nil && report.Status != *filter.Status {
			continue
		}
		if filter.Category != nil && report.Category != *filter.Category {
			continue
		}
		cp := *report
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) Update(_ context.Context, report *integrity.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reports[report.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *report
	s.reports[report.ID] = &cp
	return nil
}

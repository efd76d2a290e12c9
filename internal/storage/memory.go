// Package storage provides set log implementations.
package storage

import (
	"context"
	"strings"
	"sync"

	"github.com/hammamikhairi/ottolift/internal/domain"
	"github.com/hammamikhairi/ottolift/internal/logger"
)

// Compile-time interface check.
var _ domain.SetLog = (*MemoryStore)(nil)

// MemoryStore is an in-memory set log. Safe for concurrent access.
type MemoryStore struct {
	mu      sync.RWMutex
	records []*domain.SetRecord // oldest first
	log     *logger.Logger
}

// NewMemoryStore creates an empty in-memory set log.
func NewMemoryStore(log *logger.Logger) *MemoryStore {
	return &MemoryStore{log: log}
}

// Append records a finished set. The record is copied.
func (s *MemoryStore) Append(ctx context.Context, rec *domain.SetRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *rec
	s.records = append(s.records, &cp)
	s.log.Debug("logged set %s (%s, %d reps)", rec.ID, rec.Exercise, rec.Reps)
	return nil
}

// List returns up to limit records, newest first. An empty exercise
// matches every record; matching is case-insensitive. A limit of zero or
// less means no limit.
func (s *MemoryStore) List(ctx context.Context, exercise string, limit int) ([]*domain.SetRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.SetRecord
	for i := len(s.records) - 1; i >= 0; i-- {
		rec := s.records[i]
		if exercise != "" && !strings.EqualFold(rec.Exercise, exercise) {
			continue
		}
		cp := *rec
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

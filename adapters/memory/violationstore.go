package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/specgate/specgate/ports"
)

// ViolationStore is an in-memory implementation of ports.ViolationStore.
// Suitable for tests and for deployments that do not need a durable audit
// trail.
type ViolationStore struct {
	mu         sync.RWMutex
	violations []ports.ContractViolation
	max        int
}

// NewViolationStore creates a new in-memory violation store keeping at most
// max records (oldest evicted first). A non-positive max keeps 1000.
func NewViolationStore(max int) *ViolationStore {
	if max <= 0 {
		max = 1000
	}
	return &ViolationStore{max: max}
}

// Record stores one violation.
func (s *ViolationStore) Record(ctx context.Context, v ports.ContractViolation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.violations = append(s.violations, v)
	if len(s.violations) > s.max {
		s.violations = s.violations[len(s.violations)-s.max:]
	}
	return nil
}

// List returns the most recent violations, newest first.
func (s *ViolationStore) List(ctx context.Context, limit int) ([]ports.ContractViolation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ports.ContractViolation, len(s.violations))
	copy(out, s.violations)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CountSince returns the number of violations recorded at or after t.
func (s *ViolationStore) CountSince(ctx context.Context, t time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, v := range s.violations {
		if !v.OccurredAt.Before(t) {
			n++
		}
	}
	return n, nil
}

// Purge removes violations older than t.
func (s *ViolationStore) Purge(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.violations[:0]
	var removed int64
	for _, v := range s.violations {
		if v.OccurredAt.Before(before) {
			removed++
			continue
		}
		kept = append(kept, v)
	}
	s.violations = kept
	return removed, nil
}

// Ensure interface compliance.
var _ ports.ViolationStore = (*ViolationStore)(nil)

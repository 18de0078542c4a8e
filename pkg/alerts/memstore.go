package alerts

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for deployments without a database.
// Alerts do not survive a restart.
type MemoryStore struct {
	mu     sync.Mutex
	alerts []Alert
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) InsertAlert(_ context.Context, a *Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.alerts {
		if existing.AlertID == a.AlertID {
			return fmt.Errorf("alert %s already exists", a.AlertID)
		}
	}
	s.alerts = append(s.alerts, *a)
	return nil
}

func (s *MemoryStore) ResolveAlert(_ context.Context, alertID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.alerts {
		if s.alerts[i].AlertID == alertID && s.alerts[i].Status == StatusOpen {
			s.alerts[i].Status = StatusResolved
			resolved := at
			s.alerts[i].ResolvedAt = &resolved
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) ListRecentAlerts(_ context.Context, since time.Time, severity string) ([]Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Alert
	for i := len(s.alerts) - 1; i >= 0; i-- {
		a := s.alerts[i]
		if a.CreatedAt.Before(since) {
			continue
		}
		if severity != "" && a.Severity != severity {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *MemoryStore) ClearResolvedAlerts(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kept []Alert
	var removed int64
	for _, a := range s.alerts {
		if a.Status == StatusResolved {
			removed++
			continue
		}
		kept = append(kept, a)
	}
	s.alerts = kept
	return removed, nil
}

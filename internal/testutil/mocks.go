// internal/testutil/mocks.go
package testutil

import (
	"context"
	"sync"
	"time"

	"linkdeck/internal/core/domain"
)

// MockAPI implements ports.LinksAPI with programmable responses and call
// recording. Safe for concurrent use.
type MockAPI struct {
	mu sync.Mutex

	// Programmable behavior
	FetchResult   []domain.Link
	FetchErr      error
	SaveVersion   int
	SaveErr       error
	ResolveResult *domain.Link
	ResolveErr    error
	TippingErr    error
	SaveDelay     time.Duration // simulates wire latency on SaveLinks

	// Recorded calls
	FetchCalls   int
	SaveCalls    [][]domain.Link
	SaveVersions []int
	ResolveCalls []string
	TippingCalls int
}

func (m *MockAPI) FetchLinks(ctx context.Context, profileID string) ([]domain.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.FetchCalls++
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	return domain.CloneLinks(m.FetchResult), nil
}

func (m *MockAPI) SaveLinks(ctx context.Context, profileID string, links []domain.Link, expectedVersion int) (int, error) {
	if m.SaveDelay > 0 {
		select {
		case <-time.After(m.SaveDelay):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalls = append(m.SaveCalls, domain.CloneLinks(links))
	m.SaveVersions = append(m.SaveVersions, expectedVersion)
	if m.SaveErr != nil {
		return 0, m.SaveErr
	}
	return m.SaveVersion, nil
}

func (m *MockAPI) ResolveSuggestion(ctx context.Context, profileID, linkID string, action domain.SuggestionAction) (*domain.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResolveCalls = append(m.ResolveCalls, linkID+":"+action.String())
	if m.ResolveErr != nil {
		return nil, m.ResolveErr
	}
	if m.ResolveResult != nil {
		clone := m.ResolveResult.Clone()
		return &clone, nil
	}
	return nil, nil
}

func (m *MockAPI) EnableTipping(ctx context.Context, profileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TippingCalls++
	return m.TippingErr
}

// TippingCount returns the number of EnableTipping calls.
func (m *MockAPI) TippingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.TippingCalls
}

// FetchCount returns the number of FetchLinks calls.
func (m *MockAPI) FetchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.FetchCalls
}

// Saves returns the recorded save snapshots.
func (m *MockAPI) Saves() [][]domain.Link {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]domain.Link, len(m.SaveCalls))
	copy(out, m.SaveCalls)
	return out
}

// MockNotifier records user-facing notices.
type MockNotifier struct {
	mu       sync.Mutex
	Notices  []string
	Warnings []string
	Failures []string
}

func (n *MockNotifier) Notice(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Notices = append(n.Notices, msg)
}

func (n *MockNotifier) Warn(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Warnings = append(n.Warnings, msg)
}

func (n *MockNotifier) Fail(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Failures = append(n.Failures, msg)
}

// FailureCount returns the number of recorded failures.
func (n *MockNotifier) FailureCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Failures)
}

// WarningCount returns the number of recorded warnings.
func (n *MockNotifier) WarningCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Warnings)
}

// MockStore implements ports.Store in memory.
type MockStore struct {
	mu       sync.Mutex
	Links    []domain.Link
	Version  int
	SaveErr  error
	LoadErr  error
	SaveHits int
}

func (s *MockStore) SaveSnapshot(ctx context.Context, profileID string, links []domain.Link, version int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.Links = domain.CloneLinks(links)
	s.Version = version
	s.SaveHits++
	return nil
}

func (s *MockStore) LoadSnapshot(ctx context.Context, profileID string) ([]domain.Link, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.LoadErr != nil {
		return nil, 0, s.LoadErr
	}
	return domain.CloneLinks(s.Links), s.Version, nil
}

func (s *MockStore) Close() error { return nil }

// Hits returns the number of successful snapshot writes.
func (s *MockStore) Hits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.SaveHits
}

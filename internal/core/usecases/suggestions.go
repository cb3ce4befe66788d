// internal/core/usecases/suggestions.go
package usecases

import (
	"context"
	"sync"
	"time"

	"linkdeck/internal/core/domain"
	"linkdeck/internal/core/ports"
	"linkdeck/internal/platform/logx"
)

// SyncOptions configures a SuggestionSync.
type SyncOptions struct {
	API      ports.LinksAPI
	Manager  *Manager
	Saver    *Saver         // version counter is raised through it; may be nil
	Notifier ports.Notifier // optional
	Logger   logx.Logger

	ProfileID string

	// FastInterval applies while the refresh window is armed; SlowInterval
	// otherwise. RefreshWindow is how long an ingestable save keeps the
	// poller fast.
	FastInterval  time.Duration
	SlowInterval  time.Duration
	RefreshWindow time.Duration
}

// SuggestionSync polls the server for AI-ingested link suggestions and
// exposes the accept/dismiss operations. Polling speeds up inside the
// refresh window and stops entirely while the preview panel is open.
type SuggestionSync struct {
	mu sync.Mutex

	api      ports.LinksAPI
	manager  *Manager
	saver    *Saver
	notifier ports.Notifier
	logger   logx.Logger

	profileID     string
	fastInterval  time.Duration
	slowInterval  time.Duration
	refreshWindow time.Duration

	fastUntil   time.Time
	previewOpen bool
	signature   string

	// fetchCancel aborts the in-flight fetch when a new sync supersedes it;
	// fetchSeq tells a finished sync whether it was the latest one.
	fetchCancel context.CancelFunc
	fetchSeq    uint64
}

// NewSuggestionSync creates the sync service.
func NewSuggestionSync(opts SyncOptions) *SuggestionSync {
	logger := opts.Logger
	if logger == nil {
		logger = logx.Discard()
	}
	fast := opts.FastInterval
	if fast <= 0 {
		fast = 3 * time.Second
	}
	slow := opts.SlowInterval
	if slow < fast {
		slow = fast
	}
	window := opts.RefreshWindow
	if window <= 0 {
		window = 20 * time.Second
	}

	return &SuggestionSync{
		api:           opts.API,
		manager:       opts.Manager,
		saver:         opts.Saver,
		notifier:      opts.Notifier,
		logger:        logger.With("component", "suggestion-sync"),
		profileID:     opts.ProfileID,
		fastInterval:  fast,
		slowInterval:  slow,
		refreshWindow: window,
	}
}

// Run polls until the context is canceled. Intended to run in its own
// goroutine.
func (s *SuggestionSync) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.interval()):
		}

		if s.PreviewOpen() {
			// Explicit backpressure: never poll while the user's
			// attention is on the preview surface.
			continue
		}

		if err := s.Sync(ctx); err != nil && ctx.Err() == nil {
			s.logger.Debug("suggestion sync failed", "error", err.Error())
		}
	}
}

// Sync fetches the server's link set once, raises the version counter, and
// replaces the pending suggestion list if its signature changed. A sync
// started while another is in flight aborts the older fetch; the stale
// response is discarded, not an error.
func (s *SuggestionSync) Sync(ctx context.Context) error {
	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.fetchCancel != nil {
		s.fetchCancel()
	}
	s.fetchCancel = cancel
	s.fetchSeq++
	seq := s.fetchSeq
	s.mu.Unlock()

	links, err := s.api.FetchLinks(fetchCtx, s.profileID)

	s.mu.Lock()
	superseded := s.fetchSeq != seq
	if !superseded {
		s.fetchCancel = nil
	}
	s.mu.Unlock()

	if superseded {
		// A newer sync owns the state now; this response is stale.
		return nil
	}
	if err != nil {
		return err
	}

	if s.saver != nil {
		s.saver.RaiseVersion(domain.MaxVersion(links))
	}

	suggested := domain.FilterSuggested(links)
	sig := domain.Signature(suggested)

	s.mu.Lock()
	changed := sig != s.signature
	if changed {
		s.signature = sig
	}
	s.mu.Unlock()

	if changed {
		s.manager.SetSuggested(suggested)
		s.logger.Debug("suggestions updated", "pending", len(suggested))
	}

	return nil
}

// Accept promotes a suggestion to an active link. Returns nil on any
// failure, with a user-facing notice.
func (s *SuggestionSync) Accept(ctx context.Context, suggestion domain.Link) (*domain.Link, error) {
	link, err := s.api.ResolveSuggestion(ctx, s.profileID, suggestion.ID, domain.ActionAccept)
	if err != nil {
		s.logger.Err(err, "op", "accept", "link", suggestion.ID)
		s.fail("Could not add the suggested link. Please try again.")
		return nil, err
	}

	accepted := suggestion
	if link != nil {
		accepted = *link
	}

	s.manager.AcceptIntoActive(accepted, suggestionIDOf(suggestion))
	s.armFast(s.refreshWindow / 2)
	return &accepted, nil
}

// Dismiss rejects a suggestion. The pending entry survives any failure.
func (s *SuggestionSync) Dismiss(ctx context.Context, suggestion domain.Link) error {
	if _, err := s.api.ResolveSuggestion(ctx, s.profileID, suggestion.ID, domain.ActionDismiss); err != nil {
		s.logger.Err(err, "op", "dismiss", "link", suggestion.ID)
		s.fail("Could not dismiss the suggestion. Please try again.")
		return err
	}

	s.manager.DropSuggestion(suggestionIDOf(suggestion))
	s.armFast(s.refreshWindow / 2)
	return nil
}

// ArmRefreshWindow switches the poller to the fast interval for the full
// window and triggers an immediate sync. Called after a save that persisted
// an ingestable URL.
func (s *SuggestionSync) ArmRefreshWindow(ctx context.Context) {
	s.armFast(s.refreshWindow)
	go func() {
		if err := s.Sync(ctx); err != nil && ctx.Err() == nil {
			s.logger.Debug("immediate sync failed", "error", err.Error())
		}
	}()
}

// SetPreviewOpen flags whether the preview panel is open; polling is
// suppressed while it is.
func (s *SuggestionSync) SetPreviewOpen(open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.previewOpen = open
}

// PreviewOpen reports the preview flag.
func (s *SuggestionSync) PreviewOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.previewOpen
}

// FastPolling reports whether the refresh window is currently armed.
func (s *SuggestionSync) FastPolling() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Now().Before(s.fastUntil)
}

func (s *SuggestionSync) interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if time.Now().Before(s.fastUntil) {
		return s.fastInterval
	}
	return s.slowInterval
}

func (s *SuggestionSync) armFast(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	until := time.Now().Add(d)
	if until.After(s.fastUntil) {
		s.fastUntil = until
	}
}

func (s *SuggestionSync) fail(msg string) {
	if s.notifier != nil {
		s.notifier.Fail(msg)
	}
}

// suggestionIDOf prefers the dedicated suggestion id, falling back to the
// link id.
func suggestionIDOf(l domain.Link) string {
	if l.SuggestionID != "" {
		return l.SuggestionID
	}
	return l.ID
}

// internal/core/usecases/saver.go
package usecases

import (
	"context"
	"sync"
	"time"

	"linkdeck/internal/core/domain"
	"linkdeck/internal/core/ports"
	"linkdeck/internal/platform/errors"
	"linkdeck/internal/platform/logx"
	"linkdeck/internal/platform/urlnorm"
)

// SaverOptions configures a Saver.
type SaverOptions struct {
	API      ports.LinksAPI
	Store    ports.Store    // optional write-through snapshot cache
	Notifier ports.Notifier // optional
	Logger   logx.Logger
	Catalog  *domain.Catalog

	ProfileID string
	Debounce  time.Duration

	// Manager is reconciled after a successful save when the normalized
	// snapshot differs from the current state by value.
	Manager *Manager

	// OnConflict runs after a version conflict was absorbed (typically a
	// suggestion re-sync).
	OnConflict func()

	// OnIngestable runs after persisting a snapshot containing an
	// ingestable URL (arms the fast-poll window).
	OnIngestable func()
}

// Saver serializes outbound saves of the link collection. It is a coalescing
// queue of depth one: at most one PUT is in flight, and the most recent
// snapshot supersedes any unsent predecessor, so a fast-follow edit can never
// be overwritten by a slower older save.
type Saver struct {
	mu sync.Mutex

	api      ports.LinksAPI
	store    ports.Store
	notifier ports.Notifier
	logger   logx.Logger
	catalog  *domain.Catalog

	profileID string
	debounce  time.Duration
	manager   *Manager

	onConflict   func()
	onIngestable func()

	version    int
	pending    []domain.Link
	hasPending bool
	running    bool

	timer         *time.Timer
	lastRequested []domain.Link
	hasRequested  bool

	// lastSaved is the snapshot the server most recently accepted; the
	// post-save reconcile replays it through Subscribe, and that echo must
	// not become a second PUT.
	lastSaved []domain.Link
	hasSaved  bool

	// idle is signaled whenever the save loop goes idle.
	idle *sync.Cond

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSaver creates a saver. Call Close to release it.
func NewSaver(opts SaverOptions) *Saver {
	logger := opts.Logger
	if logger == nil {
		logger = logx.Discard()
	}
	catalog := opts.Catalog
	if catalog == nil {
		catalog = domain.DefaultCatalog()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Saver{
		api:          opts.API,
		store:        opts.Store,
		notifier:     opts.Notifier,
		logger:       logger.With("component", "links-saver"),
		catalog:      catalog,
		profileID:    opts.ProfileID,
		debounce:     opts.Debounce,
		manager:      opts.Manager,
		onConflict:   opts.OnConflict,
		onIngestable: opts.OnIngestable,
		ctx:          ctx,
		cancel:       cancel,
	}
	s.idle = sync.NewCond(&s.mu)
	return s
}

// SetVersion initializes the optimistic-locking counter, typically from the
// maximum version across the loaded links.
func (s *Saver) SetVersion(v int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version = v
}

// Version returns the currently held counter.
func (s *Saver) Version() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// RaiseVersion lifts the counter to v if higher. The suggestion poller only
// ever raises it, the save loop only compares against it, so the two never
// race on the value.
func (s *Saver) RaiseVersion(v int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v > s.version {
		s.version = v
	}
}

// Debounced schedules a save of the snapshot after an idle window since the
// last invocation. The latest snapshot wins. A snapshot matching what the
// server already holds is the post-save reconcile echoing back and is
// ignored.
func (s *Saver) Debounced(links []domain.Link) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasSaved && domain.EqualValueLinks(s.normalizeCategories(links), s.lastSaved) {
		return
	}

	s.lastRequested = domain.CloneLinks(links)
	s.hasRequested = true

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		if !s.hasRequested {
			s.mu.Unlock()
			return
		}
		snapshot := s.lastRequested
		s.hasRequested = false
		s.mu.Unlock()
		s.Enqueue(snapshot)
	})
}

// Cancel discards any debounced snapshot not yet enqueued.
func (s *Saver) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.hasRequested = false
	s.lastRequested = nil
}

// Flush sends the last requested snapshot immediately and blocks until the
// save loop has drained. Used on teardown, before Close, so trailing edits
// are not lost.
func (s *Saver) Flush() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	hasRequested := s.hasRequested
	snapshot := s.lastRequested
	s.hasRequested = false
	s.mu.Unlock()

	if hasRequested {
		s.Enqueue(snapshot)
	}

	s.mu.Lock()
	for s.running {
		s.idle.Wait()
	}
	s.mu.Unlock()
}

// Enqueue puts the snapshot into the single pending slot, superseding any
// unsent one, and starts the save loop if idle.
func (s *Saver) Enqueue(links []domain.Link) {
	s.mu.Lock()
	s.pending = domain.CloneLinks(links)
	s.hasPending = true
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop()
}

// Close stops the debounce timer, cancels in-flight work and waits for the
// save loop to exit. Pending unsent snapshots are dropped; call Flush first
// to send them.
func (s *Saver) Close() {
	s.Cancel()
	s.cancel()
	s.wg.Wait()
}

// loop drains the pending slot, one full persist cycle at a time.
func (s *Saver) loop() {
	defer s.wg.Done()

	for {
		s.mu.Lock()
		if !s.hasPending || s.ctx.Err() != nil {
			s.running = false
			s.idle.Broadcast()
			s.mu.Unlock()
			return
		}
		snapshot := s.pending
		s.hasPending = false
		expected := s.version
		s.mu.Unlock()

		s.persist(snapshot, expected)
	}
}

// persist runs one save cycle: normalize, submit with the expected version,
// then reconcile version and local state from the outcome.
func (s *Saver) persist(links []domain.Link, expectedVersion int) {
	normalized := s.normalizeCategories(links)

	newVersion, err := s.api.SaveLinks(s.ctx, s.profileID, normalized, expectedVersion)
	if err != nil {
		var conflict *domain.ConflictError
		switch {
		case errors.As(err, &conflict):
			s.logger.Warn("save conflict",
				"expected", expectedVersion,
				"current", conflict.CurrentVersion,
			)
			s.mu.Lock()
			s.version = conflict.CurrentVersion
			s.mu.Unlock()
			s.warn("Your links changed somewhere else. Refreshing; please re-apply your last edit.")
			if s.onConflict != nil {
				s.onConflict()
			}
		case s.ctx.Err() != nil:
			// Teardown, not a failure.
		default:
			s.logger.Err(err, "op", "save")
			s.fail("Could not save your links. They will stay as they are until the next change.")
		}
		return
	}

	s.mu.Lock()
	s.version = newVersion
	s.lastSaved = normalized
	s.hasSaved = true
	s.mu.Unlock()

	s.logger.Debug("links saved", "count", len(normalized), "version", newVersion)

	if s.store != nil {
		if err := s.store.SaveSnapshot(s.ctx, s.profileID, normalized, newVersion); err != nil {
			s.logger.Warn("snapshot cache write failed", "error", err.Error())
		}
	}

	// Replace local state only when the normalized snapshot actually
	// differs; identical round-trips must not churn subscribers.
	if s.manager != nil && !domain.EqualValueLinks(s.manager.Links(), normalized) {
		s.manager.SetLinks(normalized)
	}

	if s.onIngestable != nil && s.containsIngestable(normalized) {
		s.onIngestable()
	}
}

// normalizeCategories clamps every link's category to the section allow-list
// (fallback custom) before building the payload.
func (s *Saver) normalizeCategories(links []domain.Link) []domain.Link {
	out := domain.CloneLinks(links)
	for i := range out {
		out[i].Platform.Category = domain.SectionOf(out[i].Platform.Category).String()
	}
	return out
}

// containsIngestable reports whether any link's URL belongs to a domain the
// ingestion service can crawl for further suggestions.
func (s *Saver) containsIngestable(links []domain.Link) bool {
	for i := range links {
		if s.catalog.IsIngestable(urlnorm.RegisteredDomain(links[i].NormalizedURL)) {
			return true
		}
	}
	return false
}

func (s *Saver) warn(msg string) {
	if s.notifier != nil {
		s.notifier.Warn(msg)
	}
}

func (s *Saver) fail(msg string) {
	if s.notifier != nil {
		s.notifier.Fail(msg)
	}
}

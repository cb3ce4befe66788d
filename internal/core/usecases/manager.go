// internal/core/usecases/manager.go
package usecases

import (
	"context"
	"sync"
	"time"

	"linkdeck/internal/core/domain"
	"linkdeck/internal/core/ports"
	"linkdeck/internal/platform/logx"
)

// AddResult classifies the outcome of an Add call.
type AddResult int

const (
	// AddIgnored: expected steady-state no-op (duplicate platform in the
	// section, or the cross-category platform filling both sections).
	AddIgnored AddResult = iota

	// AddMerged: an existing entry adopted the candidate's URL and title.
	AddMerged

	// AddPrompted: a cross-category confirmation is pending.
	AddPrompted

	// AddAppended: the candidate entered the collection as a new entry.
	AddAppended
)

// CrossPrompt holds a pending "add to the other section too?" confirmation
// for the cross-category platform.
type CrossPrompt struct {
	Candidate domain.Link
	Target    domain.Section
}

// defaultMaxSocialLinks is the visible-social cap applied when the option is
// left zero.
const defaultMaxSocialLinks = 8

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	Catalog *domain.Catalog

	// MaxSocialLinks caps how many social links stay visible. Zero means
	// the default of 8.
	MaxSocialLinks int

	// AddDelay is the pacing delay before the post-add duplicate re-check.
	// Zero skips the wait but keeps the re-check.
	AddDelay time.Duration

	Logger    logx.Logger
	API       ports.LinksAPI // used only for the tipping side call; may be nil
	ProfileID string

	// OnLinkAdded fires after a link lands in the collection (new entry or
	// confirmed cross-category copy), outside the manager lock.
	OnLinkAdded func(domain.Link)
}

// Manager owns the in-memory ordered link collection and the pending
// suggestion list. Every mutation goes through it; persistence and sync
// observe it via Subscribe and the accessors instead of keeping copies.
type Manager struct {
	mu sync.Mutex

	catalog *domain.Catalog
	enrich  *EnrichService
	dups    *DuplicateService
	logger  logx.Logger

	api         ports.LinksAPI
	profileID   string
	addDelay    time.Duration
	onLinkAdded func(domain.Link)

	links     []domain.Link
	suggested []domain.Link
	prompt    *CrossPrompt
	adding    bool
	prefill   string

	subs []func([]domain.Link)
}

// NewManager creates a manager with an empty collection.
func NewManager(opts ManagerOptions) *Manager {
	catalog := opts.Catalog
	if catalog == nil {
		catalog = domain.DefaultCatalog()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logx.Discard()
	}
	maxSocial := opts.MaxSocialLinks
	if maxSocial <= 0 {
		maxSocial = defaultMaxSocialLinks
	}

	return &Manager{
		catalog:     catalog,
		enrich:      NewEnrichService(maxSocial),
		dups:        NewDuplicateService(catalog),
		logger:      logger.With("component", "links-manager"),
		api:         opts.API,
		profileID:   opts.ProfileID,
		addDelay:    opts.AddDelay,
		onLinkAdded: opts.OnLinkAdded,
	}
}

// Subscribe registers a callback invoked with a snapshot after every
// collection mutation. Callbacks run outside the manager lock.
func (m *Manager) Subscribe(fn func([]domain.Link)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
}

// Links returns a snapshot of the active collection.
func (m *Manager) Links() []domain.Link {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.CloneLinks(m.links)
}

// SetLinks replaces the active collection (initial load, server reconcile).
func (m *Manager) SetLinks(links []domain.Link) {
	m.mu.Lock()
	m.links = domain.CloneLinks(links)
	m.renumber()
	m.mu.Unlock()
	m.notify()
}

// Suggested returns a snapshot of the pending suggestion list.
func (m *Manager) Suggested() []domain.Link {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.CloneLinks(m.suggested)
}

// SetSuggested replaces the pending suggestion list.
func (m *Manager) SetSuggested(links []domain.Link) {
	m.mu.Lock()
	m.suggested = domain.CloneLinks(links)
	m.mu.Unlock()
}

// Adding reports whether an add is in its transient pacing phase.
func (m *Manager) Adding() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.adding
}

// Prompt returns the pending cross-category confirmation, if any.
func (m *Manager) Prompt() *CrossPrompt {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.prompt == nil {
		return nil
	}
	p := *m.prompt
	return &p
}

// Prefill returns and clears the URL stashed by Edit.
func (m *Manager) Prefill() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := m.prefill
	m.prefill = ""
	return v
}

// Add runs the add state machine for a candidate link. The decision order is
// fixed: enrichment, cross-category prompt, both-sections no-op, same-section
// merge, ordinary-platform duplicate discard, and finally the paced append
// with a duplicate re-check against the then-current collection.
func (m *Manager) Add(ctx context.Context, candidate domain.Link) (AddResult, *domain.Link) {
	candidate = m.enrich.Enrich(candidate)
	target := candidate.Section()

	m.mu.Lock()

	other, hasOther := target.Paired()
	sameSectionHas := m.sectionHasPlatform(target, candidate.Platform.ID)
	otherSectionHas := hasOther && m.sectionHasPlatform(other, candidate.Platform.ID)
	crossEligible := m.catalog.IsCrossCategory(candidate.Platform.ID)

	if crossEligible && hasOther && sameSectionHas && !otherSectionHas {
		m.prompt = &CrossPrompt{Candidate: candidate, Target: other}
		m.mu.Unlock()
		m.logger.Debug("cross-category prompt raised",
			"platform", candidate.Platform.ID,
			"target", other.String(),
		)
		return AddPrompted, nil
	}

	if crossEligible && sameSectionHas && otherSectionHas {
		m.mu.Unlock()
		return AddIgnored, nil
	}

	if match := m.dups.Find(candidate, m.links, target); match != nil && !match.CrossSection {
		merged, err := m.dups.MergeAt(m.links, match.Index, candidate)
		m.mu.Unlock()
		if err != nil {
			m.logger.Err(err, "op", "merge")
			return AddIgnored, nil
		}
		m.notify()
		return AddMerged, &merged
	}

	if sameSectionHas && !crossEligible {
		m.mu.Unlock()
		return AddIgnored, nil
	}

	m.adding = true
	m.mu.Unlock()

	// Pacing delay: other operations may land while the UI shows the
	// loading placeholder, so duplicates are re-resolved afterwards
	// against the current collection.
	if m.addDelay > 0 {
		select {
		case <-ctx.Done():
			m.mu.Lock()
			m.adding = false
			m.mu.Unlock()
			return AddIgnored, nil
		case <-time.After(m.addDelay):
		}
	}

	m.mu.Lock()
	var result AddResult
	var added domain.Link

	if match := m.dups.Find(candidate, m.links, target); match != nil && !match.CrossSection {
		merged, err := m.dups.MergeAt(m.links, match.Index, candidate)
		if err != nil {
			m.adding = false
			m.mu.Unlock()
			m.logger.Err(err, "op", "merge")
			return AddIgnored, nil
		}
		result, added = AddMerged, merged
	} else {
		visible := m.enrich.ShouldBeVisible(m.links, target)
		link := m.enrich.ApplyVisibility(candidate, visible)
		m.insertOrdered(link)
		result, added = AddAppended, link
	}

	m.adding = false
	m.mu.Unlock()
	m.notify()

	if m.onLinkAdded != nil {
		m.onLinkAdded(added)
	}
	m.maybeEnableTipping(added)

	return result, &added
}

// ConfirmCrossPrompt adds the held candidate to the other section with its
// category overridden, then clears the prompt.
func (m *Manager) ConfirmCrossPrompt() (*domain.Link, error) {
	m.mu.Lock()
	if m.prompt == nil {
		m.mu.Unlock()
		return nil, domain.ErrNoPendingPrompt
	}

	link := m.prompt.Candidate
	link.Platform.Category = m.prompt.Target.String()
	m.prompt = nil

	visible := m.enrich.ShouldBeVisible(m.links, link.Section())
	link = m.enrich.ApplyVisibility(link, visible)
	m.insertOrdered(link)
	m.mu.Unlock()
	m.notify()

	if m.onLinkAdded != nil {
		m.onLinkAdded(link)
	}
	return &link, nil
}

// CancelCrossPrompt discards the held candidate.
func (m *Manager) CancelCrossPrompt() {
	m.mu.Lock()
	m.prompt = nil
	m.mu.Unlock()
}

// Toggle flips visibility for the link at index. The social cap is not
// re-enforced here: it binds at add time only, matching the dashboard.
func (m *Manager) Toggle(index int) error {
	m.mu.Lock()
	if index < 0 || index >= len(m.links) {
		m.mu.Unlock()
		return domain.ErrIndexOutOfRange
	}
	m.links[index].IsVisible = !m.links[index].IsVisible
	m.mu.Unlock()
	m.notify()
	return nil
}

// Remove deletes the link at index.
func (m *Manager) Remove(index int) error {
	m.mu.Lock()
	if index < 0 || index >= len(m.links) {
		m.mu.Unlock()
		return domain.ErrIndexOutOfRange
	}
	m.links = append(m.links[:index], m.links[index+1:]...)
	m.renumber()
	m.mu.Unlock()
	m.notify()
	return nil
}

// Edit removes the link at index and stashes its URL as a prefill for the
// input control. Editing is remove-then-re-add, not an in-place mutation.
func (m *Manager) Edit(index int) (string, error) {
	m.mu.Lock()
	if index < 0 || index >= len(m.links) {
		m.mu.Unlock()
		return "", domain.ErrIndexOutOfRange
	}
	url := m.links[index].OriginalURL
	if url == "" {
		url = m.links[index].NormalizedURL
	}
	m.prefill = url
	m.links = append(m.links[:index], m.links[index+1:]...)
	m.renumber()
	m.mu.Unlock()
	m.notify()
	return url, nil
}

// Reorder moves the link at from to position to (drag and drop).
func (m *Manager) Reorder(from, to int) error {
	m.mu.Lock()
	if from < 0 || from >= len(m.links) || to < 0 || to >= len(m.links) {
		m.mu.Unlock()
		return domain.ErrIndexOutOfRange
	}
	link := m.links[from]
	m.links = append(m.links[:from], m.links[from+1:]...)
	m.links = append(m.links[:to], append([]domain.Link{link}, m.links[to:]...)...)
	m.renumber()
	m.mu.Unlock()
	m.notify()
	return nil
}

// AcceptIntoActive appends an accepted suggestion to the active collection
// and drops it from the pending list.
func (m *Manager) AcceptIntoActive(link domain.Link, suggestionID string) {
	m.mu.Lock()
	link.State = domain.LinkStateActive
	m.links = append(m.links, link)
	m.renumber()
	m.suggested = domain.RemoveSuggestion(m.suggested, suggestionID)
	m.mu.Unlock()
	m.notify()
}

// DropSuggestion removes a dismissed suggestion from the pending list.
func (m *Manager) DropSuggestion(suggestionID string) {
	m.mu.Lock()
	m.suggested = domain.RemoveSuggestion(m.suggested, suggestionID)
	m.mu.Unlock()
}

// sectionHasPlatform reports whether the platform id already occurs in the
// section. Caller holds m.mu.
func (m *Manager) sectionHasPlatform(section domain.Section, platformID string) bool {
	for i := range m.links {
		if m.links[i].Section() == section && m.links[i].Platform.ID == platformID {
			return true
		}
	}
	return false
}

// insertOrdered places the link immediately before the first same-section
// entry with a strictly greater popularity rank, or after the section's last
// member, or at the end. Caller holds m.mu.
func (m *Manager) insertOrdered(link domain.Link) {
	section := link.Section()
	insertAt := -1
	lastInSection := -1

	for i := range m.links {
		if m.links[i].Section() != section {
			continue
		}
		lastInSection = i
		if insertAt == -1 && m.links[i].Platform.Rank > link.Platform.Rank {
			insertAt = i
		}
	}

	switch {
	case insertAt >= 0:
		m.links = append(m.links[:insertAt], append([]domain.Link{link}, m.links[insertAt:]...)...)
	case lastInSection >= 0:
		at := lastInSection + 1
		m.links = append(m.links[:at], append([]domain.Link{link}, m.links[at:]...)...)
	default:
		m.links = append(m.links, link)
	}

	m.renumber()
}

// renumber rewrites Order sequentially per section. Caller holds m.mu.
func (m *Manager) renumber() {
	counters := make(map[domain.Section]int)
	for i := range m.links {
		s := m.links[i].Section()
		m.links[i].Order = counters[s]
		counters[s]++
	}
}

// notify fans the current snapshot out to subscribers, outside the lock.
func (m *Manager) notify() {
	m.mu.Lock()
	snapshot := domain.CloneLinks(m.links)
	subs := make([]func([]domain.Link), len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	for _, fn := range subs {
		fn(domain.CloneLinks(snapshot))
	}
}

// maybeEnableTipping fires the best-effort tipping-enable call when the
// payments platform lands. Failures are logged, never surfaced.
func (m *Manager) maybeEnableTipping(link domain.Link) {
	if link.Platform.ID != tippingPlatformID || m.api == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := m.api.EnableTipping(ctx, m.profileID); err != nil {
			m.logger.Warn("tipping enable failed", "error", err.Error())
		}
	}()
}

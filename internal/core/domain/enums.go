// internal/core/domain/enums.go
package domain

// Section groups links for display and for the cap / cross-category rules.
type Section string

const (
	// SectionSocial holds social network profiles (capped visibility).
	SectionSocial Section = "social"

	// SectionDSP holds music/streaming service profiles.
	SectionDSP Section = "dsp"

	// SectionEarnings holds monetization destinations (tips, memberships).
	SectionEarnings Section = "earnings"

	// SectionCustom holds everything else, including plain websites.
	SectionCustom Section = "custom"
)

// IsValid reports whether the section is one of the known values.
func (s Section) IsValid() bool {
	switch s {
	case SectionSocial, SectionDSP, SectionEarnings, SectionCustom:
		return true
	default:
		return false
	}
}

// String returns the string representation of the section.
func (s Section) String() string {
	return string(s)
}

// Paired returns the companion section for the cross-category rule.
// Only social and dsp are paired; every other section stands alone.
func (s Section) Paired() (Section, bool) {
	switch s {
	case SectionSocial:
		return SectionDSP, true
	case SectionDSP:
		return SectionSocial, true
	default:
		return "", false
	}
}

// SectionOf maps a platform category to its display section.
// The "websites" category folds into custom; an absent category is custom.
func SectionOf(category string) Section {
	switch category {
	case "social":
		return SectionSocial
	case "dsp":
		return SectionDSP
	case "earnings":
		return SectionEarnings
	default:
		return SectionCustom
	}
}

// LinkState tags where a link sits in its lifecycle.
type LinkState string

const (
	// LinkStateActive is a confirmed link shown on the profile.
	LinkStateActive LinkState = "active"

	// LinkStateSuggested is an AI-proposed link awaiting user action.
	LinkStateSuggested LinkState = "suggested"

	// LinkStateRejected is a dismissed suggestion.
	LinkStateRejected LinkState = "rejected"
)

// IsValid reports whether the state is one of the known values.
func (s LinkState) IsValid() bool {
	switch s {
	case LinkStateActive, LinkStateSuggested, LinkStateRejected:
		return true
	default:
		return false
	}
}

// String returns the string representation of the state.
func (s LinkState) String() string {
	return string(s)
}

// SuggestionAction is the user verdict on a suggested link.
type SuggestionAction string

const (
	ActionAccept  SuggestionAction = "accept"
	ActionDismiss SuggestionAction = "dismiss"
)

// IsValid reports whether the action is one of the known values.
func (a SuggestionAction) IsValid() bool {
	return a == ActionAccept || a == ActionDismiss
}

// String returns the string representation of the action.
func (a SuggestionAction) String() string {
	return string(a)
}

// Package output renders link state to the terminal with pterm.
package output

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"

	"linkdeck/internal/core/domain"
)

// TableRenderer prints the link collection grouped by section, plus the
// pending suggestion list.
type TableRenderer struct {
	out     io.Writer
	noColor bool
}

// NewTableRenderer creates a renderer writing to out.
func NewTableRenderer(out io.Writer, noColor bool) *TableRenderer {
	if noColor {
		pterm.DisableColor()
	}
	return &TableRenderer{out: out, noColor: noColor}
}

var sectionOrder = []domain.Section{
	domain.SectionSocial,
	domain.SectionDSP,
	domain.SectionEarnings,
	domain.SectionCustom,
}

var sectionTitles = map[domain.Section]string{
	domain.SectionSocial:   "Social",
	domain.SectionDSP:      "Music & Streaming",
	domain.SectionEarnings: "Earnings",
	domain.SectionCustom:   "Custom",
}

// Header prints the top banner with the profile id.
func (r *TableRenderer) Header(profileID string) {
	pterm.DefaultHeader.
		WithWriter(r.out).
		WithBackgroundStyle(pterm.NewStyle(pterm.BgCyan)).
		WithTextStyle(pterm.NewStyle(pterm.FgBlack)).
		Println("linkdeck - profile " + profileID)
	pterm.Fprintln(r.out)
}

// Links prints the active links grouped by section, in display order.
func (r *TableRenderer) Links(links []domain.Link) {
	for _, section := range sectionOrder {
		rows := pterm.TableData{{"", "Platform", "Title", "URL"}}
		count := 0
		for i := range links {
			l := &links[i]
			if l.Section() != section || l.IsSuggestion() {
				continue
			}
			rows = append(rows, []string{
				visibilityMark(l),
				l.Platform.Name,
				l.SuggestedTitle,
				l.NormalizedURL,
			})
			count++
		}
		if count == 0 {
			continue
		}

		pterm.DefaultSection.WithWriter(r.out).WithLevel(2).Println(sectionTitles[section])
		if err := pterm.DefaultTable.
			WithWriter(r.out).
			WithHasHeader().
			WithData(rows).
			Render(); err != nil {
			pterm.Fprintln(r.out, fmt.Sprintf("render failed: %v", err))
		}
		pterm.Fprintln(r.out)
	}
}

// Suggestions prints the pending suggestion list with provenance.
func (r *TableRenderer) Suggestions(suggested []domain.Link) {
	if len(suggested) == 0 {
		return
	}

	pterm.DefaultSection.WithWriter(r.out).WithLevel(2).Println("Suggested links")

	rows := pterm.TableData{{"Platform", "URL", "Source", "Confidence"}}
	for i := range suggested {
		s := &suggested[i]
		rows = append(rows, []string{
			s.Platform.Name,
			s.NormalizedURL,
			provenance(s),
			fmt.Sprintf("%.0f%%", s.Confidence*100),
		})
	}

	if err := pterm.DefaultTable.
		WithWriter(r.out).
		WithHasHeader().
		WithData(rows).
		Render(); err != nil {
		pterm.Fprintln(r.out, fmt.Sprintf("render failed: %v", err))
	}
	pterm.Fprintln(r.out)
}

func visibilityMark(l *domain.Link) string {
	switch {
	case !l.IsValid:
		return pterm.Red("!")
	case l.IsVisible:
		return pterm.Green("●")
	default:
		return pterm.Gray("○")
	}
}

func provenance(l *domain.Link) string {
	if l.SourcePlatform == "" {
		return "-"
	}
	if l.SourceType != "" {
		return l.SourcePlatform + "/" + l.SourceType
	}
	return l.SourcePlatform
}

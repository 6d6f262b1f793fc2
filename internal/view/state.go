package view

import (
	"fmt"
	"time"
)

// Section anchors the dashboard can jump to.
type Section string

const (
	SectionThreat  Section = "threat-level"
	SectionSummary Section = "summary"
	SectionCharts  Section = "charts"
	SectionEvents  Section = "events"
)

// Sections lists the navigation targets in page order.
func Sections() []Section {
	return []Section{SectionThreat, SectionSummary, SectionCharts, SectionEvents}
}

// ParseSection validates a section name.
func ParseSection(s string) (Section, error) {
	for _, sec := range Sections() {
		if string(sec) == s {
			return sec, nil
		}
	}
	return "", fmt.Errorf("unknown section %q", s)
}

// ViewState is the transient UI state: exactly one tab is active at a time.
type ViewState struct {
	Tab         Tab       `json:"tab"`
	Expanded    bool      `json:"expanded"`
	MenuOpen    bool      `json:"menu_open"`
	Focus       Section   `json:"focus"`
	LastUpdated time.Time `json:"last_updated"`
}

// NewViewState starts on the given tab with the summary collapsed.
func NewViewState(tab Tab) ViewState {
	if tab != TabChatter {
		tab = TabNews
	}
	return ViewState{Tab: tab, Focus: SectionThreat}
}

// SetTab switches the active tab. Unknown tabs leave the state unchanged.
func (v *ViewState) SetTab(t Tab) error {
	if _, err := ParseTab(string(t)); err != nil {
		return err
	}
	v.Tab = t
	return nil
}

// NextTab flips between news and chatter.
func (v *ViewState) NextTab() {
	if v.Tab == TabNews {
		v.Tab = TabChatter
	} else {
		v.Tab = TabNews
	}
}

// ToggleExpanded flips the summary detail view.
func (v *ViewState) ToggleExpanded() { v.Expanded = !v.Expanded }

// ToggleMenu flips the section menu.
func (v *ViewState) ToggleMenu() { v.MenuOpen = !v.MenuOpen }

// Navigate focuses a section and closes the menu.
func (v *ViewState) Navigate(s Section) {
	v.Focus = s
	v.MenuOpen = false
}

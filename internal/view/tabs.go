package view

import (
	"fmt"

	"github.com/runnerr0/quix/internal/api"
)

// Tab selects which half of the event feed is listed.
type Tab string

const (
	TabNews    Tab = "news"
	TabChatter Tab = "chatter"
	// TabNone is returned for platforms that belong to neither tab.
	TabNone Tab = ""
)

// ParseTab validates a tab name.
func ParseTab(s string) (Tab, error) {
	switch Tab(s) {
	case TabNews, TabChatter:
		return Tab(s), nil
	}
	return TabNone, fmt.Errorf("unknown tab %q (use news or chatter)", s)
}

// TabFor maps a platform to its tab.
func TabFor(p api.Platform) Tab {
	switch p {
	case api.PlatformRSS, api.PlatformGDELT:
		return TabNews
	case api.PlatformReddit, api.PlatformTelegram, api.PlatformDiscord:
		return TabChatter
	}
	return TabNone
}

// FilterByTab returns the events belonging to tab, in input order.
func FilterByTab(events []api.Event, tab Tab) []api.Event {
	out := []api.Event{}
	if tab == TabNone {
		return out
	}
	for _, e := range events {
		if TabFor(e.Platform) == tab {
			out = append(out, e)
		}
	}
	return out
}

// TabCounts counts events per tab. Events on unknown platforms are not counted.
func TabCounts(events []api.Event) map[Tab]int {
	counts := map[Tab]int{TabNews: 0, TabChatter: 0}
	for _, e := range events {
		if t := TabFor(e.Platform); t != TabNone {
			counts[t]++
		}
	}
	return counts
}

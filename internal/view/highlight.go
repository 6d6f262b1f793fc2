package view

import "strings"

// Span is a run of text with a single emphasis.
type Span struct {
	Text string `json:"text"`
	Bold bool   `json:"bold,omitempty"`
}

// Highlight splits "**bold**" markup into spans. An unmatched marker is
// kept as literal text.
func Highlight(s string) []Span {
	var spans []Span
	for s != "" {
		open := strings.Index(s, "**")
		if open < 0 {
			spans = append(spans, Span{Text: s})
			break
		}
		closeAt := strings.Index(s[open+2:], "**")
		if closeAt < 0 {
			spans = append(spans, Span{Text: s})
			break
		}
		if open > 0 {
			spans = append(spans, Span{Text: s[:open]})
		}
		if inner := s[open+2 : open+2+closeAt]; inner != "" {
			spans = append(spans, Span{Text: inner, Bold: true})
		}
		s = s[open+2+closeAt+2:]
	}
	return spans
}

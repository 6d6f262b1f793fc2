package view

import (
	"strings"
	"unicode"
)

const (
	threatLevelMarker = "THREAT LEVEL:"
	executiveMarker   = "EXECUTIVE ASSESSMENT:"
)

// ReportSection is one "HEADING:" block of the situation report.
type ReportSection struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

// Line renders the section as "HEADING: body".
func (s ReportSection) Line() string {
	if s.Body == "" {
		return s.Heading
	}
	return s.Heading + " " + s.Body
}

// SummaryReport is the parsed form of the summary free text.
type SummaryReport struct {
	ThreatLevel string          `json:"threat_level,omitempty"`
	Executive   string          `json:"executive,omitempty"`
	Sections    []ReportSection `json:"sections,omitempty"`
	Paragraphs  []string        `json:"paragraphs,omitempty"`
	// Fallback is set when neither the threat level line nor the executive
	// assessment could be found.
	Fallback bool `json:"fallback"`
}

// Empty reports whether there was no text at all.
func (r SummaryReport) Empty() bool {
	return len(r.Paragraphs) == 0
}

// Collapsed returns the lines shown before the report is expanded.
func (r SummaryReport) Collapsed() []string {
	if r.Fallback {
		if len(r.Paragraphs) == 0 {
			return nil
		}
		return r.Paragraphs[:1]
	}
	var out []string
	if r.ThreatLevel != "" {
		out = append(out, r.ThreatLevel)
	}
	if r.Executive != "" {
		out = append(out, r.Executive)
	}
	return out
}

// Expanded returns the collapsed lines followed by every remaining section.
func (r SummaryReport) Expanded() []string {
	if r.Fallback {
		return r.Paragraphs
	}
	out := r.Collapsed()
	for _, s := range r.Sections {
		out = append(out, s.Line())
	}
	return out
}

// HasMore reports whether expanding would show anything extra.
func (r SummaryReport) HasMore() bool {
	return len(r.Expanded()) > len(r.Collapsed())
}

// ParseSummary splits the summary text into its threat level line, the
// executive assessment and the remaining sections.
func ParseSummary(text string) SummaryReport {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var (
		report    SummaryReport
		current   *strings.Builder
		sectionAt = -1
		inExec    bool
		execBody  strings.Builder
		execSeen  bool
		blank     bool
	)

	flush := func() {
		if current == nil {
			return
		}
		body := strings.TrimSpace(current.String())
		if inExec {
			report.Executive = body
		} else if sectionAt >= 0 {
			report.Sections[sectionAt].Body = body
		}
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			blank = true
			continue
		}

		if plain := StripMarkup(line); strings.HasPrefix(strings.ToUpper(plain), threatLevelMarker) && report.ThreatLevel == "" {
			flush()
			current, inExec, sectionAt = nil, false, -1
			report.ThreatLevel = plain
			blank = false
			continue
		}

		if heading, rest, ok := splitHeading(line); ok {
			flush()
			if strings.EqualFold(heading, executiveMarker) && !execSeen {
				execSeen, inExec, sectionAt = true, true, -1
				execBody.Reset()
				current = &execBody
			} else {
				inExec = false
				report.Sections = append(report.Sections, ReportSection{Heading: heading})
				sectionAt = len(report.Sections) - 1
				current = &strings.Builder{}
			}
			if rest != "" {
				current.WriteString(rest)
			}
			blank = false
			continue
		}

		if current != nil {
			if current.Len() > 0 {
				if blank {
					current.WriteString("\n\n")
				} else {
					current.WriteString("\n")
				}
			}
			current.WriteString(line)
		}
		blank = false
	}
	flush()

	report.Paragraphs = paragraphs(text)
	report.Fallback = report.ThreatLevel == "" && !execSeen
	return report
}

// splitHeading recognises "**NAME:**", "**NAME**:", and bare upper-case
// "NAME:" lines, optionally followed by inline text.
func splitHeading(line string) (heading, rest string, ok bool) {
	if strings.HasPrefix(line, "**") {
		end := strings.Index(line[2:], "**")
		if end < 0 {
			return "", "", false
		}
		inner := strings.TrimSpace(line[2 : 2+end])
		after := strings.TrimSpace(line[2+end+2:])
		switch {
		case strings.HasSuffix(inner, ":") && isUpperLabel(inner):
			return inner, after, true
		case strings.HasPrefix(after, ":") && isUpperLabel(inner+":"):
			return inner + ":", strings.TrimSpace(after[1:]), true
		}
		return "", "", false
	}

	if strings.HasSuffix(line, ":") && isUpperLabel(line) {
		return line, "", true
	}
	return "", "", false
}

// isUpperLabel reports whether s is a short label whose letters are all
// upper case, ending in a colon.
func isUpperLabel(s string) bool {
	if !strings.HasSuffix(s, ":") || len(s) > 64 {
		return false
	}
	letters := 0
	for _, r := range s[:len(s)-1] {
		switch {
		case unicode.IsLetter(r):
			if !unicode.IsUpper(r) {
				return false
			}
			letters++
		case unicode.IsDigit(r), r == ' ', r == '-', r == '/', r == '&', r == '(', r == ')':
		default:
			return false
		}
	}
	return letters > 0
}

func paragraphs(text string) []string {
	var out []string
	for _, block := range strings.Split(text, "\n\n") {
		var lines []string
		for _, l := range strings.Split(block, "\n") {
			if l = strings.TrimSpace(l); l != "" {
				lines = append(lines, l)
			}
		}
		if len(lines) > 0 {
			out = append(out, StripMarkup(strings.Join(lines, " ")))
		}
	}
	return out
}

// StripMarkup removes bold markers.
func StripMarkup(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "**", ""))
}

package segment

import (
	"regexp"
	"strings"
)

// probe binds a metadata field to its pattern and postprocessing step.
// Probes are independent: one failing to match never affects another,
// and a miss simply leaves the field unset.
type probe struct {
	name    string
	pattern *regexp.Regexp
	apply   func(m *Metadata, match []string)
}

const (
	minFieldLen = 3
	maxFieldLen = 100
)

// sane rejects captures too short to mean anything or long enough to be
// a runaway match.
func sane(s string) (string, bool) {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) < minFieldLen || len(s) > maxFieldLen {
		return "", false
	}
	return s, true
}

var metadataProbes = []probe{
	{
		name:    "record_number",
		pattern: regexp.MustCompile(`(?i)\b(?:Hadis|Hadits)\s+(\d+)`),
		apply: func(m *Metadata, match []string) {
			m.RecordNumber = match[1]
		},
	},
	{
		name:    "attribution",
		pattern: regexp.MustCompile(`\bHR\.\s+([A-Z][A-Za-z]+(?:\s+(?:dan|wa)\s+[A-Z][A-Za-z]+)*)`),
		apply: func(m *Metadata, match []string) {
			if v, ok := sane(match[1]); ok {
				m.Attribution = v
			}
		},
	},
	{
		name:    "quality_grade",
		pattern: regexp.MustCompile(`(?i)\b(shahih|sahih|hasan|dhaif|daif|lemah)\b`),
		apply: func(m *Metadata, match []string) {
			switch strings.ToLower(match[1]) {
			case "shahih", "sahih":
				m.Grade = GradeAuthentic
			case "hasan":
				m.Grade = GradeAcceptable
			case "dhaif", "daif", "lemah":
				m.Grade = GradeWeak
			}
		},
	},
	{
		name:    "source_work",
		// The title words stay case-sensitive so a lowercase grade
		// mention ("dinilai shahih oleh ...") is not read as a work.
		pattern: regexp.MustCompile(`\b((?i:Kitab|Shahih|Sahih|Sunan|Musnad|Muwaththa)\s+[A-Z][A-Za-z-]+(?:\s+[A-Z][A-Za-z-]+)?)`),
		apply: func(m *Metadata, match []string) {
			if v, ok := sane(match[1]); ok {
				m.SourceWork = v
			}
		},
	},
}

// ExtractMetadata runs every probe against the chunk text. Absent matches
// leave fields unset; extraction never fails.
func ExtractMetadata(text string) Metadata {
	var m Metadata
	for _, p := range metadataProbes {
		match := p.pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		p.apply(&m, match)
	}
	return m
}

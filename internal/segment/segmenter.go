package segment

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Segmenter splits page text into chunks of bounded size.
type Segmenter struct {
	chunkSize int
	overlap   int
	cleaner   *Cleaner
}

// Boundary markers, tried together: a chunk ideally starts at a numbered
// record, an attribution citation on its own line, or a Quranic ornament
// glyph (rub el hizb, end of ayah).
var boundaryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bHadis\s+\d+`),
	regexp.MustCompile(`(?m)^\s*HR\.\s+[A-Z]`),
	regexp.MustCompile("[۞۝]"),
}

// separators tried in order when a fallback window needs a cut point.
var separators = []string{"\n\n", "\n", ". ", "! ", "? ", " "}

// NewSegmenter creates a segmenter. chunkSize bounds chunk length in
// characters; overlap is the repeated span between fallback windows and
// must be smaller than chunkSize.
func NewSegmenter(chunkSize, overlap int) *Segmenter {
	return &Segmenter{
		chunkSize: chunkSize,
		overlap:   overlap,
		cleaner:   NewCleaner(true),
	}
}

// Segment splits text for one page into chunks with extracted metadata.
// Empty or blank input yields no chunks and no error.
func (s *Segmenter) Segment(text string, pageNumber int) []Chunk {
	cleaned := s.cleaner.ExtractClean(text)
	if cleaned == "" {
		return nil
	}

	parts := s.splitStructural(cleaned)
	if !s.structuralValid(parts) {
		parts = s.splitWindows(cleaned)
	}

	chunks := make([]Chunk, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		chunks = append(chunks, Chunk{
			ID:         uuid.NewString(),
			Text:       part,
			Ordinal:    len(chunks),
			PageNumber: pageNumber,
			Metadata:   ExtractMetadata(part),
		})
	}
	return chunks
}

// splitStructural cuts at boundary markers, greedily accumulating pieces
// until the next would push past chunkSize. Returns nil when no marker
// is found.
func (s *Segmenter) splitStructural(text string) []string {
	starts := boundaryStarts(text)
	if len(starts) == 0 {
		return nil
	}

	// Pieces between consecutive boundaries, keeping any preamble before
	// the first marker.
	var pieces []string
	if starts[0] > 0 {
		pieces = append(pieces, text[:starts[0]])
	}
	for i, start := range starts {
		end := len(text)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		pieces = append(pieces, text[start:end])
	}

	var parts []string
	var current strings.Builder
	for _, piece := range pieces {
		if current.Len() > 0 && current.Len()+len(piece) > s.chunkSize {
			parts = append(parts, current.String())
			current.Reset()
		}
		current.WriteString(piece)
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

// boundaryStarts merges match starts from all patterns, sorted and
// deduplicated.
func boundaryStarts(text string) []int {
	seen := make(map[int]bool)
	var starts []int
	for _, pattern := range boundaryPatterns {
		for _, loc := range pattern.FindAllStringIndex(text, -1) {
			if !seen[loc[0]] {
				seen[loc[0]] = true
				starts = append(starts, loc[0])
			}
		}
	}
	sort.Ints(starts)
	return starts
}

// structuralValid rejects a structural split that found nothing or that
// produced a runaway chunk; the window fallback then guarantees the
// 2×chunkSize bound.
func (s *Segmenter) structuralValid(parts []string) bool {
	if len(parts) == 0 {
		return false
	}
	for _, p := range parts {
		if len(p) > 2*s.chunkSize {
			return false
		}
	}
	return true
}

// splitWindows slides a chunkSize window with overlap characters of
// repeat, preferring to cut at the last natural separator in the back
// half of the window so words and sentences stay intact.
func (s *Segmenter) splitWindows(text string) []string {
	step := s.chunkSize - s.overlap
	if step <= 0 {
		step = s.chunkSize
	}

	var parts []string
	for start := 0; start < len(text); {
		end := start + s.chunkSize
		if end >= len(text) {
			parts = append(parts, text[start:])
			break
		}

		cut := s.findCut(text, start, end)
		parts = append(parts, text[start:cut])

		next := runeFloor(text, cut-s.overlap)
		if next <= start {
			next = runeCeil(text, start+step)
		}
		start = next
	}
	return parts
}

// findCut looks for the best separator in the back half of the window.
// Falls back to a hard cut at end when the window has no separator.
func (s *Segmenter) findCut(text string, start, end int) int {
	half := start + (end-start)/2
	window := text[half:end]
	for _, sep := range separators {
		if idx := strings.LastIndex(window, sep); idx >= 0 {
			return half + idx + len(sep)
		}
	}
	return runeFloor(text, end)
}

// runeFloor backs a byte offset up to the nearest rune start so a cut
// never splits a multi-byte character.
func runeFloor(text string, i int) int {
	for i > 0 && i < len(text) && !utf8.RuneStart(text[i]) {
		i--
	}
	return i
}

// runeCeil advances a byte offset forward to the nearest rune start.
func runeCeil(text string, i int) int {
	for i < len(text) && !utf8.RuneStart(text[i]) {
		i++
	}
	return i
}

// Package segment turns raw page text into bounded, retrievable chunks
// enriched with structured metadata.
//
// Splitting is structure-aware when the page carries recognizable record
// boundaries (numbered hadith markers, attribution citations, Quranic
// ornament glyphs) and falls back to fixed windows with overlap when it
// does not. Malformed input never fails; it only produces fewer or
// degraded chunks.
package segment

// QualityGrade is the authenticity tier of a hadith record.
type QualityGrade string

const (
	// GradeAuthentic covers shahih/sahih gradings.
	GradeAuthentic QualityGrade = "authentic"
	// GradeAcceptable covers hasan gradings.
	GradeAcceptable QualityGrade = "acceptable"
	// GradeWeak covers dhaif gradings.
	GradeWeak QualityGrade = "weak"
)

// Metadata holds attributes extracted from chunk text. Every field is
// optional; the zero value means the probe found nothing.
type Metadata struct {
	// RecordNumber is the hadith number within its collection.
	RecordNumber string `json:"record_number,omitempty"`
	// Attribution is the narrator cited in an "HR. <name>" citation.
	Attribution string `json:"attribution,omitempty"`
	// Grade is the authenticity tier, if stated.
	Grade QualityGrade `json:"grade,omitempty"`
	// SourceWork is the collection name (e.g. "Shahih Bukhari").
	SourceWork string `json:"source_work,omitempty"`

	// Extra keeps unrecognized attributes for debugging; never scored.
	Extra map[string]string `json:"extra,omitempty"`
}

// IsZero reports whether no probe matched.
func (m Metadata) IsZero() bool {
	return m.RecordNumber == "" && m.Attribution == "" && m.Grade == "" &&
		m.SourceWork == "" && len(m.Extra) == 0
}

// Chunk is a draft retrievable unit produced by the segmenter. IDs are
// minted here; persistence and embedding happen downstream.
type Chunk struct {
	ID         string   `json:"id"`
	Text       string   `json:"text"`
	Ordinal    int      `json:"ordinal"`
	PageNumber int      `json:"page_number"`
	Metadata   Metadata `json:"metadata"`
}

package vectorstore

import (
	"fmt"
	"strings"
)

const maxFilterDocumentIDs = 256

// Filter narrows a query to a source work, a set of documents, or both.
// The zero value matches everything.
type Filter struct {
	// SourceWork restricts hits to chunks from one collection work
	// (e.g. "Shahih Bukhari"). Matching is case-insensitive.
	SourceWork string

	// DocumentIDs restricts hits to chunks belonging to any of the
	// listed documents.
	DocumentIDs []string
}

// IsZero reports whether the filter imposes no restriction.
func (f *Filter) IsZero() bool {
	return f == nil || (f.SourceWork == "" && len(f.DocumentIDs) == 0)
}

// Validate rejects filters that cannot match anything. A nil filter is
// valid.
func (f *Filter) Validate() error {
	if f == nil {
		return nil
	}
	if strings.TrimSpace(f.SourceWork) == "" && f.SourceWork != "" {
		return fmt.Errorf("%w: blank source work", ErrMalformedFilter)
	}
	if len(f.DocumentIDs) > maxFilterDocumentIDs {
		return fmt.Errorf("%w: %d document IDs exceeds limit of %d",
			ErrMalformedFilter, len(f.DocumentIDs), maxFilterDocumentIDs)
	}
	for _, id := range f.DocumentIDs {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%w: blank document ID", ErrMalformedFilter)
		}
	}
	return nil
}

// matchesDocument reports whether docID passes the document restriction.
func (f *Filter) matchesDocument(docID string) bool {
	if f == nil || len(f.DocumentIDs) == 0 {
		return true
	}
	for _, id := range f.DocumentIDs {
		if id == docID {
			return true
		}
	}
	return false
}

// matchesWork reports whether work passes the source-work restriction.
// A substring match keeps "Bukhari" usable against "Shahih Bukhari".
func (f *Filter) matchesWork(work string) bool {
	if f == nil || f.SourceWork == "" {
		return true
	}
	return strings.Contains(strings.ToLower(work), strings.ToLower(f.SourceWork))
}

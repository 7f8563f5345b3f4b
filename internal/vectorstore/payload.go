package vectorstore

import (
	"strconv"

	"github.com/fikralabs/hadisd/internal/segment"
)

// Payload keys shared by both backends. Chromem only stores strings, so
// integer fields round-trip through strconv.
const (
	payloadText         = "text"
	payloadDocumentID   = "document_id"
	payloadOrdinal      = "ordinal"
	payloadPageNumber   = "page_number"
	payloadRecordNumber = "record_number"
	payloadAttribution  = "attribution"
	payloadGrade        = "grade"
	payloadSourceWork   = "source_work"
)

// chunkPayload flattens a stored chunk into string metadata. Empty
// metadata fields are omitted.
func chunkPayload(c StoredChunk) map[string]string {
	p := map[string]string{
		payloadText:       c.Chunk.Text,
		payloadDocumentID: c.DocumentID,
		payloadOrdinal:    strconv.Itoa(c.Chunk.Ordinal),
		payloadPageNumber: strconv.Itoa(c.Chunk.PageNumber),
	}
	m := c.Chunk.Metadata
	if m.RecordNumber != "" {
		p[payloadRecordNumber] = m.RecordNumber
	}
	if m.Attribution != "" {
		p[payloadAttribution] = m.Attribution
	}
	if m.Grade != "" {
		p[payloadGrade] = string(m.Grade)
	}
	if m.SourceWork != "" {
		p[payloadSourceWork] = m.SourceWork
	}
	return p
}

// chunkFromPayload rebuilds a stored chunk from flattened metadata.
// Missing or garbled fields degrade to zero values; retrieval must not
// fail on a single bad payload.
func chunkFromPayload(id string, p map[string]string) StoredChunk {
	ordinal, _ := strconv.Atoi(p[payloadOrdinal])
	page, _ := strconv.Atoi(p[payloadPageNumber])

	return StoredChunk{
		Chunk: segment.Chunk{
			ID:         id,
			Text:       p[payloadText],
			Ordinal:    ordinal,
			PageNumber: page,
			Metadata: segment.Metadata{
				RecordNumber: p[payloadRecordNumber],
				Attribution:  p[payloadAttribution],
				Grade:        segment.QualityGrade(p[payloadGrade]),
				SourceWork:   p[payloadSourceWork],
			},
		},
		DocumentID: p[payloadDocumentID],
	}
}

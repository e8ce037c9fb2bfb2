// Package unit defines the retrievable unit shared by ingestion and retrieval.
package unit

import (
	"strconv"
)

// Modality tags where a unit's text came from.
type Modality string

const (
	// Text units are chunks of a plain text file.
	Text Modality = "text"

	// ImageAnalysis units combine OCR output and a visual description of one image.
	ImageAnalysis Modality = "image_analysis"

	// AudioTranscription units hold the transcript of one audio file.
	AudioTranscription Modality = "audio_transcription"
)

// Metadata keys as stored alongside each vector.
const (
	KeySource      = "source"
	KeyType        = "type"
	KeyID          = "id"
	KeyStartOffset = "start_char_idx"
	KeyContentHash = "content_hash"
)

// Unit is one retrievable piece of text and its metadata.
type Unit struct {
	// ID is a deterministic UUID string, see package identity.
	ID string

	// Text is the content that gets embedded and later shown as context.
	Text string

	Metadata Metadata
}

// Metadata describes where a unit came from.
type Metadata struct {
	// Source is the bare filename of the originating file.
	Source string

	Type Modality

	// ID mirrors Unit.ID so it survives stores that only return payloads.
	ID string

	// StartOffset is the character offset of a text chunk in its file.
	// It is only meaningful for Text units.
	StartOffset int

	// ContentHash is the hex SHA-256 of the file for whole-file units.
	ContentHash string
}

// Map flattens the metadata into the string map vector stores persist.
// Keys that do not apply to the unit's modality are omitted.
func (m Metadata) Map() map[string]string {
	out := map[string]string{
		KeySource: m.Source,
		KeyType:   string(m.Type),
		KeyID:     m.ID,
	}
	if m.Type == Text {
		out[KeyStartOffset] = strconv.Itoa(m.StartOffset)
	}
	if m.ContentHash != "" {
		out[KeyContentHash] = m.ContentHash
	}
	return out
}

// MetadataFromMap is the inverse of Metadata.Map. Unknown keys are ignored and
// a malformed offset reads as zero.
func MetadataFromMap(m map[string]string) Metadata {
	md := Metadata{
		Source:      m[KeySource],
		Type:        Modality(m[KeyType]),
		ID:          m[KeyID],
		ContentHash: m[KeyContentHash],
	}
	if raw, ok := m[KeyStartOffset]; ok {
		if n, err := strconv.Atoi(raw); err == nil {
			md.StartOffset = n
		}
	}
	return md
}

// Retrieved is a unit returned by a similarity query.
type Retrieved struct {
	Unit

	// Score is the store's similarity score, higher is more relevant.
	Score float32

	// Rank is the 0-based position in the final ordered result.
	Rank int
}

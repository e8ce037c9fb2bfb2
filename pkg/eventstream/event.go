package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/medrag/pkg/unit"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeIngestCompleted is emitted after an ingest run stored its units.
	EventTypeIngestCompleted = "medrag.ingest.completed"
)

// IngestEvent is a transport-neutral event payload for a completed ingest run.
type IngestEvent struct {
	SchemaVersion int         `json:"schema_version"`
	EventType     string      `json:"event_type"`
	EventID       string      `json:"event_id"`
	EmittedAt     time.Time   `json:"emitted_at"`
	Stats         IngestStats `json:"stats"`
	Units         []UnitRef   `json:"units"`
}

// IngestStats summarizes the run.
type IngestStats struct {
	TextFiles  int   `json:"text_files"`
	ImageFiles int   `json:"image_files"`
	AudioFiles int   `json:"audio_files"`
	Units      int   `json:"units"`
	NewUnits   int   `json:"new_units"`
	DurationMs int64 `json:"duration_ms"`
}

// UnitRef identifies one stored unit.
type UnitRef struct {
	ID     string        `json:"id"`
	Source string        `json:"source"`
	Type   unit.Modality `json:"type"`
}

// NewIngestEvent builds a v1 event for units with a fresh event ID.
func NewIngestEvent(stats IngestStats, units []unit.Unit, emittedAt time.Time) *IngestEvent {
	refs := make([]UnitRef, 0, len(units))
	for _, u := range units {
		refs = append(refs, UnitRef{ID: u.ID, Source: u.Metadata.Source, Type: u.Metadata.Type})
	}
	return &IngestEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeIngestCompleted,
		EventID:       "evt_" + uuid.NewString(),
		EmittedAt:     emittedAt.UTC(),
		Stats:         stats,
		Units:         refs,
	}
}

package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/planets/internal/universe"
)

type runExport struct {
	Metadata *RunMetadata `json:"metadata,omitempty"`
	Frames   []Frame      `json:"frames"`
}

// ExportJSON writes a run as a single JSON document.
func ExportJSON(w io.Writer, meta *RunMetadata, frames []Frame) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(runExport{Metadata: meta, Frames: frames})
}

// ExportUniverseJSON writes the current state of u as a single frame.
func ExportUniverseJSON(w io.Writer, u *universe.Universe) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Capture(u, 0, 0))
}

package plan

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/starford/ansuz/internal/checksum"
)

const sidecarVersion = 1

// Sidecar is the structured record written next to a plan note. The note is
// the editable view; the sidecar keeps the items exactly as generated.
type Sidecar struct {
	Version  int             `json:"version"`
	Source   string          `json:"source"`
	Checksum string          `json:"checksum"` // of the rendered note
	Document Document        `json:"document"`
	Items    []ChecklistItem `json:"items"`
}

// SidecarPath returns the sidecar location for a plan note.
func SidecarPath(notePath string) string {
	return strings.TrimSuffix(notePath, ".md") + ".plan.json"
}

// NewSidecar builds the record for a freshly rendered note.
func NewSidecar(doc *Document, source string, rendered []byte) *Sidecar {
	return &Sidecar{
		Version:  sidecarVersion,
		Source:   source,
		Checksum: checksum.Sum(rendered),
		Document: *doc,
		Items:    doc.ChecklistNotes,
	}
}

// Encode serialises the sidecar as indented JSON.
func (s *Sidecar) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("plan: encode sidecar: %w", err)
	}
	return append(data, '\n'), nil
}

// DecodeSidecar parses a sidecar file.
func DecodeSidecar(data []byte) (*Sidecar, error) {
	var s Sidecar
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("plan: decode sidecar: %w", err)
	}
	if s.Version != sidecarVersion {
		return nil, fmt.Errorf("plan: unsupported sidecar version %d", s.Version)
	}
	return &s, nil
}

// Current reports whether the note still matches what the sidecar recorded,
// i.e. the user has not edited it since the plan was written.
func (s *Sidecar) Current(note []byte) bool {
	return checksum.Matches(note, s.Checksum)
}

package index

import "github.com/starford/ansuz/internal/models"

// NoteIndex is the note catalogue used by sync, the watcher and search.
type NoteIndex interface {
	UpsertNote(n NoteRow, body string) error
	DeleteNote(path string) error
	AllChecksums() (map[string]string, error)
	Titles(limit int) ([]string, error)
	Search(query string, limit int) ([]SearchResult, error)
}

// RunLog records generation outcomes.
type RunLog interface {
	RecordRun(r models.RunRecord) error
	Runs(limit int) ([]models.RunRecord, error)
}

var (
	_ NoteIndex = (*DB)(nil)
	_ RunLog    = (*DB)(nil)
)

// Package testutil provides shared test helpers: temporary vaults and
// databases, and a scripted model client.
package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/llm"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "ansuz-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory with a storage.Provider.
func TestVault(t *testing.T) (string, *storage.FS) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// WriteFile stores content in the vault or fails the test.
func WriteFile(t *testing.T, store storage.Provider, path, content string) {
	t.Helper()
	if err := store.Write(path, []byte(content)); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// ReadFile returns a vault file as a string or fails the test.
func ReadFile(t *testing.T, store storage.Provider, path string) string {
	t.Helper()
	data, err := store.Read(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

// Reply is one scripted model response: Text, or Err when non-nil.
type Reply struct {
	Text string
	Err  error
}

// ScriptedModel is an llm.Client that answers from a queue and records every
// request. Running out of replies is an error.
type ScriptedModel struct {
	mu       sync.Mutex
	replies  []Reply
	requests []llm.Request
}

var _ llm.Client = (*ScriptedModel)(nil)

// NewScriptedModel queues replies in order.
func NewScriptedModel(replies ...Reply) *ScriptedModel {
	return &ScriptedModel{replies: replies}
}

// Push appends replies to the queue.
func (m *ScriptedModel) Push(replies ...Reply) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, replies...)
}

// Generate pops the next reply.
func (m *ScriptedModel) Generate(ctx context.Context, req llm.Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(m.replies) == 0 {
		return "", fmt.Errorf("scripted model: no reply queued for call %d", len(m.requests))
	}
	r := m.replies[0]
	m.replies = m.replies[1:]
	return r.Text, r.Err
}

// Requests returns a copy of the recorded requests.
func (m *ScriptedModel) Requests() []llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]llm.Request(nil), m.requests...)
}

// Calls returns the number of Generate calls so far.
func (m *ScriptedModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Server503 is a transient model failure.
func Server503() error {
	return &llm.StatusError{Code: 503, Status: "UNAVAILABLE", Message: "model overloaded"}
}

// MemoryRuns is an in-memory run log.
type MemoryRuns struct {
	mu   sync.Mutex
	runs []models.RunRecord
}

// RecordRun appends r.
func (m *MemoryRuns) RecordRun(r models.RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, r)
	return nil
}

// All returns the recorded runs in insertion order.
func (m *MemoryRuns) All() []models.RunRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.RunRecord(nil), m.runs...)
}

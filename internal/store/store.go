// Package store saves and restores conversation state as a single JSON
// document.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"pyramid/internal/session"
)

const (
	fileMode        = 0o644
	tempFilePattern = ".pyramid-*.json.tmp"
	// DefaultNamePrefix and DefaultNameLayout build file names for saves
	// without an explicit target.
	DefaultNamePrefix = "pyramid_chat_"
	DefaultNameLayout = "20060102_150405"
)

// PersistenceError wraps any failure to save or load a conversation.
type PersistenceError struct {
	Op   string // "save" or "load"
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s conversation %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// document is the on-disk shape. A missing or null key decodes to nil and is
// normalized to an empty list.
type document struct {
	History []session.HistoryEntry `json:"history"`
	Context []session.Message      `json:"context"`
}

// Save writes the state to path, replacing any existing file. The state is
// only read.
func Save(state *session.State, path string) error {
	return SaveSnapshot(state.Snapshot(), path)
}

func SaveSnapshot(snap session.Snapshot, path string) error {
	doc := document{History: snap.History, Context: snap.Context}
	if doc.History == nil {
		doc.History = []session.HistoryEntry{}
	}
	if doc.Context == nil {
		doc.Context = []session.Message{}
	}
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return &PersistenceError{Op: "save", Path: path, Err: fmt.Errorf("encode: %w", err)}
	}
	payload = append(payload, '\n')
	if err := writeFileAtomic(path, payload); err != nil {
		return &PersistenceError{Op: "save", Path: path, Err: err}
	}
	return nil
}

// Load parses the document at path. Missing "history" or "context" keys decode
// as empty; unknown keys are ignored. Callers replace their state only when
// Load succeeds.
func Load(path string) (session.Snapshot, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return session.Snapshot{}, &PersistenceError{Op: "load", Path: path, Err: err}
	}
	var doc document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return session.Snapshot{}, &PersistenceError{Op: "load", Path: path, Err: fmt.Errorf("decode: %w", err)}
	}
	snap := session.Snapshot{Context: doc.Context, History: doc.History}
	if snap.Context == nil {
		snap.Context = []session.Message{}
	}
	if snap.History == nil {
		snap.History = []session.HistoryEntry{}
	}
	return snap, nil
}

// DefaultPath names a new save file in dir using the local time.
func DefaultPath(dir string, now time.Time) string {
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, DefaultNamePrefix+now.Format(DefaultNameLayout)+".json")
}

func writeFileAtomic(path string, payload []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = os.Remove(tmpPath)
	}

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(fileMode); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("replace file: %w", err)
	}
	return nil
}

// Package manifest records the audit trail of a project run: one entry per
// script line with the method used, outcome, and artifact paths.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"videogen/internal/fileutil"
)

// Entry summarizes one script line's generation outcome.
type Entry struct {
	Target    string   `json:"target"`
	Method    string   `json:"method"`
	OK        bool     `json:"ok"`
	Artifacts []string `json:"artifacts,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// Manifest is the project-level run summary.
type Manifest struct {
	Project   string  `json:"project"`
	RunID     string  `json:"run_id"`
	CreatedAt string  `json:"created_at"`
	Final     string  `json:"final,omitempty"`
	Entries   []Entry `json:"entries"`
}

// New starts a manifest for one run.
func New(project, runID string) *Manifest {
	return &Manifest{
		Project:   project,
		RunID:     runID,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// Add appends one script line's outcome.
func (m *Manifest) Add(entry Entry) {
	m.Entries = append(m.Entries, entry)
}

// Succeeded counts entries that completed.
func (m *Manifest) Succeeded() int {
	count := 0
	for _, entry := range m.Entries {
		if entry.OK {
			count++
		}
	}
	return count
}

// Write persists the manifest atomically so a crash mid-write never leaves
// a truncated audit trail.
func (m *Manifest) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create manifest directory: %w", err)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return fileutil.WriteFileAtomic(path, data, 0o644)
}

// Load reads a previously written manifest.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &m, nil
}

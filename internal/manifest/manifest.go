// Package manifest records what a tool run did: a run ID, the parameters it
// was called with, the files it wrote and how long it took.
package manifest

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/gwprep/gwprep/internal/fsutil"
	"github.com/gwprep/gwprep/internal/timeutil"
	"github.com/gwprep/gwprep/internal/version"
)

// FileName is the manifest written into each output folder.
const FileName = "manifest.json"

// Manifest describes a single run.
type Manifest struct {
	RunID      string         `json:"run_id"`
	Tool       string         `json:"tool"`
	Version    string         `json:"version"`
	GitSHA     string         `json:"git_sha"`
	Params     map[string]any `json:"params,omitempty"`
	Outputs    []string       `json:"outputs"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	DurationMs int64          `json:"duration_ms"`

	clock timeutil.Clock
}

// New starts a manifest for tool.
func New(tool string, clock timeutil.Clock) *Manifest {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Manifest{
		RunID:     uuid.NewString(),
		Tool:      tool,
		Version:   version.Version,
		GitSHA:    version.GitSHA,
		Params:    make(map[string]any),
		Outputs:   []string{},
		StartedAt: clock.Now().UTC(),
		clock:     clock,
	}
}

// SetParam records a run parameter.
func (m *Manifest) SetParam(key string, value any) {
	m.Params[key] = value
}

// AddOutput records a written file.
func (m *Manifest) AddOutput(paths ...string) {
	m.Outputs = append(m.Outputs, paths...)
}

// Finish stamps the end time and writes the manifest to dir. Outputs are
// listed in sorted order.
func (m *Manifest) Finish(fsys fsutil.FileSystem, dir string) (string, error) {
	m.FinishedAt = m.clock.Now().UTC()
	m.DurationMs = m.FinishedAt.Sub(m.StartedAt).Milliseconds()
	sort.Strings(m.Outputs)

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := fsutil.EnsureDir(fsys, dir); err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName)
	if err := fsys.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}
	return path, nil
}

package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// ExitInfo captures how a node process ended.
type ExitInfo struct {
	Node      string    `json:"node"`
	PID       int       `json:"pid"`
	StartedAt time.Time `json:"started_at"`
	ExitedAt  time.Time `json:"exited_at"`

	ExitCode *int   `json:"exit_code,omitempty"`
	Signal   string `json:"signal,omitempty"`
	Error    string `json:"error,omitempty"`

	StderrTail []string `json:"stderr_tail,omitempty"`
}

// SynthesizeExitInfo builds a best-effort exit record for a dead node whose
// launcher is no longer around to report how it ended. The exit code and
// signal are unknowable at this point; the stderr tail is captured now.
func SynthesizeExitInfo(rec NodeRecord, tailLines int) *ExitInfo {
	info := &ExitInfo{
		Node:      rec.Name,
		PID:       rec.PID,
		StartedAt: rec.StartedAt,
		ExitedAt:  time.Now(),
		Error:     "exit info unavailable (launcher detached); node observed dead at status time",
	}
	if rec.StderrLog != "" && tailLines > 0 {
		if lines, err := TailLines(rec.StderrLog, tailLines, 2<<20); err == nil {
			info.StderrTail = lines
		}
	}
	return info
}

func WriteExitInfo(path string, info ExitInfo) error {
	if path == "" {
		return errors.New("missing path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "mkdir exit info dir")
	}
	b, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal exit info")
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return errors.Wrap(err, "write exit info")
	}
	return nil
}

func ReadExitInfo(path string) (*ExitInfo, error) {
	if path == "" {
		return nil, errors.New("missing path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read exit info")
	}
	var info ExitInfo
	if err := json.Unmarshal(b, &info); err != nil {
		return nil, errors.Wrap(err, "unmarshal exit info")
	}
	return &info, nil
}

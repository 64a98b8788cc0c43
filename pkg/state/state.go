// Package state persists one launch session: which nodes were started,
// under which namespace, and where their logs live. Nothing here survives
// a teardown.
package state

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pkg/errors"
)

const (
	StateDirName    = ".skylaunch"
	SessionFilename = "session.json"
	LogsDirName     = "logs"
)

// Session records one launch invocation.
type Session struct {
	ID          string       `json:"id"`
	Root        string       `json:"root"`
	Description string       `json:"description"`
	CreatedAt   time.Time    `json:"created_at"`
	Nodes       []NodeRecord `json:"nodes"`
}

// NodeRecord is one spawned node process.
type NodeRecord struct {
	Name       string            `json:"name"`
	Package    string            `json:"package"`
	Executable string            `json:"executable"`
	Namespace  string            `json:"namespace,omitempty"`
	Parameters map[string]string `json:"parameters,omitempty"`
	PID        int               `json:"pid"`
	Binary     string            `json:"binary"`
	Args       []string          `json:"args,omitempty"`
	StdoutLog  string            `json:"stdout_log,omitempty"`
	StderrLog  string            `json:"stderr_log,omitempty"`
	ExitInfo   string            `json:"exit_info,omitempty"`
	StartedAt  time.Time         `json:"started_at"`
}

func SessionPath(root string) string {
	return filepath.Join(root, StateDirName, SessionFilename)
}

func LogsDir(root string) string {
	return filepath.Join(root, StateDirName, LogsDirName)
}

func Load(root string) (*Session, error) {
	b, err := os.ReadFile(SessionPath(root))
	if err != nil {
		return nil, errors.Wrap(err, "read session")
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, errors.Wrap(err, "parse session json")
	}
	return &s, nil
}

func Save(root string, s *Session) error {
	if s == nil {
		return errors.New("nil session")
	}
	dir := filepath.Dir(SessionPath(root))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "mkdir state dir")
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal session")
	}
	if err := os.WriteFile(SessionPath(root), b, 0o644); err != nil {
		return errors.Wrap(err, "write session")
	}
	return nil
}

func Remove(root string) error {
	if err := os.Remove(SessionPath(root)); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "remove session")
	}
	return nil
}

// ProcessAlive reports whether pid names a live, non-zombie process.
func ProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	if isZombie(pid) {
		return false
	}
	err := syscall.Kill(pid, 0)
	if err == nil {
		return true
	}
	if stderrors.Is(err, syscall.EPERM) {
		return true
	}
	return false
}

func isZombie(pid int) bool {
	b, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return false
	}
	// Format: pid (comm) state ... — comm may contain spaces, so take the
	// state character after the last ')'.
	i := bytes.LastIndexByte(b, ')')
	if i < 0 {
		return false
	}
	fields := bytes.Fields(bytes.TrimSpace(b[i+1:]))
	if len(fields) < 1 || len(fields[0]) < 1 {
		return false
	}
	return fields[0][0] == 'Z'
}

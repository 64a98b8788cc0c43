package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSession_SaveLoadRemove(t *testing.T) {
	root := t.TempDir()

	s := &Session{
		ID:          "c0ffee",
		Root:        root,
		Description: "basic_state_estimator",
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
		Nodes: []NodeRecord{
			{
				Name:       "basic_state_estimator",
				Package:    "basic_state_estimator",
				Executable: "basic_state_estimator_node",
				Namespace:  "/drone0",
				Parameters: map[string]string{"odom_only": "False"},
				PID:        1234,
				Binary:     "/opt/lib/basic_state_estimator/basic_state_estimator_node",
			},
		},
	}
	require.NoError(t, Save(root, s))

	got, err := Load(root)
	require.NoError(t, err)
	require.Equal(t, s.ID, got.ID)
	require.Equal(t, s.Description, got.Description)
	require.Len(t, got.Nodes, 1)
	require.Equal(t, "/drone0", got.Nodes[0].Namespace)
	require.Equal(t, "False", got.Nodes[0].Parameters["odom_only"])

	require.NoError(t, Remove(root))
	_, err = Load(root)
	require.Error(t, err)

	// Removing twice is fine.
	require.NoError(t, Remove(root))
}

func TestSave_NilSession(t *testing.T) {
	require.Error(t, Save(t.TempDir(), nil))
}

func TestProcessAlive(t *testing.T) {
	require.True(t, ProcessAlive(os.Getpid()))
	require.False(t, ProcessAlive(0))
	require.False(t, ProcessAlive(-1))
}

func TestExitInfo_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.exit.json")
	code := 3
	info := ExitInfo{
		Node:     "demo",
		PID:      42,
		ExitCode: &code,
	}
	require.NoError(t, WriteExitInfo(path, info))

	got, err := ReadExitInfo(path)
	require.NoError(t, err)
	require.Equal(t, "demo", got.Node)
	require.NotNil(t, got.ExitCode)
	require.Equal(t, 3, *got.ExitCode)
}

func TestSynthesizeExitInfo(t *testing.T) {
	stderrPath := filepath.Join(t.TempDir(), "node.stderr.log")
	require.NoError(t, os.WriteFile(stderrPath, []byte("warn a\nfatal b\n"), 0o644))

	rec := NodeRecord{
		Name:      "basic_state_estimator",
		PID:       4242,
		StderrLog: stderrPath,
		StartedAt: time.Now().Add(-time.Minute),
	}
	info := SynthesizeExitInfo(rec, 10)
	require.Equal(t, "basic_state_estimator", info.Node)
	require.Equal(t, 4242, info.PID)
	require.Nil(t, info.ExitCode)
	require.Empty(t, info.Signal)
	require.NotEmpty(t, info.Error)
	require.Equal(t, []string{"warn a", "fatal b"}, info.StderrTail)

	// Without a stderr log the record still carries the basics.
	info = SynthesizeExitInfo(NodeRecord{Name: "demo", PID: 1}, 10)
	require.Equal(t, "demo", info.Node)
	require.Empty(t, info.StderrTail)
}

func TestTailLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	require.NoError(t, os.WriteFile(path, []byte("a\nb\nc\nd\n"), 0o644))

	lines, err := TailLines(path, 2, 0)
	require.NoError(t, err)
	require.Equal(t, []string{"c", "d"}, lines)

	lines, err = TailLines(path, 10, 0)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c", "d"}, lines)

	_, err = TailLines("", 2, 0)
	require.Error(t, err)
}

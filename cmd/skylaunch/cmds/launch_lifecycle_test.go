package cmds

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aerialworks/skylaunch/pkg/state"
)

func buildCLI(t *testing.T) string {
	t.Helper()
	moduleRoot, err := filepath.Abs(filepath.Join("..", "..", ".."))
	require.NoError(t, err)

	bin := filepath.Join(t.TempDir(), "skylaunch")
	cmd := exec.Command("go", "build", "-o", bin, "./cmd/skylaunch")
	cmd.Dir = moduleRoot
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))
	return bin
}

func installEstimatorScript(t *testing.T, root, body string) {
	t.Helper()
	dir := filepath.Join(root, "lib", "basic_state_estimator")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "basic_state_estimator_node"),
		[]byte("#!/bin/bash\n"+body), 0o755))
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	require.True(t, cond())
}

type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

// The built-in description routes output to the console, so launch must
// stay attached: the node has to outlive launch startup, and a stop signal
// has to tear the whole session down with exit info recorded.
func TestLaunch_AttachedSessionKeepsNodeAlive(t *testing.T) {
	bin := buildCLI(t)
	root := t.TempDir()
	installEstimatorScript(t, root, "echo estimator up\nwhile true; do echo tick; sleep 0.2; done\n")

	out := &syncBuffer{}
	cmd := exec.Command(bin, "--install-root", root, "launch", "basic_state_estimator", "drone_id=drone9")
	cmd.Stdout = out
	cmd.Stderr = out
	require.NoError(t, cmd.Start())
	defer func() { _ = cmd.Process.Kill() }()

	waitFor(t, 5*time.Second, func() bool {
		return strings.Contains(out.String(), "[basic_state_estimator] estimator up")
	})

	var session *state.Session
	waitFor(t, 5*time.Second, func() bool {
		s, err := state.Load(root)
		if err != nil {
			return false
		}
		session = s
		return true
	})
	require.Len(t, session.Nodes, 1)
	rec := session.Nodes[0]
	require.Equal(t, "/drone9", rec.Namespace)
	require.True(t, state.ProcessAlive(rec.PID))

	// The node must keep running for as long as the launcher is attached.
	time.Sleep(1 * time.Second)
	require.True(t, state.ProcessAlive(rec.PID))

	require.NoError(t, cmd.Process.Signal(syscall.SIGINT))
	require.NoError(t, cmd.Wait())

	waitFor(t, 3*time.Second, func() bool { return !state.ProcessAlive(rec.PID) })

	// Teardown removes the session and records how the node ended.
	_, err := state.Load(root)
	require.Error(t, err)

	info, err := state.ReadExitInfo(rec.ExitInfo)
	require.NoError(t, err)
	require.Equal(t, "terminated", info.Signal)
}

func TestLaunch_ReturnsWhenNodesExit(t *testing.T) {
	bin := buildCLI(t)
	root := t.TempDir()
	installEstimatorScript(t, root, "echo done\nexit 0\n")

	out := &syncBuffer{}
	cmd := exec.Command(bin, "--install-root", root, "launch", "basic_state_estimator")
	cmd.Stdout = out
	cmd.Stderr = out
	require.NoError(t, cmd.Start())

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		_ = cmd.Process.Kill()
		t.Fatal("launch did not return after node exit")
	}

	require.Contains(t, out.String(), "[basic_state_estimator] done")

	_, err := state.Load(root)
	require.Error(t, err)

	matches, err := filepath.Glob(filepath.Join(state.LogsDir(root), "*.exit.json"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	info, err := state.ReadExitInfo(matches[0])
	require.NoError(t, err)
	require.NotNil(t, info.ExitCode)
	require.Equal(t, 0, *info.ExitCode)
}

// Package runner spawns the node processes of a resolved launch plan and
// tears them down again. It owns every failure mode the description layer
// leaves unreported: missing executables, spawn errors, processes that
// refuse to die.
package runner

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/aerialworks/skylaunch/pkg/events"
	"github.com/aerialworks/skylaunch/pkg/launch"
	"github.com/aerialworks/skylaunch/pkg/registry"
	"github.com/aerialworks/skylaunch/pkg/state"
)

type Options struct {
	Root            string
	ShutdownTimeout time.Duration
	Bus             *events.Bus // optional
	Console         io.Writer   // destination for "screen" output
}

type Runner struct {
	opts  Options
	nodes sync.WaitGroup
}

func New(opts Options) *Runner {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 3 * time.Second
	}
	if opts.Console == nil {
		opts.Console = os.Stdout
	}
	return &Runner{opts: opts}
}

// Start spawns every node in the plan. If any node fails to start, the
// ones already running are stopped before the error is returned.
func (r *Runner) Start(ctx context.Context, description string, plan launch.Plan, reg *registry.Registry) (*state.Session, error) {
	if r.opts.Root == "" {
		return nil, errors.New("missing Root")
	}
	if len(plan.Nodes) == 0 {
		return nil, errors.New("plan has no nodes")
	}
	if err := os.MkdirAll(state.LogsDir(r.opts.Root), 0o755); err != nil {
		return nil, errors.Wrap(err, "mkdir logs dir")
	}

	session := &state.Session{
		ID:          uuid.NewString(),
		Root:        r.opts.Root,
		Description: description,
		CreatedAt:   time.Now(),
		Nodes:       []state.NodeRecord{},
	}

	for _, node := range plan.Nodes {
		rec, err := r.startNode(ctx, session.ID, node, reg)
		if err != nil {
			_ = r.Stop(context.Background(), session)
			return nil, err
		}
		session.Nodes = append(session.Nodes, rec)
	}

	return session, nil
}

// Stop terminates every node recorded in the session.
func (r *Runner) Stop(ctx context.Context, session *state.Session) error {
	if session == nil {
		return nil
	}
	var lastErr error
	for _, node := range session.Nodes {
		if node.PID <= 0 {
			continue
		}
		if err := terminatePIDGroup(ctx, node.PID, r.opts.ShutdownTimeout); err != nil {
			lastErr = errors.Wrapf(err, "stop node %q", node.Name)
		}
	}
	r.publish(events.NewSessionStopped(session.ID))
	return lastErr
}

// WaitNodes blocks until every node started by this runner has been reaped
// and its exit info recorded, or until ctx is done. Callers that route node
// output to the console must stay attached this long: the output pipes die
// with the launcher.
func (r *Runner) WaitNodes(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.nodes.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) startNode(ctx context.Context, sessionID string, node launch.ResolvedNode, reg *registry.Registry) (state.NodeRecord, error) {
	binary, err := reg.LookupExecutable(node.Package, node.Executable)
	if err != nil {
		return state.NodeRecord{}, err
	}

	namespace := normalizeNamespace(node.Namespace)
	args := buildArgs(node, namespace)

	ts := time.Now().Format("20060102-150405")
	logsDir := state.LogsDir(r.opts.Root)
	exitInfoPath := filepath.Join(logsDir, node.Name+"-"+ts+".exit.json")

	// #nosec G204 -- the binary comes from the configured install space.
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Dir = r.opts.Root
	cmd.Env = os.Environ()
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	rec := state.NodeRecord{
		Name:       node.Name,
		Package:    node.Package,
		Executable: node.Executable,
		Namespace:  namespace,
		Parameters: paramsMap(node.Parameters),
		Binary:     binary,
		Args:       args,
		ExitInfo:   exitInfoPath,
	}

	var stream *outputStream
	switch {
	case node.Output == launch.OutputLog:
		stdoutPath := filepath.Join(logsDir, node.Name+"-"+ts+".stdout.log")
		stderrPath := filepath.Join(logsDir, node.Name+"-"+ts+".stderr.log")
		stdoutFile, err := os.OpenFile(stdoutPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return state.NodeRecord{}, errors.Wrap(err, "open stdout log")
		}
		defer func() { _ = stdoutFile.Close() }()
		stderrFile, err := os.OpenFile(stderrPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return state.NodeRecord{}, errors.Wrap(err, "open stderr log")
		}
		defer func() { _ = stderrFile.Close() }()
		cmd.Stdout = stdoutFile
		cmd.Stderr = stderrFile
		rec.StdoutLog = stdoutPath
		rec.StderrLog = stderrPath

	case node.EmulateTTY:
		// Terminal emulation: forward child output line by line so it
		// reaches the console unbuffered even through pipes.
		stream, err = newOutputStream(cmd, r.opts.Console, node.Name)
		if err != nil {
			return state.NodeRecord{}, err
		}

	default:
		cmd.Stdout = r.opts.Console
		cmd.Stderr = r.opts.Console
	}

	if err := cmd.Start(); err != nil {
		return state.NodeRecord{}, errors.Wrapf(err, "start node %q", node.Name)
	}

	rec.PID = cmd.Process.Pid
	rec.StartedAt = time.Now()
	log.Info().
		Str("node", node.Name).
		Str("namespace", namespace).
		Int("pid", rec.PID).
		Str("binary", binary).
		Msg("node started")

	r.publish(events.NewNodeStarted(sessionID, node.Name, namespace, rec.PID))

	r.nodes.Add(1)
	go r.watchExit(sessionID, rec, cmd, stream)
	return rec, nil
}

// watchExit reaps the child and records how it ended.
func (r *Runner) watchExit(sessionID string, rec state.NodeRecord, cmd *exec.Cmd, stream *outputStream) {
	defer r.nodes.Done()

	if stream != nil {
		_ = stream.Wait()
	}
	waitErr := cmd.Wait()

	info := state.ExitInfo{
		Node:      rec.Name,
		PID:       rec.PID,
		StartedAt: rec.StartedAt,
		ExitedAt:  time.Now(),
	}

	if waitErr == nil {
		code := 0
		info.ExitCode = &code
	} else if exitErr, ok := waitErr.(*exec.ExitError); ok {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			if ws.Signaled() {
				info.Signal = ws.Signal().String()
			} else {
				code := ws.ExitStatus()
				info.ExitCode = &code
			}
		}
	} else {
		info.Error = waitErr.Error()
	}

	if err := state.WriteExitInfo(rec.ExitInfo, info); err != nil {
		log.Warn().Err(err).Str("node", rec.Name).Msg("write exit info failed")
	}
	r.publish(events.NewNodeExited(sessionID, rec.Name, rec.Namespace, rec.PID, info.ExitCode, info.Signal))
}

func (r *Runner) publish(ev events.Event) {
	if r.opts.Bus == nil {
		return
	}
	if err := r.opts.Bus.Publish(ev); err != nil {
		log.Warn().Err(err).Str("kind", ev.Kind).Msg("publish launch event failed")
	}
}

// buildArgs renders the runtime contract of a node binary: instance name,
// namespace, then the forwarded parameters in declaration order.
func buildArgs(node launch.ResolvedNode, namespace string) []string {
	args := []string{"--node-name", node.Name}
	if namespace != "" {
		args = append(args, "--namespace", namespace)
	}
	for _, p := range node.Parameters {
		args = append(args, "--param", p.Name+"="+p.Value)
	}
	return args
}

func normalizeNamespace(ns string) string {
	if ns == "" {
		return ""
	}
	return "/" + strings.TrimPrefix(ns, "/")
}

func paramsMap(params []launch.ResolvedParam) map[string]string {
	if len(params) == 0 {
		return nil
	}
	out := make(map[string]string, len(params))
	for _, p := range params {
		out[p.Name] = p.Value
	}
	return out
}

func terminatePIDGroup(ctx context.Context, pid int, timeout time.Duration) error {
	if pid <= 0 {
		return nil
	}
	pgid, err := syscall.Getpgid(pid)
	if err == nil {
		_ = syscall.Kill(-pgid, syscall.SIGTERM)
	} else {
		_ = syscall.Kill(pid, syscall.SIGTERM)
	}

	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	waitDeadline := time.Now().Add(timeout)
	t := time.NewTicker(100 * time.Millisecond)
	defer t.Stop()

	for {
		if !state.ProcessAlive(pid) {
			return nil
		}
		if time.Now().After(waitDeadline) {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}

	if err == nil {
		_ = syscall.Kill(-pgid, syscall.SIGKILL)
	} else {
		_ = syscall.Kill(pid, syscall.SIGKILL)
	}

	killDeadline := time.Now().Add(2 * time.Second)
	for state.ProcessAlive(pid) && time.Now().Before(killDeadline) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}

	if state.ProcessAlive(pid) {
		return errors.New("failed to stop node")
	}
	return nil
}

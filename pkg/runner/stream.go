package runner

import (
	"bufio"
	"io"
	"os/exec"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// outputStream forwards a child's stdout and stderr to the console line by
// line, each line prefixed with the node name. Both pipes must be drained
// before the command is reaped.
type outputStream struct {
	g *errgroup.Group
}

func newOutputStream(cmd *exec.Cmd, console io.Writer, name string) (*outputStream, error) {
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, "stdout pipe")
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, errors.Wrap(err, "stderr pipe")
	}

	w := &lockedWriter{w: console}
	prefix := "[" + name + "] "

	g := &errgroup.Group{}
	g.Go(func() error { return forwardLines(stdout, w, prefix) })
	g.Go(func() error { return forwardLines(stderr, w, prefix) })
	return &outputStream{g: g}, nil
}

func (s *outputStream) Wait() error {
	return s.g.Wait()
}

func forwardLines(r io.Reader, w io.Writer, prefix string) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		if _, err := io.WriteString(w, prefix+sc.Text()+"\n"); err != nil {
			return errors.Wrap(err, "forward line")
		}
	}
	// Pipe closure on child exit shows up as a read error; not a failure.
	if err := sc.Err(); err != nil && !errors.Is(err, io.ErrClosedPipe) {
		return errors.Wrap(err, "scan output")
	}
	return nil
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

// Package events publishes launch lifecycle events on an in-memory bus.
package events

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const Topic = "launch.events"

// Event kinds.
const (
	KindNodeStarted    = "node_started"
	KindNodeExited     = "node_exited"
	KindSessionStopped = "session_stopped"
)

// Event is one launch lifecycle occurrence.
type Event struct {
	Kind      string    `json:"kind"`
	Session   string    `json:"session"`
	Node      string    `json:"node,omitempty"`
	Namespace string    `json:"namespace,omitempty"`
	PID       int       `json:"pid,omitempty"`
	ExitCode  *int      `json:"exit_code,omitempty"`
	Signal    string    `json:"signal,omitempty"`
	At        time.Time `json:"at"`
}

// NewNodeStarted records a node process coming up.
func NewNodeStarted(session, node, namespace string, pid int) Event {
	return Event{
		Kind:      KindNodeStarted,
		Session:   session,
		Node:      node,
		Namespace: namespace,
		PID:       pid,
		At:        time.Now(),
	}
}

// NewNodeExited records how a node process ended: exitCode for a normal
// exit, signal when it was killed.
func NewNodeExited(session, node, namespace string, pid int, exitCode *int, signal string) Event {
	return Event{
		Kind:      KindNodeExited,
		Session:   session,
		Node:      node,
		Namespace: namespace,
		PID:       pid,
		ExitCode:  exitCode,
		Signal:    signal,
		At:        time.Now(),
	}
}

// NewSessionStopped records the teardown of a whole launch session.
func NewSessionStopped(session string) Event {
	return Event{
		Kind:    KindSessionStopped,
		Session: session,
		At:      time.Now(),
	}
}

func decode(b []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(b, &ev); err != nil {
		return Event{}, errors.Wrap(err, "unmarshal launch event")
	}
	return ev, nil
}

// LogReporter returns a handler that reports launch events through the
// process logger.
func LogReporter() func(Event) error {
	return func(ev Event) error {
		e := log.Info().
			Str("kind", ev.Kind).
			Str("session", ev.Session)
		if ev.Node != "" {
			e = e.Str("node", ev.Node)
		}
		if ev.Namespace != "" {
			e = e.Str("namespace", ev.Namespace)
		}
		if ev.PID > 0 {
			e = e.Int("pid", ev.PID)
		}
		if ev.ExitCode != nil {
			e = e.Int("exit_code", *ev.ExitCode)
		}
		if ev.Signal != "" {
			e = e.Str("signal", ev.Signal)
		}
		e.Msg("launch event")
		return nil
	}
}

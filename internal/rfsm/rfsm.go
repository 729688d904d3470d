// Package rfsm wraps looplab/fsm for the endpoint's reader-loop state
// machine (spec §4.5): Running -> Stopped, terminal, idempotent. Grounded on
// the teacher's internal/fsm/fsm.go wrapper, trimmed to the two states and
// handful of events this loop actually needs — the general transition
// builder the teacher wrote is overkill for a linear, one-way machine.
// file: internal/rfsm/rfsm.go
package rfsm

import (
	"context"
	"sync"

	lfsm "github.com/looplab/fsm"

	"github.com/dkoosis/jsonrpcx/logging"
)

// State names for the reader loop.
const (
	StateRunning = "running"
	StateStopped = "stopped"
)

// Event names that drive the reader loop's transitions.
const (
	EventStreamEnded = "stream_ended"
	EventClosed      = "closed"
)

// ReaderFSM tracks whether the endpoint's reader task is still pumping
// entities off the stream. Stopped is terminal: no event leaves Stopped, and
// the onStopped callback is guarded by a sync.Once, so repeated Close calls
// are inert.
type ReaderFSM struct {
	mu  sync.Mutex
	fsm *lfsm.FSM
	log logging.Logger

	onStopped func()
	stopOnce  sync.Once
}

// New builds a ReaderFSM starting in StateRunning. onStopped fires exactly
// once, the first time the machine enters StateStopped, from whichever event
// triggered it (stream end-of-file or an explicit Close).
func New(log logging.Logger, onStopped func()) *ReaderFSM {
	if log == nil {
		log = logging.Noop()
	}
	r := &ReaderFSM{log: log, onStopped: onStopped}
	r.fsm = lfsm.NewFSM(
		StateRunning,
		lfsm.Events{
			{Name: EventStreamEnded, Src: []string{StateRunning}, Dst: StateStopped},
			{Name: EventClosed, Src: []string{StateRunning, StateStopped}, Dst: StateStopped},
		},
		lfsm.Callbacks{
			"enter_" + StateStopped: func(_ context.Context, e *lfsm.Event) {
				r.stopOnce.Do(func() {
					r.log.Info("reader loop stopped", "via_event", e.Event)
					if r.onStopped != nil {
						r.onStopped()
					}
				})
			},
		},
	)
	return r
}

// NotifyStreamEnded transitions Running -> Stopped when the stream reports
// end-of-stream. A no-op if already Stopped.
func (r *ReaderFSM) NotifyStreamEnded(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fsm.Current() == StateStopped {
		return
	}
	_ = r.fsm.Event(ctx, EventStreamEnded)
}

// Close transitions to Stopped regardless of current state. Safe to call
// multiple times and from any state (spec §9: "close() sets the completion
// signal even when the reader is already Stopped; benign but worth
// asserting idempotence explicitly").
func (r *ReaderFSM) Close(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.fsm.Event(ctx, EventClosed)
}

// IsStopped reports the current state.
func (r *ReaderFSM) IsStopped() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fsm.Current() == StateStopped
}

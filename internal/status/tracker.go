// Package status tracks what the sync pipeline is doing and serves it over
// the ipc socket.
package status

import (
	"os"
	"sync"
	"time"

	"go.klb.dev/clipweave/internal/clip"
	"go.klb.dev/clipweave/internal/message"
)

// GovernorState is the part of the retry governor a Tracker reports.
type GovernorState interface {
	Failures() int
	Pain() float64
}

// Tracker collects pipeline state. All methods are safe for concurrent use.
type Tracker struct {
	mu         sync.Mutex
	started    time.Time
	runs       int
	runStarted time.Time
	endpoints  []message.EndpointInfo
	last       *message.Change
	lastErr    string
	gov        GovernorState
}

// NewTracker returns a tracker whose start time is now.
func NewTracker() *Tracker {
	return &Tracker{started: time.Now()}
}

// SetGovernor attaches the governor whose failure state is reported.
func (t *Tracker) SetGovernor(g GovernorState) {
	t.mu.Lock()
	t.gov = g
	t.mu.Unlock()
}

// BeginRun marks the start of a pipeline run and forgets the previous
// run's endpoints.
func (t *Tracker) BeginRun() {
	t.mu.Lock()
	t.runs++
	t.runStarted = time.Now()
	t.endpoints = nil
	t.mu.Unlock()
}

// SetEndpoints records the canonical set of the current run.
func (t *Tracker) SetEndpoints(eps []clip.Endpoint) {
	infos := make([]message.EndpointInfo, len(eps))
	for i, ep := range eps {
		infos[i] = message.EndpointInfo{Kind: ep.Kind().String(), Display: ep.Display()}
	}
	t.mu.Lock()
	t.endpoints = infos
	t.mu.Unlock()
}

// RecordChange notes that the value at display was adopted.
func (t *Tracker) RecordChange(display string, at time.Time) {
	t.mu.Lock()
	t.last = &message.Change{Display: display, At: at}
	t.mu.Unlock()
}

// RecordError notes the error that ended a run.
func (t *Tracker) RecordError(err error) {
	if err == nil {
		return
	}
	t.mu.Lock()
	t.lastErr = err.Error()
	t.mu.Unlock()
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() message.Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := message.Status{
		PID:        os.Getpid(),
		Started:    t.started,
		Runs:       t.runs,
		RunStarted: t.runStarted,
		Endpoints:  append([]message.EndpointInfo(nil), t.endpoints...),
		LastError:  t.lastErr,
	}
	if t.last != nil {
		c := *t.last
		s.LastChange = &c
	}
	if t.gov != nil {
		s.Failures = t.gov.Failures()
		s.Pain = t.gov.Pain()
	}
	return s
}

package turn

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"focusfire.ai/internal/host"
	"focusfire.ai/internal/tuning"
)

// Roster owns the Agent for every id a host has scheduled, so one process
// can serve a whole team.
type Roster struct {
	tune    tuning.Tuning
	logOut  io.Writer
	rec     Recorder
	session string

	mu     sync.Mutex
	agents map[int]*Agent
}

// NewRoster logs each agent to logOut with a "[ROLE#id] " prefix. A nil
// recorder disables turn records.
func NewRoster(t tuning.Tuning, logOut io.Writer, rec Recorder, session string) *Roster {
	if logOut == nil {
		logOut = io.Discard
	}
	return &Roster{
		tune:    t,
		logOut:  logOut,
		rec:     rec,
		session: session,
		agents:  map[int]*Agent{},
	}
}

// Agent returns the state for id, creating it on first sight.
func (r *Roster) Agent(id int, role host.Role) *Agent {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.agents[id]; ok {
		return a
	}
	logger := log.New(r.logOut, fmt.Sprintf("[%s#%d] ", role, id), log.LstdFlags|log.Lmicroseconds)
	opts := []Option{WithLogger(logger), WithSession(r.session)}
	if r.rec != nil {
		opts = append(opts, WithRecorder(r.rec))
	}
	a := NewAgent(id, role, r.tune, opts...)
	r.agents[id] = a
	return a
}

// Turn runs the acting agent's cycle.
func (r *Roster) Turn(h host.Host) Report {
	self := h.Self()
	return r.Agent(self.ID, self.Role).Turn(h)
}

// Forget drops an agent the host reports as removed.
func (r *Roster) Forget(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.agents, id)
}

func (r *Roster) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.agents)
}

// Recorders fans a report out to several recorders. Every recorder sees
// every report; their errors are joined.
type Recorders []Recorder

func (rs Recorders) WriteTurn(r Report) error {
	var errs []error
	for _, rec := range rs {
		if err := rec.WriteTurn(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

package main

import (
	"fmt"

	"focusfire.ai/internal/turn"
)

type agentKey struct {
	session string
	id      int
}

type agentCursor struct {
	turn  int
	round int
}

type summary struct {
	Turns    int
	Agents   int
	Resets   int
	Faults   int
	Panics   int
	Sessions map[string]bool
	Roles    map[string]int
}

// verifier checks that a turn log is a plausible sequence: every agent's
// turn counter starts at 1 and steps by one in strictly increasing rounds,
// and only a first turn may reset the shared channel.
type verifier struct {
	agents  map[agentKey]*agentCursor
	summary summary
}

func newVerifier() *verifier {
	return &verifier{
		agents:  map[agentKey]*agentCursor{},
		summary: summary{Sessions: map[string]bool{}, Roles: map[string]int{}},
	}
}

func (v *verifier) check(r turn.Report) error {
	k := agentKey{session: r.SessionID, id: r.AgentID}
	cur, ok := v.agents[k]
	if !ok {
		if r.Turn != 1 {
			return fmt.Errorf("agent %d session %s: first logged turn is %d", r.AgentID, r.SessionID, r.Turn)
		}
		cur = &agentCursor{}
		v.agents[k] = cur
		v.summary.Agents++
		v.summary.Roles[r.Role]++
	} else {
		if r.Turn != cur.turn+1 {
			return fmt.Errorf("agent %d session %s: turn %d after %d", r.AgentID, r.SessionID, r.Turn, cur.turn)
		}
		if r.Round <= cur.round {
			return fmt.Errorf("agent %d session %s: round %d after %d", r.AgentID, r.SessionID, r.Round, cur.round)
		}
	}
	if r.Reset && r.Turn != 1 {
		return fmt.Errorf("agent %d session %s: reset on turn %d", r.AgentID, r.SessionID, r.Turn)
	}
	cur.turn, cur.round = r.Turn, r.Round

	v.summary.Turns++
	v.summary.Sessions[r.SessionID] = true
	if r.Reset {
		v.summary.Resets++
	}
	if r.Fault != "" {
		v.summary.Faults++
	}
	if r.Panicked {
		v.summary.Panics++
	}
	return nil
}

package turn

import (
	"focusfire.ai/internal/engine"
	"focusfire.ai/internal/host"
	"focusfire.ai/internal/registry"
)

// Report is the record of one agent turn. It is what the turn log and the
// index store, one per agent per round.
type Report struct {
	SessionID string `json:"session_id,omitempty"`
	Round     int    `json:"round"`
	Turn      int    `json:"turn"`
	AgentID   int    `json:"agent_id"`
	Role      string `json:"role"`
	Team      string `json:"team"`
	Pos       [2]int `json:"pos"`
	Health    int    `json:"hp"`

	// Reset is set on the turn that cleared the shared channel.
	Reset bool `json:"reset,omitempty"`

	Registry RegistryView   `json:"registry"`
	Note     string         `json:"note,omitempty"`
	Intents  []IntentRecord `json:"intents,omitempty"`
	Applied  int            `json:"applied"`
	Skipped  int            `json:"skipped"`

	Fault    string `json:"fault,omitempty"`
	Panicked bool   `json:"panicked,omitempty"`

	DurationMicros int64 `json:"duration_us"`
}

// RegistryView is the registry as the agent read it before deciding.
type RegistryView struct {
	Kind       string  `json:"kind"`
	Priority   *[2]int `json:"priority,omitempty"`
	Vacancy    int     `json:"vacancy,omitempty"`
	OrdinaryID *int    `json:"ordinary_id,omitempty"`
}

type IntentRecord struct {
	Intent   string `json:"intent"`
	Status   string `json:"status"`
	Count    int    `json:"count,omitempty"`
	Fallback bool   `json:"fallback,omitempty"`
}

func viewOf(s registry.Snapshot) RegistryView {
	v := RegistryView{Kind: s.Record().Kind.String(), Vacancy: s.Vacancy}
	if s.HasPriority {
		v.Priority = &[2]int{s.Priority.X, s.Priority.Y}
	}
	if s.HasOrdinary {
		id := s.OrdinaryID
		v.OrdinaryID = &id
	}
	return v
}

func (r *Report) setSelf(self host.Self) {
	r.AgentID = self.ID
	r.Role = self.Role.String()
	r.Team = self.Team.String()
	r.Pos = [2]int{self.Pos.X, self.Pos.Y}
	r.Health = self.Health
}

func (r *Report) setPlan(p engine.Plan) {
	r.Note = p.Note
	r.Intents = make([]IntentRecord, len(p.Intents))
	for i, in := range p.Intents {
		r.Intents[i] = IntentRecord{Intent: in.String()}
	}
}

func (r *Report) setOutcome(o engine.Outcome) {
	r.Applied = o.Applied
	r.Skipped = o.Skipped
	for i, res := range o.Results {
		if i >= len(r.Intents) {
			break
		}
		r.Intents[i].Status = res.Status.String()
		r.Intents[i].Count = res.Count
		r.Intents[i].Fallback = res.UsedFallback
	}
}

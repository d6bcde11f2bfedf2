package ws

import (
	"fmt"

	"focusfire.ai/internal/host"
	"focusfire.ai/internal/protocol"
)

func wirePos(p host.Position) [2]int { return [2]int{p.X, p.Y} }

func posOf(p [2]int) host.Position { return host.Position{X: p[0], Y: p[1]} }

func agentObs(a host.SensedAgent) protocol.AgentObs {
	return protocol.AgentObs{ID: a.ID, Role: a.Role.String(), Team: a.Team.String(), Pos: wirePos(a.Pos), HP: a.Health}
}

func sensedAgent(o protocol.AgentObs) (host.SensedAgent, error) {
	role, ok := host.ParseRole(o.Role)
	if !ok {
		return host.SensedAgent{}, fmt.Errorf("agent %d: bad role %q", o.ID, o.Role)
	}
	team, ok := host.ParseTeam(o.Team)
	if !ok {
		return host.SensedAgent{}, fmt.Errorf("agent %d: bad team %q", o.ID, o.Team)
	}
	return host.SensedAgent{ID: o.ID, Role: role, Team: team, Pos: posOf(o.Pos), Health: o.HP}, nil
}

func selfObs(s host.Self) protocol.SelfObs {
	return protocol.SelfObs{
		ID:             s.ID,
		Role:           s.Role.String(),
		Team:           s.Team.String(),
		Pos:            wirePos(s.Pos),
		HP:             s.Health,
		ActionRadiusSq: s.ActionRadiusSq,
		VisionRadiusSq: s.VisionRadiusSq,
	}
}

func selfOf(o protocol.SelfObs) (host.Self, error) {
	a, err := sensedAgent(protocol.AgentObs{ID: o.ID, Role: o.Role, Team: o.Team, Pos: o.Pos, HP: o.HP})
	if err != nil {
		return host.Self{}, err
	}
	return host.Self{
		ID:             a.ID,
		Role:           a.Role,
		Team:           a.Team,
		Pos:            a.Pos,
		Health:         a.Health,
		ActionRadiusSq: o.ActionRadiusSq,
		VisionRadiusSq: o.VisionRadiusSq,
	}, nil
}

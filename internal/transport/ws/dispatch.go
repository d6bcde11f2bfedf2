package ws

import (
	"encoding/json"
	"errors"
	"fmt"

	"focusfire.ai/internal/host"
	"focusfire.ai/internal/protocol"
)

// badArg is a CALL whose arguments do not parse.
type badArg struct{ msg string }

func (e badArg) Error() string { return e.msg }

func badArgf(format string, args ...any) error { return badArg{fmt.Sprintf(format, args...)} }

// Dispatch runs one CALL against h and builds its RESULT.
func Dispatch(h host.Host, call protocol.CallMsg) protocol.ResultMsg {
	res := protocol.ResultMsg{Type: protocol.TypeResult, Seq: call.Seq}
	v, err := dispatch(h, call.Op, call.Args)
	if err != nil {
		res.Error = &protocol.ErrorObj{Code: codeOf(err), Message: err.Error()}
		return res
	}
	b, err := json.Marshal(v)
	if err != nil {
		res.Error = &protocol.ErrorObj{Code: protocol.ErrInternal, Message: err.Error()}
		return res
	}
	res.OK = true
	res.Value = b
	return res
}

func codeOf(err error) string {
	var ba badArg
	switch {
	case errors.As(err, &ba):
		return protocol.ErrBadRequest
	case errors.Is(err, host.ErrIllegalAction):
		return protocol.ErrIllegalAction
	case errors.Is(err, host.ErrNotSensed):
		return protocol.ErrNotFound
	default:
		return protocol.ErrInternal
	}
}

func dispatch(h host.Host, op string, a protocol.CallArgs) (any, error) {
	switch op {
	case protocol.OpSenseNearby:
		team, err := argTeam(a)
		if err != nil {
			return nil, err
		}
		agents, err := h.SenseNearby(a.RadiusSq, team)
		if err != nil {
			return nil, err
		}
		out := make([]protocol.AgentObs, len(agents))
		for i, ag := range agents {
			out[i] = agentObs(ag)
		}
		return out, nil

	case protocol.OpSenseAgent:
		ag, err := h.SenseAgent(a.ID)
		if err != nil {
			return nil, err
		}
		return agentObs(ag), nil

	case protocol.OpSenseAt:
		ag, ok, err := h.SenseAgentAt(posOf(a.Pos))
		if err != nil {
			return nil, err
		}
		v := protocol.SenseAtValue{Found: ok}
		if ok {
			o := agentObs(ag)
			v.Agent = &o
		}
		return v, nil

	case protocol.OpCanSenseAgent:
		return h.CanSenseAgent(a.ID), nil

	case protocol.OpLocationsWithin:
		locs, err := h.LocationsWithin(posOf(a.Pos), a.RadiusSq)
		if err != nil {
			return nil, err
		}
		out := make([][2]int, len(locs))
		for i, p := range locs {
			out[i] = wirePos(p)
		}
		return out, nil

	case protocol.OpSenseResource:
		kind, err := argResource(a)
		if err != nil {
			return nil, err
		}
		return h.SenseResource(kind, posOf(a.Pos))

	case protocol.OpTeamStock:
		team, err := argTeam(a)
		if err != nil {
			return nil, err
		}
		kind, err := argResource(a)
		if err != nil {
			return nil, err
		}
		return h.TeamStock(team, kind), nil

	case protocol.OpCanMove, protocol.OpMove:
		d, err := argDir(a)
		if err != nil {
			return nil, err
		}
		if op == protocol.OpCanMove {
			return h.CanMove(d), nil
		}
		return true, h.Move(d)

	case protocol.OpCanAttack:
		return h.CanAttack(posOf(a.Pos)), nil
	case protocol.OpAttack:
		return true, h.Attack(posOf(a.Pos))

	case protocol.OpCanMine, protocol.OpMine:
		kind, err := argResource(a)
		if err != nil {
			return nil, err
		}
		if op == protocol.OpCanMine {
			return h.CanMine(kind, posOf(a.Pos)), nil
		}
		return true, h.Mine(kind, posOf(a.Pos))

	case protocol.OpCanBuild, protocol.OpBuild:
		role, ok := host.ParseRole(a.Role)
		if !ok {
			return nil, badArgf("bad role %q", a.Role)
		}
		d, err := argDir(a)
		if err != nil {
			return nil, err
		}
		if op == protocol.OpCanBuild {
			return h.CanBuild(role, d), nil
		}
		return true, h.Build(role, d)

	case protocol.OpCanTransmute:
		return h.CanTransmute(), nil
	case protocol.OpTransmute:
		return true, h.Transmute()

	case protocol.OpReadShared:
		return h.ReadShared(a.Index)
	case protocol.OpWriteShared:
		return true, h.WriteShared(a.Index, a.Value)
	}
	return nil, badArgf("unknown op %q", op)
}

func argTeam(a protocol.CallArgs) (host.Team, error) {
	t, ok := host.ParseTeam(a.Team)
	if !ok {
		return 0, badArgf("bad team %q", a.Team)
	}
	return t, nil
}

func argResource(a protocol.CallArgs) (host.Resource, error) {
	r, ok := host.ParseResource(a.Resource)
	if !ok {
		return 0, badArgf("bad resource %q", a.Resource)
	}
	return r, nil
}

func argDir(a protocol.CallArgs) (host.Direction, error) {
	d, ok := host.ParseDirection(a.Dir)
	if !ok {
		return 0, badArgf("bad dir %q", a.Dir)
	}
	return d, nil
}

package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"focusfire.ai/internal/host"
	"focusfire.ai/internal/protocol"
	"focusfire.ai/internal/turn"
)

// Client is the bot side of the bridge. One connection serves every agent
// of the bot's team, one turn at a time.
type Client struct {
	conn      *websocket.Conn
	log       *log.Logger
	sessionID string
	welcome   protocol.WelcomeMsg

	// CallTimeout bounds each CALL round trip.
	CallTimeout time.Duration

	seq     uint64
	pending *turn.Report
}

// Dial connects, sends HELLO with a fresh session id, and waits for WELCOME.
// team may be empty to let the host choose.
func Dial(ctx context.Context, url, botName, team string, logger *log.Logger) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	c := &Client{
		conn:        conn,
		log:         logger,
		sessionID:   uuid.NewString(),
		CallTimeout: 5 * time.Second,
	}
	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		BotName:         botName,
		SessionID:       c.sessionID,
		Team:            team,
	}
	if err := conn.WriteJSON(hello); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send HELLO: %w", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var w protocol.WelcomeMsg
	if err := conn.ReadJSON(&w); err != nil {
		conn.Close()
		return nil, fmt.Errorf("read WELCOME: %w", err)
	}
	_ = conn.SetReadDeadline(time.Time{})
	if w.Type != protocol.TypeWelcome || w.ProtocolVersion != protocol.Version {
		conn.Close()
		return nil, fmt.Errorf("unexpected handshake reply %s v%s", w.Type, w.ProtocolVersion)
	}
	c.welcome = w
	return c, nil
}

func (c *Client) SessionID() string            { return c.sessionID }
func (c *Client) Welcome() protocol.WelcomeMsg { return c.welcome }
func (c *Client) Close() error                 { return c.conn.Close() }

// Recorder returns a turn.Recorder that keeps the latest report for the
// YIELD message and forwards it to next (which may be nil).
func (c *Client) Recorder(next turn.Recorder) turn.Recorder {
	return yieldRecorder{c: c, next: next}
}

type yieldRecorder struct {
	c    *Client
	next turn.Recorder
}

func (r yieldRecorder) WriteTurn(rep turn.Report) error {
	r.c.pending = &rep
	if r.next == nil {
		return nil
	}
	return r.next.WriteTurn(rep)
}

// Run plays every TURN the host sends until BYE, a broken connection, or
// ctx is done. It returns nil on BYE.
func (c *Client) Run(ctx context.Context, roster *turn.Roster) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = c.conn.Close()
		case <-done:
		}
	}()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read: %w", err)
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			c.log.Printf("bad message: %v", err)
			continue
		}
		switch base.Type {
		case protocol.TypeTurn:
			var tm protocol.TurnMsg
			if err := json.Unmarshal(msg, &tm); err != nil {
				return fmt.Errorf("bad TURN: %w", err)
			}
			if tm.ProtocolVersion != protocol.Version {
				return fmt.Errorf("TURN protocol_version %q", tm.ProtocolVersion)
			}
			h, err := c.newTurnHost(tm)
			if err != nil {
				return err
			}
			roster.Turn(h)
			if h.err != nil {
				return h.err
			}

		case protocol.TypeBye:
			var bye protocol.ByeMsg
			_ = json.Unmarshal(msg, &bye)
			c.log.Printf("BYE reason=%q winner=%q", bye.Reason, bye.Winner)
			return nil

		default:
			c.log.Printf("ignoring %s", base.Type)
		}
	}
}

func (c *Client) newTurnHost(tm protocol.TurnMsg) (*turnHost, error) {
	self, err := selfOf(tm.Self)
	if err != nil {
		return nil, fmt.Errorf("bad TURN: %w", err)
	}
	c.pending = nil
	return &turnHost{c: c, round: tm.Round, self: self}, nil
}

// turnHost is host.Host for one agent's turn. Every query is a CALL round
// trip. Predicates and TeamStock have no error return, so a transport
// failure makes them report false or zero and sticks: every later call
// fails fast and Run stops after the turn.
type turnHost struct {
	c     *Client
	round int
	self  host.Self
	err   error
}

var _ host.Host = (*turnHost)(nil)

func (h *turnHost) call(op string, args protocol.CallArgs, out any) error {
	if h.err != nil {
		return h.err
	}
	h.c.seq++
	seq := h.c.seq
	if err := writeJSON(h.c.conn, protocol.CallMsg{Type: protocol.TypeCall, Seq: seq, Op: op, Args: args}); err != nil {
		h.err = fmt.Errorf("%s: %w", op, err)
		return h.err
	}
	_ = h.c.conn.SetReadDeadline(time.Now().Add(h.c.CallTimeout))
	defer h.c.conn.SetReadDeadline(time.Time{})

	var res protocol.ResultMsg
	if err := h.c.conn.ReadJSON(&res); err != nil {
		h.err = fmt.Errorf("%s: %w", op, err)
		return h.err
	}
	if res.Type != protocol.TypeResult || res.Seq != seq {
		h.err = fmt.Errorf("%s: expected RESULT seq %d, got %s seq %d", op, seq, res.Type, res.Seq)
		return h.err
	}
	if !res.OK {
		return callError(op, res.Error)
	}
	if out == nil || len(res.Value) == 0 {
		return nil
	}
	if err := json.Unmarshal(res.Value, out); err != nil {
		return &protocol.CallError{Op: op, Code: protocol.ErrProtoBadRequest, Message: err.Error()}
	}
	return nil
}

func callError(op string, e *protocol.ErrorObj) error {
	ce := &protocol.CallError{Op: op, Code: protocol.ErrInternal}
	if e != nil {
		ce.Code, ce.Message = e.Code, e.Message
	}
	switch ce.Code {
	case protocol.ErrIllegalAction:
		ce.Err = host.ErrIllegalAction
	case protocol.ErrNotFound:
		ce.Err = host.ErrNotSensed
	}
	return ce
}

func (h *turnHost) predicate(op string, args protocol.CallArgs) bool {
	var ok bool
	if err := h.call(op, args, &ok); err != nil {
		return false
	}
	return ok
}

func (h *turnHost) Self() host.Self { return h.self }
func (h *turnHost) Round() int      { return h.round }

func (h *turnHost) SenseNearby(radiusSq int, team host.Team) ([]host.SensedAgent, error) {
	var obs []protocol.AgentObs
	if err := h.call(protocol.OpSenseNearby, protocol.CallArgs{RadiusSq: radiusSq, Team: team.String()}, &obs); err != nil {
		return nil, err
	}
	out := make([]host.SensedAgent, 0, len(obs))
	for _, o := range obs {
		a, err := sensedAgent(o)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (h *turnHost) CanSenseAgent(id int) bool {
	return h.predicate(protocol.OpCanSenseAgent, protocol.CallArgs{ID: id})
}

func (h *turnHost) SenseAgent(id int) (host.SensedAgent, error) {
	var o protocol.AgentObs
	if err := h.call(protocol.OpSenseAgent, protocol.CallArgs{ID: id}, &o); err != nil {
		return host.SensedAgent{}, err
	}
	return sensedAgent(o)
}

func (h *turnHost) SenseAgentAt(p host.Position) (host.SensedAgent, bool, error) {
	var v protocol.SenseAtValue
	if err := h.call(protocol.OpSenseAt, protocol.CallArgs{Pos: wirePos(p)}, &v); err != nil {
		return host.SensedAgent{}, false, err
	}
	if !v.Found || v.Agent == nil {
		return host.SensedAgent{}, false, nil
	}
	a, err := sensedAgent(*v.Agent)
	return a, err == nil, err
}

func (h *turnHost) LocationsWithin(center host.Position, radiusSq int) ([]host.Position, error) {
	var locs [][2]int
	if err := h.call(protocol.OpLocationsWithin, protocol.CallArgs{Pos: wirePos(center), RadiusSq: radiusSq}, &locs); err != nil {
		return nil, err
	}
	out := make([]host.Position, len(locs))
	for i, p := range locs {
		out[i] = posOf(p)
	}
	return out, nil
}

func (h *turnHost) SenseResource(kind host.Resource, p host.Position) (int, error) {
	var n int
	err := h.call(protocol.OpSenseResource, protocol.CallArgs{Resource: kind.String(), Pos: wirePos(p)}, &n)
	return n, err
}

func (h *turnHost) TeamStock(team host.Team, kind host.Resource) int {
	var n int
	_ = h.call(protocol.OpTeamStock, protocol.CallArgs{Team: team.String(), Resource: kind.String()}, &n)
	return n
}

func (h *turnHost) CanMove(d host.Direction) bool {
	return h.predicate(protocol.OpCanMove, protocol.CallArgs{Dir: d.String()})
}

func (h *turnHost) Move(d host.Direction) error {
	if err := h.call(protocol.OpMove, protocol.CallArgs{Dir: d.String()}, nil); err != nil {
		return err
	}
	h.self.Pos = h.self.Pos.Add(d)
	return nil
}

func (h *turnHost) CanAttack(p host.Position) bool {
	return h.predicate(protocol.OpCanAttack, protocol.CallArgs{Pos: wirePos(p)})
}

func (h *turnHost) Attack(p host.Position) error {
	return h.call(protocol.OpAttack, protocol.CallArgs{Pos: wirePos(p)}, nil)
}

func (h *turnHost) CanMine(kind host.Resource, p host.Position) bool {
	return h.predicate(protocol.OpCanMine, protocol.CallArgs{Resource: kind.String(), Pos: wirePos(p)})
}

func (h *turnHost) Mine(kind host.Resource, p host.Position) error {
	return h.call(protocol.OpMine, protocol.CallArgs{Resource: kind.String(), Pos: wirePos(p)}, nil)
}

func (h *turnHost) CanBuild(role host.Role, d host.Direction) bool {
	return h.predicate(protocol.OpCanBuild, protocol.CallArgs{Role: role.String(), Dir: d.String()})
}

func (h *turnHost) Build(role host.Role, d host.Direction) error {
	return h.call(protocol.OpBuild, protocol.CallArgs{Role: role.String(), Dir: d.String()}, nil)
}

func (h *turnHost) CanTransmute() bool {
	return h.predicate(protocol.OpCanTransmute, protocol.CallArgs{})
}

func (h *turnHost) Transmute() error {
	return h.call(protocol.OpTransmute, protocol.CallArgs{}, nil)
}

func (h *turnHost) SharedCapacity() int { return h.c.welcome.SharedSlots }

func (h *turnHost) ReadShared(index int) (int, error) {
	var v int
	err := h.call(protocol.OpReadShared, protocol.CallArgs{Index: index}, &v)
	return v, err
}

func (h *turnHost) WriteShared(index, value int) error {
	return h.call(protocol.OpWriteShared, protocol.CallArgs{Index: index, Value: value}, nil)
}

// Yield sends YIELD with the turn's report, if one was recorded.
func (h *turnHost) Yield() error {
	if h.err != nil {
		return h.err
	}
	y := protocol.YieldMsg{
		Type:            protocol.TypeYield,
		ProtocolVersion: protocol.Version,
		Round:           h.round,
		AgentID:         h.self.ID,
	}
	if rep := h.c.pending; rep != nil && rep.AgentID == h.self.ID {
		b, err := json.Marshal(rep)
		if err != nil {
			return err
		}
		y.Report = b
	}
	h.c.pending = nil
	if err := writeJSON(h.c.conn, y); err != nil {
		h.err = fmt.Errorf("yield: %w", err)
		return h.err
	}
	return nil
}


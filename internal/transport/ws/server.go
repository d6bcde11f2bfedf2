package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"focusfire.ai/internal/host"
	"focusfire.ai/internal/protocol"
)

// PlayFunc drives a connected bot. It returns when the game is over for
// that bot; the connection is closed afterwards.
type PlayFunc func(ctx context.Context, s *Session) error

// Server is the host side of the bridge: it accepts bots and lets a
// PlayFunc schedule their agents' turns.
type Server struct {
	gameID      string
	sharedSlots int
	play        PlayFunc
	log         *log.Logger

	upgrader websocket.Upgrader

	mu       sync.Mutex
	nextTeam host.Team
}

func NewServer(gameID string, sharedSlots int, play PlayFunc, logger *log.Logger) *Server {
	return &Server{
		gameID:      gameID,
		sharedSlots: sharedSlots,
		play:        play,
		log:         logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sess := s.handshake(conn)
		if sess == nil {
			return
		}
		s.log.Printf("bot %q session=%s joined as team %s", sess.Hello.BotName, sess.Hello.SessionID, sess.Team)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		if err := s.play(ctx, sess); err != nil {
			s.log.Printf("session %s: %v", sess.Hello.SessionID, err)
		}
	}
}

func (s *Server) handshake(conn *websocket.Conn) *Session {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closeWith(conn, "expected HELLO")
		return nil
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		closeWith(conn, "bad HELLO")
		return nil
	}
	if hello.ProtocolVersion != protocol.Version {
		closeWith(conn, "bad protocol_version")
		return nil
	}
	if hello.SessionID == "" {
		closeWith(conn, "missing session_id")
		return nil
	}
	if hello.BotName == "" {
		hello.BotName = "bot"
	}

	team, ok := host.ParseTeam(hello.Team)
	if !ok {
		team = s.assignTeam()
	}
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		GameID:          s.gameID,
		Team:            team.String(),
		SharedSlots:     s.sharedSlots,
	}
	if err := writeJSON(conn, welcome); err != nil {
		return nil
	}
	return &Session{conn: conn, Hello: hello, Team: team, CallTimeout: 5 * time.Second}
}

func (s *Server) assignTeam() host.Team {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.nextTeam
	s.nextTeam = t.Opponent()
	return t
}

func closeWith(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), time.Now().Add(time.Second))
}

// Session is one connected bot.
type Session struct {
	conn *websocket.Conn

	Hello protocol.HelloMsg
	Team  host.Team

	// CallTimeout bounds the wait for each message from the bot during a turn.
	CallTimeout time.Duration
}

// ErrProtocol marks a bot that broke the turn protocol.
var ErrProtocol = errors.New("protocol violation")

// PlayTurn hands h's agent to the bot, serves its calls, and returns the
// bot's YIELD. h.Yield is called once the bot yields.
func (s *Session) PlayTurn(h host.Host) (protocol.YieldMsg, error) {
	turn := protocol.TurnMsg{
		Type:            protocol.TypeTurn,
		ProtocolVersion: protocol.Version,
		Round:           h.Round(),
		Self:            selfObs(h.Self()),
	}
	if err := writeJSON(s.conn, turn); err != nil {
		return protocol.YieldMsg{}, err
	}
	for {
		_ = s.conn.SetReadDeadline(time.Now().Add(s.CallTimeout))
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			return protocol.YieldMsg{}, err
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			return protocol.YieldMsg{}, fmt.Errorf("%w: %v", ErrProtocol, err)
		}
		switch base.Type {
		case protocol.TypeCall:
			var call protocol.CallMsg
			if err := json.Unmarshal(msg, &call); err != nil {
				res := protocol.ResultMsg{Type: protocol.TypeResult, Error: &protocol.ErrorObj{Code: protocol.ErrProtoBadRequest, Message: err.Error()}}
				if err := writeJSON(s.conn, res); err != nil {
					return protocol.YieldMsg{}, err
				}
				continue
			}
			if err := writeJSON(s.conn, Dispatch(h, call)); err != nil {
				return protocol.YieldMsg{}, err
			}

		case protocol.TypeYield:
			var y protocol.YieldMsg
			if err := json.Unmarshal(msg, &y); err != nil {
				return protocol.YieldMsg{}, fmt.Errorf("%w: bad YIELD: %v", ErrProtocol, err)
			}
			if y.AgentID != turn.Self.ID {
				return y, fmt.Errorf("%w: YIELD for agent %d during turn of %d", ErrProtocol, y.AgentID, turn.Self.ID)
			}
			return y, h.Yield()

		default:
			return protocol.YieldMsg{}, fmt.Errorf("%w: unexpected %s during turn", ErrProtocol, base.Type)
		}
	}
}

// Bye tells the bot the game is over.
func (s *Session) Bye(reason string, winner *host.Team) error {
	bye := protocol.ByeMsg{Type: protocol.TypeBye, ProtocolVersion: protocol.Version, Reason: reason}
	if winner != nil {
		bye.Winner = winner.String()
	}
	return writeJSON(s.conn, bye)
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}

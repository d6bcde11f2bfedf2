package protocol

import "encoding/json"

// HELLO (bot -> host)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	BotName         string `json:"bot_name"`
	SessionID       string `json:"session_id"`
	Team            string `json:"team,omitempty"` // "A" or "B"; empty lets the host choose
}

// WELCOME (host -> bot)
type WelcomeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	GameID          string `json:"game_id"`
	Team            string `json:"team"`
	SharedSlots     int    `json:"shared_slots"`
}

// TURN (host -> bot): one agent of the bot's team is scheduled.
type TurnMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	Round           int     `json:"round"`
	Self            SelfObs `json:"self"`
}

type SelfObs struct {
	ID             int    `json:"id"`
	Role           string `json:"role"`
	Team           string `json:"team"`
	Pos            [2]int `json:"pos"`
	HP             int    `json:"hp"`
	ActionRadiusSq int    `json:"action_radius_sq"`
	VisionRadiusSq int    `json:"vision_radius_sq"`
}

// AgentObs is a sensed unit.
type AgentObs struct {
	ID   int    `json:"id"`
	Role string `json:"role"`
	Team string `json:"team"`
	Pos  [2]int `json:"pos"`
	HP   int    `json:"hp"`
}

// Call operations.
const (
	OpSenseNearby     = "sense_nearby"
	OpSenseAgent      = "sense_agent"
	OpSenseAt         = "sense_at"
	OpCanSenseAgent   = "can_sense_agent"
	OpLocationsWithin = "locations_within"
	OpSenseResource   = "sense_resource"
	OpTeamStock       = "team_stock"
	OpCanMove         = "can_move"
	OpMove            = "move"
	OpCanAttack       = "can_attack"
	OpAttack          = "attack"
	OpCanMine         = "can_mine"
	OpMine            = "mine"
	OpCanBuild        = "can_build"
	OpBuild           = "build"
	OpCanTransmute    = "can_transmute"
	OpTransmute       = "transmute"
	OpReadShared      = "read_shared"
	OpWriteShared     = "write_shared"
)

var knownOps = map[string]struct{}{
	OpSenseNearby: {}, OpSenseAgent: {}, OpSenseAt: {}, OpCanSenseAgent: {},
	OpLocationsWithin: {}, OpSenseResource: {}, OpTeamStock: {},
	OpCanMove: {}, OpMove: {}, OpCanAttack: {}, OpAttack: {},
	OpCanMine: {}, OpMine: {}, OpCanBuild: {}, OpBuild: {},
	OpCanTransmute: {}, OpTransmute: {}, OpReadShared: {}, OpWriteShared: {},
}

func IsKnownOp(op string) bool {
	_, ok := knownOps[op]
	return ok
}

// CALL (bot -> host): one host query or action inside a turn. Only the
// fields the op reads are set.
type CallMsg struct {
	Type string   `json:"type"`
	Seq  uint64   `json:"seq"`
	Op   string   `json:"op"`
	Args CallArgs `json:"args"`
}

type CallArgs struct {
	RadiusSq int    `json:"radius_sq,omitempty"` // negative means the vision radius
	Team     string `json:"team,omitempty"`
	ID       int    `json:"id,omitempty"`
	Pos      [2]int `json:"pos"`
	Dir      string `json:"dir,omitempty"`
	Role     string `json:"role,omitempty"`
	Resource string `json:"resource,omitempty"`
	Index    int    `json:"index,omitempty"`
	Value    int    `json:"value,omitempty"`
}

// RESULT (host -> bot)
type ResultMsg struct {
	Type  string          `json:"type"`
	Seq   uint64          `json:"seq"`
	OK    bool            `json:"ok"`
	Value json.RawMessage `json:"value,omitempty"`
	Error *ErrorObj       `json:"error,omitempty"`
}

type ErrorObj struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// SenseAtValue is the value of a sense_at result.
type SenseAtValue struct {
	Found bool      `json:"found"`
	Agent *AgentObs `json:"agent,omitempty"`
}

// YIELD (bot -> host): ends the agent's turn. Report is the bot's turn
// record, passed through for the host's own logs.
type YieldMsg struct {
	Type            string          `json:"type"`
	ProtocolVersion string          `json:"protocol_version"`
	Round           int             `json:"round"`
	AgentID         int             `json:"agent_id"`
	Report          json.RawMessage `json:"report,omitempty"`
}

// BYE (host -> bot): the game is over.
type ByeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Reason          string `json:"reason,omitempty"`
	Winner          string `json:"winner,omitempty"`
}

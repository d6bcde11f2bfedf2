package protocol

import "fmt"

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Call layer.
	ErrBadRequest    = "E_BAD_REQUEST"
	ErrIllegalAction = "E_ILLEGAL_ACTION"
	ErrNotFound      = "E_NOT_FOUND"
	ErrInternal      = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrBadRequest:      {},
	ErrIllegalAction:   {},
	ErrNotFound:        {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}

// CallError is a failed CALL as seen by the bot. Err, when set, is the local
// sentinel the code maps to so callers can use errors.Is.
type CallError struct {
	Op      string
	Code    string
	Message string
	Err     error
}

func (e *CallError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, e.Message)
}

func (e *CallError) Unwrap() error { return e.Err }

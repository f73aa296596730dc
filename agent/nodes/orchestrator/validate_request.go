package orchestratornode

import (
	"errors"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Voice-Booking/agent/contract"
	statex "github.com/tanpawarit/Chative-Voice-Booking/agent/state"
	toolx "github.com/tanpawarit/Chative-Voice-Booking/agent/tool"
)

var (
	ErrInvalidMessage = errors.New("message is empty")
	ErrInvalidSession = errors.New("session id is empty")
)

type GraphInput struct {
	SessionID string
	Text      string
}

type GraphOutput struct {
	Reply        string
	Capabilities []toolx.Kind
}

// Session is the live, in-process side of one call. Access is serialized by
// the caller; nodes never lock.
type Session struct {
	State    *statex.SessionState
	History  []contractx.Turn
	Executor toolx.Executor
}

type GraphState struct {
	SessionID string
	Text      string
	Now       time.Time

	Session   *Session
	ToolSteps int
	Reply     string
}

func ValidateTurn(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	return &GraphState{
		SessionID: sessionID,
		Text:      text,
		Now:       nowFn().UTC(),
	}, nil
}

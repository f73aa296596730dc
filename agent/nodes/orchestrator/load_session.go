package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Chative-Voice-Booking/agent/contract"
)

type SessionLookup func(sessionID string) (*Session, error)

func LoadSession(_ context.Context, in *GraphState, lookup SessionLookup) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	sess, err := lookup(in.SessionID)
	if err != nil {
		return nil, err
	}
	if sess.State == nil || sess.Executor == nil {
		return nil, fmt.Errorf("%w: session %s is not initialized", contractx.ErrValidation, in.SessionID)
	}
	if sess.State.Closed {
		return nil, fmt.Errorf("%w: %s", contractx.ErrSessionClosed, in.SessionID)
	}

	sess.State.EnsureRecord()
	sess.State.Turns++
	sess.History = append(sess.History, contractx.Turn{Role: contractx.RoleUser, Content: in.Text})
	in.Session = sess
	return in, nil
}

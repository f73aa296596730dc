package orchestratornode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Voice-Booking/agent/contract"
	statex "github.com/tanpawarit/Chative-Voice-Booking/agent/state"
)

// SaveSnapshot validates the live state and mirrors it to the store. The live
// session stays authoritative, so a store failure is logged and the turn goes on.
func SaveSnapshot(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	st := in.Session.State
	st.Touch(in.Now)
	st.Sync()
	if err := st.Validate(); err != nil {
		return nil, fmt.Errorf("state validation failed: %w", err)
	}
	if err := store.Save(ctx, st); err != nil {
		log.Warn().Err(err).Str("session_id", in.SessionID).Msg("save session snapshot failed")
	}
	return in, nil
}

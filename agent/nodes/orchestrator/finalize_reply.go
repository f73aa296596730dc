package orchestratornode

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Chative-Voice-Booking/agent/contract"
	toolx "github.com/tanpawarit/Chative-Voice-Booking/agent/tool"
)

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil || in.Session == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	reply := strings.TrimSpace(in.Reply)
	if reply == "" {
		return GraphOutput{}, fmt.Errorf("%w: decider returned empty reply", contractx.ErrValidation)
	}
	return GraphOutput{
		Reply:        reply,
		Capabilities: toolx.Enabled(in.Session.State.Record),
	}, nil
}

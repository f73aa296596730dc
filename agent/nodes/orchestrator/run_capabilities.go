package orchestratornode

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Voice-Booking/agent/contract"
	toolx "github.com/tanpawarit/Chative-Voice-Booking/agent/tool"
	workforcex "github.com/tanpawarit/Chative-Voice-Booking/agent/workforce"
)

const (
	stepLimitMessage = "Too many actions in one turn. Stop calling tools and answer the customer now."
	callEndedMessage = "The call has already ended and its record is saved. Nothing was changed; just say goodbye."
)

type CapabilityDeps struct {
	Decider      contractx.Decider
	Directory    workforcex.Directory
	MaxToolSteps int
	// Observe is told about every executed capability.
	Observe func(tool string, res contractx.ToolResult)
}

// RunCapabilities alternates between the decider and the executor until the
// decider answers with a spoken reply. Tool calls run one at a time, in order.
// Once the step budget is spent the decider is offered no tools.
func RunCapabilities(ctx context.Context, in *GraphState, deps CapabilityDeps) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}
	sess := in.Session
	rec := sess.State.Record

	for {
		var tools []*schema.ToolInfo
		if in.ToolSteps < deps.MaxToolSteps {
			infos, err := toolx.BuildForRecord(ctx, rec, deps.Directory)
			if err != nil {
				return nil, err
			}
			tools = infos
		}

		decision, err := deps.Decider.Decide(ctx, contractx.DecideRequest{
			SessionID: in.SessionID,
			Record:    rec,
			History:   sess.History,
		}, tools)
		if err != nil {
			return nil, err
		}

		if len(decision.ToolRequests) == 0 {
			sess.History = append(sess.History, contractx.Turn{Role: contractx.RoleAssistant, Content: decision.Message})
			in.Reply = decision.Message
			return in, nil
		}
		if tools == nil {
			return nil, fmt.Errorf("%w: tool calls after step limit", contractx.ErrSchemaViolation)
		}

		sess.History = append(sess.History, contractx.Turn{
			Role:      contractx.RoleAssistant,
			Content:   decision.Message,
			ToolCalls: decision.ToolRequests,
		})

		for _, req := range decision.ToolRequests {
			var res contractx.ToolResult
			switch {
			case sess.State.Closed:
				res = contractx.ToolResult{Tool: req.Tool, Message: callEndedMessage, Error: contractx.ErrSessionClosed.Error()}
			case in.ToolSteps >= deps.MaxToolSteps:
				res = contractx.ToolResult{Tool: req.Tool, Message: stepLimitMessage, Error: "step limit reached"}
			default:
				in.ToolSteps++
				res, err = sess.Executor(ctx, req.Tool, req.Args)
				if err != nil {
					return nil, fmt.Errorf("capability %s: %w", req.Tool, err)
				}
			}
			if deps.Observe != nil {
				deps.Observe(req.Tool, res)
			}
			sess.History = append(sess.History, contractx.Turn{
				Role:       contractx.RoleTool,
				Content:    res.Message,
				ToolCallID: req.ID,
				ToolName:   req.Tool,
			})
		}

		log.Debug().
			Str("session_id", in.SessionID).
			Int("tool_steps", in.ToolSteps).
			Msg("capability batch done")
	}
}

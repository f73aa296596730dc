package receptionist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/Chative-Voice-Booking/agent/contract"
)

var _ contractx.Decider = (*Receptionist)(nil)

// Receptionist binds the capabilities of the current step to the chat model
// and asks it for the next move.
type Receptionist struct {
	chatModel    einomodel.ToolCallingChatModel
	systemPrompt string
}

func New(chatModel einomodel.ToolCallingChatModel, systemPrompt string) (*Receptionist, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: chat model is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: receptionist", contractx.ErrPromptMissing)
	}
	return &Receptionist{chatModel: chatModel, systemPrompt: systemPrompt}, nil
}

func (r *Receptionist) Decide(ctx context.Context, req contractx.DecideRequest, tools []*schema.ToolInfo) (contractx.Decision, error) {
	// the openai client refuses to bind an empty tool list
	var toolModel einomodel.BaseChatModel = r.chatModel
	if len(tools) > 0 {
		bound, err := r.chatModel.WithTools(tools)
		if err != nil {
			return contractx.Decision{}, fmt.Errorf("%w: bind tools: %v", contractx.ErrModelInvoke, err)
		}
		toolModel = bound
	}

	msgs, err := r.buildMessages(req)
	if err != nil {
		return contractx.Decision{}, err
	}

	msg, err := toolModel.Generate(ctx, msgs)
	if err != nil {
		return contractx.Decision{}, fmt.Errorf("%w: generate: %v", contractx.ErrModelInvoke, err)
	}
	if msg == nil {
		return contractx.Decision{}, fmt.Errorf("%w: empty model response", contractx.ErrSchemaViolation)
	}

	toolRequests, err := toToolRequests(msg.ToolCalls)
	if err != nil {
		return contractx.Decision{}, err
	}
	if len(toolRequests) > 0 {
		return contractx.Decision{ToolRequests: toolRequests}, nil
	}

	content := strings.TrimSpace(msg.Content)
	if content == "" {
		return contractx.Decision{}, fmt.Errorf("%w: reply has neither content nor tool calls", contractx.ErrSchemaViolation)
	}
	return contractx.Decision{Message: content}, nil
}

func (r *Receptionist) buildMessages(req contractx.DecideRequest) ([]*schema.Message, error) {
	msgs := make([]*schema.Message, 0, len(req.History)+1)
	msgs = append(msgs, schema.SystemMessage(r.systemPrompt))

	for _, turn := range req.History {
		switch turn.Role {
		case contractx.RoleUser:
			msgs = append(msgs, schema.UserMessage(turn.Content))
		case contractx.RoleAssistant:
			calls, err := toToolCalls(turn.ToolCalls)
			if err != nil {
				return nil, err
			}
			msgs = append(msgs, &schema.Message{
				Role:      schema.Assistant,
				Content:   turn.Content,
				ToolCalls: calls,
			})
		case contractx.RoleTool:
			msgs = append(msgs, &schema.Message{
				Role:       schema.Tool,
				Content:    turn.Content,
				ToolCallID: turn.ToolCallID,
			})
		default:
			return nil, fmt.Errorf("%w: unknown history role %q", contractx.ErrValidation, turn.Role)
		}
	}
	return msgs, nil
}

func toToolCalls(reqs []contractx.ToolRequest) ([]schema.ToolCall, error) {
	if len(reqs) == 0 {
		return nil, nil
	}
	calls := make([]schema.ToolCall, 0, len(reqs))
	for _, req := range reqs {
		args := "{}"
		if len(req.Args) > 0 {
			raw, err := json.Marshal(req.Args)
			if err != nil {
				return nil, fmt.Errorf("%w: marshal args for tool=%s: %v", contractx.ErrValidation, req.Tool, err)
			}
			args = string(raw)
		}
		calls = append(calls, schema.ToolCall{
			ID:       req.ID,
			Type:     "function",
			Function: schema.FunctionCall{Name: req.Tool, Arguments: args},
		})
	}
	return calls, nil
}

func toToolRequests(calls []schema.ToolCall) ([]contractx.ToolRequest, error) {
	if len(calls) == 0 {
		return nil, nil
	}
	reqs := make([]contractx.ToolRequest, 0, len(calls))
	for _, call := range calls {
		tool := strings.TrimSpace(call.Function.Name)
		if tool == "" {
			return nil, fmt.Errorf("%w: tool call name is empty", contractx.ErrSchemaViolation)
		}

		args := map[string]any{}
		rawArgs := strings.TrimSpace(call.Function.Arguments)
		if rawArgs != "" {
			if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
				return nil, fmt.Errorf("%w: invalid tool args for tool=%s: %v", contractx.ErrSchemaViolation, tool, err)
			}
		}

		reqs = append(reqs, contractx.ToolRequest{
			ID:   call.ID,
			Tool: tool,
			Args: args,
		})
	}
	return reqs, nil
}

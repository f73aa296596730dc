package contract

import (
	"time"

	statex "github.com/tanpawarit/Chative-Voice-Booking/agent/state"
)

type ToolRequest struct {
	ID   string         `json:"id,omitempty"`
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

// ToolResult is what a capability hands back to the decision-maker.
// Message is always set; Error carries the sentinel text when the call was refused.
type ToolResult struct {
	Tool    string `json:"tool"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

type DecideRequest struct {
	SessionID string
	Record    *statex.CustomerRecord
	// History is the conversation so far, oldest first.
	History []Turn
}

type Turn struct {
	Role       string        `json:"role"`
	Content    string        `json:"content,omitempty"`
	ToolCalls  []ToolRequest `json:"tool_calls,omitempty"`
	ToolCallID string        `json:"tool_call_id,omitempty"`
	ToolName   string        `json:"tool_name,omitempty"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Decision is either a spoken reply or a batch of capability calls.
type Decision struct {
	Message      string
	ToolRequests []ToolRequest
}

// CallRecord is the persisted end-of-call line.
type CallRecord struct {
	statex.Summary
	Timestamp string `json:"timestamp"`
	RoomName  string `json:"room_name"`
	SessionID string `json:"session_id"`
}

func NewCallRecord(sessionID, roomName string, summary statex.Summary, now time.Time) CallRecord {
	return CallRecord{
		Summary:   summary,
		Timestamp: now.UTC().Format(time.RFC3339),
		RoomName:  roomName,
		SessionID: sessionID,
	}
}

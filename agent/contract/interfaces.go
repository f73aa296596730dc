package contract

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// Decider is the hosted decision-maker. It is handed the capabilities enabled
// for this step and answers with a reply or tool calls.
type Decider interface {
	Decide(ctx context.Context, req DecideRequest, tools []*schema.ToolInfo) (Decision, error)
}

type RecordSink interface {
	Write(ctx context.Context, rec CallRecord) error
}

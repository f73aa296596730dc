package orchestrator

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	contractx "github.com/tanpawarit/Chative-Voice-Booking/agent/contract"
	nodex "github.com/tanpawarit/Chative-Voice-Booking/agent/nodes/orchestrator"
	toolx "github.com/tanpawarit/Chative-Voice-Booking/agent/tool"
)

func (o *Orchestrator) compileHandleTurnGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode("validate_turn",
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateTurn(in, o.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_turn: %w", err)
	}

	if err := graph.AddLambdaNode("load_session",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.LoadSession(ctx, in, o.lookup)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node load_session: %w", err)
	}

	if err := graph.AddLambdaNode("run_capabilities",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.RunCapabilities(ctx, in, nodex.CapabilityDeps{
				Decider:      o.decider,
				Directory:    o.directory,
				MaxToolSteps: o.maxToolSteps,
				Observe:      o.observeCapability,
			})
		}),
	); err != nil {
		return nil, fmt.Errorf("add node run_capabilities: %w", err)
	}

	if err := graph.AddLambdaNode("save_snapshot",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.SaveSnapshot(ctx, in, o.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node save_snapshot: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_reply",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.FinalizeReply(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_reply: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_turn"},
		{"validate_turn", "load_session"},
		{"load_session", "run_capabilities"},
		{"run_capabilities", "save_snapshot"},
		{"save_snapshot", "finalize_reply"},
		{"finalize_reply", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("orchestrator.handle_turn"))
	if err != nil {
		return nil, fmt.Errorf("compile orchestrator graph: %w", err)
	}
	return runner, nil
}

func (o *Orchestrator) observeCapability(tool string, res contractx.ToolResult) {
	status := "ok"
	if res.Error != "" {
		status = "refused"
	}
	o.metrics.Capabilities.WithLabelValues(tool, status).Inc()
	if tool == toolx.KindBookSlot.String() {
		o.metrics.Bookings.WithLabelValues(status).Inc()
	}
}

package pipeline

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	nodex "github.com/tanpawarit/ina-negotiation/agent/nodes"
)

func (c *Coordinator) compileHandleMessageGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode(nodex.StageValidate,
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in, c.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodex.StageValidate, err)
	}

	if err := graph.AddLambdaNode(nodex.StageLoadSession,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.LoadSession(ctx, in, c.store, c.cfg.StoreTimeout)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodex.StageLoadSession, err)
	}

	if err := graph.AddLambdaNode(nodex.StageClassify,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Classify(ctx, in, c.classifier, c.cfg.ClassifierTimeout)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodex.StageClassify, err)
	}

	if err := graph.AddLambdaNode(nodex.StageDecide,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Decide(ctx, in, c.decider, c.prices)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodex.StageDecide, err)
	}

	if err := graph.AddLambdaNode(nodex.StageRecordDecision,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.RecordDecision(ctx, in, c.audit, c.cfg.AuditTimeout)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodex.StageRecordDecision, err)
	}

	if err := graph.AddLambdaNode(nodex.StagePhrase,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Phrase(ctx, in, c.phraser, c.cfg.PhraserTimeout)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodex.StagePhrase, err)
	}

	if err := graph.AddLambdaNode(nodex.StageRespond,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Respond(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodex.StageRespond, err)
	}

	if err := graph.AddLambdaNode(nodex.StageSaveSession,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.SaveSession(ctx, in, c.store, c.cfg.StoreTimeout)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodex.StageSaveSession, err)
	}

	if err := graph.AddLambdaNode(nodex.StageFinalize,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.FinalizeReply(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodex.StageFinalize, err)
	}

	edges := [][2]string{
		{compose.START, nodex.StageValidate},
		{nodex.StageValidate, nodex.StageLoadSession},
		{nodex.StageLoadSession, nodex.StageClassify},
		{nodex.StageClassify, nodex.StageDecide},
		{nodex.StageDecide, nodex.StageRecordDecision},
		{nodex.StageRecordDecision, nodex.StagePhrase},
		{nodex.StagePhrase, nodex.StageRespond},
		{nodex.StageRespond, nodex.StageSaveSession},
		{nodex.StageSaveSession, nodex.StageFinalize},
		{nodex.StageFinalize, compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("pipeline.handle_message"))
	if err != nil {
		return nil, fmt.Errorf("compile pipeline graph: %w", err)
	}
	return runner, nil
}

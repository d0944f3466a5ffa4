package phraser

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// EinoParaphraser runs prompt -> chat model through an eino graph.
type EinoParaphraser struct {
	runner compose.Runnable[map[string]any, *schema.Message]
}

var _ Paraphraser = (*EinoParaphraser)(nil)

func NewEinoParaphraser(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*EinoParaphraser, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required")
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("system prompt is required")
	}
	runner, err := compileParaphraseGraph(ctx, chatModel, systemPrompt)
	if err != nil {
		return nil, err
	}
	return &EinoParaphraser{runner: runner}, nil
}

func (p *EinoParaphraser) Paraphrase(ctx context.Context, text string) (string, error) {
	msg, err := p.runner.Invoke(ctx, map[string]any{"input": text})
	if err != nil {
		return "", fmt.Errorf("invoke paraphrase graph: %w", err)
	}
	if msg == nil {
		return "", fmt.Errorf("paraphrase graph returned no message")
	}
	return msg.Content, nil
}

func compileParaphraseGraph(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
) (compose.Runnable[map[string]any, *schema.Message], error) {
	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(systemPrompt),
		schema.UserMessage("{input}"),
	)

	graph := compose.NewGraph[map[string]any, *schema.Message]()
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add paraphrase prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add paraphrase model node: %w", err)
	}
	if err := graph.AddEdge(compose.START, "prompt"); err != nil {
		return nil, fmt.Errorf("add paraphrase edge start->prompt: %w", err)
	}
	if err := graph.AddEdge("prompt", "model"); err != nil {
		return nil, fmt.Errorf("add paraphrase edge prompt->model: %w", err)
	}
	if err := graph.AddEdge("model", compose.END); err != nil {
		return nil, fmt.Errorf("add paraphrase edge model->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("phraser.paraphrase_graph"))
	if err != nil {
		return nil, fmt.Errorf("compile paraphrase graph: %w", err)
	}
	return runner, nil
}

package chat

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Claude is a Provider backed by the Anthropic Messages API.
type Claude struct {
	client anthropic.Client
	model  string
}

// NewClaude constructs a Claude provider for the given API key and model.
func NewClaude(apiKey, model string) *Claude {
	return &Claude{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Complete implements Provider with the spec's timeout+one-retry contract.
func (p *Claude) Complete(ctx context.Context, messages []Message, systemPrompt string, maxTokens int) (string, error) {
	return withRetry(ctx, func(cctx context.Context) (string, error) {
		return p.complete(cctx, messages, systemPrompt, maxTokens)
	})
}

func (p *Claude) complete(ctx context.Context, messages []Message, systemPrompt string, maxTokens int) (string, error) {
	var msgs []anthropic.MessageParam
	for _, m := range messages {
		if m.Role == "assistant" {
			msgs = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
			continue
		}
		msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
	}

	if maxTokens <= 0 {
		maxTokens = 512
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(maxTokens),
		Messages:  msgs,
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", transient(err)
	}
	if len(resp.Content) == 0 {
		return "", fatal(fmt.Errorf("claude: empty content"))
	}
	for _, block := range resp.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fatal(fmt.Errorf("claude: no text block in response"))
}

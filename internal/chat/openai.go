package chat

import (
	"context"
	"fmt"

	oai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/packages/param"
)

// OpenAI is a Provider backed by the OpenAI chat completions API.
type OpenAI struct {
	client oai.Client
	model  string
}

// NewOpenAI constructs an OpenAI provider for the given API key and model.
func NewOpenAI(apiKey, model string) *OpenAI {
	return &OpenAI{
		client: oai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Complete implements Provider with the spec's timeout+one-retry contract.
func (p *OpenAI) Complete(ctx context.Context, messages []Message, systemPrompt string, maxTokens int) (string, error) {
	return withRetry(ctx, func(cctx context.Context) (string, error) {
		return p.complete(cctx, messages, systemPrompt, maxTokens)
	})
}

func (p *OpenAI) complete(ctx context.Context, messages []Message, systemPrompt string, maxTokens int) (string, error) {
	var msgs []oai.ChatCompletionMessageParamUnion
	if systemPrompt != "" {
		msgs = append(msgs, oai.SystemMessage(systemPrompt))
	}
	for _, m := range messages {
		if m.Role == "assistant" {
			msgs = append(msgs, oai.AssistantMessage(m.Content))
			continue
		}
		msgs = append(msgs, oai.UserMessage(m.Content))
	}

	params := oai.ChatCompletionNewParams{
		Model:    p.model,
		Messages: msgs,
	}
	if maxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(maxTokens))
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", transientFromAPIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fatal(fmt.Errorf("openai: empty choices"))
	}
	return resp.Choices[0].Message.Content, nil
}

func fatal(err error) error     { return &Error{Kind: Fatal, Err: err} }
func transient(err error) error { return &Error{Kind: Transient, Err: err} }

// transientFromAPIError classifies every error returned by the OpenAI
// client as transient, so withRetry retries it once; no API error is
// classified as fatal here.
func transientFromAPIError(err error) error {
	return transient(err)
}

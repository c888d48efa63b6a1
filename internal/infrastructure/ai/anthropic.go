package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// anthropicClient uses the SDK, which retries 429/5xx itself.
type anthropicClient struct {
	client anthropic.Client
	model  string
}

func newAnthropicClient(opts Options) *anthropicClient {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(opts.MaxRetries),
	}
	if opts.BaseURL != "" && !strings.Contains(opts.BaseURL, "api.openai.com") {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	return &anthropicClient{
		client: anthropic.NewClient(reqOpts...),
		model:  opts.Model,
	}
}

func (a *anthropicClient) Name() string { return ProviderAnthropic }

func (a *anthropicClient) Complete(ctx context.Context, req Request) (*Completion, error) {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, 2)
	if req.Image != nil {
		blocks = append(blocks, anthropic.NewImageBlockBase64(req.Image.ContentType, req.Image.Base64))
	}
	blocks = append(blocks, anthropic.NewTextBlock(req.Prompt))

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: defaultMaxTokens,
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(blocks...)},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	response, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("API call failed: %w", err)
	}

	var text strings.Builder
	for _, block := range response.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("empty response from API")
	}
	return &Completion{Text: text.String(), Model: string(response.Model)}, nil
}

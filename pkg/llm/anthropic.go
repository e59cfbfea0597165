package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/flying3615/news-state/pkg/congress"
	"github.com/flying3615/news-state/pkg/news"
)

type AnthropicClient struct {
	client    *anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

func NewAnthropicClient(apiKey, model string, maxTokens int) *AnthropicClient {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	m := anthropic.ModelClaudeHaiku4_5
	if model != "" {
		m = anthropic.Model(model)
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &AnthropicClient{
		client:    &client,
		model:     m,
		maxTokens: int64(maxTokens),
	}
}

func (c *AnthropicClient) SummarizeNews(ctx context.Context, items []news.Item) ([]SummaryItem, error) {
	if len(items) == 0 {
		return nil, nil
	}

	content, err := c.complete(ctx, newsSystemPrompt, newsUserPrompt(items))
	if err != nil {
		return nil, err
	}
	return decodeSummaryItems(content), nil
}

func (c *AnthropicClient) AnalyzeTrades(ctx context.Context, trades []congress.Trade) (string, error) {
	if len(trades) == 0 {
		return "", nil
	}

	content, err := c.complete(ctx, tradeSystemPrompt, tradeUserPrompt(trades))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

func (c *AnthropicClient) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API error: %w", err)
	}
	if len(resp.Content) == 0 {
		return "", fmt.Errorf("no response from anthropic")
	}
	return resp.Content[0].Text, nil
}

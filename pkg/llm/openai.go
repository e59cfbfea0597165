package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/flying3615/news-state/pkg/congress"
	"github.com/flying3615/news-state/pkg/news"
)

const defaultMaxTokens = 2048

type OpenAIClient struct {
	client    *openai.Client
	model     openai.ChatModel
	maxTokens int64
}

func NewOpenAIClient(apiKey, model string, maxTokens int) *OpenAIClient {
	client := openai.NewClient(option.WithAPIKey(apiKey))

	m := openai.ChatModelGPT4oMini
	if model != "" {
		m = openai.ChatModel(model)
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &OpenAIClient{
		client:    &client,
		model:     m,
		maxTokens: int64(maxTokens),
	}
}

func (c *OpenAIClient) SummarizeNews(ctx context.Context, items []news.Item) ([]SummaryItem, error) {
	if len(items) == 0 {
		return nil, nil
	}

	content, err := c.complete(ctx, newsSystemPrompt, newsUserPrompt(items))
	if err != nil {
		return nil, err
	}
	return decodeSummaryItems(content), nil
}

func (c *OpenAIClient) AnalyzeTrades(ctx context.Context, trades []congress.Trade) (string, error) {
	if len(trades) == 0 {
		return "", nil
	}

	content, err := c.complete(ctx, tradeSystemPrompt, tradeUserPrompt(trades))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

func (c *OpenAIClient) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:     c.model,
		MaxTokens: openai.Int(c.maxTokens),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from openai")
	}
	return resp.Choices[0].Message.Content, nil
}

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

type Notifier interface {
	Send(ctx context.Context, text string) error
}

const telegramAPI = "https://api.telegram.org"

// TelegramClient posts messages to a chat. With missing credentials every
// send degrades to a logged no-op instead of failing the pipeline.
type TelegramClient struct {
	token      string
	chatID     string
	httpClient *http.Client
}

func NewTelegramClient(token, chatID string) *TelegramClient {
	return &TelegramClient{
		token:      token,
		chatID:     chatID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *TelegramClient) Send(ctx context.Context, text string) error {
	if c.token == "" || c.chatID == "" {
		slog.Warn("telegram credentials missing, skipping message")
		return nil
	}

	payload, err := json.Marshal(map[string]string{
		"chat_id":    c.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	})
	if err != nil {
		return fmt.Errorf("telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", telegramAPI, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram send: status %s: %s", resp.Status, body)
	}
	return nil
}

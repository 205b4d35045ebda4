package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.line.me"

// Client talks to the messaging platform's reply API.
type Client struct {
	Token   string
	BaseURL string
	client  *http.Client
}

func NewClient(token string) *Client {
	return &Client{
		Token:   token,
		BaseURL: defaultBaseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type replyRequest struct {
	ReplyToken string    `json:"replyToken"`
	Messages   []Message `json:"messages"`
}

// Reply sends up to five messages against a single reply token.
func (c *Client) Reply(ctx context.Context, replyToken string, messages []Message) error {
	payload, err := json.Marshal(replyRequest{
		ReplyToken: replyToken,
		Messages:   messages,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal reply: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/v2/bot/message/reply", bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("reply request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("reply API returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

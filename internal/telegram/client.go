// Package telegram is a minimal Bot API client: notifications, inline
// confirmation buttons and a long-polling command listener.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"paper_trading/internal/logger"
)

const defaultBaseURL = "https://api.telegram.org"

// Client talks to one bot and one authorized chat.
type Client struct {
	token   string
	chatID  string
	baseURL string
	http    *http.Client
}

// NewClient returns a client. With an empty token or chat ID it is disabled
// and every send is a logged no-op.
func NewClient(token, chatID string) *Client {
	return &Client{
		token:   token,
		chatID:  chatID,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 75 * time.Second},
	}
}

// WithBaseURL points the client at another API host.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// Enabled reports whether credentials are configured.
func (c *Client) Enabled() bool {
	return c.token != "" && c.chatID != ""
}

// Notify sends a Markdown message to the configured chat.
func (c *Client) Notify(text string) {
	if !c.Enabled() {
		logger.Debugf("Telegram disabled, dropping notification: %s", text)
		return
	}
	logger.Debugf("Telegram Notify: %s", text)

	payload := map[string]string{
		"chat_id":    c.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}
	if err := c.post(context.Background(), "sendMessage", payload); err != nil {
		log.Printf("Telegram Alert Failed: %v", err)
	}
}

func (c *Client) endpoint(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
}

func (c *Client) post(ctx context.Context, method string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(method), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram %s: status %s", method, resp.Status)
	}
	return nil
}

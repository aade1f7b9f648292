package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Update is the part of a Telegram update the bot reads.
type Update struct {
	UpdateID int      `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
	Callback *struct {
		ID      string   `json:"id"`
		Data    string   `json:"data"`
		From    User     `json:"from"`
		Message *Message `json:"message,omitempty"`
	} `json:"callback_query,omitempty"`
}

type Message struct {
	Text string `json:"text"`
	Chat struct {
		ID int64 `json:"id"`
	} `json:"chat"`
	From User `json:"from"`
}

type User struct {
	Username string `json:"username"`
}

type UpdateResponse struct {
	Ok          bool     `json:"ok"`
	Result      []Update `json:"result"`
	Description string   `json:"description"`
	ErrorCode   int      `json:"error_code"`
}

// CommandHandler turns a slash command into a reply.
type CommandHandler func(ctx context.Context, command string) string

// CallbackHandler turns an inline button press into a reply.
type CallbackHandler func(ctx context.Context, callbackID, data string) string

const retryDelay = 5 * time.Second

// StartListener long-polls for updates until ctx is done. Only the
// configured chat is served; other senders are logged and ignored.
func (c *Client) StartListener(ctx context.Context, onCommand CommandHandler, onCallback CallbackHandler) {
	if !c.Enabled() {
		log.Println("Telegram Listener: Credentials missing, disabled.")
		return
	}
	authChatID, err := strconv.ParseInt(c.chatID, 10, 64)
	if err != nil {
		log.Printf("Telegram Listener: invalid TELEGRAM_CHAT_ID %q, disabled.", c.chatID)
		return
	}

	log.Println("Telegram Listener: Started")
	offset := 0
	for ctx.Err() == nil {
		updates, err := c.getUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Printf("Telegram Listener Error: %v", err)
			sleep(ctx, retryDelay)
			continue
		}

		for _, u := range updates {
			offset = u.UpdateID + 1
			c.dispatch(ctx, authChatID, u, onCommand, onCallback)
		}
	}
	log.Println("Telegram Listener: Stopped")
}

func (c *Client) dispatch(ctx context.Context, authChatID int64, u Update, onCommand CommandHandler, onCallback CallbackHandler) {
	switch {
	case u.Callback != nil:
		cb := u.Callback
		if cb.Message == nil || cb.Message.Chat.ID != authChatID {
			log.Printf("⚠️ UNAUTHORIZED CALLBACK: User %s tried: %s", cb.From.Username, cb.Data)
			return
		}
		log.Printf("Callback received: %s", cb.Data)
		reply := onCallback(ctx, cb.ID, cb.Data)
		c.AnswerCallback(cb.ID, "")
		if reply != "" {
			c.Notify(reply)
		}

	case u.Message != nil:
		if u.Message.Chat.ID != authChatID {
			log.Printf("⚠️ UNAUTHORIZED ACCESS ATTEMPT: User %s (ID: %d) tried: %s",
				u.Message.From.Username, u.Message.Chat.ID, u.Message.Text)
			return
		}
		text := strings.TrimSpace(u.Message.Text)
		if !strings.HasPrefix(text, "/") {
			return
		}
		log.Printf("Command received: %s", text)
		if reply := onCommand(ctx, text); reply != "" {
			c.Notify(reply)
		}
	}
}

func (c *Client) getUpdates(ctx context.Context, offset int) ([]Update, error) {
	url := fmt.Sprintf("%s?offset=%d&timeout=60", c.endpoint("getUpdates"), offset)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result UpdateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode updates: %w", err)
	}
	if !result.Ok {
		return nil, fmt.Errorf("telegram API error: %s (code %d)", result.Description, result.ErrorCode)
	}
	return result.Result, nil
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

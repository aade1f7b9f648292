package telegram

import (
	"context"
	"encoding/json"
	"log"
)

// Button represents an inline keyboard button.
type Button struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

// SendInteractiveMessage sends a message with one row of inline buttons.
func (c *Client) SendInteractiveMessage(text string, buttons []Button) {
	if !c.Enabled() {
		return
	}

	keyboard, _ := json.Marshal(map[string]any{
		"inline_keyboard": [][]Button{buttons},
	})

	payload := map[string]string{
		"chat_id":      c.chatID,
		"text":         text,
		"parse_mode":   "Markdown",
		"reply_markup": string(keyboard),
	}
	if err := c.post(context.Background(), "sendMessage", payload); err != nil {
		log.Printf("Telegram Error: %v", err)
	}
}

// AnswerCallback acknowledges a button press so the client stops spinning.
func (c *Client) AnswerCallback(callbackID, text string) {
	if !c.Enabled() || callbackID == "" {
		return
	}

	payload := map[string]string{
		"callback_query_id": callbackID,
		"text":              text,
	}
	if err := c.post(context.Background(), "answerCallbackQuery", payload); err != nil {
		log.Printf("Telegram callback ack failed: %v", err)
	}
}

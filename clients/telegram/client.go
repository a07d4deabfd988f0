package telegram

import (
	// Go Internal Packages
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type Client struct {
	apiBase  string
	botToken string
	http     *http.Client
}

func NewClient(botToken string) *Client {
	return &Client{
		apiBase:  "https://api.telegram.org",
		botToken: botToken,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// SendMessage delivers text to a single chat in MarkdownV2 mode. The
// text must already have its reserved characters escaped.
func (c *Client) SendMessage(ctx context.Context, chatID, text string) error {
	body := sendMessageRequest{ChatID: chatID, Text: text, ParseMode: "MarkdownV2"}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.apiBase, c.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var result sendMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return err
	}
	if !result.OK {
		return fmt.Errorf("telegram send failed: %s", result.Description)
	}
	return nil
}

package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultDiscordAPI is the Discord REST base URL.
const DefaultDiscordAPI = "https://discord.com/api/v10"

// DiscordNotifier posts messages to a channel through the Discord REST API.
type DiscordNotifier struct {
	Token     string
	ChannelID string
	APIBase   string
	Client    *http.Client
}

// NewDiscordNotifier creates a notifier with optional proxy support.
func NewDiscordNotifier(token, channelID, proxyURL string) *DiscordNotifier {
	return &DiscordNotifier{
		Token:     token,
		ChannelID: channelID,
		APIBase:   DefaultDiscordAPI,
		Client:    newHTTPClient(proxyURL, 30*time.Second),
	}
}

func (d *DiscordNotifier) Name() string { return "discord" }

// Send posts text to the configured channel. It does not retry.
func (d *DiscordNotifier) Send(ctx context.Context, text string) error {
	body, err := json.Marshal(map[string]string{"content": text})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	apiURL := fmt.Sprintf("%s/channels/%s/messages", d.APIBase, d.ChannelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+d.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return &DeliveryError{Provider: "discord", StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return nil
}

package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"macrotrack"
)

type Client struct {
	webhookURL string
	httpClient macrotrack.HTTPClient
}

func NewClient(webhookURL string, httpClient macrotrack.HTTPClient) *Client {
	return &Client{
		webhookURL: webhookURL,
		httpClient: httpClient,
	}
}

func (c *Client) PostMessage(ctx context.Context, channel string, message string) error {
	payload, err := json.Marshal(map[string]any{
		"channel": channel,
		"text":    message,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to post message: %s", resp.Status)
	}

	return nil
}

// SummaryNotifier posts end-of-day intake summaries to one channel.
type SummaryNotifier struct {
	client  *Client
	channel string
	now     func() time.Time
}

func NewSummaryNotifier(client *Client, channel string) *SummaryNotifier {
	return &SummaryNotifier{
		client:  client,
		channel: channel,
		now:     time.Now,
	}
}

// NotifySummary posts the summary text under a dated heading.
func (n *SummaryNotifier) NotifySummary(ctx context.Context, summary string) error {
	msg := fmt.Sprintf("*Daily intake for %s*\n```\n%s\n```", n.now().Format(time.DateOnly), summary)
	if err := n.client.PostMessage(ctx, n.channel, msg); err != nil {
		slog.Error("SLACK: Failed to post daily summary", "channel", n.channel, "error", err)
		return fmt.Errorf("post daily summary: %w", err)
	}
	slog.Info("SLACK: Posted daily summary", "channel", n.channel)
	return nil
}

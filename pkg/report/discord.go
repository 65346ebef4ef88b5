package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	errs "followsync/pkg/errors"
	"followsync/pkg/logger"
)

// EmbedTitle is the title of the Discord embed carrying the report
const EmbedTitle = "GitHub Follow/Unfollow Report"

const (
	colorOK      = 0x39FF14
	colorFailure = 0xFF6700
)

type discordEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color,omitempty"`
}

type discordMessage struct {
	Content string         `json:"content"`
	Embeds  []discordEmbed `json:"embeds,omitempty"`
}

// DiscordNotifier posts reports to a Discord webhook
type DiscordNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     logger.Logger
}

// NewDiscordNotifier creates a notifier for webhookURL
func NewDiscordNotifier(webhookURL string, timeout time.Duration, log logger.Logger) *DiscordNotifier {
	return &DiscordNotifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.OrDefault(log),
	}
}

// Name identifies the sender in logs
func (d *DiscordNotifier) Name() string {
	return "discord"
}

// Send posts r. A report without changes is sent as a plain message.
func (d *DiscordNotifier) Send(ctx context.Context, r *Report) error {
	msg := discordMessage{Content: r.Title()}
	if r.HasChanges() {
		body, err := r.JSON()
		if err != nil {
			return err
		}
		color := colorOK
		if r.FailedFollows.Count+r.FailedUnfollows.Count > 0 {
			color = colorFailure
		}
		msg.Embeds = []discordEmbed{{
			Title:       EmbedTitle,
			Description: fmt.Sprintf("```json\n%s\n```", body),
			Color:       color,
		}}
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeNetwork, err, "webhook request failed")
	}
	defer resp.Body.Close()
	defer io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	logger.LogRequest(d.logger, req.Method, "discord webhook", resp.StatusCode, time.Since(start))
	if !errs.IsSuccessStatus(resp.StatusCode) {
		return errs.New(errs.FromStatus(resp.StatusCode), resp.StatusCode, "Discord rejected the report")
	}
	return nil
}

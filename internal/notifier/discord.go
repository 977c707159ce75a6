package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"campus-events/internal/model"
)

const discordTimeLayout = "2006-01-02 15:04"

type DiscordNotifier struct {
	webhookURL string
	client     *http.Client
}

func NewDiscordNotifier(webhookURL string, client *http.Client) Notifier {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &DiscordNotifier{webhookURL: webhookURL, client: client}
}

func (d *DiscordNotifier) Name() string { return "discord" }

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordEmbed struct {
	Title  string              `json:"title"`
	Fields []discordEmbedField `json:"fields"`
}

type discordMessage struct {
	Content string         `json:"content"`
	Embeds  []discordEmbed `json:"embeds"`
}

func buildDiscordMessage(n *model.EventNotice) discordMessage {
	return discordMessage{
		Content: fmt.Sprintf("New event published by %s", n.OrganizerName),
		Embeds: []discordEmbed{{
			Title: n.EventName,
			Fields: []discordEmbedField{
				{Name: "Type", Value: string(n.EventType), Inline: true},
				{Name: "Registration deadline", Value: n.RegDeadline.Format(discordTimeLayout), Inline: true},
				{Name: "Starts", Value: n.StartDate.Format(discordTimeLayout), Inline: true},
				{Name: "Ends", Value: n.EndDate.Format(discordTimeLayout), Inline: true},
			},
		}},
	}
}

func (d *DiscordNotifier) Notify(ctx context.Context, notice *model.EventNotice) error {
	body, err := json.Marshal(buildDiscordMessage(notice))
	if err != nil {
		return fmt.Errorf("marshal discord message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("post discord webhook: %w: %w", ErrTransient, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("discord webhook returned %d: %w", resp.StatusCode, ErrTransient)
	case resp.StatusCode >= 300:
		return fmt.Errorf("discord webhook returned %d", resp.StatusCode)
	}
	return nil
}

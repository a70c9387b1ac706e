// Package assistant talks to an OpenAI-compatible chat-completions endpoint
// to produce short reflections on journal entries. The integration is
// deliberately fire-and-request: no retries, no backoff, and any failure
// degrades to a canned reply so the journaling flow never breaks on the AI
// collaborator.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/polarais/haru-sub000/internal/model"
)

// FallbackReply is returned whenever the completion request fails.
const FallbackReply = "I couldn't reflect on this entry right now. Please try again in a moment."

const systemPrompt = "You are a gentle journaling companion. Reflect briefly and warmly on the user's diary entry."

// Completer produces a reflection for an entry given the conversation so far.
type Completer interface {
	Reflect(ctx context.Context, entry *model.DiaryEntry, transcript []model.ChatTurn) string
}

// Config holds the endpoint settings for the completion service.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
}

// Client is an HTTP Completer.
type Client struct {
	cfg    Config
	http   *http.Client
	logger zerolog.Logger
}

// NewClient creates a Client. The http.Client's timeout is the only deadline
// the integration imposes.
func NewClient(cfg Config, httpClient *http.Client, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{cfg: cfg, http: httpClient, logger: logger}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Reflect asks the completion service for a reply to the transcript, seeded
// with the entry being reflected on. Every failure path returns
// FallbackReply.
func (c *Client) Reflect(ctx context.Context, entry *model.DiaryEntry, transcript []model.ChatTurn) string {
	reply, err := c.complete(ctx, entry, transcript)
	if err != nil {
		c.logger.Warn().Err(err).Str("entry_id", entry.ID).Msg("reflection request failed, using fallback")
		return FallbackReply
	}
	return reply
}

func (c *Client) complete(ctx context.Context, entry *model.DiaryEntry, transcript []model.ChatTurn) (string, error) {
	messages := []chatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: model.RoleUser, Content: entryPrompt(entry)},
	}
	for _, turn := range transcript {
		messages = append(messages, chatMessage{Role: turn.Role, Content: turn.Message})
	}

	body, err := json.Marshal(completionRequest{Model: c.cfg.Model, Messages: messages})
	if err != nil {
		return "", err
	}

	url := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion service returned status %d", resp.StatusCode)
	}

	var parsed completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("completion service returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

func entryPrompt(entry *model.DiaryEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Diary entry from %s (mood: %s)", entry.Date, entry.Mood)
	if entry.Title != "" {
		fmt.Fprintf(&b, "\nTitle: %s", entry.Title)
	}
	fmt.Fprintf(&b, "\n\n%s", entry.Content)
	return b.String()
}

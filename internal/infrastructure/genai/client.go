// Package genai generates personalized countdown-completion messages through
// an OpenAI-compatible chat completion endpoint.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/timeweaver-api/internal/config"
	"github.com/timeweaver-api/internal/domain"
	"github.com/timeweaver-api/internal/pkg/validate"
)

// NotificationInput is the request contract for a completion message.
// All three fields are required and non-empty.
type NotificationInput struct {
	TargetDate string `json:"targetDate" validate:"required"` // canonical RFC3339 timestamp
	TimeZone   string `json:"timeZone" validate:"required"`   // IANA identifier
	Location   string `json:"location" validate:"required"`
}

// NotificationOutput is the response contract.
type NotificationOutput struct {
	NotificationMessage string `json:"notificationMessage"`
}

const promptTemplate = `You are a notification service that sends out messages to users when their countdown timer hits zero.
The notification message should be personalized to the user's time zone and location.

Target Date: %[1]s
Time Zone: %[2]s
Location: %[3]s

Craft a message that tells the user that the countdown has ended, taking into account that the current time zone of the user is %[2]s and the user is in %[3]s. The target date was %[1]s. Be friendly and helpful.
Respond with a JSON object of the form {"notificationMessage": "..."}.`

// Client talks to a chat-completion API.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	httpc   *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.GenAIBaseURL, "/"),
		apiKey:  cfg.GenAIAPIKey,
		model:   cfg.GenAIModel,
		httpc:   &http.Client{Timeout: cfg.GenAITimeout},
	}
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate produces the completion message for one expired timer. Any
// transport error, API error or empty result is reported as
// domain.ErrGenerationFailed so callers can substitute a fallback message.
func (c *Client) Generate(ctx context.Context, in NotificationInput) (*NotificationOutput, error) {
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("invalid notification input: %w", domain.ErrBadRequest)
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: fmt.Sprintf(promptTemplate, in.TargetDate, in.TimeZone, in.Location)},
		},
		ResponseFormat: &respFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat request: %v: %w", err, domain.ErrGenerationFailed)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read chat response: %v: %w", err, domain.ErrGenerationFailed)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chat API status %d: %w", resp.StatusCode, domain.ErrGenerationFailed)
	}

	var cr chatResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return nil, fmt.Errorf("decode chat response: %v: %w", err, domain.ErrGenerationFailed)
	}
	if cr.Error != nil {
		return nil, fmt.Errorf("chat API error %q: %w", cr.Error.Message, domain.ErrGenerationFailed)
	}
	if len(cr.Choices) == 0 {
		return nil, fmt.Errorf("chat API returned no choices: %w", domain.ErrGenerationFailed)
	}

	var out NotificationOutput
	if err := json.Unmarshal([]byte(cr.Choices[0].Message.Content), &out); err != nil {
		return nil, fmt.Errorf("decode notification payload: %v: %w", err, domain.ErrGenerationFailed)
	}
	if out.NotificationMessage == "" {
		return nil, fmt.Errorf("empty notification message: %w", domain.ErrGenerationFailed)
	}
	return &out, nil
}

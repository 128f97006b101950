// Package dispatchcall places automated voice calls to dispatch through the
// VAPI telephony API, reading the incident briefing to the receiving party.
package dispatchcall

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultBaseURL = "https://api.vapi.ai"

// systemPrompt frames the voice assistant as a dispatch coordinator so the
// call follows a consistent structure.
const systemPrompt = `You are an emergency dispatch coordinator. Your role is to clearly
communicate critical incident details:

INCIDENT DETAILS:
- Nature of Emergency
- Number of People Affected
- Immediate Risks
- Required Services
- Additional Hazards

Provide this information in a clear, concise, and urgent manner appropriate
for emergency responders.`

// Client places outbound phone calls. A zero-valued client is unconfigured
// and refuses to place calls rather than failing against the live API.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	authToken     string
	phoneNumberID string
}

// NewClient creates a dispatch call client. authToken and phoneNumberID may
// be empty; Configured reports whether calls can actually be placed.
func NewClient(authToken, phoneNumberID string) *Client {
	return &Client{
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		baseURL:       defaultBaseURL,
		authToken:     authToken,
		phoneNumberID: phoneNumberID,
	}
}

// WithBaseURL overrides the API endpoint. Used by tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// Configured reports whether the client has the credentials to place calls.
func (c *Client) Configured() bool {
	return c.authToken != "" && c.phoneNumberID != ""
}

type callRequest struct {
	Assistant     assistant `json:"assistant"`
	PhoneNumberID string    `json:"phoneNumberId"`
	Customer      customer  `json:"customer"`
}

type assistant struct {
	FirstMessage string         `json:"firstMessage"`
	Model        assistantModel `json:"model"`
	Voice        string         `json:"voice"`
}

type assistantModel struct {
	Provider string    `json:"provider"`
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type customer struct {
	Number string `json:"number"`
}

// PlaceCall starts an outbound call that opens with firstMessage.
func (c *Client) PlaceCall(ctx context.Context, firstMessage, customerNumber string) error {
	if !c.Configured() {
		return fmt.Errorf("dispatch calling is not configured")
	}

	payload := callRequest{
		Assistant: assistant{
			FirstMessage: firstMessage,
			Model: assistantModel{
				Provider: "openai",
				Model:    "gpt-3.5-turbo",
				Messages: []message{{Role: "system", Content: systemPrompt}},
			},
			Voice: "jennifer-playht",
		},
		PhoneNumberID: c.phoneNumberID,
		Customer:      customer{Number: customerNumber},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal call request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/call/phone", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create call request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.authToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("place call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("call API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	log.Info().Str("customer", customerNumber).Msg("Dispatch call placed")
	return nil
}

// Package voice mints conversation tokens for the real-time speech provider.
package voice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

type Client struct {
	baseURL    string
	apiKey     string
	agentID    string
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewClient(baseURL, apiKey, agentID string, logger *logrus.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		agentID: agentID,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

type tokenResponse struct {
	Token string `json:"token"`
}

// MintToken returns a short-lived token the browser uses to join a
// conversation with the configured agent.
func (c *Client) MintToken(ctx context.Context) (string, error) {
	endpoint := fmt.Sprintf("%s/v1/convai/conversation/token?agent_id=%s", c.baseURL, url.QueryEscape(c.agentID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
			"agent_id":    c.agentID,
		}).Warn("Voice token request rejected")
		return "", fmt.Errorf("voice provider returned status %d", resp.StatusCode)
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if token.Token == "" {
		return "", fmt.Errorf("voice provider returned an empty token")
	}
	return token.Token, nil
}

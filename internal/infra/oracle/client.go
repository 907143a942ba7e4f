// Package oracle is the client for the external tutoring service. The service
// is opaque: it receives a prompt plus room context and returns structured
// content blocks.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/PtahSamora/titcha-studyroom/internal/domain"
)

// Errors distinguishing why the tutor call failed. Quota exhaustion is
// retryable with backoff (503 at the boundary); a bad config is not (500).
var (
	ErrQuotaExceeded = errors.New("oracle: tutor quota exceeded")
	ErrBadConfig     = errors.New("oracle: tutor API key rejected or missing")
	ErrUnavailable   = errors.New("oracle: tutor service unavailable")
)

// HTTPClient calls the tutoring service over HTTP.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) (*HTTPClient, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("tutor API URL cannot be empty")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

type askRequest struct {
	Prompt  string `json:"prompt"`
	Subject string `json:"subject"`
	RoomID  uint   `json:"roomId"`
}

type askResponse struct {
	Blocks []domain.TutorBlock `json:"blocks"`
}

// Ask sends the prompt to the tutoring service. The caller-supplied context
// bounds the call; on timeout the request is abandoned without retry.
func (c *HTTPClient) Ask(ctx context.Context, prompt, subject string, roomID uint) ([]domain.TutorBlock, error) {
	logCtx := logrus.WithFields(logrus.Fields{"room_id": roomID, "subject": subject})

	body, err := json.Marshal(askRequest{Prompt: prompt, Subject: subject, RoomID: roomID})
	if err != nil {
		return nil, fmt.Errorf("oracle: failed to marshal ask request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/tutor/ask", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("oracle: failed to build ask request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		logCtx.WithError(err).Warn("Tutor request failed")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		logCtx.Warn("Tutor quota exceeded")
		return nil, ErrQuotaExceeded
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		logCtx.Error("Tutor API key rejected")
		return nil, ErrBadConfig
	case resp.StatusCode != http.StatusOK:
		logCtx.WithField("status", resp.StatusCode).Warn("Tutor returned unexpected status")
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var parsed askResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: bad response body: %v", ErrUnavailable, err)
	}
	return parsed.Blocks, nil
}

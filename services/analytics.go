package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"
)

const maxAnalyticsResponse = 4 << 20

// Outcome is the result of one forwarding attempt: either Success with a
// JSON payload, or a failure with a caller-safe Error detail.
type Outcome struct {
	Success bool
	Payload json.RawMessage
	Error   string
}

func Succeeded(payload json.RawMessage) Outcome {
	return Outcome{Success: true, Payload: payload}
}

func Failed(detail string) Outcome {
	return Outcome{Error: detail}
}

// Forwarder sends a question to the analytics peer.
type Forwarder interface {
	Ask(ctx context.Context, storeID, question, token string) Outcome
}

// AnalyticsClient talks to the analytics service's /analyze endpoint.
type AnalyticsClient struct {
	baseURL string
	client  *http.Client
}

var _ Forwarder = (*AnalyticsClient)(nil)

func NewAnalyticsClient(baseURL string, timeout time.Duration) *AnalyticsClient {
	return &AnalyticsClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type analyzeRequest struct {
	StoreID     string `json:"store_id"`
	Question    string `json:"question"`
	AccessToken string `json:"access_token,omitempty"`
}

func (a *AnalyticsClient) Ask(ctx context.Context, storeID, question, token string) Outcome {
	body, err := json.Marshal(analyzeRequest{StoreID: storeID, Question: question, AccessToken: token})
	if err != nil {
		return Failed(err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return Failed(err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return Failed(transportDetail(err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxAnalyticsResponse))
	if err != nil {
		return Failed(fmt.Sprintf("read analytics response: %v", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := strings.TrimSpace(string(raw))
		if detail == "" {
			detail = resp.Status
		}
		return Failed(detail)
	}
	if !json.Valid(raw) {
		return Failed("invalid response from analytics service")
	}
	return Succeeded(json.RawMessage(raw))
}

func transportDetail(err error) string {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return "service offline"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "service timed out"
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return "service timed out"
	}
	return err.Error()
}

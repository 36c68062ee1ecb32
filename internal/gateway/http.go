package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/paiecash/wallet-api/internal/config"
)

// HTTPGateway talks to the processor's checkout API over HTTPS.
type HTTPGateway struct {
	cfg    config.Gateway
	client *http.Client
}

// NewHTTP builds a gateway client from the injected processor configuration.
func NewHTTP(cfg config.Gateway) *HTTPGateway {
	return &HTTPGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

type createSessionRequest struct {
	Amount     int64           `json:"amount"`
	Currency   string          `json:"currency"`
	SuccessURL string          `json:"success_url,omitempty"`
	CancelURL  string          `json:"cancel_url,omitempty"`
	Metadata   SessionMetadata `json:"metadata"`
}

type createSessionResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CreateSession asks the processor for a hosted checkout session. Failures
// surface as ErrUnavailable so callers know nothing was persisted downstream.
func (g *HTTPGateway) CreateSession(ctx context.Context, req SessionRequest) (Session, error) {
	body, err := json.Marshal(createSessionRequest{
		Amount:     req.Amount,
		Currency:   req.Currency,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
		Metadata:   req.Metadata,
	})
	if err != nil {
		return Session{}, fmt.Errorf("encode session request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+"/v1/checkout/sessions", bytes.NewReader(body))
	if err != nil {
		return Session{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.cfg.SecretKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Session{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var decoded createSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Session{}, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	if decoded.ID == "" || decoded.URL == "" {
		return Session{}, fmt.Errorf("%w: incomplete session response", ErrUnavailable)
	}
	return Session{ID: decoded.ID, RedirectURL: decoded.URL}, nil
}

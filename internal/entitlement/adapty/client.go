package adapty

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/stylefold/wardrobe/internal/config"
	"github.com/stylefold/wardrobe/internal/entitlement/domain"
	"github.com/stylefold/wardrobe/internal/observability/logger"
	"go.uber.org/zap"
)

const profilePath = "/api/v2/server-side-api/profile/"

// Client talks to the Adapty server-side API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *zap.Logger
}

var _ domain.Resolver = (*Client)(nil)

type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

func New(cfg config.Config, log *zap.Logger, opts ...Option) *Client {
	timeout := cfg.AdaptyTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &Client{
		baseURL:    cfg.AdaptyBaseURL,
		apiKey:     cfg.AdaptySecretKey,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.Named("adapty.client"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// profileEnvelope is the double-nested wrapper Adapty puts around profiles.
type profileEnvelope struct {
	Data struct {
		Data domain.Profile `json:"data"`
	} `json:"data"`
}

// FetchProfile loads the entitlement profile for a user. It returns
// domain.ErrProfileNotFound on 404 and domain.ErrUpstreamAuth on 401/403;
// other transport failures propagate as plain errors.
func (c *Client) FetchProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+profilePath, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Api-Key "+c.apiKey)
	req.Header.Set("adapty-profile-id", userID)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("adapty profile fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("adapty profile read: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: user %s", domain.ErrProfileNotFound, userID)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		logger.WithContext(ctx, c.log).Error("adapty authorization failed",
			zap.Int("status", resp.StatusCode),
			zap.String("user_id", userID),
		)
		return nil, domain.ErrUpstreamAuth
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		logger.WithContext(ctx, c.log).Error("adapty profile fetch failed",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
			zap.String("user_id", userID),
		)
		return nil, fmt.Errorf("adapty profile fetch: unexpected status %d", resp.StatusCode)
	}

	var envelope profileEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("adapty profile decode: %w", err)
	}

	profile := envelope.Data.Data
	if profile.ProfileID == "" {
		return nil, fmt.Errorf("%w: user %s", domain.ErrProfileNotFound, userID)
	}
	return &profile, nil
}

package remotecfg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/stylefold/wardrobe/internal/config"
	"go.uber.org/zap"
)

// ErrNotConfigured means no remote config endpoint is set; the prompt cache
// then serves caller defaults only.
var ErrNotConfigured = errors.New("remote config endpoint not configured")

// Client fetches the prompt template set from the remote config store.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *zap.Logger
}

func New(cfg config.Config, log *zap.Logger) *Client {
	return &Client{
		baseURL:    cfg.RemoteConfigBaseURL,
		apiKey:     cfg.RemoteConfigAPIKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log.Named("remotecfg.client"),
	}
}

// templateSet mirrors the store's wire shape: parameters keyed by name, each
// with a nested defaultValue.value field. Entries missing the nested field are
// skipped so callers fall back to their defaults.
type templateSet struct {
	Parameters map[string]struct {
		DefaultValue struct {
			Value string `json:"value"`
		} `json:"defaultValue"`
	} `json:"parameters"`
}

func (c *Client) FetchTemplates(ctx context.Context) (map[string]string, error) {
	if c.baseURL == "" {
		return nil, ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/parameters", nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote config fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("remote config read: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Error("remote config fetch failed",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
		return nil, fmt.Errorf("remote config fetch: unexpected status %d", resp.StatusCode)
	}

	var set templateSet
	if err := json.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("remote config decode: %w", err)
	}

	templates := make(map[string]string, len(set.Parameters))
	for key, param := range set.Parameters {
		if param.DefaultValue.Value == "" {
			continue
		}
		templates[key] = param.DefaultValue.Value
	}
	return templates, nil
}

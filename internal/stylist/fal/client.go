package fal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/stylefold/wardrobe/internal/config"
	"github.com/stylefold/wardrobe/internal/observability/logger"
	"github.com/stylefold/wardrobe/internal/stylist/domain"
	"go.uber.org/zap"
)

// Endpoint paths on the fal.ai model gateway.
const (
	pathBackgroundRemoval = "/fal-ai/birefnet/v2"
	pathVisionModel       = "/fal-ai/llava-next"
	pathTryOnSingle       = "/fal-ai/image-apps-v2/virtual-try-on"
	pathAnyLLM            = "/fal-ai/any-llm/enterprise"
)

// Multi-garment edit models.
const (
	ModelEditStandard = "fal-ai/nano-banana"
	ModelEditPro      = "fal-ai/nano-banana-pro"
)

// Client talks to the fal.ai HTTP API. A single invocation is bounded by the
// configured timeout; no automatic retries are performed.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *zap.Logger
}

type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

func New(cfg config.Config, log *zap.Logger, opts ...Option) *Client {
	timeout := cfg.FalTimeout
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	client := &Client{
		baseURL:    cfg.FalBaseURL,
		apiKey:     cfg.FalKey,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.Named("fal.client"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// RemoveBackground runs background removal and returns the hosted result URL.
func (c *Client) RemoveBackground(ctx context.Context, imageDataURI string) (string, error) {
	var out struct {
		Image struct {
			URL string `json:"url"`
		} `json:"image"`
	}
	err := c.post(ctx, pathBackgroundRemoval, map[string]any{
		"image_url":  imageDataURI,
		"model_type": "General Use (Light)",
	}, &out)
	if err != nil {
		return "", err
	}
	if out.Image.URL == "" {
		return "", fmt.Errorf("%w: background removal returned no image", domain.ErrUpstream)
	}
	return out.Image.URL, nil
}

// DescribeImage runs the vision model over an image and returns its raw text
// output.
func (c *Client) DescribeImage(ctx context.Context, prompt, imageURL string, maxTokens int, temperature float64) (string, error) {
	var out struct {
		Output string `json:"output"`
	}
	err := c.post(ctx, pathVisionModel, map[string]any{
		"prompt":      prompt,
		"image_url":   imageURL,
		"max_tokens":  maxTokens,
		"temperature": temperature,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.Output, nil
}

// TryOnSingle runs the single-garment try-on variant.
func (c *Client) TryOnSingle(ctx context.Context, personDataURI, clothingDataURI string) (string, error) {
	var out struct {
		Images []struct {
			URL string `json:"url"`
		} `json:"images"`
	}
	err := c.post(ctx, pathTryOnSingle, map[string]any{
		"person_image_url":   personDataURI,
		"clothing_image_url": clothingDataURI,
		"preserve_pose":      true,
	}, &out)
	if err != nil {
		return "", err
	}
	if len(out.Images) == 0 || out.Images[0].URL == "" {
		return "", fmt.Errorf("%w: try-on returned no image", domain.ErrUpstream)
	}
	return out.Images[0].URL, nil
}

// EditImage runs a multi-garment edit model over the pose image plus garment
// references. Edit endpoints reply with either a single image object or an
// images array depending on the model; both are accepted.
func (c *Client) EditImage(ctx context.Context, model, prompt string, imageURIs []string) (string, error) {
	var out struct {
		Image struct {
			URL string `json:"url"`
		} `json:"image"`
		Images []struct {
			URL string `json:"url"`
		} `json:"images"`
	}
	err := c.post(ctx, "/"+model+"/edit", map[string]any{
		"prompt":     prompt,
		"image_urls": imageURIs,
	}, &out)
	if err != nil {
		return "", err
	}
	if out.Image.URL != "" {
		return out.Image.URL, nil
	}
	if len(out.Images) > 0 && out.Images[0].URL != "" {
		return out.Images[0].URL, nil
	}
	return "", fmt.Errorf("%w: edit model %s returned no image", domain.ErrUpstream, model)
}

// Complete runs a text model through the any-llm gateway.
func (c *Client) Complete(ctx context.Context, model, prompt string, maxTokens int, temperature float64) (string, error) {
	var out struct {
		Output string `json:"output"`
	}
	err := c.post(ctx, pathAnyLLM, map[string]any{
		"model":       model,
		"prompt":      prompt,
		"max_tokens":  maxTokens,
		"temperature": temperature,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.Output, nil
}

func (c *Client) post(ctx context.Context, path string, payload map[string]any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Key "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.WithContext(ctx, c.log).Error("fal request failed",
			zap.String("path", path),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", domain.ErrUpstream, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.WithContext(ctx, c.log).Error("fal request returned error status",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", respBody),
		)
		return fmt.Errorf("%w: status %d from %s", domain.ErrUpstream, resp.StatusCode, path)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		logger.WithContext(ctx, c.log).Error("fal response decode failed",
			zap.String("path", path),
			zap.ByteString("body", respBody),
			zap.Error(err),
		)
		return fmt.Errorf("%w: decode response: %v", domain.ErrUpstream, err)
	}
	return nil
}

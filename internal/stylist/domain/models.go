package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ClothingItem is a garment reference supplied by the client: the image plus
// the metadata a previous analysis produced for it.
type ClothingItem struct {
	Base64      string `json:"base64"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// WardrobeItem is a garment entry in the user's wardrobe, image-free.
type WardrobeItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

type AnalyzeRequest struct {
	UUID        string `json:"uuid"`
	ImageBase64 string `json:"image_base_64"`
}

type AnalyzeResponse struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Name        string `json:"name"`
	ImageURL    string `json:"image_url"`
	NewQuota    int    `json:"new_quota"`
}

type TryOnRequest struct {
	UUID            string         `json:"uuid"`
	PoseImageBase64 string         `json:"pose_image_base_64"`
	ClothingItems   []ClothingItem `json:"clothing_items"`
	ModelType       string         `json:"model_type"`
}

type TryOnResponse struct {
	ResultImageURL string `json:"result_image_url"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Category       string `json:"category"`
	NewQuota       int    `json:"new_quota"`
}

type SuggestionRequest struct {
	UUID           string         `json:"uuid"`
	UserRequest    string         `json:"user_request"`
	Scenario       string         `json:"scenario"`
	Wardrobe       []WardrobeItem `json:"wardrobe"`
	UserInfo       string         `json:"user_info"`
	Temperature    *float64       `json:"temperature"`
	UseRandomModel bool           `json:"useRandomModel"`
}

type SuggestionResponse struct {
	Recommendation []string `json:"recommendation"`
	Description    string   `json:"description"`
	Category       string   `json:"category"`
	Name           string   `json:"name"`
	NewQuota       int      `json:"new_quota"`
}

// Service is the quota-gated proxy over the external AI endpoints.
type Service interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResponse, error)
	TryOn(ctx context.Context, req TryOnRequest) (*TryOnResponse, error)
	Suggest(ctx context.Context, req SuggestionRequest) (*SuggestionResponse, error)
}

var (
	// ErrInvalidArgument is the errors.Is target for request validation
	// failures.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUpstream marks a failed external model call.
	ErrUpstream = errors.New("model backend call failed")
	// ErrUnparsableResponse marks a model reply no JSON object could be
	// extracted from.
	ErrUnparsableResponse = errors.New("model response could not be understood")
)

// ValidationError reports the missing or conflicting request fields.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidArgument }

func NewMissingFieldsError(fields ...string) error {
	return &ValidationError{
		Message: fmt.Sprintf("missing required fields: %s", strings.Join(fields, ", ")),
	}
}

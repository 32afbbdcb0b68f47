package stylist

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/stylefold/wardrobe/internal/config"
	"github.com/stylefold/wardrobe/internal/observability/logger"
	"github.com/stylefold/wardrobe/internal/promptcache"
	"github.com/stylefold/wardrobe/internal/quota"
	"github.com/stylefold/wardrobe/internal/stylist/domain"
	"github.com/stylefold/wardrobe/internal/stylist/fal"
	userrecorddomain "github.com/stylefold/wardrobe/internal/userrecord/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Remote config keys for the prompt templates.
const (
	KeyClothingAnalysisPrompt = "clothing_analysis_prompt"
	KeyTryOnPrompt            = "tryon_prompt"
	KeyOutfitSuggestionPrompt = "outfit_suggestion_prompt"
)

// Placeholder tokens substituted into templates.
const (
	TokenCategoryList = "{{CATEGORY_LIST}}"
	TokenWardrobe     = "{{WARDROBE}}"
	TokenUserInfo     = "{{USER_INFO}}"
	TokenUserRequest  = "{{USER_REQUEST}}"
)

// Categories the analysis model must classify into.
var ClothingCategories = []string{
	"T-Shirt", "Shirt", "Sweater", "Sweatshirt / Hoodie", "Blouse",
	"Pants", "Jeans", "Shorts", "Skirt",
	"Jacket", "Coat", "Blazer", "Vest",
	"Dress", "Jumpsuit",
	"Shoes", "Boots", "Sneakers", "Heels",
	"Hat", "Bag", "Belt", "Jewelry", "Scarf", "Sunglasses",
}

// DefaultSuggestionModel is used unless the request opts into random model
// selection.
const DefaultSuggestionModel = "google/gemini-2.5-flash"

// SuggestionModels are the candidate backends for randomized selection, a
// cost/quality experimentation knob.
var SuggestionModels = []string{
	"google/gemini-2.5-flash",
	"google/gemini-2.0-flash-001",
	"anthropic/claude-3-5-haiku",
	"openai/gpt-4o-mini",
}

const (
	analyzeMaxTokens   = 256
	analyzeTemperature = 0.2

	suggestMaxTokens          = 1024
	defaultSuggestTemperature = 0.7
)

// ModelPicker returns an index in [0, n). Injected so randomized model
// selection is reproducible in tests.
type ModelPicker func(n int) int

type Params struct {
	fx.In

	Log     *zap.Logger
	Guard   *quota.Guard
	Fal     *fal.Client
	Prompts *promptcache.Cache
	Holder  *config.PromptConfigHolder
	Picker  ModelPicker
}

type service struct {
	log     *zap.Logger
	guard   *quota.Guard
	fal     *fal.Client
	prompts *promptcache.Cache
	holder  *config.PromptConfigHolder
	pick    ModelPicker
}

func New(p Params) domain.Service {
	return &service{
		log:     p.Log.Named("stylist.service"),
		guard:   p.Guard,
		fal:     p.Fal,
		prompts: p.Prompts,
		holder:  p.Holder,
		pick:    p.Picker,
	}
}

// NewModelPicker seeds the default randomness source for model selection.
func NewModelPicker() ModelPicker {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return rng.Intn
}

// Analyze removes the garment image background, asks the vision model to
// describe it, and returns the structured result with the updated quota.
func (s *service) Analyze(ctx context.Context, req domain.AnalyzeRequest) (*domain.AnalyzeResponse, error) {
	newQuota, err := s.guard.Consume(ctx, req.UUID, userrecorddomain.FieldClothAnalysis, 1)
	if err != nil {
		return nil, err
	}

	imageURL, err := s.fal.RemoveBackground(ctx, dataURI(req.ImageBase64))
	if err != nil {
		return nil, err
	}

	template := s.prompts.Get(ctx, KeyClothingAnalysisPrompt, s.holder.Get().ClothingAnalysis)
	prompt := promptcache.Render(template, map[string]string{
		TokenCategoryList: strings.Join(ClothingCategories, ", "),
	})

	output, err := s.fal.DescribeImage(ctx, prompt, imageURL, analyzeMaxTokens, analyzeTemperature)
	if err != nil {
		return nil, err
	}

	parsed, err := ExtractJSON(output)
	if err != nil {
		logger.WithContext(ctx, s.log).Error("analysis output not parsable",
			zap.String("user_id", req.UUID),
			zap.String("output", output),
			zap.Error(err),
		)
		return nil, err
	}

	return &domain.AnalyzeResponse{
		Category:    StringField(parsed, "category", "Other"),
		Description: StringField(parsed, "description", ""),
		Name:        StringField(parsed, "name", "Clothing Item"),
		ImageURL:    imageURL,
		NewQuota:    newQuota,
	}, nil
}

// TryOn renders the pose image wearing the supplied garments. Cost equals the
// garment count; the backend variant follows the garment count unless the
// request forces the pro model.
func (s *service) TryOn(ctx context.Context, req domain.TryOnRequest) (*domain.TryOnResponse, error) {
	cost := len(req.ClothingItems)
	newQuota, err := s.guard.Consume(ctx, req.UUID, userrecorddomain.FieldTryOns, cost)
	if err != nil {
		return nil, err
	}

	prompt := s.prompts.Get(ctx, KeyTryOnPrompt, s.holder.Get().TryOn)

	images := make([]string, 0, len(req.ClothingItems)+1)
	images = append(images, dataURI(req.PoseImageBase64))
	for _, item := range req.ClothingItems {
		images = append(images, dataURI(item.Base64))
	}

	var resultURL string
	switch {
	case forcesProModel(req.ModelType) || len(req.ClothingItems) >= 3:
		resultURL, err = s.fal.EditImage(ctx, fal.ModelEditPro, prompt, images)
	case len(req.ClothingItems) == 2:
		resultURL, err = s.fal.EditImage(ctx, fal.ModelEditStandard, prompt, images)
	default:
		resultURL, err = s.fal.TryOnSingle(ctx, images[0], images[1])
	}
	if err != nil {
		return nil, err
	}

	first := req.ClothingItems[0]
	return &domain.TryOnResponse{
		ResultImageURL: resultURL,
		Name:           defaultString(first.Name, "Outfit"),
		Description:    first.Description,
		Category:       defaultString(first.Category, "Other"),
		NewQuota:       newQuota,
	}, nil
}

// Suggest asks a text model to compose an outfit from the wardrobe.
func (s *service) Suggest(ctx context.Context, req domain.SuggestionRequest) (*domain.SuggestionResponse, error) {
	newQuota, err := s.guard.Consume(ctx, req.UUID, userrecorddomain.FieldSuggestions, 1)
	if err != nil {
		return nil, err
	}

	userRequest := req.UserRequest
	if userRequest == "" {
		userRequest = req.Scenario
	}

	wardrobeJSON := "[]"
	if len(req.Wardrobe) > 0 {
		encoded, err := json.MarshalIndent(req.Wardrobe, "", "  ")
		if err != nil {
			return nil, err
		}
		wardrobeJSON = string(encoded)
	}

	template := s.prompts.Get(ctx, KeyOutfitSuggestionPrompt, s.holder.Get().OutfitSuggestion)
	prompt := promptcache.Render(template, map[string]string{
		TokenUserRequest: userRequest,
		TokenUserInfo:    req.UserInfo,
		TokenWardrobe:    wardrobeJSON,
	})

	model := DefaultSuggestionModel
	if req.UseRandomModel {
		model = SuggestionModels[s.pick(len(SuggestionModels))]
	}

	temperature := defaultSuggestTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	output, err := s.fal.Complete(ctx, model, prompt, suggestMaxTokens, temperature)
	if err != nil {
		return nil, err
	}

	parsed, err := ExtractJSON(output)
	if err != nil {
		logger.WithContext(ctx, s.log).Error("suggestion output not parsable",
			zap.String("user_id", req.UUID),
			zap.String("model", model),
			zap.String("output", output),
			zap.Error(err),
		)
		return nil, err
	}

	recommendation := StringSliceField(parsed, "recommendation")
	description := StringField(parsed, "description", "")
	if len(recommendation) == 0 || description == "" {
		logger.WithContext(ctx, s.log).Error("suggestion output incomplete",
			zap.String("user_id", req.UUID),
			zap.String("output", output),
		)
		return nil, fmt.Errorf("%w: missing recommendation or description", domain.ErrUnparsableResponse)
	}

	return &domain.SuggestionResponse{
		Recommendation: recommendation,
		Description:    description,
		Category:       StringField(parsed, "category", ""),
		Name:           StringField(parsed, "name", ""),
		NewQuota:       newQuota,
	}, nil
}

func forcesProModel(modelType string) bool {
	switch strings.ToLower(strings.TrimSpace(modelType)) {
	case "pro", "nano-banana-pro":
		return true
	default:
		return false
	}
}

func dataURI(base64Image string) string {
	return "data:image/jpeg;base64," + base64Image
}

func defaultString(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}

package config

import (
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// PromptConfig holds the compiled-in fallback prompt templates. The live
// templates come from the remote config store through the prompt cache; these
// values are what callers pass as the cache default, optionally overridden by
// a local prompts.yml.
type PromptConfig struct {
	ClothingAnalysis string `mapstructure:"clothingAnalysis"`
	TryOn            string `mapstructure:"tryOn"`
	OutfitSuggestion string `mapstructure:"outfitSuggestion"`
}

func DefaultPromptConfig() PromptConfig {
	return PromptConfig{
		ClothingAnalysis: defaultClothingAnalysisPrompt,
		TryOn:            defaultTryOnPrompt,
		OutfitSuggestion: defaultOutfitSuggestionPrompt,
	}
}

type PromptConfigHolder struct {
	current atomic.Value // holds PromptConfig
}

func NewPromptConfigHolder() (*PromptConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("prompts")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/wardrobe")
	v.AddConfigPath(".")

	v.SetEnvPrefix("WARDROBE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultPromptConfig()
	v.SetDefault("prompts.clothingAnalysis", defaults.ClothingAnalysis)
	v.SetDefault("prompts.tryOn", defaults.TryOn)
	v.SetDefault("prompts.outfitSuggestion", defaults.OutfitSuggestion)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	var cfg PromptConfig
	if err := v.UnmarshalKey("prompts", &cfg); err != nil {
		return nil, err
	}
	applyPromptDefaults(&cfg, defaults)

	holder := &PromptConfigHolder{}
	holder.current.Store(cfg)

	if fileFound {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			var updated PromptConfig
			if err := v.UnmarshalKey("prompts", &updated); err != nil {
				log.Printf("[prompt-config] reload failed: %v", err)
				return
			}
			applyPromptDefaults(&updated, defaults)
			holder.current.Store(updated)
			log.Printf("[prompt-config] reloaded from %s", e.Name)
		})
	}

	return holder, nil
}

func (h *PromptConfigHolder) Get() PromptConfig {
	return h.current.Load().(PromptConfig)
}

func applyPromptDefaults(cfg *PromptConfig, defaults PromptConfig) {
	if strings.TrimSpace(cfg.ClothingAnalysis) == "" {
		cfg.ClothingAnalysis = defaults.ClothingAnalysis
	}
	if strings.TrimSpace(cfg.TryOn) == "" {
		cfg.TryOn = defaults.TryOn
	}
	if strings.TrimSpace(cfg.OutfitSuggestion) == "" {
		cfg.OutfitSuggestion = defaults.OutfitSuggestion
	}
}

const defaultClothingAnalysisPrompt = `Analyze the main clothing item in this image. Your response MUST be a valid JSON object.
The JSON object should have three keys: "category", "description", and "name".

Instructions for the model:
1. For the "category" value, you MUST choose the most appropriate category ONLY from this list: [{{CATEGORY_LIST}}].
2. For the "description" value, provide a single, comprehensive paragraph in English. This paragraph must describe the item's physical details (material, fit, color, patterns) AND its context (formality level, suitable occasions, and appropriate weather conditions).
3. For the "name" value, provide a short, concise title for the item (e.g., "Red Cotton T-Shirt", "Blue Denim Jeans", "Floral Summer Dress"). It should be 2-3 words long. DO NOT use quotation marks ("") within the name.
4. CRITICAL RULE: Your description must ONLY be about the garment. DO NOT mention the background, the surface it is on, or how it is positioned (e.g., "laid flat", "on a hanger"). Focus strictly on the item's own features.
5. IMPORTANT: When describing text printed on the clothing, DO NOT use quotation marks (""). Write the text directly without quotes.

Example JSON response:
{
  "category": "Shirt",
  "description": "A white, long-sleeved shirt made of a smooth, possibly cotton material. It features a classic collar, a button-down front, and a regular fit. This piece is suitable for casual or smart casual occasions in mild weather.",
  "name": "White Long-Sleeved Shirt"
}`

const defaultTryOnPrompt = `**GENERATE ONLY A SINGLE, HIGH-FIDELITY IMAGE.**

**PRIMARY TASK: Perform a Photorealistic Virtual Try-On using ALL provided garment references.** The subject from the main input image (referred to as the 'input_image' or 'pose_image') will receive the new clothing.

**CRITICAL PRESERVATION RULES (from 'input_image' ONLY):**
1. **Facial Identity & Expression:** The subject's face and facial expression from the 'input_image' **MUST remain absolutely unchanged**.
2. **Body Pose & Positioning:** The subject's exact body pose, hand placement, and overall body structure from the 'input_image' **MUST be strictly preserved**.
3. **Background Environment:** The **ENTIRE background environment of the 'input_image' MUST NOT be altered or replaced in any way.**
4. **Existing Unreferenced Garments:** Any clothing or accessories already on the subject that were **NOT** supplied as separate reference garments **MUST be preserved exactly as they are**.

**CLOTHING INTEGRATION & LAYERING RULES (from reference garments):**
1. **Full Integration:** You MUST use **EACH and EVERY provided reference garment** and integrate them onto the subject.
2. **Sequential Layering:** Integrate garments in a clear dimensional sequence, outermost layers first, then mid-layers, finally innermost layers or accessories.
3. **Old Garment Removal:** Completely erase all remnants of the previous clothing ONLY for the areas where new garments are being placed.
4. **Realism & Blending:** Ensure seamless, realistic integration with natural fabric drape, texture, and fit. The new garments must match the 'input_image' scene's original lighting, shadows, and color grading.

**FINAL OUTPUT QUALITY:** The final image must be high-fidelity and appear as an imperceptible, photorealistic edit.`

const defaultOutfitSuggestionPrompt = `You are an expert fashion stylist. Your task is to create an outfit combination from a provided list of clothes based on a user's request.

**USER REQUEST:**
"{{USER_REQUEST}}"

**USER INFO:**
{{USER_INFO}}

**AVAILABLE CLOTHES (WARDROBE):**
{{WARDROBE}}

**YOUR TASK:**
Analyze the user's request and the detailed descriptions of all available clothes. Select the best items to form a coherent and stylish outfit that matches the user's needs (like weather, occasion, or color theme).

**IMPORTANT RULES:**
- Only use items from the provided wardrobe list. Each recommended item ID must exist in the wardrobe.
- Every outfit MUST be wearable: either at least one bottom AND one top, or one full-body garment. Never recommend only bottoms, only tops, or only accessories.
- Order the recommendation array from innermost to outermost layers (bottoms, then top base layers, mid layers, outer layers, footwear, accessories).

**OUTPUT FORMAT:**
Your response MUST be a single, valid JSON object with exactly two keys: "recommendation" and "description". Do not add any text, explanations, or markdown formatting before or after the JSON object.

1. "recommendation": an array of clothing item IDs ordered by layering sequence.
2. "description": a helpful and stylish explanation in English detailing why you chose this combination.

**EXAMPLE RESPONSE:**
{
  "recommendation": ["ID_23", "ID_34", "ID_76"],
  "description": "I've created a stylish and functional outfit for a cool, rainy day. The water-resistant trench coat will keep you dry, while the wool sweater provides warmth."
}`

package bria

import (
	"context"
	"encoding/base64"
	"errors"
	"net/url"
	"strings"
)

// DefaultModelVersion is used when HDRequest.ModelVersion is empty.
const DefaultModelVersion = "2.2"

// HDRequest generates images from text.
type HDRequest struct {
	Prompt            string
	NegativePrompt    string
	ModelVersion      string
	NumResults        int
	AspectRatio       string
	Sync              bool
	EnhanceImage      bool
	Medium            string
	PromptEnhancement bool
	ContentModeration bool
	Seed              int
	StepsNum          int
	TextGuidanceScale float64
}

type hdPayload struct {
	Prompt            string   `json:"prompt"`
	NegativePrompt    string   `json:"negative_prompt,omitempty"`
	NumResults        int      `json:"num_results"`
	AspectRatio       string   `json:"aspect_ratio,omitempty"`
	Sync              bool     `json:"sync"`
	EnhanceImage      bool     `json:"enhance_image"`
	Medium            string   `json:"medium,omitempty"`
	PromptEnhancement bool     `json:"prompt_enhancement"`
	ContentModeration bool     `json:"content_moderation"`
	Seed              *int     `json:"seed,omitempty"`
	StepsNum          int      `json:"steps_num,omitempty"`
	TextGuidanceScale *float64 `json:"text_guidance_scale,omitempty"`
}

// GenerateHD calls the HD text-to-image endpoint.
func (c *Client) GenerateHD(ctx context.Context, req HDRequest) (map[string]any, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, errors.New("bria: prompt is required")
	}
	version := strings.TrimSpace(req.ModelVersion)
	if version == "" {
		version = DefaultModelVersion
	}
	payload := hdPayload{
		Prompt:            prompt,
		NegativePrompt:    strings.TrimSpace(req.NegativePrompt),
		NumResults:        atLeastOne(req.NumResults),
		AspectRatio:       req.AspectRatio,
		Sync:              req.Sync,
		EnhanceImage:      req.EnhanceImage,
		Medium:            req.Medium,
		PromptEnhancement: req.PromptEnhancement,
		ContentModeration: req.ContentModeration,
		Seed:              positive(req.Seed),
		StepsNum:          req.StepsNum,
	}
	if req.TextGuidanceScale > 0 {
		g := req.TextGuidanceScale
		payload.TextGuidanceScale = &g
	}
	return c.post(ctx, "generate_hd", "/text-to-image/hd/"+url.PathEscape(version), payload)
}

// Placement controls where a product lands in a lifestyle shot.
type Placement struct {
	Type               string
	ShotSize           []int
	ManualSelection    []string
	Padding            []int
	ForegroundSize     []int
	ForegroundLocation []int
	OriginalQuality    bool
}

type placementPayload struct {
	PlacementType            string   `json:"placement_type"`
	ShotSize                 []int    `json:"shot_size,omitempty"`
	ManualPlacementSelection []string `json:"manual_placement_selection,omitempty"`
	PaddingValues            []int    `json:"padding_values,omitempty"`
	ForegroundImageSize      []int    `json:"foreground_image_size,omitempty"`
	ForegroundImageLocation  []int    `json:"foreground_image_location,omitempty"`
	OriginalQuality          bool     `json:"original_quality"`
}

func (p Placement) payload() placementPayload {
	placement := PlacementLabel(p.Type)
	if placement == "" {
		placement = "original"
	}
	out := placementPayload{
		PlacementType:   placement,
		ShotSize:        p.ShotSize,
		OriginalQuality: p.OriginalQuality,
	}
	if len(out.ShotSize) == 0 {
		out.ShotSize = []int{1000, 1000}
	}
	switch placement {
	case "manual_placement":
		out.ManualPlacementSelection = PlacementLabels(p.ManualSelection)
		if len(out.ManualPlacementSelection) == 0 {
			out.ManualPlacementSelection = []string{"upper_left"}
		}
	case "manual_padding":
		out.PaddingValues = p.Padding
		if len(out.PaddingValues) == 0 {
			out.PaddingValues = []int{0, 0, 0, 0}
		}
	case "custom_coordinates":
		out.ForegroundImageSize = p.ForegroundSize
		out.ForegroundImageLocation = p.ForegroundLocation
	}
	return out
}

// ProductOptions are shared by every product endpoint.
type ProductOptions struct {
	SKU               string
	ForceRMBG         bool
	ContentModeration bool
}

// LifestyleTextRequest places a product in a scene described by text.
type LifestyleTextRequest struct {
	Image               []byte
	SceneDescription    string
	Placement           Placement
	NumResults          int
	Sync                bool
	Fast                bool
	OptimizeDescription bool
	ExcludeElements     string
	ProductOptions
}

type lifestyleTextPayload struct {
	File                string `json:"file"`
	SceneDescription    string `json:"scene_description"`
	NumResults          int    `json:"num_results"`
	Sync                bool   `json:"sync"`
	Fast                bool   `json:"fast"`
	OptimizeDescription bool   `json:"optimize_description"`
	ExcludeElements     string `json:"exclude_elements,omitempty"`
	ForceRMBG           bool   `json:"force_rmbg"`
	ContentModeration   bool   `json:"content_moderation"`
	SKU                 string `json:"sku,omitempty"`
	placementPayload
}

// LifestyleShotByText calls the text-described lifestyle shot endpoint.
func (c *Client) LifestyleShotByText(ctx context.Context, req LifestyleTextRequest) (map[string]any, error) {
	if len(req.Image) == 0 {
		return nil, errors.New("bria: product image is required")
	}
	scene := strings.TrimSpace(req.SceneDescription)
	if scene == "" {
		return nil, errors.New("bria: scene description is required")
	}
	payload := lifestyleTextPayload{
		File:                encode(req.Image),
		SceneDescription:    scene,
		NumResults:          atLeastOne(req.NumResults),
		Sync:                req.Sync,
		Fast:                req.Fast,
		OptimizeDescription: req.OptimizeDescription,
		ForceRMBG:           req.ForceRMBG,
		ContentModeration:   req.ContentModeration,
		SKU:                 strings.TrimSpace(req.SKU),
		placementPayload:    req.Placement.payload(),
	}
	if !req.Fast {
		payload.ExcludeElements = strings.TrimSpace(req.ExcludeElements)
	}
	return c.post(ctx, "lifestyle_text", "/product/lifestyle_shot_by_text", payload)
}

// LifestyleImageRequest places a product in a scene taken from a reference image.
type LifestyleImageRequest struct {
	Image              []byte
	Reference          []byte
	Placement          Placement
	NumResults         int
	Sync               bool
	EnhanceReference   bool
	ReferenceInfluence float64
	ProductOptions
}

type lifestyleImagePayload struct {
	File              string  `json:"file"`
	RefImageFile      string  `json:"ref_image_file"`
	NumResults        int     `json:"num_results"`
	Sync              bool    `json:"sync"`
	EnhanceRefImage   bool    `json:"enhance_ref_image"`
	RefImageInfluence float64 `json:"ref_image_influence"`
	ForceRMBG         bool    `json:"force_rmbg"`
	ContentModeration bool    `json:"content_moderation"`
	SKU               string  `json:"sku,omitempty"`
	placementPayload
}

// LifestyleShotByImage calls the reference-image lifestyle shot endpoint.
func (c *Client) LifestyleShotByImage(ctx context.Context, req LifestyleImageRequest) (map[string]any, error) {
	if len(req.Image) == 0 || len(req.Reference) == 0 {
		return nil, errors.New("bria: product and reference images are required")
	}
	influence := req.ReferenceInfluence
	if influence <= 0 {
		influence = 1.0
	}
	payload := lifestyleImagePayload{
		File:              encode(req.Image),
		RefImageFile:      encode(req.Reference),
		NumResults:        atLeastOne(req.NumResults),
		Sync:              req.Sync,
		EnhanceRefImage:   req.EnhanceReference,
		RefImageInfluence: influence,
		ForceRMBG:         req.ForceRMBG,
		ContentModeration: req.ContentModeration,
		SKU:               strings.TrimSpace(req.SKU),
		placementPayload:  req.Placement.payload(),
	}
	return c.post(ctx, "lifestyle_image", "/product/lifestyle_shot_by_image", payload)
}

// PackshotRequest produces a clean studio shot of a product.
type PackshotRequest struct {
	Image           []byte
	BackgroundColor string
	ProductOptions
}

type packshotPayload struct {
	File              string `json:"file"`
	BackgroundColor   string `json:"background_color"`
	SKU               string `json:"sku,omitempty"`
	ForceRMBG         bool   `json:"force_rmbg"`
	ContentModeration bool   `json:"content_moderation"`
}

// Packshot calls the packshot endpoint.
func (c *Client) Packshot(ctx context.Context, req PackshotRequest) (map[string]any, error) {
	if len(req.Image) == 0 {
		return nil, errors.New("bria: product image is required")
	}
	bg := strings.TrimSpace(req.BackgroundColor)
	if bg == "" {
		bg = "#FFFFFF"
	}
	return c.post(ctx, "packshot", "/product/packshot", packshotPayload{
		File:              encode(req.Image),
		BackgroundColor:   bg,
		SKU:               strings.TrimSpace(req.SKU),
		ForceRMBG:         req.ForceRMBG,
		ContentModeration: req.ContentModeration,
	})
}

// ShadowRequest adds a natural or floating shadow under a product.
type ShadowRequest struct {
	Image           []byte
	Type            string
	BackgroundColor string
	Color           string
	Offset          []int
	Intensity       int
	Blur            int
	Width           int
	Height          int
	ProductOptions
}

type shadowPayload struct {
	File              string  `json:"file"`
	Type              string  `json:"type"`
	BackgroundColor   *string `json:"background_color"`
	ShadowColor       string  `json:"shadow_color"`
	ShadowOffset      []int   `json:"shadow_offset"`
	ShadowIntensity   int     `json:"shadow_intensity"`
	ShadowBlur        int     `json:"shadow_blur,omitempty"`
	ShadowWidth       *int    `json:"shadow_width,omitempty"`
	ShadowHeight      *int    `json:"shadow_height,omitempty"`
	SKU               string  `json:"sku,omitempty"`
	ForceRMBG         bool    `json:"force_rmbg"`
	ContentModeration bool    `json:"content_moderation"`
}

// AddShadow calls the shadow endpoint. An empty BackgroundColor keeps the
// background transparent.
func (c *Client) AddShadow(ctx context.Context, req ShadowRequest) (map[string]any, error) {
	if len(req.Image) == 0 {
		return nil, errors.New("bria: product image is required")
	}
	shadowType := PlacementLabel(req.Type)
	if shadowType == "" {
		shadowType = "regular"
	}
	payload := shadowPayload{
		File:              encode(req.Image),
		Type:              shadowType,
		ShadowColor:       orDefault(req.Color, "#000000"),
		ShadowOffset:      req.Offset,
		ShadowIntensity:   req.Intensity,
		ShadowBlur:        req.Blur,
		SKU:               strings.TrimSpace(req.SKU),
		ForceRMBG:         req.ForceRMBG,
		ContentModeration: req.ContentModeration,
	}
	if len(payload.ShadowOffset) == 0 {
		payload.ShadowOffset = []int{0, 15}
	}
	if bg := strings.TrimSpace(req.BackgroundColor); bg != "" {
		payload.BackgroundColor = &bg
	}
	if shadowType == "float" {
		payload.ShadowWidth = positive(req.Width)
		payload.ShadowHeight = positive(req.Height)
	} else {
		h := 70
		if req.Height > 0 {
			h = req.Height
		}
		payload.ShadowHeight = &h
	}
	return c.post(ctx, "shadow", "/product/shadow", payload)
}

// GenFillRequest repaints the masked area of an image from a prompt.
type GenFillRequest struct {
	Image             []byte
	Mask              []byte
	Prompt            string
	NegativePrompt    string
	NumResults        int
	Sync              bool
	Seed              int
	ContentModeration bool
}

type genFillPayload struct {
	File              string `json:"file"`
	MaskFile          string `json:"mask_file"`
	MaskType          string `json:"mask_type"`
	Prompt            string `json:"prompt"`
	NegativePrompt    string `json:"negative_prompt,omitempty"`
	NumResults        int    `json:"num_results"`
	Sync              bool   `json:"sync"`
	Seed              *int   `json:"seed,omitempty"`
	ContentModeration bool   `json:"content_moderation"`
}

// GenerativeFill calls the generative fill endpoint.
func (c *Client) GenerativeFill(ctx context.Context, req GenFillRequest) (map[string]any, error) {
	if len(req.Image) == 0 || len(req.Mask) == 0 {
		return nil, errors.New("bria: image and mask are required")
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, errors.New("bria: prompt is required")
	}
	return c.post(ctx, "gen_fill", "/gen_fill", genFillPayload{
		File:              encode(req.Image),
		MaskFile:          encode(req.Mask),
		MaskType:          "manual",
		Prompt:            prompt,
		NegativePrompt:    strings.TrimSpace(req.NegativePrompt),
		NumResults:        atLeastOne(req.NumResults),
		Sync:              req.Sync,
		Seed:              positive(req.Seed),
		ContentModeration: req.ContentModeration,
	})
}

// EraseRequest removes the foreground object of an image.
type EraseRequest struct {
	Image             []byte
	ContentModeration bool
}

type erasePayload struct {
	File              string `json:"file"`
	ContentModeration bool   `json:"content_moderation"`
}

// EraseForeground calls the erase-foreground endpoint.
func (c *Client) EraseForeground(ctx context.Context, req EraseRequest) (map[string]any, error) {
	if len(req.Image) == 0 {
		return nil, errors.New("bria: image is required")
	}
	return c.post(ctx, "erase_foreground", "/erase_foreground", erasePayload{
		File:              encode(req.Image),
		ContentModeration: req.ContentModeration,
	})
}

// EnhancePrompt returns the first variation suggested by the prompt enhancer,
// or the original prompt when none came back.
func (c *Client) EnhancePrompt(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("bria: prompt is required")
	}
	resp, err := c.post(ctx, "prompt_enhancer", "/prompt_enhancer", map[string]string{"prompt": prompt})
	if err != nil {
		return "", err
	}
	if variations, ok := resp["prompt_variations"].([]any); ok {
		for _, v := range variations {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s), nil
			}
		}
	}
	if s, ok := resp["prompt"].(string); ok && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s), nil
	}
	return prompt, nil
}

func encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func positive(n int) *int {
	if n <= 0 {
		return nil
	}
	return &n
}

func orDefault(v, fallback string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return fallback
}

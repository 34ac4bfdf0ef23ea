package editor

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"stencil/internal/providers/bria"
	"stencil/internal/session"
)

// History labels for each operation.
const (
	OpGenerate         = "Generate Image"
	OpLifestyleText    = "Lifestyle Shot"
	OpLifestyleImage   = "Lifestyle Shot (Reference)"
	OpPackshot         = "Packshot"
	OpShadow           = "Shadow"
	OpGenerativeFill   = "Generative Fill"
	OpErase            = "Erase"
	defaultStyle       = "Realistic"
	defaultAspectRatio = "1:1"
)

var lowerStyle = cases.Lower(language.English)

// GenerateInput drives HD text-to-image. Zero values fall back to the
// session's selections.
type GenerateInput struct {
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt"`
	Style          string  `json:"style"`
	AspectRatio    string  `json:"aspect_ratio"`
	NumResults     int     `json:"num_results"`
	EnhanceImage   bool    `json:"enhance_image"`
	Seed           int     `json:"seed"`
	Steps          int     `json:"steps"`
	GuidanceScale  float64 `json:"guidance_scale"`
}

// StyledPrompt appends the style to prompt unless the style is Realistic.
func StyledPrompt(prompt, style string) string {
	if style == "" || style == defaultStyle {
		return prompt
	}
	return prompt + ", in " + lowerStyle.String(style) + " style"
}

// Medium picks the rendering medium for a style.
func Medium(style string) string {
	if style == "" || style == defaultStyle {
		return "photography"
	}
	return "art"
}

// GenerateImage runs a synchronous HD generation. The enhanced prompt of the
// session is used when in.Prompt is empty.
func (e *Editor) GenerateImage(ctx context.Context, st *session.State, in GenerateInput) (Outcome, error) {
	prompt := strings.TrimSpace(in.Prompt)
	if prompt == "" {
		prompt = st.EnhancedPrompt
	}
	if prompt == "" {
		return invalid("Please enter a prompt first.")
	}
	style := in.Style
	if style == "" {
		style = st.StringValue(session.KeySelectedStyle, defaultStyle)
	}
	aspect := in.AspectRatio
	if aspect == "" {
		aspect = st.StringValue(session.KeySelectedAspect, defaultAspectRatio)
	}
	if in.Prompt != "" {
		st.OriginalPrompt = strings.TrimSpace(in.Prompt)
	}
	st.SetValue(session.KeySelectedStyle, style)
	st.SetValue(session.KeySelectedAspect, aspect)
	st.SetValue(session.KeySeed, in.Seed)
	if in.Steps > 0 {
		st.SetValue(session.KeyRefinementSteps, in.Steps)
	}
	if in.GuidanceScale > 0 {
		st.SetValue(session.KeyGuidanceScale, in.GuidanceScale)
	}

	final := StyledPrompt(prompt, style)
	return e.run(ctx, st, call{
		operation: OpGenerate,
		prompt:    final,
		sync:      true,
		limit:     in.NumResults,
		success:   "Image generated successfully!",
	}, func(c *bria.Client) (map[string]any, error) {
		return c.GenerateHD(ctx, bria.HDRequest{
			Prompt:            final,
			NegativePrompt:    in.NegativePrompt,
			NumResults:        in.NumResults,
			AspectRatio:       aspect,
			Sync:              true,
			EnhanceImage:      in.EnhanceImage,
			Medium:            Medium(style),
			ContentModeration: true,
			Seed:              in.Seed,
			StepsNum:          in.Steps,
			TextGuidanceScale: in.GuidanceScale,
		})
	})
}

// EnhancePrompt rewrites prompt and keeps both versions in the session.
func (e *Editor) EnhancePrompt(ctx context.Context, st *session.State, prompt string) (Outcome, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return invalid("Please enter a prompt to enhance.")
	}
	client, err := e.remote(st)
	if err != nil {
		return failed(err), err
	}
	enhanced, err := client.EnhancePrompt(ctx, prompt)
	if err != nil {
		return failed(err), err
	}
	st.OriginalPrompt = prompt
	st.EnhancedPrompt = enhanced
	e.autoSave(ctx, st)
	return Outcome{Status: StatusReady, Prompt: enhanced, Message: "Prompt enhanced successfully!"}, nil
}

// LifestyleByText places a product into a described scene. Asynchronous
// requests are tracked and auto-checked.
func (e *Editor) LifestyleByText(ctx context.Context, st *session.State, req bria.LifestyleTextRequest) (Outcome, error) {
	if len(req.Image) == 0 {
		return invalid("Please upload a product image.")
	}
	if strings.TrimSpace(req.SceneDescription) == "" {
		return invalid("Please enter a scene description.")
	}
	return e.run(ctx, st, call{
		operation: OpLifestyleText,
		prompt:    strings.TrimSpace(req.SceneDescription),
		sync:      req.Sync,
		limit:     atLeastOne(req.NumResults),
		success:   "Image generated successfully!",
	}, func(c *bria.Client) (map[string]any, error) {
		return c.LifestyleShotByText(ctx, req)
	})
}

// LifestyleByImage places a product into the scene of a reference image.
func (e *Editor) LifestyleByImage(ctx context.Context, st *session.State, req bria.LifestyleImageRequest) (Outcome, error) {
	if len(req.Image) == 0 || len(req.Reference) == 0 {
		return invalid("Please upload both a product image and a reference image.")
	}
	return e.run(ctx, st, call{
		operation: OpLifestyleImage,
		sync:      req.Sync,
		limit:     atLeastOne(req.NumResults),
		success:   "Image generated successfully!",
	}, func(c *bria.Client) (map[string]any, error) {
		return c.LifestyleShotByImage(ctx, req)
	})
}

func (e *Editor) Packshot(ctx context.Context, st *session.State, req bria.PackshotRequest) (Outcome, error) {
	if len(req.Image) == 0 {
		return invalid("Please upload a product image.")
	}
	return e.run(ctx, st, call{
		operation: OpPackshot,
		sync:      true,
		limit:     1,
		success:   "Packshot created successfully!",
	}, func(c *bria.Client) (map[string]any, error) {
		return c.Packshot(ctx, req)
	})
}

func (e *Editor) Shadow(ctx context.Context, st *session.State, req bria.ShadowRequest) (Outcome, error) {
	if len(req.Image) == 0 {
		return invalid("Please upload a product image.")
	}
	return e.run(ctx, st, call{
		operation: OpShadow,
		sync:      true,
		limit:     1,
		success:   "Shadow added successfully!",
	}, func(c *bria.Client) (map[string]any, error) {
		return c.AddShadow(ctx, req)
	})
}

// GenerativeFill repaints the masked area from a prompt.
func (e *Editor) GenerativeFill(ctx context.Context, st *session.State, req bria.GenFillRequest) (Outcome, error) {
	if len(req.Image) == 0 || len(req.Mask) == 0 {
		return invalid("Please provide an image and a mask.")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return invalid("Please enter a prompt first.")
	}
	return e.run(ctx, st, call{
		operation: OpGenerativeFill,
		prompt:    strings.TrimSpace(req.Prompt),
		sync:      req.Sync,
		limit:     atLeastOne(req.NumResults),
		success:   "Generation complete!",
	}, func(c *bria.Client) (map[string]any, error) {
		return c.GenerativeFill(ctx, req)
	})
}

// Erase removes the foreground object.
func (e *Editor) Erase(ctx context.Context, st *session.State, req bria.EraseRequest) (Outcome, error) {
	if len(req.Image) == 0 {
		return invalid("Please upload an image.")
	}
	return e.run(ctx, st, call{
		operation: OpErase,
		sync:      true,
		limit:     1,
		success:   "Area erased successfully!",
	}, func(c *bria.Client) (map[string]any, error) {
		return c.EraseForeground(ctx, req)
	})
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

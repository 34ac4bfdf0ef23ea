package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"stencil/internal/editor"
	"stencil/internal/filters"
	"stencil/internal/normalize"
	"stencil/internal/providers/bria"
	"stencil/internal/session"
)

const (
	// maxPendingWait caps the ?wait= parameter of the manual re-check.
	maxPendingWait = 5 * time.Minute
	// pendingWaitMargin is left between the wait and the server write timeout
	// for the final probe round and the response.
	pendingWaitMargin = 5 * time.Second
)

type productOptions struct {
	SKU               string `json:"sku"`
	ForceRMBG         bool   `json:"force_rmbg"`
	ContentModeration bool   `json:"content_moderation"`
}

func (p productOptions) bria() bria.ProductOptions {
	return bria.ProductOptions{SKU: p.SKU, ForceRMBG: p.ForceRMBG, ContentModeration: p.ContentModeration}
}

type placementInput struct {
	PlacementType      string   `json:"placement_type"`
	ShotSize           []int    `json:"shot_size"`
	ManualPlacement    []string `json:"manual_placement_selection"`
	Padding            []int    `json:"padding_values"`
	ForegroundSize     []int    `json:"foreground_image_size"`
	ForegroundLocation []int    `json:"foreground_image_location"`
	OriginalQuality    bool     `json:"original_quality"`
}

func (p placementInput) bria() bria.Placement {
	return bria.Placement{
		Type:               p.PlacementType,
		ShotSize:           p.ShotSize,
		ManualSelection:    p.ManualPlacement,
		Padding:            p.Padding,
		ForegroundSize:     p.ForegroundSize,
		ForegroundLocation: p.ForegroundLocation,
		OriginalQuality:    p.OriginalQuality,
	}
}

// imageInput is an image given inline (base64 in JSON) or by URL.
type imageInput struct {
	Image    []byte `json:"image"`
	ImageURL string `json:"image_url"`
}

type packshotRequest struct {
	imageInput
	BackgroundColor string `json:"background_color"`
	productOptions
}

type shadowRequest struct {
	imageInput
	ShadowType      string `json:"shadow_type"`
	BackgroundColor string `json:"background_color"`
	ShadowColor     string `json:"shadow_color"`
	ShadowOffset    []int  `json:"shadow_offset"`
	ShadowIntensity int    `json:"shadow_intensity"`
	ShadowBlur      int    `json:"shadow_blur"`
	ShadowWidth     int    `json:"shadow_width"`
	ShadowHeight    int    `json:"shadow_height"`
	productOptions
}

type lifestyleTextRequest struct {
	imageInput
	SceneDescription    string `json:"scene_description"`
	NumResults          int    `json:"num_results"`
	Sync                bool   `json:"sync"`
	Fast                bool   `json:"fast"`
	OptimizeDescription bool   `json:"optimize_description"`
	ExcludeElements     string `json:"exclude_elements"`
	placementInput
	productOptions
}

type lifestyleImageRequest struct {
	imageInput
	Reference          []byte  `json:"reference_image"`
	ReferenceURL       string  `json:"reference_image_url"`
	NumResults         int     `json:"num_results"`
	Sync               bool    `json:"sync"`
	EnhanceReference   bool    `json:"enhance_ref_image"`
	ReferenceInfluence float64 `json:"ref_image_influence"`
	placementInput
	productOptions
}

type fillRequest struct {
	imageInput
	Mask           []byte `json:"mask"`
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt"`
	NumResults     int    `json:"num_results"`
	Sync           bool   `json:"sync"`
	Seed           int    `json:"seed"`
}

type eraseRequest struct {
	imageInput
	ContentModeration bool `json:"content_moderation"`
}

type enhanceRequest struct {
	Prompt string `json:"prompt"`
}

// loadImage resolves an inline or remote image and validates it.
func (a *App) loadImage(ctx context.Context, data []byte, url string) ([]byte, error) {
	if len(data) == 0 && strings.TrimSpace(url) != "" {
		fetched, err := a.Fetcher.FetchImage(ctx, strings.TrimSpace(url))
		if err != nil {
			return nil, fmt.Errorf("could not download image: %w", err)
		}
		data = fetched
	}
	if len(data) == 0 {
		return nil, nil
	}
	if err := filters.Validate(data, filters.DefaultMaxSizeMB, filters.DefaultFormats); err != nil {
		return nil, err
	}
	return data, nil
}

// outcome maps an editor result to a response. Pending batches answer 202.
func (a *App) outcome(w http.ResponseWriter, r *http.Request, out editor.Outcome, err error) {
	var apiErr *bria.APIError
	switch {
	case err == nil && out.Status == editor.StatusPending:
		a.json(w, http.StatusAccepted, out)
	case err == nil:
		a.json(w, http.StatusOK, out)
	case errors.Is(err, editor.ErrInvalidInput):
		a.json(w, http.StatusBadRequest, out)
	case errors.Is(err, bria.ErrMissingAPIKey):
		a.json(w, http.StatusForbidden, out)
	case errors.As(err, &apiErr), errors.Is(err, normalize.ErrNoImageURL):
		a.json(w, http.StatusBadGateway, out)
	case out.Status == editor.StatusFailed:
		a.json(w, http.StatusBadGateway, out)
	default:
		a.logger(r).Error().Err(err).Msg("editor operation")
		a.error(w, http.StatusInternalServerError, "internal", "session unavailable")
	}
}

// runEditor executes op on the caller's session and writes the outcome.
func (a *App) runEditor(w http.ResponseWriter, r *http.Request, op func(st *session.State) (editor.Outcome, error)) {
	var out editor.Outcome
	err := a.withState(r, func(st *session.State) error {
		var opErr error
		out, opErr = op(st)
		return opErr
	})
	a.outcome(w, r, out, err)
}

func (a *App) badImage(w http.ResponseWriter, err error) {
	a.json(w, http.StatusBadRequest, editor.Outcome{Status: editor.StatusFailed, Message: err.Error()})
}

func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	var req editor.GenerateInput
	if !a.decode(w, r, &req) {
		return
	}
	a.runEditor(w, r, func(st *session.State) (editor.Outcome, error) {
		return a.Editor.GenerateImage(r.Context(), st, req)
	})
}

func (a *App) PromptEnhance(w http.ResponseWriter, r *http.Request) {
	var req enhanceRequest
	if !a.decode(w, r, &req) {
		return
	}
	a.runEditor(w, r, func(st *session.State) (editor.Outcome, error) {
		return a.Editor.EnhancePrompt(r.Context(), st, req.Prompt)
	})
}

func (a *App) Packshot(w http.ResponseWriter, r *http.Request) {
	var req packshotRequest
	if !a.decode(w, r, &req) {
		return
	}
	img, err := a.loadImage(r.Context(), req.Image, req.ImageURL)
	if err != nil {
		a.badImage(w, err)
		return
	}
	a.runEditor(w, r, func(st *session.State) (editor.Outcome, error) {
		return a.Editor.Packshot(r.Context(), st, bria.PackshotRequest{
			Image:           img,
			BackgroundColor: req.BackgroundColor,
			ProductOptions:  req.productOptions.bria(),
		})
	})
}

func (a *App) Shadow(w http.ResponseWriter, r *http.Request) {
	var req shadowRequest
	if !a.decode(w, r, &req) {
		return
	}
	img, err := a.loadImage(r.Context(), req.Image, req.ImageURL)
	if err != nil {
		a.badImage(w, err)
		return
	}
	a.runEditor(w, r, func(st *session.State) (editor.Outcome, error) {
		return a.Editor.Shadow(r.Context(), st, bria.ShadowRequest{
			Image:           img,
			Type:            req.ShadowType,
			BackgroundColor: req.BackgroundColor,
			Color:           req.ShadowColor,
			Offset:          req.ShadowOffset,
			Intensity:       req.ShadowIntensity,
			Blur:            req.ShadowBlur,
			Width:           req.ShadowWidth,
			Height:          req.ShadowHeight,
			ProductOptions:  req.productOptions.bria(),
		})
	})
}

func (a *App) LifestyleText(w http.ResponseWriter, r *http.Request) {
	var req lifestyleTextRequest
	if !a.decode(w, r, &req) {
		return
	}
	img, err := a.loadImage(r.Context(), req.Image, req.ImageURL)
	if err != nil {
		a.badImage(w, err)
		return
	}
	a.runEditor(w, r, func(st *session.State) (editor.Outcome, error) {
		return a.Editor.LifestyleByText(r.Context(), st, bria.LifestyleTextRequest{
			Image:               img,
			SceneDescription:    req.SceneDescription,
			Placement:           req.placementInput.bria(),
			NumResults:          req.NumResults,
			Sync:                req.Sync,
			Fast:                req.Fast,
			OptimizeDescription: req.OptimizeDescription,
			ExcludeElements:     req.ExcludeElements,
			ProductOptions:      req.productOptions.bria(),
		})
	})
}

func (a *App) LifestyleImage(w http.ResponseWriter, r *http.Request) {
	var req lifestyleImageRequest
	if !a.decode(w, r, &req) {
		return
	}
	img, err := a.loadImage(r.Context(), req.Image, req.ImageURL)
	if err != nil {
		a.badImage(w, err)
		return
	}
	ref, err := a.loadImage(r.Context(), req.Reference, req.ReferenceURL)
	if err != nil {
		a.badImage(w, err)
		return
	}
	a.runEditor(w, r, func(st *session.State) (editor.Outcome, error) {
		return a.Editor.LifestyleByImage(r.Context(), st, bria.LifestyleImageRequest{
			Image:              img,
			Reference:          ref,
			Placement:          req.placementInput.bria(),
			NumResults:         req.NumResults,
			Sync:               req.Sync,
			EnhanceReference:   req.EnhanceReference,
			ReferenceInfluence: req.ReferenceInfluence,
			ProductOptions:     req.productOptions.bria(),
		})
	})
}

func (a *App) Fill(w http.ResponseWriter, r *http.Request) {
	var req fillRequest
	if !a.decode(w, r, &req) {
		return
	}
	img, err := a.loadImage(r.Context(), req.Image, req.ImageURL)
	if err != nil {
		a.badImage(w, err)
		return
	}
	a.runEditor(w, r, func(st *session.State) (editor.Outcome, error) {
		return a.Editor.GenerativeFill(r.Context(), st, bria.GenFillRequest{
			Image:             img,
			Mask:              req.Mask,
			Prompt:            req.Prompt,
			NegativePrompt:    req.NegativePrompt,
			NumResults:        req.NumResults,
			Sync:              req.Sync,
			Seed:              req.Seed,
			ContentModeration: true,
		})
	})
}

func (a *App) Erase(w http.ResponseWriter, r *http.Request) {
	var req eraseRequest
	if !a.decode(w, r, &req) {
		return
	}
	img, err := a.loadImage(r.Context(), req.Image, req.ImageURL)
	if err != nil {
		a.badImage(w, err)
		return
	}
	a.runEditor(w, r, func(st *session.State) (editor.Outcome, error) {
		return a.Editor.Erase(r.Context(), st, bria.EraseRequest{
			Image:             img,
			ContentModeration: req.ContentModeration,
		})
	})
}

// pendingWaitLimit is the longest wait a response can still be written after.
func (a *App) pendingWaitLimit() time.Duration {
	limit := maxPendingWait
	if wt := a.Config.HTTPWriteTimeout; wt > 0 {
		limit = min(limit, max(wt-pendingWaitMargin, 0))
	}
	return limit
}

// PendingCheck re-probes the pending batch. ?wait=N keeps polling for up to
// N seconds, bounded by the server write timeout.
func (a *App) PendingCheck(w http.ResponseWriter, r *http.Request) {
	var wait time.Duration
	if raw := r.URL.Query().Get("wait"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs < 0 {
			a.error(w, http.StatusBadRequest, "bad_request", "wait must be a non-negative number of seconds")
			return
		}
		wait = min(time.Duration(secs)*time.Second, a.pendingWaitLimit())
	}
	var out editor.Outcome
	ok := a.state(w, r, func(st *session.State) {
		out = a.Editor.CheckPending(r.Context(), st, wait)
	})
	if !ok {
		return
	}
	code := http.StatusOK
	if out.Status == editor.StatusPending {
		code = http.StatusAccepted
	}
	a.json(w, code, out)
}

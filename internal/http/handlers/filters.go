package handlers

import (
	"image/color"
	"net/http"
	"strings"

	"stencil/internal/filters"
	"stencil/internal/session"
)

type overlayInput struct {
	Text  string `json:"text"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Color string `json:"color"`
}

type filterRequest struct {
	imageInput
	Filter      string               `json:"filter"`
	Adjustments *filters.Adjustments `json:"adjustments"`
	Overlay     *overlayInput        `json:"overlay"`
	Format      string               `json:"format"`
}

type filterResponse struct {
	DataURL string       `json:"data_url"`
	Info    filters.Info `json:"info"`
}

// ApplyFilters runs a local filter, adjustments and an optional text overlay
// on the given image, or on the session's current result when none is given.
func (a *App) ApplyFilters(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if !a.decode(w, r, &req) {
		return
	}
	if req.Filter != "" && !filters.Known(req.Filter) {
		a.error(w, http.StatusBadRequest, "bad_request", "unknown filter: "+req.Filter)
		return
	}
	format := strings.ToUpper(strings.TrimSpace(req.Format))
	if format == "" {
		format = "PNG"
	}

	if len(req.Image) == 0 && req.ImageURL == "" {
		if !a.state(w, r, func(st *session.State) { req.ImageURL = st.EditedImage }) {
			return
		}
		if req.ImageURL == "" {
			a.error(w, http.StatusBadRequest, "bad_request", "No image to filter.")
			return
		}
	}
	data, err := a.loadImage(r.Context(), req.Image, req.ImageURL)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	img, _, err := filters.Decode(data)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	img = filters.Apply(img, req.Filter)
	if req.Adjustments != nil {
		img = filters.Adjust(img, *req.Adjustments)
	}
	if req.Overlay != nil && strings.TrimSpace(req.Overlay.Text) != "" {
		c, err := overlayColor(req.Overlay.Color)
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
		img = filters.Overlay(img, req.Overlay.Text, req.Overlay.X, req.Overlay.Y, c)
	}

	out, err := filters.Encode(img, format)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	info, err := filters.Inspect(out)
	if err != nil {
		a.logger(r).Error().Err(err).Msg("inspect filtered image")
		a.error(w, http.StatusInternalServerError, "internal", "failed to encode image")
		return
	}
	a.json(w, http.StatusOK, filterResponse{DataURL: filters.DataURL(out, format), Info: info})
}

// overlayColor parses a hex color, white when empty.
func overlayColor(hex string) (color.Color, error) {
	if strings.TrimSpace(hex) == "" {
		return color.White, nil
	}
	r, g, b, err := filters.HexToRGB(strings.TrimSpace(hex))
	if err != nil {
		return nil, err
	}
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}, nil
}

package bria

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"stencil/internal/normalize"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

type capturedRequest struct {
	path   string
	token  string
	method string
	body   map[string]any
}

func newTestClient(t *testing.T, status int, response string, captured *capturedRequest) *Client {
	t.Helper()
	transport := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		raw, _ := io.ReadAll(r.Body)
		if captured != nil {
			captured.path = r.URL.Path
			captured.token = r.Header.Get("api_token")
			captured.method = r.Method
			captured.body = map[string]any{}
			if err := json.Unmarshal(raw, &captured.body); err != nil {
				t.Fatalf("request body not json: %v", err)
			}
		}
		return &http.Response{
			StatusCode: status,
			Header:     http.Header{"Content-Type": []string{"application/json"}},
			Body:       io.NopCloser(strings.NewReader(response)),
		}, nil
	})
	return NewClient(Options{
		APIKey:     "secret",
		BaseURL:    "https://engine.test/v1/",
		HTTPClient: &http.Client{Transport: transport},
	})
}

func TestGenerateHDPayload(t *testing.T) {
	var got capturedRequest
	client := newTestClient(t, http.StatusOK, `{"result":[{"urls":["https://cdn/a.png"]}]}`, &got)

	resp, err := client.GenerateHD(context.Background(), HDRequest{
		Prompt:            "  a red chair ",
		NumResults:        2,
		AspectRatio:       "16:9",
		Sync:              true,
		Medium:            "photography",
		ContentModeration: true,
		StepsNum:          30,
		TextGuidanceScale: 5,
	})
	if err != nil {
		t.Fatalf("GenerateHD returned error: %v", err)
	}
	if got.method != http.MethodPost || got.path != "/v1/text-to-image/hd/2.2" {
		t.Fatalf("request = %s %s", got.method, got.path)
	}
	if got.token != "secret" {
		t.Fatalf("api_token = %q, want secret", got.token)
	}
	if got.body["prompt"] != "a red chair" || got.body["num_results"] != float64(2) {
		t.Fatalf("unexpected body: %#v", got.body)
	}
	if _, ok := got.body["seed"]; ok {
		t.Fatalf("seed must be omitted when zero")
	}
	if url, ok := normalize.ExtractURL(resp); !ok || url != "https://cdn/a.png" {
		t.Fatalf("ExtractURL = %q, %v", url, ok)
	}
}

func TestMissingAPIKey(t *testing.T) {
	client := NewClient(Options{})
	if client.HasCredentials() {
		t.Fatalf("client without key should report no credentials")
	}
	_, err := client.Packshot(context.Background(), PackshotRequest{Image: []byte{1}})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("err = %v, want ErrMissingAPIKey", err)
	}
	if Describe(err) != MessageMissingKey {
		t.Fatalf("Describe = %q", Describe(err))
	}
	if !client.WithAPIKey(" k ").HasCredentials() {
		t.Fatalf("WithAPIKey should attach credentials")
	}
	if client.HasCredentials() {
		t.Fatalf("WithAPIKey must not mutate the shared client")
	}
}

func TestErrorStatusesAreDescribed(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   string
	}{
		{http.StatusUnauthorized, `{"message":"bad token"}`, MessageInvalidKey},
		{http.StatusUnprocessableEntity, `{"message":"blocked"}`, MessageModeration},
		{http.StatusInternalServerError, `{"message":"engine down"}`, "bria: status 500: engine down"},
		{http.StatusBadGateway, `gateway`, "bria: status 502: gateway"},
	}
	for _, tc := range tests {
		client := newTestClient(t, tc.status, tc.body, nil)
		_, err := client.EraseForeground(context.Background(), EraseRequest{Image: []byte{1, 2}})
		if err == nil {
			t.Fatalf("status %d: expected error", tc.status)
		}
		if StatusCode(err) != tc.status {
			t.Fatalf("StatusCode = %d, want %d", StatusCode(err), tc.status)
		}
		if got := Describe(err); got != tc.want {
			t.Fatalf("Describe(%d) = %q, want %q", tc.status, got, tc.want)
		}
	}
}

func TestLifestyleShotByTextPlacement(t *testing.T) {
	var got capturedRequest
	client := newTestClient(t, http.StatusOK, `{"urls":["https://cdn/1.png","https://cdn/2.png"]}`, &got)
	image := []byte("png-bytes")

	_, err := client.LifestyleShotByText(context.Background(), LifestyleTextRequest{
		Image:            image,
		SceneDescription: "on a marble table",
		Placement: Placement{
			Type:            "Manual Placement",
			ShotSize:        []int{1200, 800},
			ManualSelection: []string{"Upper Left", "Bottom Center"},
		},
		NumResults:      2,
		Fast:            true,
		ExcludeElements: "people",
	})
	if err != nil {
		t.Fatalf("LifestyleShotByText returned error: %v", err)
	}
	if got.path != "/v1/product/lifestyle_shot_by_text" {
		t.Fatalf("path = %s", got.path)
	}
	if got.body["placement_type"] != "manual_placement" {
		t.Fatalf("placement_type = %v", got.body["placement_type"])
	}
	sel, _ := got.body["manual_placement_selection"].([]any)
	if len(sel) != 2 || sel[0] != "upper_left" || sel[1] != "bottom_center" {
		t.Fatalf("manual_placement_selection = %#v", got.body["manual_placement_selection"])
	}
	if _, ok := got.body["exclude_elements"]; ok {
		t.Fatalf("exclude_elements must be dropped in fast mode")
	}
	decoded, err := base64.StdEncoding.DecodeString(got.body["file"].(string))
	if err != nil || !bytes.Equal(decoded, image) {
		t.Fatalf("file not base64 of the image: %v", err)
	}
}

func TestAddShadowFloatDimensions(t *testing.T) {
	var got capturedRequest
	client := newTestClient(t, http.StatusOK, `{"result_url":"https://cdn/s.png"}`, &got)

	_, err := client.AddShadow(context.Background(), ShadowRequest{Image: []byte{1}, Type: "Float", Width: 40, Height: 90})
	if err != nil {
		t.Fatalf("AddShadow returned error: %v", err)
	}
	if got.body["type"] != "float" || got.body["shadow_width"] != float64(40) || got.body["shadow_height"] != float64(90) {
		t.Fatalf("unexpected shadow body: %#v", got.body)
	}
	if got.body["background_color"] != nil {
		t.Fatalf("background_color should be null for transparent backgrounds")
	}

	_, err = client.AddShadow(context.Background(), ShadowRequest{Image: []byte{1}, Type: "Regular", BackgroundColor: "#fff"})
	if err != nil {
		t.Fatalf("AddShadow returned error: %v", err)
	}
	if got.body["shadow_height"] != float64(70) || got.body["background_color"] != "#fff" {
		t.Fatalf("unexpected regular shadow body: %#v", got.body)
	}
}

func TestGenerativeFillSendsMask(t *testing.T) {
	var got capturedRequest
	client := newTestClient(t, http.StatusOK, `{"urls":["https://cdn/f.png"]}`, &got)

	_, err := client.GenerativeFill(context.Background(), GenFillRequest{
		Image: []byte{1}, Mask: []byte{2}, Prompt: "a vase", Seed: 7,
	})
	if err != nil {
		t.Fatalf("GenerativeFill returned error: %v", err)
	}
	if got.path != "/v1/gen_fill" || got.body["mask_file"] == "" || got.body["seed"] != float64(7) {
		t.Fatalf("unexpected gen_fill request: %s %#v", got.path, got.body)
	}
	if _, err := client.GenerativeFill(context.Background(), GenFillRequest{Image: []byte{1}}); err == nil {
		t.Fatalf("expected error without mask")
	}
}

func TestEnhancePrompt(t *testing.T) {
	var got capturedRequest
	client := newTestClient(t, http.StatusOK, `{"prompt_variations":["a cinematic red chair, soft light","other"]}`, &got)
	enhanced, err := client.EnhancePrompt(context.Background(), "red chair")
	if err != nil {
		t.Fatalf("EnhancePrompt returned error: %v", err)
	}
	if enhanced != "a cinematic red chair, soft light" {
		t.Fatalf("enhanced = %q", enhanced)
	}
	if got.body["prompt"] != "red chair" {
		t.Fatalf("prompt = %v", got.body["prompt"])
	}

	empty := newTestClient(t, http.StatusOK, `{}`, nil)
	same, err := empty.EnhancePrompt(context.Background(), "red chair")
	if err != nil || same != "red chair" {
		t.Fatalf("EnhancePrompt fallback = %q, %v", same, err)
	}
}

func TestLabels(t *testing.T) {
	cases := map[string]string{
		"Manual Placement":   "manual_placement",
		"Custom Coordinates": "custom_coordinates",
		"  Upper   Left ":    "upper_left",
		"original":           "original",
		"":                   "",
	}
	for in, want := range cases {
		if got := PlacementLabel(in); got != want {
			t.Fatalf("PlacementLabel(%q) = %q, want %q", in, got, want)
		}
	}
	if got := DisplayLabel("lifestyle_shot_by_text"); got != "Lifestyle Shot By Text" {
		t.Fatalf("DisplayLabel = %q", got)
	}
}

package filters

import (
	"context"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	return imaging.New(w, h, c)
}

func pixel(img image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

func TestApplyColorFilters(t *testing.T) {
	tests := []struct {
		name string
		src  color.NRGBA
		want color.NRGBA
	}{
		{Vintage, color.NRGBA{R: 100, G: 150, B: 200, A: 255}, color.NRGBA{R: 120, G: 150, B: 160, A: 255}},
		{Brightness, color.NRGBA{R: 100, G: 150, B: 200, A: 255}, color.NRGBA{R: 130, G: 195, B: 255, A: 255}},
		{Sepia, color.NRGBA{R: 100, G: 100, B: 100, A: 255}, color.NRGBA{R: 135, G: 120, B: 94, A: 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pixel(Apply(solid(4, 4, tt.src), tt.name), 1, 1)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyGrayscale(t *testing.T) {
	got := pixel(Apply(solid(2, 2, color.NRGBA{R: 200, G: 10, B: 10, A: 255}), Grayscale), 0, 0)
	assert.Equal(t, got.R, got.G)
	assert.Equal(t, got.G, got.B)
}

func TestApplyUnknownAndNone(t *testing.T) {
	src := solid(2, 2, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	assert.Same(t, src, Apply(src, None))
	assert.Same(t, src, Apply(src, "Posterize"))
	assert.False(t, Known("Posterize"))
	assert.True(t, Known(EdgeEnhance))
}

func TestConvolutionFiltersKeepFlatImages(t *testing.T) {
	c := color.NRGBA{R: 90, G: 90, B: 90, A: 255}
	src := solid(5, 5, c)
	for _, name := range []string{Sharpen, EdgeEnhance, Blur} {
		assert.Equal(t, c, pixel(Apply(src, name), 2, 2), name)
	}
}

func TestHighContrastStretchesAroundMean(t *testing.T) {
	src := imaging.New(2, 1, color.NRGBA{R: 100, G: 100, B: 100, A: 255})
	src.Set(1, 0, color.NRGBA{R: 200, G: 200, B: 200, A: 255})
	out := Apply(src, HighContrast)
	assert.Equal(t, uint8(50), pixel(out, 0, 0).R)
	assert.Equal(t, uint8(250), pixel(out, 1, 0).R)
}

func TestAdjustNeutralIsNoop(t *testing.T) {
	src := solid(2, 2, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	assert.Same(t, src, Adjust(src, Adjustments{Brightness: 1, Contrast: 1, Saturation: 1, Sharpness: 1}))
	assert.Same(t, src, Adjust(src, Adjustments{}))

	out := Adjust(src, Adjustments{Brightness: 2})
	assert.Equal(t, color.NRGBA{R: 20, G: 40, B: 60, A: 255}, pixel(out, 0, 0))
}

func TestOverlayDrawsText(t *testing.T) {
	src := solid(60, 20, color.NRGBA{A: 255})
	out := Overlay(src, "Hi", 2, 15, color.White)

	var lit int
	b := out.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if pixel(out, x, y).R > 0 {
				lit++
			}
		}
	}
	assert.Positive(t, lit)
	assert.Equal(t, uint8(0), pixel(src, 3, 10).R, "source must stay untouched")
}

func TestEncodeDecodeInspect(t *testing.T) {
	data, err := Encode(solid(40, 20, color.NRGBA{R: 255, A: 255}), "png")
	require.NoError(t, err)

	info, err := Inspect(data)
	require.NoError(t, err)
	assert.Equal(t, "PNG", info.Format)
	assert.Equal(t, 40, info.Width)
	assert.Equal(t, 20, info.Height)
	assert.Equal(t, 2.0, info.AspectRatio)

	_, err = Encode(solid(1, 1, color.NRGBA{}), "webp")
	assert.Error(t, err)
}

func TestResize(t *testing.T) {
	src := solid(400, 200, color.NRGBA{A: 255})
	assert.Equal(t, image.Rect(0, 0, 100, 50), Resize(src, 100, 100, true).Bounds())
	assert.Equal(t, image.Rect(0, 0, 100, 100), Resize(src, 100, 100, false).Bounds())
	assert.Same(t, image.Image(src), Resize(src, 1000, 1000, true))
}

func TestValidate(t *testing.T) {
	png, err := Encode(solid(4, 4, color.NRGBA{A: 255}), "png")
	require.NoError(t, err)
	gif, err := Encode(solid(4, 4, color.NRGBA{A: 255}), "gif")
	require.NoError(t, err)
	jpg, err := Encode(solid(4, 4, color.NRGBA{A: 255}), "jpg")
	require.NoError(t, err)

	assert.NoError(t, Validate(png, DefaultMaxSizeMB, DefaultFormats))
	assert.NoError(t, Validate(jpg, DefaultMaxSizeMB, []string{"JPG"}))

	err = Validate(gif, DefaultMaxSizeMB, DefaultFormats)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Format GIF not allowed")

	err = Validate(png, 0.00001, DefaultFormats)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds maximum")

	err = Validate([]byte("nope"), DefaultMaxSizeMB, DefaultFormats)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "Invalid image"))
}

func TestOptimizeForAPI(t *testing.T) {
	src := imaging.New(300, 100, color.NRGBA{})
	data, err := Encode(src, "png")
	require.NoError(t, err)

	out, err := OptimizeForAPI(data, 150, DefaultAPIQuality)
	require.NoError(t, err)

	img, format, err := Decode(out)
	require.NoError(t, err)
	assert.Equal(t, "JPEG", format)
	assert.Equal(t, 150, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())
	assert.Greater(t, pixel(img, 10, 10).R, uint8(240), "transparency flattens to white")
}

func TestThumbnail(t *testing.T) {
	data, err := Encode(solid(800, 400, color.NRGBA{G: 255, A: 255}), "png")
	require.NoError(t, err)

	out, err := Thumbnail(data, DefaultThumbnailSize, DefaultThumbnailSize)
	require.NoError(t, err)
	info, err := Inspect(out)
	require.NoError(t, err)
	assert.Equal(t, 200, info.Width)
	assert.Equal(t, 100, info.Height)
}

func TestColorHelpers(t *testing.T) {
	r, g, b, err := HexToRGB("#FF5733")
	require.NoError(t, err)
	assert.Equal(t, []uint8{255, 87, 51}, []uint8{r, g, b})
	assert.Equal(t, "#ff5733", RGBToHex(r, g, b))

	_, _, _, err = HexToRGB("12345")
	assert.ErrorIs(t, err, ErrInvalidColor)
	_, _, _, err = HexToRGB("zzzzzz")
	assert.ErrorIs(t, err, ErrInvalidColor)
}

func TestDataURL(t *testing.T) {
	assert.Equal(t, "data:image/png;base64,AQI=", DataURL([]byte{1, 2}, "PNG"))
}

func TestFetchImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("img"))
	}))
	defer srv.Close()

	f := NewFetcher(0)
	assert.Equal(t, DefaultFetchTimeout, f.Client.Timeout)

	data, err := f.FetchImage(context.Background(), srv.URL+"/ok.png")
	require.NoError(t, err)
	assert.Equal(t, "img", string(data))

	_, err = f.FetchImage(context.Background(), srv.URL+"/missing")
	assert.Error(t, err)
}

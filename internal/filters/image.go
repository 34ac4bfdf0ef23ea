package filters

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxSizeMB     = 10.0
	DefaultAPIMaxDim     = 2048
	DefaultAPIQuality    = 90
	DefaultThumbnailSize = 200
	DefaultResizeMaxW    = 1920
	DefaultResizeMaxH    = 1080
	DefaultFetchTimeout  = 30 * time.Second
	maxFetchBytes        = 50 << 20
)

// DefaultFormats are the upload formats accepted by Validate.
var DefaultFormats = []string{"PNG", "JPEG", "JPG", "WEBP"}

var ErrInvalidColor = errors.New("filters: invalid hex color")

// Info describes a decoded image.
type Info struct {
	Format      string  `json:"format"`
	Mode        string  `json:"mode"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	AspectRatio float64 `json:"aspect_ratio"`
}

// Decode reads any registered format (PNG, JPEG, GIF, WEBP) and returns the
// upper-cased format name.
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("filters: decode image: %w", err)
	}
	return img, strings.ToUpper(format), nil
}

// Encode writes img in the named format ("png", "jpeg", "jpg", "gif", "bmp", "tiff").
func Encode(img image.Image, format string) ([]byte, error) {
	f, err := imaging.FormatFromExtension(format)
	if err != nil {
		return nil, fmt.Errorf("filters: encode %q: %w", format, err)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, f); err != nil {
		return nil, fmt.Errorf("filters: encode %s: %w", f, err)
	}
	return buf.Bytes(), nil
}

// Resize shrinks img to fit maxW x maxH when keepAspect is set (never
// enlarging), otherwise scales it to exactly maxW x maxH.
func Resize(img image.Image, maxW, maxH int, keepAspect bool) image.Image {
	if !keepAspect {
		return imaging.Resize(img, maxW, maxH, imaging.Lanczos)
	}
	b := img.Bounds()
	if b.Dx() <= maxW && b.Dy() <= maxH {
		return img
	}
	return imaging.Fit(img, maxW, maxH, imaging.Lanczos)
}

// Inspect decodes data and reports its format, mode and dimensions.
func Inspect(data []byte) (Info, error) {
	img, format, err := Decode(data)
	if err != nil {
		return Info{}, err
	}
	info := Info{
		Format: format,
		Mode:   mode(img.ColorModel()),
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}
	if info.Height > 0 {
		info.AspectRatio = math.Round(float64(info.Width)/float64(info.Height)*100) / 100
	}
	return info, nil
}

func mode(m color.Model) string {
	switch m {
	case color.GrayModel, color.Gray16Model:
		return "L"
	case color.YCbCrModel, color.NYCbCrAModel:
		return "RGB"
	case color.CMYKModel:
		return "CMYK"
	}
	if _, ok := m.(color.Palette); ok {
		return "P"
	}
	return "RGBA"
}

// Validate checks the byte size against maxMB and the decoded format against
// formats. JPG and JPEG are interchangeable.
func Validate(data []byte, maxMB float64, formats []string) error {
	size := float64(len(data)) / (1024 * 1024)
	if size > maxMB {
		return fmt.Errorf("Image size (%.2fMB) exceeds maximum (%gMB)", size, maxMB)
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("Invalid image: %w", err)
	}
	format = strings.ToUpper(format)
	for _, f := range formats {
		f = strings.ToUpper(f)
		if f == format || (f == "JPG" && format == "JPEG") {
			return nil
		}
	}
	return fmt.Errorf("Format %s not allowed. Use: %s", format, strings.Join(formats, ", "))
}

// OptimizeForAPI scales the image so its longest side is at most maxDim,
// flattens transparency onto white and re-encodes it as JPEG.
func OptimizeForAPI(data []byte, maxDim, quality int) ([]byte, error) {
	img, _, err := Decode(data)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	if longest := max(b.Dx(), b.Dy()); longest > maxDim {
		ratio := float64(maxDim) / float64(longest)
		img = imaging.Resize(img, int(float64(b.Dx())*ratio), int(float64(b.Dy())*ratio), imaging.Lanczos)
		b = img.Bounds()
	}
	flat := imaging.Overlay(imaging.New(b.Dx(), b.Dy(), color.White), img, image.Pt(0, 0), 1.0)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, flat, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("filters: encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// Thumbnail returns a PNG no larger than width x height, keeping the aspect ratio.
func Thumbnail(data []byte, width, height int) ([]byte, error) {
	img, _, err := Decode(data)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > width || h > height {
		scale := math.Min(float64(width)/float64(w), float64(height)/float64(h))
		w = max(1, int(float64(w)*scale))
		h = max(1, int(float64(h)*scale))
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return Encode(dst, "png")
}

// DataURL embeds data as a base64 data URL for the given format.
func DataURL(data []byte, format string) string {
	return "data:image/" + strings.ToLower(format) + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// HexToRGB parses "#RRGGBB" or "RRGGBB".
func HexToRGB(hex string) (r, g, b uint8, err error) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrInvalidColor, hex)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrInvalidColor, hex)
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), nil
}

// RGBToHex formats a color as lower-case "#rrggbb".
func RGBToHex(r, g, b uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// Fetcher downloads result images.
type Fetcher struct {
	Client *http.Client
}

// NewFetcher returns a Fetcher with the given timeout, DefaultFetchTimeout when zero.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Fetcher{Client: &http.Client{Timeout: timeout}}
}

// FetchImage GETs url and returns the body of a 2xx response.
func (f *Fetcher) FetchImage(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("filters: build request: %w", err)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("filters: download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("filters: download image: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return nil, fmt.Errorf("filters: read image: %w", err)
	}
	return data, nil
}

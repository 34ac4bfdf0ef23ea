// Package filters applies local adjustments to images that never leave the
// service: named filters, fine-tune sliders and text overlays.
package filters

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Filter names accepted by Apply.
const (
	None         = "None"
	Grayscale    = "Grayscale"
	Sepia        = "Sepia"
	HighContrast = "High Contrast"
	Brightness   = "Brightness"
	Blur         = "Blur"
	Sharpen      = "Sharpen"
	EdgeEnhance  = "Edge Enhance"
	Vintage      = "Vintage"
)

// Names lists the filters in the order the editor offers them.
var Names = []string{None, Grayscale, Sepia, HighContrast, Brightness, Blur, Sharpen, EdgeEnhance, Vintage}

var (
	sharpenKernel = [9]float64{
		-2, -2, -2,
		-2, 32, -2,
		-2, -2, -2,
	}
	edgeEnhanceKernel = [9]float64{
		-1, -1, -1,
		-1, 10, -1,
		-1, -1, -1,
	}
)

// Known reports whether name is one of Names.
func Known(name string) bool {
	for _, n := range Names {
		if n == name {
			return true
		}
	}
	return false
}

// Apply runs the named filter. Unknown names and None return img unchanged.
func Apply(img image.Image, name string) image.Image {
	switch name {
	case Grayscale:
		return imaging.Grayscale(img)
	case Sepia:
		return imaging.AdjustFunc(img, sepia)
	case HighContrast:
		return contrast(img, 2.0)
	case Brightness:
		return scaleChannels(img, 1.3, 1.3, 1.3)
	case Blur:
		return imaging.Blur(img, 2)
	case Sharpen:
		return imaging.Convolve3x3(img, sharpenKernel, &imaging.ConvolveOptions{Normalize: true})
	case EdgeEnhance:
		return imaging.Convolve3x3(img, edgeEnhanceKernel, &imaging.ConvolveOptions{Normalize: true})
	case Vintage:
		return scaleChannels(img, 1.2, 1.0, 0.8)
	default:
		return img
	}
}

// Adjustments are multiplicative factors where 1.0 means unchanged.
type Adjustments struct {
	Brightness float64 `json:"brightness"`
	Contrast   float64 `json:"contrast"`
	Saturation float64 `json:"saturation"`
	Sharpness  float64 `json:"sharpness"`
}

// Adjust applies the non-neutral factors in a fixed order: brightness,
// contrast, saturation, sharpness. Zero values are treated as 1.0.
func Adjust(img image.Image, a Adjustments) image.Image {
	if changed(a.Brightness) {
		img = scaleChannels(img, a.Brightness, a.Brightness, a.Brightness)
	}
	if changed(a.Contrast) {
		img = contrast(img, a.Contrast)
	}
	if changed(a.Saturation) {
		img = imaging.AdjustSaturation(img, clampPercent((a.Saturation-1)*100))
	}
	if changed(a.Sharpness) {
		if a.Sharpness > 1 {
			img = imaging.Sharpen(img, a.Sharpness-1)
		} else {
			img = imaging.Blur(img, 1-a.Sharpness)
		}
	}
	return img
}

func changed(f float64) bool {
	return f != 0 && f != 1
}

// Overlay draws text with its baseline starting at (x, y).
func Overlay(img image.Image, text string, x, y int, c color.Color) image.Image {
	dst := imaging.Clone(img)
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(dst.Bounds().Min.X+x, dst.Bounds().Min.Y+y),
	}
	d.DrawString(text)
	return dst
}

func sepia(c color.NRGBA) color.NRGBA {
	r, g, b := float64(c.R), float64(c.G), float64(c.B)
	return color.NRGBA{
		R: clamp8(0.393*r + 0.769*g + 0.189*b),
		G: clamp8(0.349*r + 0.686*g + 0.168*b),
		B: clamp8(0.272*r + 0.534*g + 0.131*b),
		A: c.A,
	}
}

func scaleChannels(img image.Image, fr, fg, fb float64) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: clamp8(float64(c.R) * fr),
			G: clamp8(float64(c.G) * fg),
			B: clamp8(float64(c.B) * fb),
			A: c.A,
		}
	})
}

// contrast blends every pixel away from the mean gray level by factor.
func contrast(img image.Image, factor float64) *image.NRGBA {
	src := imaging.Clone(img)
	var sum, n float64
	for i := 0; i+3 < len(src.Pix); i += 4 {
		p := src.Pix[i : i+3 : i+3]
		sum += 0.299*float64(p[0]) + 0.587*float64(p[1]) + 0.114*float64(p[2])
		n++
	}
	if n == 0 {
		return src
	}
	mean := math.Round(sum / n)
	return imaging.AdjustFunc(src, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: clamp8(mean + (float64(c.R)-mean)*factor),
			G: clamp8(mean + (float64(c.G)-mean)*factor),
			B: clamp8(mean + (float64(c.B)-mean)*factor),
			A: c.A,
		}
	})
}

func clamp8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}

func clampPercent(p float64) float64 {
	return math.Max(-100, math.Min(100, p))
}

package grid

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

// Resampler selects the filter used when the source has to be downscaled.
type Resampler string

// Supported resamplers
const (
	ResampleLanczos    Resampler = "lanczos"
	ResampleCatmullRom Resampler = "catmullrom"
	ResampleBilinear   Resampler = "bilinear"
	ResampleNearest    Resampler = "nearest"
)

// ParseResampler converts a config value into a Resampler. Empty selects Lanczos.
func ParseResampler(s string) (Resampler, error) {
	switch r := Resampler(strings.ToLower(strings.TrimSpace(s))); r {
	case "":
		return ResampleLanczos, nil
	case ResampleLanczos, ResampleCatmullRom, ResampleBilinear, ResampleNearest:
		return r, nil
	default:
		return "", fmt.Errorf("unknown resampler: %s", s)
	}
}

// Resize scales img to exactly w x h.
func (r Resampler) Resize(img image.Image, w, h int) image.Image {
	switch r {
	case ResampleCatmullRom, ResampleBilinear:
		var scaler draw.Interpolator = draw.CatmullRom
		if r == ResampleBilinear {
			scaler = draw.BiLinear
		}
		dst := image.NewNRGBA(image.Rect(0, 0, w, h))
		scaler.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
		return dst
	case ResampleNearest:
		return imaging.Resize(img, w, h, imaging.NearestNeighbor)
	default:
		return imaging.Resize(img, w, h, imaging.Lanczos)
	}
}

// ComposeOptions controls how a source is placed on the canvas.
type ComposeOptions struct {
	MaxDimension int         // 0 keeps the native size
	Fill         color.Color // nil means White
	Resampler    Resampler
}

// DefaultComposeOptions matches the reference behavior: 4000px cap on a white canvas.
func DefaultComposeOptions() ComposeOptions {
	return ComposeOptions{
		MaxDimension: DefaultMaxDimension,
		Fill:         White,
		Resampler:    ResampleLanczos,
	}
}

// NewSourceImage wraps an already decoded image.
func NewSourceImage(filename string, img image.Image) *SourceImage {
	b := img.Bounds()
	return &SourceImage{
		Filename: filename,
		Width:    b.Dx(),
		Height:   b.Dy(),
		Image:    img,
	}
}

// Compose draws src centered on a square canvas filled with opts.Fill.
// Transparent source pixels are blended over the fill.
func Compose(src *SourceImage, opts ComposeOptions) (*Canvas, error) {
	if src == nil || src.Image == nil {
		return nil, fmt.Errorf("%w: no image", ErrInvalidImage)
	}

	layout, err := PlanLayout(src.Width, src.Height, opts.MaxDimension)
	if err != nil {
		return nil, err
	}

	fill := opts.Fill
	if fill == nil {
		fill = White
	}

	img := src.Image
	if layout.Scaled() {
		img = opts.Resampler.Resize(img, layout.ScaledWidth, layout.ScaledHeight)
	}

	canvas := imaging.New(layout.CanvasSize, layout.CanvasSize, fill)
	canvas = imaging.Overlay(canvas, img, image.Pt(layout.OffsetX, layout.OffsetY), 1.0)

	return &Canvas{Layout: layout, Image: canvas}, nil
}

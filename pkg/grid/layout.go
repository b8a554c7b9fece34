package grid

import (
	"fmt"
	"math"
)

// PlanLayout computes the canvas geometry for a width x height source.
//
// The longer side is capped at maxDimension (0 disables the cap) and the
// shorter side follows the aspect ratio. Sources that already fit keep their
// native size; nothing is ever upscaled. The canvas is a square of the longer
// scaled side with the image centered on it.
func PlanLayout(width, height, maxDimension int) (Layout, error) {
	if width <= 0 || height <= 0 {
		return Layout{}, fmt.Errorf("%w: zero dimension %dx%d", ErrInvalidImage, width, height)
	}
	if maxDimension < 0 {
		return Layout{}, fmt.Errorf("max dimension must not be negative: %d", maxDimension)
	}

	sw, sh := float64(width), float64(height)
	if width > height {
		if maxDimension > 0 && width > maxDimension {
			sw = float64(maxDimension)
		}
		sh = sw * float64(height) / float64(width)
	} else {
		if maxDimension > 0 && height > maxDimension {
			sh = float64(maxDimension)
		}
		sw = sh * float64(width) / float64(height)
	}

	size := int(math.Ceil(math.Max(sw, sh)))
	scaledW := roundPixels(sw)
	scaledH := roundPixels(sh)

	return Layout{
		SourceWidth:  width,
		SourceHeight: height,
		ScaledWidth:  scaledW,
		ScaledHeight: scaledH,
		CanvasSize:   size,
		OffsetX:      (size - scaledW) / 2,
		OffsetY:      (size - scaledH) / 2,
		SliceSize:    size / Cols,
	}, nil
}

// Scaled reports whether the source has to be resampled.
func (l Layout) Scaled() bool {
	return l.ScaledWidth != l.SourceWidth || l.ScaledHeight != l.SourceHeight
}

// Residual is the width of the strip on the right and bottom edges that no
// tile covers (0 to 2 pixels).
func (l Layout) Residual() int {
	return l.CanvasSize - Cols*l.SliceSize
}

func roundPixels(v float64) int {
	n := int(math.Round(v))
	if n < 1 {
		return 1
	}
	return n
}

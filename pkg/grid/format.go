package grid

import (
	"encoding/hex"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

var sizeUnits = []string{"Bytes", "KB", "MB"}

// FormatFileSize renders a byte count with base-1024 units and at most two
// decimals, e.g. "0 Bytes", "1.5 KB", "10 MB". Sizes past the last unit stay in MB.
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}

	v := float64(bytes)
	i := 0
	for v >= 1024 && i < len(sizeUnits)-1 {
		v /= 1024
		i++
	}
	v = math.Round(v*100) / 100

	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[i]
}

// FormatDimensions renders "<width> × <height>".
func FormatDimensions(width, height int) string {
	return fmt.Sprintf("%d × %d", width, height)
}

// ParseColor parses "#RGB", "#RRGGBB" or "#RRGGBBAA" (the leading # is optional).
func ParseColor(s string) (color.NRGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) == 6 {
		h += "ff"
	}
	if len(h) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: want #RRGGBB or #RRGGBBAA", s)
	}

	b, err := hex.DecodeString(h)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %v", s, err)
	}
	return color.NRGBA{R: b[0], G: b[1], B: b[2], A: b[3]}, nil
}

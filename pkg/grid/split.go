package grid

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/disintegration/imaging"
)

// TileEncoder writes tiles as PNG. The compression level only trades speed
// for size; pixels are always preserved.
type TileEncoder struct {
	Compression png.CompressionLevel
}

// ParseCompression converts a config value into a png.CompressionLevel.
func ParseCompression(s string) (png.CompressionLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return png.DefaultCompression, nil
	case "none":
		return png.NoCompression, nil
	case "speed", "fast":
		return png.BestSpeed, nil
	case "best":
		return png.BestCompression, nil
	default:
		return 0, fmt.Errorf("unknown png compression: %s", s)
	}
}

// Encode writes img as a standalone PNG.
func (e TileEncoder) Encode(img image.Image) ([]byte, error) {
	enc := png.Encoder{CompressionLevel: e.Compression}

	var buf bytes.Buffer
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// TileRect returns the canvas region covered by the tile at row, col.
func (l Layout) TileRect(row, col int) image.Rectangle {
	s := l.SliceSize
	return image.Rect(col*s, row*s, (col+1)*s, (row+1)*s)
}

// Split cuts the canvas into TileCount tiles in row-major order and encodes
// each one. Crops are pixel-exact; the residual strip past 3*SliceSize is
// dropped. baseName is used for tile names (see TileName).
func Split(canvas *Canvas, baseName string, enc TileEncoder) ([]EncodedTile, error) {
	if canvas == nil || canvas.Image == nil {
		return nil, fmt.Errorf("%w: no canvas", ErrInvalidImage)
	}
	if canvas.Layout.SliceSize < 1 {
		return nil, fmt.Errorf("%w: canvas of %dpx is too small to split", ErrInvalidImage, canvas.Layout.CanvasSize)
	}

	tiles := make([]EncodedTile, 0, TileCount)
	for row := 0; row < Rows; row++ {
		for col := 0; col < Cols; col++ {
			sub := imaging.Crop(canvas.Image, canvas.Layout.TileRect(row, col))

			data, err := enc.Encode(sub)
			if err != nil {
				return nil, fmt.Errorf("encode tile %d,%d: %w", row+1, col+1, err)
			}

			tiles = append(tiles, EncodedTile{
				Row:  row,
				Col:  col,
				Name: TileName(baseName, row, col),
				Data: data,
			})
		}
	}
	return tiles, nil
}

/*
Package grid turns a single image into a nine-grid: the image is centered on
a square canvas, optionally downscaled so its longer side fits a cap, and the
canvas is cut into a 3 by 3 grid of equally sized square tiles.

Tiles are encoded independently as PNG so each one decodes standalone, and
are named after the source file so a run never produces duplicate names.
*/
package grid

import (
	"image"
	"image/color"
	"io"
)

const (
	// Rows and Cols describe the fixed grid shape.
	Rows = 3
	Cols = 3

	// TileCount is the number of tiles produced for every image.
	TileCount = Rows * Cols

	// DefaultMaxDimension caps the longer side of the composed image.
	DefaultMaxDimension = 4000

	// DefaultMaxFileSize is the upload cap in bytes (10 MiB).
	DefaultMaxFileSize = 10 << 20

	// DefaultMaxPixels bounds decoded images before any pixel buffer is allocated.
	DefaultMaxPixels = 10000 * 10000
)

// White is the default canvas fill.
var White = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

// Upload is a raw file handed to the Decoder.
type Upload struct {
	Filename    string
	ContentType string // declared media type, resolved from the name or content when empty
	Size        int64  // negative when unknown
	Body        io.Reader
}

// SourceImage is a decoded upload. It is never modified after decoding.
type SourceImage struct {
	Filename  string
	MediaType string
	Size      int64
	Width     int
	Height    int
	Image     image.Image
}

// Layout holds the geometry of a composed canvas and its tiles.
type Layout struct {
	SourceWidth  int
	SourceHeight int
	ScaledWidth  int
	ScaledHeight int
	CanvasSize   int
	OffsetX      int
	OffsetY      int
	SliceSize    int
}

// Canvas is the square image the tiles are cut from.
type Canvas struct {
	Layout Layout
	Image  *image.NRGBA
}

// EncodedTile is one PNG-encoded cell of the grid. Row and Col are zero-based.
type EncodedTile struct {
	Row  int
	Col  int
	Name string
	Data []byte
}

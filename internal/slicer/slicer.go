package slicer

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log"
	"sync"

	"github.com/kiesman99/ninegrid/internal/archive"
	"github.com/kiesman99/ninegrid/internal/proof"
	"github.com/kiesman99/ninegrid/pkg/grid"
)

// Options contains all slicing parameters
type Options struct {
	// Upload limits
	MaxFileSize int64
	MaxPixels   int64

	// Canvas composition
	MaxDimension int
	Fill         color.Color
	Resampler    grid.Resampler

	// Tile encoding
	Compression png.CompressionLevel
}

// DefaultOptions returns the reference configuration: 10 MiB uploads,
// 4000px cap, white fill, Lanczos resampling.
func DefaultOptions() Options {
	return Options{
		MaxFileSize:  grid.DefaultMaxFileSize,
		MaxPixels:    grid.DefaultMaxPixels,
		MaxDimension: grid.DefaultMaxDimension,
		Fill:         grid.White,
		Resampler:    grid.ResampleLanczos,
		Compression:  png.DefaultCompression,
	}
}

// Result contains the slicing result for one upload
type Result struct {
	Filename  string
	BaseName  string
	MediaType string
	Size      int64
	Width     int
	Height    int
	Layout    grid.Layout
	Tiles     []grid.EncodedTile

	canvas     *image.NRGBA
	encoder    grid.TileEncoder
	canvasOnce sync.Once
	canvasPNG  []byte
	canvasErr  error
}

// Dimensions returns the native size as "<width> × <height>".
func (r *Result) Dimensions() string {
	return grid.FormatDimensions(r.Width, r.Height)
}

// HumanSize returns the upload size with base-1024 units.
func (r *Result) HumanSize() string {
	return grid.FormatFileSize(r.Size)
}

// ArchiveName returns the download name of the bundle.
func (r *Result) ArchiveName() string {
	return grid.ArchiveName(r.BaseName)
}

// ProofSheet describes the printable contact sheet for r.
func (r *Result) ProofSheet() proof.Sheet {
	return proof.Sheet{
		Title:    r.Filename,
		Subtitle: fmt.Sprintf("%s · %s · %dpx tiles", r.Dimensions(), r.HumanSize(), r.Layout.SliceSize),
		Tiles:    r.Tiles,
	}
}

// ProofName returns the download name of the proof sheet.
func (r *Result) ProofName() string {
	return proof.FileName(r.BaseName)
}

// Tile returns the tile at the zero-based row and column.
func (r *Result) Tile(row, col int) (grid.EncodedTile, bool) {
	if row < 0 || row >= grid.Rows || col < 0 || col >= grid.Cols {
		return grid.EncodedTile{}, false
	}
	i := row*grid.Cols + col
	if i >= len(r.Tiles) {
		return grid.EncodedTile{}, false
	}
	return r.Tiles[i], true
}

// CanvasPNG returns the composed canvas as PNG. It is encoded on first use.
func (r *Result) CanvasPNG() ([]byte, error) {
	r.canvasOnce.Do(func() {
		if r.canvas == nil {
			r.canvasErr = fmt.Errorf("%w: no canvas", grid.ErrInvalidImage)
			return
		}
		r.canvasPNG, r.canvasErr = r.encoder.Encode(r.canvas)
	})
	return r.canvasPNG, r.canvasErr
}

// Slicer runs the decode, compose and split pipeline
type Slicer struct {
	opts    Options
	decoder *grid.Decoder
	logger  *log.Logger
}

// New creates a new slicer. A nil logger discards output.
func New(opts Options, logger *log.Logger) *Slicer {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Slicer{
		opts: opts,
		decoder: &grid.Decoder{
			MaxFileSize: opts.MaxFileSize,
			MaxPixels:   opts.MaxPixels,
		},
		logger: logger,
	}
}

// Options returns the configuration the slicer was built with.
func (s *Slicer) Options() Options {
	return s.opts
}

// Slice decodes the upload and cuts it into the nine tiles. On error nothing
// is returned; callers keep whatever result they had before.
func (s *Slicer) Slice(ctx context.Context, u grid.Upload) (*Result, error) {
	src, err := s.decoder.Decode(ctx, u)
	if err != nil {
		return nil, err
	}
	s.logger.Printf("decoded %s (%s, %s, %s)", u.Filename, src.MediaType,
		grid.FormatDimensions(src.Width, src.Height), grid.FormatFileSize(src.Size))

	canvas, err := grid.Compose(src, grid.ComposeOptions{
		MaxDimension: s.opts.MaxDimension,
		Fill:         s.opts.Fill,
		Resampler:    s.opts.Resampler,
	})
	if err != nil {
		return nil, err
	}
	l := canvas.Layout
	s.logger.Printf("canvas %dpx, image %dx%d at (%d,%d), slices of %dpx",
		l.CanvasSize, l.ScaledWidth, l.ScaledHeight, l.OffsetX, l.OffsetY, l.SliceSize)

	// Compositing is the expensive step; bail out if a newer upload took over
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	base := grid.BaseName(u.Filename)
	enc := grid.TileEncoder{Compression: s.opts.Compression}

	tiles, err := grid.Split(canvas, base, enc)
	if err != nil {
		return nil, err
	}

	return &Result{
		Filename:  u.Filename,
		BaseName:  base,
		MediaType: src.MediaType,
		Size:      src.Size,
		Width:     src.Width,
		Height:    src.Height,
		Layout:    l,
		Tiles:     tiles,
		canvas:    canvas.Image,
		encoder:   enc,
	}, nil
}

// Package bundles the tiles of r into a store-only ZIP archive.
func (s *Slicer) Package(ctx context.Context, r *Result) ([]byte, error) {
	if r == nil || len(r.Tiles) == 0 {
		return nil, grid.ErrNothingToPackage
	}

	data, err := archive.Pack(ctx, archive.FromTiles(r.Tiles))
	if err != nil {
		return nil, err
	}
	s.logger.Printf("packaged %d tiles into %s (%s)", len(r.Tiles), r.ArchiveName(), grid.FormatFileSize(int64(len(data))))
	return data, nil
}

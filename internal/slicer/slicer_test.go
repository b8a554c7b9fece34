package slicer

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"

	"github.com/kiesman99/ninegrid/pkg/grid"
)

func pngUpload(t *testing.T, name string, w, h int) grid.Upload {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 0x80, A: 0xff})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode fixture: %v", err)
	}
	return grid.Upload{
		Filename:    name,
		ContentType: "image/png",
		Size:        int64(buf.Len()),
		Body:        &buf,
	}
}

func TestSlice_TallImage(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxDimension = 120
	s := New(opts, nil)

	result, err := s.Slice(context.Background(), pngUpload(t, "portrait.png", 100, 200))
	if err != nil {
		t.Fatalf("Slice failed: %v", err)
	}

	if result.Dimensions() != "100 × 200" {
		t.Errorf("Expected dimensions '100 × 200', got %s", result.Dimensions())
	}
	if result.BaseName != "portrait" {
		t.Errorf("Expected base name 'portrait', got %s", result.BaseName)
	}

	l := result.Layout
	if l.ScaledWidth != 60 || l.ScaledHeight != 120 || l.CanvasSize != 120 || l.OffsetX != 30 || l.SliceSize != 40 {
		t.Errorf("Unexpected layout: %+v", l)
	}

	if len(result.Tiles) != grid.TileCount {
		t.Fatalf("Expected %d tiles, got %d", grid.TileCount, len(result.Tiles))
	}
	tile, ok := result.Tile(2, 1)
	if !ok || tile.Name != "portrait_3_2.png" {
		t.Errorf("Expected tile portrait_3_2.png, got %q (ok=%v)", tile.Name, ok)
	}
	if _, ok := result.Tile(3, 0); ok {
		t.Error("Expected out-of-range tile lookup to fail")
	}

	canvasPNG, err := result.CanvasPNG()
	if err != nil {
		t.Fatalf("CanvasPNG failed: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(canvasPNG))
	if err != nil {
		t.Fatalf("Canvas preview is not a PNG: %v", err)
	}
	if cfg.Width != 120 || cfg.Height != 120 {
		t.Errorf("Expected 120x120 canvas preview, got %dx%d", cfg.Width, cfg.Height)
	}
}

func TestSlice_Errors(t *testing.T) {
	s := New(DefaultOptions(), nil)

	testCases := []struct {
		name    string
		upload  grid.Upload
		wantErr error
	}{
		{
			name: "text file",
			upload: grid.Upload{
				Filename:    "readme.txt",
				ContentType: "text/plain",
				Size:        4,
				Body:        strings.NewReader("text"),
			},
			wantErr: grid.ErrInvalidMediaType,
		},
		{
			name: "15 MiB jpeg",
			upload: grid.Upload{
				Filename:    "huge.jpg",
				ContentType: "image/jpeg",
				Size:        15 << 20,
				Body:        strings.NewReader(""),
			},
			wantErr: grid.ErrFileTooLarge,
		},
		{
			name: "garbage png",
			upload: grid.Upload{
				Filename:    "bad.png",
				ContentType: "image/png",
				Size:        3,
				Body:        strings.NewReader("bad"),
			},
			wantErr: grid.ErrInvalidImage,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := s.Slice(context.Background(), tc.upload)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("Expected %v, got %v", tc.wantErr, err)
			}
			if result != nil {
				t.Error("Expected no result on failure")
			}
		})
	}
}

func TestPackage(t *testing.T) {
	s := New(DefaultOptions(), nil)

	result, err := s.Slice(context.Background(), pngUpload(t, "square.png", 30, 30))
	if err != nil {
		t.Fatalf("Slice failed: %v", err)
	}

	data, err := s.Package(context.Background(), result)
	if err != nil {
		t.Fatalf("Package failed: %v", err)
	}
	if result.ArchiveName() != "square_nine_grid.zip" {
		t.Errorf("Unexpected archive name: %s", result.ArchiveName())
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Archive is not a zip: %v", err)
	}
	if len(zr.File) != grid.TileCount {
		t.Fatalf("Expected %d entries, got %d", grid.TileCount, len(zr.File))
	}
	for i, f := range zr.File {
		if f.Name != result.Tiles[i].Name {
			t.Errorf("Entry %d: expected %s, got %s", i, result.Tiles[i].Name, f.Name)
		}
	}
}

func TestPackage_NothingToPackage(t *testing.T) {
	s := New(DefaultOptions(), nil)

	data, err := s.Package(context.Background(), nil)
	if !errors.Is(err, grid.ErrNothingToPackage) {
		t.Errorf("Expected ErrNothingToPackage, got %v", err)
	}
	if data != nil {
		t.Error("Expected no archive")
	}
}

package grid

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var red = color.NRGBA{R: 0xff, A: 0xff}

func solidImage(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// gradientImage has a distinct color per pixel so crops can be checked exactly.
func gradientImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: uint8(x ^ y), A: 0xff})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func nrgbaAt(img image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

func TestPlanLayout_TallSourceScenario(t *testing.T) {
	l, err := PlanLayout(1000, 2000, 1200)
	require.NoError(t, err)

	assert.Equal(t, 600, l.ScaledWidth)
	assert.Equal(t, 1200, l.ScaledHeight)
	assert.Equal(t, 1200, l.CanvasSize)
	assert.Equal(t, 300, l.OffsetX)
	assert.Equal(t, 0, l.OffsetY)
	assert.Equal(t, 400, l.SliceSize)
	assert.Equal(t, image.Rect(0, 0, 400, 400), l.TileRect(0, 0))
	assert.Equal(t, image.Rect(800, 800, 1200, 1200), l.TileRect(2, 2))
}

func TestPlanLayout_SizeCap(t *testing.T) {
	testCases := []struct {
		name          string
		width, height int
		max           int
		wantW, wantH  int
	}{
		{"wide over cap", 5000, 2500, 4000, 4000, 2000},
		{"tall over cap", 300, 6000, 1200, 60, 1200},
		{"square over cap", 4800, 4800, 1200, 1200, 1200},
		{"fits under cap", 800, 600, 1200, 800, 600},
		{"cap disabled", 9000, 100, 0, 9000, 100},
		{"exactly at cap", 1200, 900, 1200, 1200, 900},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			l, err := PlanLayout(tc.width, tc.height, tc.max)
			require.NoError(t, err)
			assert.Equal(t, tc.wantW, l.ScaledWidth)
			assert.Equal(t, tc.wantH, l.ScaledHeight)

			longest := tc.width
			if tc.height > longest {
				longest = tc.height
			}
			if tc.max > 0 && longest > tc.max {
				assert.LessOrEqual(t, l.CanvasSize, tc.max)
			} else {
				assert.False(t, l.Scaled())
				assert.Equal(t, longest, l.CanvasSize)
			}
		})
	}
}

func TestPlanLayout_Centering(t *testing.T) {
	for _, dims := range [][2]int{{1001, 400}, {400, 1001}, {7, 3}, {1999, 2000}} {
		l, err := PlanLayout(dims[0], dims[1], 0)
		require.NoError(t, err)

		padX := l.CanvasSize - l.ScaledWidth
		padY := l.CanvasSize - l.ScaledHeight
		assert.InDelta(t, float64(padX)/2, float64(l.OffsetX), 1)
		assert.InDelta(t, float64(padY)/2, float64(l.OffsetY), 1)
		assert.InDelta(t, float64(padX-l.OffsetX), float64(l.OffsetX), 1, "left and right padding differ")
		assert.InDelta(t, float64(padY-l.OffsetY), float64(l.OffsetY), 1, "top and bottom padding differ")
	}
}

func TestPlanLayout_Residual(t *testing.T) {
	l, err := PlanLayout(1001, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 333, l.SliceSize)
	assert.Equal(t, 2, l.Residual())
}

func TestPlanLayout_RejectsZeroDimension(t *testing.T) {
	_, err := PlanLayout(0, 100, 1200)
	assert.ErrorIs(t, err, ErrInvalidImage)

	_, err = PlanLayout(100, 0, 1200)
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestCompose_CentersOnWhite(t *testing.T) {
	src := NewSourceImage("wide.png", solidImage(90, 30, red))

	canvas, err := Compose(src, DefaultComposeOptions())
	require.NoError(t, err)

	b := canvas.Image.Bounds()
	assert.Equal(t, 90, b.Dx())
	assert.Equal(t, 90, b.Dy())
	assert.Equal(t, 30, canvas.Layout.OffsetY)

	// Padding above and below, image in the middle band
	assert.Equal(t, White, nrgbaAt(canvas.Image, 0, 0))
	assert.Equal(t, White, nrgbaAt(canvas.Image, 45, 29))
	assert.Equal(t, red, nrgbaAt(canvas.Image, 45, 30))
	assert.Equal(t, red, nrgbaAt(canvas.Image, 0, 59))
	assert.Equal(t, White, nrgbaAt(canvas.Image, 89, 60))
}

func TestCompose_DownscalesToCap(t *testing.T) {
	src := NewSourceImage("big.png", solidImage(400, 200, red))

	for _, r := range []Resampler{ResampleLanczos, ResampleCatmullRom, ResampleBilinear, ResampleNearest} {
		t.Run(string(r), func(t *testing.T) {
			canvas, err := Compose(src, ComposeOptions{MaxDimension: 120, Resampler: r})
			require.NoError(t, err)
			assert.Equal(t, 120, canvas.Layout.CanvasSize)
			assert.Equal(t, 60, canvas.Layout.ScaledHeight)
			assert.Equal(t, image.Rect(0, 0, 120, 120), canvas.Image.Bounds())
			assert.Equal(t, red, nrgbaAt(canvas.Image, 60, 60))
			assert.Equal(t, White, nrgbaAt(canvas.Image, 60, 5))
		})
	}
}

func TestCompose_BlendsTransparencyOverFill(t *testing.T) {
	src := NewSourceImage("clear.png", solidImage(6, 6, color.NRGBA{}))

	canvas, err := Compose(src, DefaultComposeOptions())
	require.NoError(t, err)
	assert.Equal(t, White, nrgbaAt(canvas.Image, 3, 3))
}

func TestCompose_CustomFill(t *testing.T) {
	fill := color.NRGBA{B: 0xff, A: 0xff}
	src := NewSourceImage("tall.png", solidImage(3, 9, red))

	canvas, err := Compose(src, ComposeOptions{Fill: fill})
	require.NoError(t, err)
	assert.Equal(t, fill, nrgbaAt(canvas.Image, 0, 0))
	assert.Equal(t, red, nrgbaAt(canvas.Image, 4, 4))
}

func TestCompose_RejectsEmptySource(t *testing.T) {
	_, err := Compose(&SourceImage{Image: image.NewNRGBA(image.Rect(0, 0, 0, 0))}, DefaultComposeOptions())
	assert.ErrorIs(t, err, ErrInvalidImage)

	_, err = Compose(nil, DefaultComposeOptions())
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestSplit_NineRowMajorTiles(t *testing.T) {
	src := NewSourceImage("photo.jpg", gradientImage(100, 60))
	canvas, err := Compose(src, DefaultComposeOptions())
	require.NoError(t, err)

	tiles, err := Split(canvas, BaseName(src.Filename), TileEncoder{})
	require.NoError(t, err)
	require.Len(t, tiles, TileCount)

	names := map[string]bool{}
	for i, tile := range tiles {
		assert.Equal(t, i/Cols, tile.Row)
		assert.Equal(t, i%Cols, tile.Col)
		assert.False(t, names[tile.Name], "duplicate tile name %s", tile.Name)
		names[tile.Name] = true

		img, err := png.Decode(bytes.NewReader(tile.Data))
		require.NoError(t, err, "tile %s must decode standalone", tile.Name)
		assert.Equal(t, 33, img.Bounds().Dx())
		assert.Equal(t, 33, img.Bounds().Dy())

		// Pixel-exact copy of the canvas region
		r := canvas.Layout.TileRect(tile.Row, tile.Col)
		for _, p := range []image.Point{{0, 0}, {32, 0}, {0, 32}, {16, 16}, {32, 32}} {
			assert.Equal(t, nrgbaAt(canvas.Image, r.Min.X+p.X, r.Min.Y+p.Y), nrgbaAt(img, p.X, p.Y))
		}
	}
	assert.Equal(t, "photo_1_1.png", tiles[0].Name)
	assert.Equal(t, "photo_2_3.png", tiles[5].Name)
	assert.Equal(t, "photo_3_3.png", tiles[8].Name)
}

func TestSplit_Idempotent(t *testing.T) {
	src := NewSourceImage("same.png", gradientImage(211, 97))
	opts := ComposeOptions{MaxDimension: 150, Resampler: ResampleLanczos}

	run := func() []EncodedTile {
		canvas, err := Compose(src, opts)
		require.NoError(t, err)
		tiles, err := Split(canvas, "same", TileEncoder{})
		require.NoError(t, err)
		return tiles
	}

	first, second := run(), run()
	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Name, second[i].Name)
		assert.True(t, bytes.Equal(first[i].Data, second[i].Data), "tile %s differs between runs", first[i].Name)
	}
}

func TestSplit_TooSmallCanvas(t *testing.T) {
	canvas, err := Compose(NewSourceImage("dot.png", solidImage(2, 1, red)), DefaultComposeOptions())
	require.NoError(t, err)

	_, err = Split(canvas, "dot", TileEncoder{})
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestSplit_CompressionDoesNotChangePixels(t *testing.T) {
	canvas, err := Compose(NewSourceImage("c.png", gradientImage(30, 30)), DefaultComposeOptions())
	require.NoError(t, err)

	fast, err := Split(canvas, "c", TileEncoder{Compression: png.BestSpeed})
	require.NoError(t, err)
	best, err := Split(canvas, "c", TileEncoder{Compression: png.BestCompression})
	require.NoError(t, err)

	for i := range fast {
		a, err := png.Decode(bytes.NewReader(fast[i].Data))
		require.NoError(t, err)
		b, err := png.Decode(bytes.NewReader(best[i].Data))
		require.NoError(t, err)
		assert.Equal(t, nrgbaAt(a, 5, 7), nrgbaAt(b, 5, 7))
	}
}

func TestParseOptions(t *testing.T) {
	r, err := ParseResampler("")
	require.NoError(t, err)
	assert.Equal(t, ResampleLanczos, r)

	r, err = ParseResampler("CatmullRom")
	require.NoError(t, err)
	assert.Equal(t, ResampleCatmullRom, r)

	_, err = ParseResampler("cubic")
	assert.Error(t, err)

	level, err := ParseCompression("best")
	require.NoError(t, err)
	assert.Equal(t, png.BestCompression, level)

	_, err = ParseCompression("ultra")
	assert.Error(t, err)
}

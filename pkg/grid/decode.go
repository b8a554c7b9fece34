package grid

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// sniffLen is how much of the body http.DetectContentType looks at.
const sniffLen = 512

// Decoder validates uploads and decodes them into SourceImages.
type Decoder struct {
	MaxFileSize int64 // bytes; 0 disables the cap
	MaxPixels   int64 // width*height; 0 disables the cap
}

// NewDecoder creates a decoder with the default caps
func NewDecoder() *Decoder {
	return &Decoder{
		MaxFileSize: DefaultMaxFileSize,
		MaxPixels:   DefaultMaxPixels,
	}
}

// Decode checks the media type and size of u and decodes it. Rejections
// happen before the pixel buffer is allocated.
func (d *Decoder) Decode(ctx context.Context, u Upload) (*SourceImage, error) {
	if u.Body == nil {
		return nil, fmt.Errorf("%w: empty upload", ErrInvalidImage)
	}

	// Reject on the declared type before reading anything
	mediaType := resolveMediaType(u.ContentType, u.Filename)
	if mediaType != "" && !isImageType(mediaType) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMediaType, mediaType)
	}

	if d.MaxFileSize > 0 && u.Size > d.MaxFileSize {
		return nil, d.tooLarge(u.Size)
	}

	r := u.Body
	if d.MaxFileSize > 0 {
		r = io.LimitReader(r, d.MaxFileSize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if d.MaxFileSize > 0 && int64(len(data)) > d.MaxFileSize {
		return nil, d.tooLarge(int64(len(data)))
	}

	if mediaType == "" {
		mediaType = sniffMediaType(data)
		if !isImageType(mediaType) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidMediaType, mediaType)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: zero dimension %dx%d", ErrInvalidImage, cfg.Width, cfg.Height)
	}
	if d.MaxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > d.MaxPixels {
		return nil, fmt.Errorf("%w: image dimensions %dx%d exceed limit", ErrFileTooLarge, cfg.Width, cfg.Height)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	bounds := img.Bounds()
	return &SourceImage{
		Filename:  u.Filename,
		MediaType: mediaType,
		Size:      int64(len(data)),
		Width:     bounds.Dx(),
		Height:    bounds.Dy(),
		Image:     img,
	}, nil
}

func (d *Decoder) tooLarge(size int64) error {
	return fmt.Errorf("%w: %s exceeds limit of %s", ErrFileTooLarge, FormatFileSize(size), FormatFileSize(d.MaxFileSize))
}

// resolveMediaType returns the declared type, or the type implied by the
// file extension. Empty means the content has to be sniffed.
func resolveMediaType(declared, filename string) string {
	if mt, _, err := mime.ParseMediaType(declared); err == nil && mt != "application/octet-stream" {
		return mt
	}
	if ext := filepath.Ext(filename); ext != "" {
		if mt, _, err := mime.ParseMediaType(mime.TypeByExtension(ext)); err == nil {
			return mt
		}
	}
	return ""
}

func sniffMediaType(data []byte) string {
	if len(data) > sniffLen {
		data = data[:sniffLen]
	}
	mt, _, err := mime.ParseMediaType(http.DetectContentType(data))
	if err != nil {
		return "application/octet-stream"
	}
	return mt
}

func isImageType(mediaType string) bool {
	return strings.HasPrefix(mediaType, "image/")
}

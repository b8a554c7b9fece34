// Package archive bundles encoded tiles into a single ZIP file.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/kiesman99/ninegrid/pkg/grid"
)

// Entry is one file inside the archive
type Entry struct {
	Name string
	Data []byte
}

// FromTiles converts tiles into archive entries, keeping their order.
func FromTiles(tiles []grid.EncodedTile) []Entry {
	entries := make([]Entry, len(tiles))
	for i, t := range tiles {
		entries[i] = Entry{Name: t.Name, Data: t.Data}
	}
	return entries
}

// Pack writes entries into a ZIP archive in the given order. Entries are
// stored without compression so the archived bytes are identical to the
// input; PNG data is already compressed.
func Pack(ctx context.Context, entries []Entry) ([]byte, error) {
	if len(entries) == 0 {
		return nil, grid.ErrNothingToPackage
	}

	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("archive entry without a name")
		}
		if _, dup := seen[e.Name]; dup {
			return nil, fmt.Errorf("duplicate archive entry: %s", e.Name)
		}
		seen[e.Name] = struct{}{}
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	modified := time.Now()

	for _, e := range entries {
		// Stop early if the caller no longer wants the result
		if err := ctx.Err(); err != nil {
			zw.Close()
			return nil, err
		}

		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     e.Name,
			Method:   zip.Store,
			Modified: modified,
		})
		if err != nil {
			return nil, fmt.Errorf("create entry %s: %w", e.Name, err)
		}
		if _, err := w.Write(e.Data); err != nil {
			return nil, fmt.Errorf("write entry %s: %w", e.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finish archive: %w", err)
	}
	return buf.Bytes(), nil
}

package grid

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	defaultTilePrefix  = "slice"
	defaultArchiveName = "nine_grid_slices.zip"
	tileExt            = "png"
)

// BaseName derives the name prefix from an uploaded filename: directories
// are stripped and everything from the first dot on is dropped, so
// "holiday.final.jpg" becomes "holiday". Returns "" when nothing is left.
func BaseName(filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSpace(name)
}

// TileName returns "<base>_<row+1>_<col+1>.png", or "slice_<row+1>_<col+1>.png"
// when base is empty. row and col are zero-based.
func TileName(base string, row, col int) string {
	if base == "" {
		base = defaultTilePrefix
	}
	return fmt.Sprintf("%s_%d_%d.%s", base, row+1, col+1, tileExt)
}

// ArchiveName returns "<base>_nine_grid.zip", or "nine_grid_slices.zip" when
// base is empty.
func ArchiveName(base string) string {
	if base == "" {
		return defaultArchiveName
	}
	return base + "_nine_grid.zip"
}

// Package proof renders a printable contact sheet of a nine-grid: the tiles
// laid out in their grid positions with small gutters, so the split can be
// checked before posting.
package proof

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/kiesman99/ninegrid/pkg/grid"
)

const (
	pageW     = 595
	margin    = 40
	gutter    = 6.0
	captionH  = 12.0
	titleSize = 16
	textSize  = 9
	labelSize = 7
)

// Sheet describes one proof page
type Sheet struct {
	Title    string
	Subtitle string
	Tiles    []grid.EncodedTile
}

// FileName returns the download name of the sheet for base.
func FileName(base string) string {
	if base == "" {
		return "nine_grid_proof.pdf"
	}
	return base + "_nine_grid_proof.pdf"
}

// Render returns the PDF bytes for s. All nine tiles are required.
func Render(s Sheet) ([]byte, error) {
	if len(s.Tiles) != grid.TileCount {
		return nil, fmt.Errorf("%w: proof sheet needs %d tiles, got %d", grid.ErrNothingToPackage, grid.TileCount, len(s.Tiles))
	}

	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetTextColor(30, 30, 30)
	pdf.SetFont("Helvetica", "B", titleSize)
	pdf.SetXY(margin, margin)
	pdf.CellFormat(pageW-2*margin, 18, tr(s.Title), "", 0, "L", false, 0, "")
	if s.Subtitle != "" {
		pdf.SetFont("Helvetica", "", textSize)
		pdf.SetXY(margin, margin+20)
		pdf.CellFormat(pageW-2*margin, 10, tr(s.Subtitle), "", 0, "L", false, 0, "")
	}

	cell := (pageW - 2*margin - (grid.Cols-1)*gutter) / grid.Cols
	top := float64(margin + 40)

	pdf.SetDrawColor(200, 200, 200)
	for _, t := range s.Tiles {
		x := margin + float64(t.Col)*(cell+gutter)
		y := top + float64(t.Row)*(cell+gutter+captionH)

		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader(t.Name, opts, bytes.NewReader(t.Data))
		pdf.ImageOptions(t.Name, x, y, cell, cell, false, opts, 0, "")
		pdf.Rect(x, y, cell, cell, "D")

		pdf.SetFont("Helvetica", "", labelSize)
		pdf.SetXY(x, y+cell+2)
		pdf.CellFormat(cell, captionH-2, tr(t.Name), "", 0, "C", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render proof sheet: %w", err)
	}
	return buf.Bytes(), nil
}

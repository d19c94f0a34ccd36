package render

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/doeshing/puremath/internal/domain"
)

const (
	documentFont       = "gofont"
	documentFontSize   = 11.0
	documentLineHeight = 6.0
	documentMargin     = 15.0

	truncationMarker = "[solution truncated]"
)

// documentRenderer lays lines out on A4 pages, starting a new page when one
// fills up. Text beyond maxPages pages is replaced by a truncation marker.
type documentRenderer struct {
	maxPages int
}

func (r *documentRenderer) render(lines []string) (domain.Artifact, error) {
	pdf := r.layout(lines)
	if err := pdf.Error(); err != nil {
		return domain.Artifact{}, fmt.Errorf("%w: layout pdf: %v", domain.ErrRenderFailed, err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return domain.Artifact{}, fmt.Errorf("%w: write pdf: %v", domain.ErrRenderFailed, err)
	}
	return domain.Artifact{Name: "solution.pdf", MIMEType: "application/pdf", Data: buf.Bytes()}, nil
}

func (r *documentRenderer) layout(lines []string) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(documentMargin, documentMargin, documentMargin)
	pdf.SetAutoPageBreak(false, documentMargin)
	pdf.AddUTF8FontFromBytes(documentFont, "", goregular.TTF)
	pdf.SetFont(documentFont, "", documentFontSize)
	pdf.SetTextColor(0x2e, 0x34, 0x40)
	pdf.SetTitle("Math Solution", true)

	_, pageHeight := pdf.GetPageSize()
	lines = capLines(lines, linesPerPage(pageHeight)*r.maxPages)

	pdf.AddPage()
	bottom := pageHeight - documentMargin
	for _, line := range lines {
		if pdf.GetY()+documentLineHeight > bottom {
			pdf.AddPage()
		}
		pdf.CellFormat(0, documentLineHeight, line, "", 1, "L", false, 0, "")
	}
	return pdf
}

func linesPerPage(pageHeight float64) int {
	return int((pageHeight - 2*documentMargin) / documentLineHeight)
}

// capLines keeps at most capacity lines, the last of which becomes the
// truncation marker when anything is dropped.
func capLines(lines []string, capacity int) []string {
	if capacity <= 0 || len(lines) <= capacity {
		return lines
	}
	out := make([]string, capacity)
	copy(out, lines[:capacity-1])
	out[capacity-1] = truncationMarker
	return out
}

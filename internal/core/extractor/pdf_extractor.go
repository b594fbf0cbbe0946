package extractor

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"

	"github.com/lexin-ta/lexin-api/internal/core"
)

// lineTolerance is the maximum vertical distance, in PDF layout units, between
// a word's baseline and the current line's anchor baseline for the word to
// still belong to that line.
const lineTolerance = 3.0

const (
	LineTypeTitle     = "title"
	LineTypeParagraph = "paragraph"
)

var _ core.TextExtractor = (*PDFExtractor)(nil)

// PDFExtractor reconstructs reading-order text lines from the word tokens of a
// PDF and classifies each line as a title or a paragraph.
type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor { return &PDFExtractor{} }

// Extract returns one classification and one text entry per reconstructed
// line, pages concatenated top to bottom. Bytes that are not a parseable PDF
// fail with core.ErrMalformedDocument.
func (e *PDFExtractor) Extract(data []byte) (contentType []string, contentText []string, err error) {
	// The pdf package panics on some truncated or corrupt inputs.
	defer func() {
		if r := recover(); r != nil {
			contentType, contentText = nil, nil
			err = fmt.Errorf("%w: %v", core.ErrMalformedDocument, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", core.ErrMalformedDocument, err)
	}

	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		for _, line := range buildPageLines(page.Content().Text) {
			contentText = append(contentText, line)
			contentType = append(contentType, classifyLine(line))
		}
	}

	return contentType, contentText, nil
}

// buildPageLines groups word tokens into reading-order lines. Tokens are
// sorted top to bottom then left to right; consecutive tokens share a line
// while their baseline stays within lineTolerance of the line's anchor.
func buildPageLines(words []pdf.Text) []string {
	if len(words) == 0 {
		return nil
	}

	sorted := make([]pdf.Text, len(words))
	copy(sorted, words)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y > sorted[j].Y // PDF y axis points up
		}
		return sorted[i].X < sorted[j].X
	})

	var lines []string
	current := []pdf.Text{sorted[0]}
	anchorY := sorted[0].Y

	flush := func() {
		sort.SliceStable(current, func(i, j int) bool { return current[i].X < current[j].X })
		parts := make([]string, 0, len(current))
		for _, w := range current {
			if s := strings.TrimSpace(w.S); s != "" {
				parts = append(parts, s)
			}
		}
		if len(parts) > 0 {
			lines = append(lines, strings.Join(parts, " "))
		}
	}

	for _, w := range sorted[1:] {
		if delta := anchorY - w.Y; delta > lineTolerance || delta < -lineTolerance {
			flush()
			current = current[:0]
			anchorY = w.Y
		}
		current = append(current, w)
	}
	flush()

	return lines
}

// classifyLine marks a line as a title when it reads as mostly uppercase:
// at least one A-Z character and no lowercase letters at all.
func classifyLine(line string) string {
	hasUpper := false
	for _, r := range line {
		if unicode.IsLower(r) {
			return LineTypeParagraph
		}
		if r >= 'A' && r <= 'Z' {
			hasUpper = true
		}
	}
	if hasUpper {
		return LineTypeTitle
	}
	return LineTypeParagraph
}

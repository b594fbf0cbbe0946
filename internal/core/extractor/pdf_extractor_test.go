package extractor

import (
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexin-ta/lexin-api/internal/core"
)

func word(s string, x, y float64) pdf.Text {
	return pdf.Text{S: s, X: x, Y: y}
}

func TestBuildPageLines_GroupsByBaseline(t *testing.T) {
	words := []pdf.Text{
		word("UNDANG-UNDANG", 10, 700),
		word("DASAR", 120, 701.5), // within tolerance of the 700 anchor
		word("1945", 200, 699),
		word("Pasal", 10, 680), // beyond tolerance, new line
		word("1", 60, 680),
	}

	lines := buildPageLines(words)

	require.Len(t, lines, 2)
	assert.Equal(t, "UNDANG-UNDANG DASAR 1945", lines[0])
	assert.Equal(t, "Pasal 1", lines[1])
}

func TestBuildPageLines_RestoresLeftToRightOrder(t *testing.T) {
	// Same baseline but emitted out of horizontal order.
	words := []pdf.Text{
		word("tentang", 150, 500),
		word("mengatur", 80, 500),
		word("Pasal 1", 10, 500),
	}

	lines := buildPageLines(words)

	require.Len(t, lines, 1)
	assert.Equal(t, "Pasal 1 mengatur tentang", lines[0])
}

func TestBuildPageLines_TopToBottom(t *testing.T) {
	words := []pdf.Text{
		word("bawah", 10, 100),
		word("ATAS", 10, 700),
		word("tengah", 10, 400),
	}

	assert.Equal(t, []string{"ATAS", "tengah", "bawah"}, buildPageLines(words))
}

func TestBuildPageLines_AnchorDoesNotDrift(t *testing.T) {
	// Every word is within tolerance of its neighbour but the third is beyond
	// the anchor; grouping is against the line anchor, not the previous word.
	words := []pdf.Text{
		word("a", 10, 100),
		word("b", 20, 97.5),
		word("c", 30, 95),
	}

	lines := buildPageLines(words)
	require.Len(t, lines, 2)
	assert.Equal(t, "a b", lines[0])
	assert.Equal(t, "c", lines[1])
}

func TestBuildPageLines_Empty(t *testing.T) {
	assert.Nil(t, buildPageLines(nil))
}

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"UNDANG-UNDANG DASAR 1945", LineTypeTitle},
		{"BAB I", LineTypeTitle},
		{"PASAL 33 AYAT (1)", LineTypeTitle},
		{"Pasal 1 mengatur tentang...", LineTypeParagraph},
		{"UNDANG-UNDANG nomor 12", LineTypeParagraph},
		{"1945", LineTypeParagraph}, // digits only, no A-Z
		{"---", LineTypeParagraph},
		{"", LineTypeParagraph},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyLine(tt.line))
		})
	}
}

func TestExtract_MalformedBytes(t *testing.T) {
	e := NewPDFExtractor()

	_, _, err := e.Extract([]byte("definitely not a pdf"))

	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrMalformedDocument)
}

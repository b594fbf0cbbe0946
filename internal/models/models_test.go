package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentRef_UnmarshalObject(t *testing.T) {
	var ref DocumentRef
	err := json.Unmarshal([]byte(`{"id":"uu-no-1-tahun-1974","title":"UU Perkawinan"}`), &ref)

	require.NoError(t, err)
	assert.Equal(t, "uu-no-1-tahun-1974", ref.ID)
	assert.Equal(t, "UU Perkawinan", ref.Title)
}

func TestDocumentRef_UnmarshalLegacyString(t *testing.T) {
	var ref DocumentRef
	err := json.Unmarshal([]byte(`"UU Perkawinan"`), &ref)

	require.NoError(t, err)
	assert.Empty(t, ref.ID)
	assert.Equal(t, "UU Perkawinan", ref.Title)
}

func TestDocumentRef_RejectsOtherShapes(t *testing.T) {
	for _, raw := range []string{`42`, `[1,2]`, `true`, `null`} {
		var ref DocumentRef
		assert.Error(t, json.Unmarshal([]byte(raw), &ref), "input %s", raw)
	}
}

func TestDocumentRef_MixedRelationList(t *testing.T) {
	var refs []DocumentRef
	err := json.Unmarshal([]byte(`[{"id":"a","title":"A"},"B"]`), &refs)

	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, DocumentRef{ID: "a", Title: "A"}, refs[0])
	assert.Equal(t, DocumentRef{ID: "", Title: "B"}, refs[1])
}

func TestNumber_UnmarshalBothEncodings(t *testing.T) {
	var n Number
	require.NoError(t, json.Unmarshal([]byte(`"53"`), &n))
	assert.Equal(t, Number("53"), n)

	require.NoError(t, json.Unmarshal([]byte(`53`), &n))
	assert.Equal(t, Number("53"), n)

	assert.Error(t, json.Unmarshal([]byte(`true`), &n))
}

func validDocument() LegalDocument {
	return LegalDocument{
		LegalDocumentMetadata: LegalDocumentMetadata{
			ID:                   "uu-no-53-tahun-2024",
			Title:                "Undang-undang Nomor 53 Tahun 2024",
			JenisBentukPeraturan: "UNDANG-UNDANG",
			Pemrakarsa:           "PEMERINTAH PUSAT",
			Tahun:                2024,
			Tentang:              "KOTA BUKITTINGGI DI PROVINSI SUMATERA BARAT",
			Status:               "Berlaku",
			Filenames:            []string{"a.pdf", "b.pdf"},
		},
		ResourceURLs: []string{"https://x/a.pdf", "https://x/b.pdf"},
		ContentType:  [][]string{{"title"}, {"title", "paragraph"}},
		ContentText:  [][]string{{"BAB I"}, {"BAB II", "isi"}},
	}
}

func TestValidate_OK(t *testing.T) {
	doc := validDocument()
	assert.NoError(t, doc.Validate())
}

func TestValidate_RequiredFields(t *testing.T) {
	doc := validDocument()
	doc.Title = ""
	err := doc.Validate()

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "title", verr.Field)
}

func TestValidate_Year(t *testing.T) {
	doc := validDocument()
	doc.Tahun = 0

	var verr *ValidationError
	require.ErrorAs(t, doc.Validate(), &verr)
	assert.Equal(t, "tahun", verr.Field)
}

func TestValidate_ArrayAlignment(t *testing.T) {
	doc := validDocument()
	doc.ResourceURLs = doc.ResourceURLs[:1]

	var verr *ValidationError
	require.ErrorAs(t, doc.Validate(), &verr)
	assert.Equal(t, "resource_urls", verr.Field)

	doc = validDocument()
	doc.ContentType[1] = []string{"title"}
	require.ErrorAs(t, doc.Validate(), &verr)
	assert.Equal(t, "content_type", verr.Field)

	doc = validDocument()
	doc.Filenames = nil
	require.ErrorAs(t, doc.Validate(), &verr)
	assert.Equal(t, "filenames", verr.Field)
}

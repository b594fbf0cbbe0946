package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// DocumentRef is a weak reference to another legal document. Nothing enforces
// that the referenced id exists in the index; a dangling id is a valid value.
//
// Older metadata crawls encode relation entries as plain title strings instead
// of {id, title} objects. Those are normalized here to a ref with an empty id.
// Any other JSON shape is rejected.
type DocumentRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func (r *DocumentRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty relation entry")
	}

	switch data[0] {
	case '"':
		var title string
		if err := json.Unmarshal(data, &title); err != nil {
			return err
		}
		r.ID = ""
		r.Title = title
		return nil
	case '{':
		type refAlias DocumentRef
		var alias refAlias
		if err := json.Unmarshal(data, &alias); err != nil {
			return err
		}
		*r = DocumentRef(alias)
		return nil
	default:
		return fmt.Errorf("relation entry must be a string or an {id, title} object, got %s", data)
	}
}

// Number accepts both string and bare numeric JSON encodings. Regulation
// numbers are strings in recent metadata crawls but integers in older ones.
type Number string

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = Number(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("number must be a string or numeric literal: %w", err)
	}
	*n = Number(num.String())
	return nil
}

// LegalDocumentMetadata is one record of the metadata.json manifest inside an
// uploaded archive. Field names follow the upstream peraturan.go.id crawl.
type LegalDocumentMetadata struct {
	// Concise fields.
	ID                    string `json:"id"`
	Title                 string `json:"title"`
	JenisBentukPeraturan  string `json:"jenis_bentuk_peraturan"`
	Pemrakarsa            string `json:"pemrakarsa"`
	Nomor                 Number `json:"nomor"`
	Tahun                 int    `json:"tahun"`
	Tentang               string `json:"tentang"`
	TempatPenetapan       string `json:"tempat_penetapan"`
	DitetapkanTanggal     string `json:"ditetapkan_tanggal"`
	PejabatYangMenetapkan string `json:"pejabat_yang_menetapkan"`
	Status                string `json:"status"`

	// Extra fields (promulgation).
	TahunPengundangan   *int   `json:"tahun_pengundangan"`
	TanggalPengundangan string `json:"tanggal_pengundangan"`
	NomorPengundangan   *int   `json:"nomor_pengundangan"`
	NomorTambahan       *int   `json:"nomor_tambahan"`
	PejabatPengundangan string `json:"pejabat_pengundangan"`

	// Relations to other legal documents (weak references).
	DasarHukum                         []DocumentRef `json:"dasar_hukum"`
	Mengubah                           []DocumentRef `json:"mengubah"`
	DiubahOleh                         []DocumentRef `json:"diubah_oleh"`
	Mencabut                           []DocumentRef `json:"mencabut"`
	DicabutOleh                        []DocumentRef `json:"dicabut_oleh"`
	MelaksanakanAmanatPeraturan        []DocumentRef `json:"melaksanakan_amanat_peraturan"`
	DilaksanakanOlehPeraturanPelaksana []DocumentRef `json:"dilaksanakan_oleh_peraturan_pelaksana"`

	// Physical files belonging to this document and their upstream sources.
	Filenames     []string `json:"filenames"`
	ReferenceURLs []string `json:"reference_urls"`
}

// LegalDocument is the unit stored in the search index, keyed by the
// caller-assigned slug id from the manifest.
//
// Filenames, ResourceURLs, ContentType and ContentText are index-aligned: one
// entry per physical file, in the order the manifest declared the filenames.
// ContentType[i] and ContentText[i] hold one classified line each and are
// themselves equal-length.
type LegalDocument struct {
	LegalDocumentMetadata

	ResourceURLs []string   `json:"resource_urls"`
	ContentType  [][]string `json:"content_type"`
	ContentText  [][]string `json:"content_text"`
}

// ValidationError reports a metadata record that fails the LegalDocument shape.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid legal document: %s: %s", e.Field, e.Reason)
}

// Validate checks the document against the index schema before any write.
func (d *LegalDocument) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"id", d.ID},
		{"title", d.Title},
		{"jenis_bentuk_peraturan", d.JenisBentukPeraturan},
		{"pemrakarsa", d.Pemrakarsa},
		{"tentang", d.Tentang},
		{"status", d.Status},
	}
	for _, r := range required {
		if r.value == "" {
			return &ValidationError{Field: r.field, Reason: "required"}
		}
	}
	if d.Tahun <= 0 {
		return &ValidationError{Field: "tahun", Reason: "must be a positive year"}
	}
	if len(d.Filenames) == 0 {
		return &ValidationError{Field: "filenames", Reason: "at least one file required"}
	}

	n := len(d.Filenames)
	if len(d.ResourceURLs) != n {
		return &ValidationError{Field: "resource_urls", Reason: fmt.Sprintf("want %d entries, got %d", n, len(d.ResourceURLs))}
	}
	if len(d.ContentType) != n {
		return &ValidationError{Field: "content_type", Reason: fmt.Sprintf("want %d entries, got %d", n, len(d.ContentType))}
	}
	if len(d.ContentText) != n {
		return &ValidationError{Field: "content_text", Reason: fmt.Sprintf("want %d entries, got %d", n, len(d.ContentText))}
	}
	for i := range d.ContentType {
		if len(d.ContentType[i]) != len(d.ContentText[i]) {
			return &ValidationError{
				Field:  "content_type",
				Reason: fmt.Sprintf("file %d: %d classifications for %d lines", i, len(d.ContentType[i]), len(d.ContentText[i])),
			}
		}
	}
	return nil
}

// DocumentUploadResult describes one document that made it into the index.
type DocumentUploadResult struct {
	ID           string   `json:"id"`
	Filenames    []string `json:"filenames"`
	ResourceURLs []string `json:"resource_urls"`
}

// FailedUpload describes one document or archive member that did not.
type FailedUpload struct {
	Ref    string `json:"ref"`
	Reason string `json:"reason"`
}

// IngestArchiveResult is the full partition of an archive ingestion.
type IngestArchiveResult struct {
	Succeeded      []DocumentUploadResult `json:"successful_upload"`
	Failed         []FailedUpload         `json:"failed_upload"`
	ElapsedSeconds float64                `json:"elapsed_seconds"`
}

// LegalDocumentBookmark joins a user to a document id. The document id is a
// weak reference into the search index; no existence check is made on create.
type LegalDocumentBookmark struct {
	ID         string    `json:"id" db:"id"`
	UserID     string    `json:"user_id" db:"user_id"`
	DocumentID string    `json:"document_id" db:"document_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

package searchclient

// nestedRef is the mapping for a relation list of {id, title} references.
var nestedRef = map[string]any{
	"type": "nested",
	"properties": map[string]any{
		"id":    map[string]any{"type": "text"},
		"title": map[string]any{"type": "text"},
	},
}

// legalDocumentMappings is the index schema for legal documents. Dates use the
// dd-MM-yyyy format the upstream crawl emits.
var legalDocumentMappings = map[string]any{
	"mappings": map[string]any{
		"properties": map[string]any{
			// Concise mappings.
			"title":                   map[string]any{"type": "text"},
			"jenis_bentuk_peraturan":  map[string]any{"type": "keyword"},
			"pemrakarsa":              map[string]any{"type": "keyword"},
			"nomor":                   map[string]any{"type": "keyword"},
			"tahun":                   map[string]any{"type": "integer"},
			"tentang":                 map[string]any{"type": "text"},
			"tempat_penetapan":        map[string]any{"type": "keyword"},
			"ditetapkan_tanggal":      map[string]any{"type": "date", "format": "dd-MM-yyyy"},
			"pejabat_yang_menetapkan": map[string]any{"type": "keyword"},
			"status":                  map[string]any{"type": "keyword"},

			// Extra mappings.
			"tahun_pengundangan":   map[string]any{"type": "integer"},
			"tanggal_pengundangan": map[string]any{"type": "date", "format": "dd-MM-yyyy"},
			"nomor_pengundangan":   map[string]any{"type": "integer"},
			"nomor_tambahan":       map[string]any{"type": "integer"},
			"pejabat_pengundangan": map[string]any{"type": "keyword"},

			// Relation lists.
			"dasar_hukum":                           nestedRef,
			"mengubah":                              nestedRef,
			"diubah_oleh":                           nestedRef,
			"mencabut":                              nestedRef,
			"dicabut_oleh":                          nestedRef,
			"melaksanakan_amanat_peraturan":         nestedRef,
			"dilaksanakan_oleh_peraturan_pelaksana": nestedRef,

			// Per-file parallel arrays.
			"filenames":      map[string]any{"type": "text"},
			"resource_urls":  map[string]any{"type": "text"},
			"reference_urls": map[string]any{"type": "text"},
			"content_type":   map[string]any{"type": "keyword"},
			"content_text":   map[string]any{"type": "text"},
		},
	},
}

package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lexin-ta/lexin-api/internal/core"
	objectclient "github.com/lexin-ta/lexin-api/internal/core/object-client"
	"github.com/lexin-ta/lexin-api/internal/models"
)

// metadataMatchFields are all concise/extra metadata fields plus the full
// text, matched by the free-text query. The integer/date fields are included
// so a query like "2024" hits the structured year and date values; the
// multi_match runs lenient for them.
var metadataMatchFields = []string{
	"title",
	"jenis_bentuk_peraturan",
	"pemrakarsa",
	"nomor",
	"tahun",
	"tentang",
	"tempat_penetapan",
	"ditetapkan_tanggal",
	"pejabat_yang_menetapkan",
	"status",
	"tahun_pengundangan",
	"tanggal_pengundangan",
	"nomor_pengundangan",
	"nomor_tambahan",
	"pejabat_pengundangan",
	"filenames",
	"content_text",
}

// relationFields are matched through nested queries against their title
// sub-field so a hit in a related document's title counts toward the parent.
var relationFields = []string{
	"dasar_hukum",
	"mengubah",
	"diubah_oleh",
	"mencabut",
	"dicabut_oleh",
	"melaksanakan_amanat_peraturan",
	"dilaksanakan_oleh_peraturan_pelaksana",
}

// categoryWeights is the hand-tuned per-tier relevance multiplier, top of the
// regulatory hierarchy first.
var categoryWeights = []struct {
	Category string
	Weight   float64
}{
	{"UNDANG-UNDANG DASAR", 2.4},
	{"UNDANG-UNDANG", 2.0},
	{"PERATURAN PEMERINTAH", 1.8},
	{"PERATURAN PRESIDEN", 1.6},
	{"PERATURAN MENTERI", 1.4},
	{"PERATURAN DAERAH", 1.2},
	{"PERATURAN BADAN/LEMBAGA", 1.0},
}

const (
	defaultPageSize = 10

	// recencyScale is the window of the linear date decay: a document enacted
	// 365 days ago scores half as much from the decay function as one enacted
	// today.
	recencyScale = "365d"
	recencyDecay = 0.5
)

// SearchParams are the caller-facing knobs of a relevance query.
type SearchParams struct {
	Query      string
	Page       int
	Size       int
	Categories []string
	Status     string
	SortField  string
}

// SearchPage is one page of scored hits plus the facet counts of the whole
// query population (filters are applied post-scoring, so facet counts ignore
// them).
type SearchPage struct {
	Page         int                                 `json:"page"`
	Size         int                                 `json:"size"`
	TotalHits    int64                               `json:"total_hits"`
	TotalPages   int64                               `json:"total_pages"`
	Hits         []core.SearchHit                    `json:"hits"`
	Aggregations map[string][]core.AggregationBucket `json:"aggregations"`
}

// ContentLine is one classified line of a document file.
type ContentLine struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// LegalDocumentService builds relevance queries, executes faceted paginated
// search, and serves single/bulk detail lookups over the document index.
type LegalDocumentService struct {
	search core.SearchClient
	obj    core.ObjectClient
	index  string
	bucket string
	folder string
}

func NewLegalDocumentService(search core.SearchClient, obj core.ObjectClient, index, bucket, folder string) *LegalDocumentService {
	return &LegalDocumentService{search: search, obj: obj, index: index, bucket: bucket, folder: folder}
}

// CreateMapping creates the document index schema. Administrative.
func (s *LegalDocumentService) CreateMapping(ctx context.Context) error {
	return s.search.CreateMapping(ctx, s.index)
}

// DeleteMapping tears the document index down, then clears the orphaned
// blobs under the document folder. Administrative.
func (s *LegalDocumentService) DeleteMapping(ctx context.Context) error {
	if err := s.search.DeleteMapping(ctx, s.index); err != nil {
		return err
	}
	s.obj.ClearBucket(ctx, s.bucket, s.folder)
	return nil
}

// Search runs the relevance query and returns one page of hits with facets.
func (s *LegalDocumentService) Search(ctx context.Context, params SearchParams) (*SearchPage, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Size < 1 {
		params.Size = defaultPageSize
	}

	result, err := s.search.Search(ctx, s.index, buildSearchBody(params))
	if err != nil {
		return nil, err
	}

	return &SearchPage{
		Page:         params.Page,
		Size:         params.Size,
		TotalHits:    result.TotalHits,
		TotalPages:   totalPages(result.TotalHits, params.Size),
		Hits:         result.Hits,
		Aggregations: result.Aggregations,
	}, nil
}

// buildSearchBody assembles the function_score query: a multi-field match
// over all metadata plus nested relation-title matches, rescored by a linear
// recency decay and the per-category weight table. The contributing functions
// are averaged, not summed, then multiplied into the base match score.
// Category/status filters are applied as a post_filter so the aggregations
// keep counting the pre-filter query population.
func buildSearchBody(params SearchParams) map[string]any {
	should := []any{
		map[string]any{
			"multi_match": map[string]any{
				"query":   params.Query,
				"fields":  metadataMatchFields,
				"lenient": true,
			},
		},
	}
	for _, field := range relationFields {
		should = append(should, map[string]any{
			"nested": map[string]any{
				"path": field,
				"query": map[string]any{
					"match": map[string]any{
						field + ".title": params.Query,
					},
				},
			},
		})
	}

	functions := []any{
		map[string]any{
			"linear": map[string]any{
				"ditetapkan_tanggal": map[string]any{
					"origin": "now",
					"scale":  recencyScale,
					"decay":  recencyDecay,
				},
			},
		},
	}
	for _, cw := range categoryWeights {
		functions = append(functions, map[string]any{
			"filter": map[string]any{
				"term": map[string]any{"jenis_bentuk_peraturan": cw.Category},
			},
			"weight": cw.Weight,
		})
	}

	body := map[string]any{
		"from": (params.Page - 1) * params.Size,
		"size": params.Size,
		"query": map[string]any{
			"function_score": map[string]any{
				"query": map[string]any{
					"bool": map[string]any{
						"should":               should,
						"minimum_should_match": 1,
					},
				},
				"functions":  functions,
				"score_mode": "avg",
				"boost_mode": "multiply",
			},
		},
		"aggs": map[string]any{
			"jenis_bentuk_peraturan": map[string]any{
				"terms": map[string]any{"field": "jenis_bentuk_peraturan"},
			},
			"status": map[string]any{
				"terms": map[string]any{"field": "status"},
			},
		},
	}

	var filters []any
	if len(params.Categories) > 0 {
		filters = append(filters, map[string]any{
			"terms": map[string]any{"jenis_bentuk_peraturan": params.Categories},
		})
	}
	if params.Status != "" {
		filters = append(filters, map[string]any{
			"term": map[string]any{"status": params.Status},
		})
	}
	if len(filters) > 0 {
		body["post_filter"] = map[string]any{
			"bool": map[string]any{
				"should":               filters,
				"minimum_should_match": 1,
			},
		}
	}

	if params.SortField != "" {
		body["sort"] = []any{
			map[string]any{params.SortField: map[string]any{"order": "desc"}},
		}
	}

	return body
}

func totalPages(totalHits int64, size int) int64 {
	if totalHits <= 0 {
		return 0
	}
	return (totalHits + int64(size) - 1) / int64(size)
}

// GetDocumentDetail returns the full record minus the bulky per-file line
// arrays.
func (s *LegalDocumentService) GetDocumentDetail(ctx context.Context, id string) (map[string]any, error) {
	raw, err := s.search.GetDocument(ctx, s.index, id)
	if err != nil {
		return nil, err
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", id, err)
	}
	delete(doc, "content_type")
	delete(doc, "content_text")
	return doc, nil
}

// GetDocumentContentPage slices the classified line arrays of one file
// directly: no re-query of the index beyond the single get. A page beyond the
// end yields an empty slice.
func (s *LegalDocumentService) GetDocumentContentPage(ctx context.Context, id string, fileIndex, pageNumber, pageSize int) ([]ContentLine, error) {
	if pageNumber < 1 {
		pageNumber = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	raw, err := s.search.GetDocument(ctx, s.index, id)
	if err != nil {
		return nil, err
	}

	var doc models.LegalDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", id, err)
	}
	if fileIndex < 0 || fileIndex >= len(doc.ContentText) {
		return nil, fmt.Errorf("%w: file index %d out of range", core.ErrResourceNotFound, fileIndex)
	}

	types := doc.ContentType[fileIndex]
	texts := doc.ContentText[fileIndex]

	start := (pageNumber - 1) * pageSize
	end := start + pageSize
	if start > len(texts) {
		start = len(texts)
	}
	if end > len(texts) {
		end = len(texts)
	}

	lines := make([]ContentLine, 0, end-start)
	for i := start; i < end; i++ {
		lines = append(lines, ContentLine{Type: types[i], Content: texts[i]})
	}
	return lines, nil
}

// GetDocumentsByIDList returns concise projections (metadata only, text and
// url arrays excluded) for the given ids. Unknown ids are simply absent from
// the result.
func (s *LegalDocumentService) GetDocumentsByIDList(ctx context.Context, ids []string) ([]json.RawMessage, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	body := map[string]any{
		"size": len(ids),
		"query": map[string]any{
			"ids": map[string]any{"values": ids},
		},
		"_source": map[string]any{
			"excludes": []string{"content_type", "content_text", "resource_urls", "reference_urls"},
		},
	}

	result, err := s.search.Search(ctx, s.index, body)
	if err != nil {
		return nil, err
	}

	docs := make([]json.RawMessage, 0, len(result.Hits))
	for _, hit := range result.Hits {
		docs = append(docs, hit.Source)
	}
	return docs, nil
}

// GetDistinctFieldValues returns the top-size most frequent values of a field,
// for building filter UIs.
func (s *LegalDocumentService) GetDistinctFieldValues(ctx context.Context, field string, size int) ([]core.AggregationBucket, error) {
	if size < 1 {
		size = defaultPageSize
	}

	body := map[string]any{
		"size": 0,
		"aggs": map[string]any{
			"distinct_values": map[string]any{
				"terms": map[string]any{"field": field, "size": size},
			},
		},
	}

	result, err := s.search.Search(ctx, s.index, body)
	if err != nil {
		return nil, err
	}
	return result.Aggregations["distinct_values"], nil
}

// DownloadDocumentFile streams one original PDF back from the blob store,
// resolved through the document's stored resource locator.
func (s *LegalDocumentService) DownloadDocumentFile(ctx context.Context, id string, fileIndex int) (data []byte, filename string, err error) {
	raw, err := s.search.GetDocument(ctx, s.index, id)
	if err != nil {
		return nil, "", err
	}

	var doc models.LegalDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, "", fmt.Errorf("decode document %s: %w", id, err)
	}
	if fileIndex < 0 || fileIndex >= len(doc.ResourceURLs) {
		return nil, "", fmt.Errorf("%w: file index %d out of range", core.ErrResourceNotFound, fileIndex)
	}

	resourceURL := doc.ResourceURLs[fileIndex]
	if resourceURL == "" {
		return nil, "", fmt.Errorf("%w: no resource url for file %d", core.ErrResourceNotFound, fileIndex)
	}

	bucket, key := objectclient.ParseObjectURL(resourceURL)
	data, err = s.obj.GetFile(ctx, bucket, key)
	if err != nil {
		return nil, "", err
	}

	if fileIndex < len(doc.Filenames) {
		filename = doc.Filenames[fileIndex]
	}
	return data, filename, nil
}

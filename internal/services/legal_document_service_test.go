package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexin-ta/lexin-api/internal/core"
)

// fakeSearchClient records the last body it was given and replays canned
// responses.
type fakeSearchClient struct {
	lastIndex    string
	lastBody     map[string]any
	deletedIndex string

	searchResult *core.SearchResult
	searchErr    error
	document     json.RawMessage
	documentErr  error
}

func (f *fakeSearchClient) CreateMapping(context.Context, string) error { return nil }

func (f *fakeSearchClient) DeleteMapping(_ context.Context, index string) error {
	f.deletedIndex = index
	return nil
}
func (f *fakeSearchClient) DocumentExists(context.Context, string, string) (bool, error) {
	return false, nil
}
func (f *fakeSearchClient) IndexDocument(context.Context, string, string, any) error { return nil }

func (f *fakeSearchClient) GetDocument(_ context.Context, _, _ string) (json.RawMessage, error) {
	return f.document, f.documentErr
}

func (f *fakeSearchClient) Search(_ context.Context, index string, body map[string]any) (*core.SearchResult, error) {
	f.lastIndex = index
	f.lastBody = body
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if f.searchResult != nil {
		return f.searchResult, nil
	}
	return &core.SearchResult{}, nil
}

type fakeObjectStore struct {
	gotBucket string
	gotKey    string
	data      []byte
	err       error

	clearedBucket string
	clearedPrefix string
}

func (f *fakeObjectStore) UploadFile(context.Context, string, string, []byte, string) (string, error) {
	return "", nil
}
func (f *fakeObjectStore) DeleteFile(context.Context, string, string) error { return nil }
func (f *fakeObjectStore) GetFile(_ context.Context, bucket, key string) ([]byte, error) {
	f.gotBucket = bucket
	f.gotKey = key
	return f.data, f.err
}
func (f *fakeObjectStore) ClearBucket(_ context.Context, bucket, prefix string) {
	f.clearedBucket = bucket
	f.clearedPrefix = prefix
}

func newTestDocumentService(search *fakeSearchClient, obj *fakeObjectStore) *LegalDocumentService {
	if obj == nil {
		obj = &fakeObjectStore{}
	}
	return NewLegalDocumentService(search, obj, "legal_document", "lexin-docs", "legal_document")
}

func TestBuildSearchBody(t *testing.T) {
	body := buildSearchBody(SearchParams{
		Query:      "cipta kerja",
		Page:       3,
		Size:       10,
		Categories: []string{"UNDANG-UNDANG"},
		Status:     "Berlaku",
		SortField:  "tahun",
	})

	assert.Equal(t, 20, body["from"])
	assert.Equal(t, 10, body["size"])

	fs := body["query"].(map[string]any)["function_score"].(map[string]any)
	assert.Equal(t, "avg", fs["score_mode"])
	assert.Equal(t, "multiply", fs["boost_mode"])

	// One multi_match plus one nested clause per relation list.
	boolQuery := fs["query"].(map[string]any)["bool"].(map[string]any)
	should := boolQuery["should"].([]any)
	require.Len(t, should, 1+len(relationFields))
	assert.Equal(t, 1, boolQuery["minimum_should_match"])

	// Every concise/extra metadata field is matched, including the integer
	// and date ones; lenient keeps a text query from erroring against them.
	multiMatch := should[0].(map[string]any)["multi_match"].(map[string]any)
	assert.Equal(t, "cipta kerja", multiMatch["query"])
	assert.Equal(t, true, multiMatch["lenient"])
	assert.Equal(t, []string{
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
	}, multiMatch["fields"])

	nested := should[1].(map[string]any)["nested"].(map[string]any)
	assert.Equal(t, "dasar_hukum", nested["path"])
	match := nested["query"].(map[string]any)["match"].(map[string]any)
	assert.Equal(t, "cipta kerja", match["dasar_hukum.title"])

	// Decay function first, then one weighted filter per category tier.
	functions := fs["functions"].([]any)
	require.Len(t, functions, 1+len(categoryWeights))

	decay := functions[0].(map[string]any)["linear"].(map[string]any)["ditetapkan_tanggal"].(map[string]any)
	assert.Equal(t, "now", decay["origin"])
	assert.Equal(t, "365d", decay["scale"])
	assert.Equal(t, 0.5, decay["decay"])

	top := functions[1].(map[string]any)
	assert.Equal(t, 2.4, top["weight"])
	term := top["filter"].(map[string]any)["term"].(map[string]any)
	assert.Equal(t, "UNDANG-UNDANG DASAR", term["jenis_bentuk_peraturan"])

	// Filters live in post_filter so facet counts stay pre-filter.
	postFilter := body["post_filter"].(map[string]any)["bool"].(map[string]any)
	filters := postFilter["should"].([]any)
	require.Len(t, filters, 2)
	terms := filters[0].(map[string]any)["terms"].(map[string]any)
	assert.Equal(t, []string{"UNDANG-UNDANG"}, terms["jenis_bentuk_peraturan"])

	aggs := body["aggs"].(map[string]any)
	assert.Contains(t, aggs, "jenis_bentuk_peraturan")
	assert.Contains(t, aggs, "status")

	sort := body["sort"].([]any)
	require.Len(t, sort, 1)
	assert.Equal(t,
		map[string]any{"order": "desc"},
		sort[0].(map[string]any)["tahun"])
}

func TestBuildSearchBody_NoFiltersNoSort(t *testing.T) {
	body := buildSearchBody(SearchParams{Query: "pajak", Page: 1, Size: 10})

	assert.NotContains(t, body, "post_filter")
	assert.NotContains(t, body, "sort")
	assert.Equal(t, 0, body["from"])
}

func TestDeleteMapping_ClearsDocumentFolder(t *testing.T) {
	search := &fakeSearchClient{}
	obj := &fakeObjectStore{}
	svc := newTestDocumentService(search, obj)

	require.NoError(t, svc.DeleteMapping(context.Background()))

	assert.Equal(t, "legal_document", search.deletedIndex)
	assert.Equal(t, "lexin-docs", obj.clearedBucket)
	assert.Equal(t, "legal_document", obj.clearedPrefix)
}

func TestTotalPages(t *testing.T) {
	cases := []struct {
		hits int64
		size int
		want int64
	}{
		{0, 10, 0},
		{-5, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{25, 10, 3},
		{30, 10, 3},
		{31, 10, 4},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, totalPages(c.hits, c.size), "hits=%d size=%d", c.hits, c.size)
	}
}

func TestSearch_NormalizesPaging(t *testing.T) {
	search := &fakeSearchClient{searchResult: &core.SearchResult{TotalHits: 25}}
	svc := newTestDocumentService(search, nil)

	page, err := svc.Search(context.Background(), SearchParams{Query: "pajak", Page: 0, Size: -1})

	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.Size)
	assert.Equal(t, int64(25), page.TotalHits)
	assert.Equal(t, int64(3), page.TotalPages)
	assert.Equal(t, 0, search.lastBody["from"])
	assert.Equal(t, 10, search.lastBody["size"])
}

func TestGetDocumentDetail_StripsContentArrays(t *testing.T) {
	search := &fakeSearchClient{document: json.RawMessage(`{
		"id": "uu-no-53-tahun-2024",
		"title": "Undang-undang Nomor 53 Tahun 2024",
		"content_type": [["title"]],
		"content_text": [["isi"]]
	}`)}
	svc := newTestDocumentService(search, nil)

	doc, err := svc.GetDocumentDetail(context.Background(), "uu-no-53-tahun-2024")

	require.NoError(t, err)
	assert.Equal(t, "Undang-undang Nomor 53 Tahun 2024", doc["title"])
	assert.NotContains(t, doc, "content_type")
	assert.NotContains(t, doc, "content_text")
}

func TestGetDocumentContentPage(t *testing.T) {
	search := &fakeSearchClient{document: json.RawMessage(`{
		"id": "doc-a",
		"filenames": ["a.pdf"],
		"content_type": [["title", "paragraph", "paragraph", "title", "paragraph"]],
		"content_text": [["BAB I", "isi 1", "isi 2", "BAB II", "isi 3"]]
	}`)}
	svc := newTestDocumentService(search, nil)

	lines, err := svc.GetDocumentContentPage(context.Background(), "doc-a", 0, 2, 2)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, ContentLine{Type: "paragraph", Content: "isi 2"}, lines[0])
	assert.Equal(t, ContentLine{Type: "title", Content: "BAB II"}, lines[1])

	// A page past the end is empty, not an error.
	lines, err = svc.GetDocumentContentPage(context.Background(), "doc-a", 0, 9, 10)
	require.NoError(t, err)
	assert.Empty(t, lines)

	// A file index past the end is a missing resource.
	_, err = svc.GetDocumentContentPage(context.Background(), "doc-a", 3, 1, 10)
	assert.ErrorIs(t, err, core.ErrResourceNotFound)
}

func TestGetDocumentsByIDList(t *testing.T) {
	search := &fakeSearchClient{searchResult: &core.SearchResult{
		TotalHits: 2,
		Hits: []core.SearchHit{
			{ID: "doc-a", Source: json.RawMessage(`{"id":"doc-a"}`)},
			{ID: "doc-b", Source: json.RawMessage(`{"id":"doc-b"}`)},
		},
	}}
	svc := newTestDocumentService(search, nil)

	docs, err := svc.GetDocumentsByIDList(context.Background(), []string{"doc-a", "doc-b", "doc-gone"})

	require.NoError(t, err)
	require.Len(t, docs, 2)

	ids := search.lastBody["query"].(map[string]any)["ids"].(map[string]any)
	assert.Equal(t, []string{"doc-a", "doc-b", "doc-gone"}, ids["values"])

	source := search.lastBody["_source"].(map[string]any)
	assert.ElementsMatch(t,
		[]string{"content_type", "content_text", "resource_urls", "reference_urls"},
		source["excludes"])
}

func TestGetDocumentsByIDList_Empty(t *testing.T) {
	search := &fakeSearchClient{}
	svc := newTestDocumentService(search, nil)

	docs, err := svc.GetDocumentsByIDList(context.Background(), nil)

	require.NoError(t, err)
	assert.Nil(t, docs)
	assert.Nil(t, search.lastBody, "no query should run for an empty id list")
}

func TestGetDistinctFieldValues(t *testing.T) {
	search := &fakeSearchClient{searchResult: &core.SearchResult{
		Aggregations: map[string][]core.AggregationBucket{
			"distinct_values": {
				{Key: "UNDANG-UNDANG", DocCount: 42},
				{Key: "PERATURAN PEMERINTAH", DocCount: 17},
			},
		},
	}}
	svc := newTestDocumentService(search, nil)

	buckets, err := svc.GetDistinctFieldValues(context.Background(), "jenis_bentuk_peraturan", 20)

	require.NoError(t, err)
	require.Len(t, buckets, 2)
	assert.Equal(t, "UNDANG-UNDANG", buckets[0].Key)
	assert.Equal(t, int64(42), buckets[0].DocCount)

	assert.Equal(t, 0, search.lastBody["size"], "distinct lookups fetch no hits")
	terms := search.lastBody["aggs"].(map[string]any)["distinct_values"].(map[string]any)["terms"].(map[string]any)
	assert.Equal(t, "jenis_bentuk_peraturan", terms["field"])
	assert.Equal(t, 20, terms["size"])
}

func TestDownloadDocumentFile(t *testing.T) {
	search := &fakeSearchClient{document: json.RawMessage(`{
		"id": "doc-a",
		"filenames": ["a.pdf"],
		"resource_urls": ["https://lexin-docs.s3.ap-southeast-1.amazonaws.com/legal_document/a.pdf"]
	}`)}
	obj := &fakeObjectStore{data: []byte("%PDF-1.7 isi")}
	svc := newTestDocumentService(search, obj)

	data, filename, err := svc.DownloadDocumentFile(context.Background(), "doc-a", 0)

	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.7 isi"), data)
	assert.Equal(t, "a.pdf", filename)
	assert.Equal(t, "lexin-docs", obj.gotBucket)
	assert.Equal(t, "legal_document/a.pdf", obj.gotKey)
}

func TestDownloadDocumentFile_IndexOutOfRange(t *testing.T) {
	search := &fakeSearchClient{document: json.RawMessage(`{
		"id": "doc-a",
		"filenames": ["a.pdf"],
		"resource_urls": ["https://lexin-docs.s3.ap-southeast-1.amazonaws.com/legal_document/a.pdf"]
	}`)}
	svc := newTestDocumentService(search, nil)

	_, _, err := svc.DownloadDocumentFile(context.Background(), "doc-a", 2)

	assert.ErrorIs(t, err, core.ErrResourceNotFound)
}

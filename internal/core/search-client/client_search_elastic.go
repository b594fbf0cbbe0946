package searchclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	appcfg "github.com/lexin-ta/lexin-api/internal/config"
	"github.com/lexin-ta/lexin-api/internal/core"
)

var _ core.SearchClient = (*ESClient)(nil)

// ESClient wraps the Elasticsearch cluster holding the legal document index.
type ESClient struct {
	client *elasticsearch.Client
}

func NewESClient(cfg *appcfg.Config) (*ESClient, error) {
	if cfg.ElasticsearchHost == "" {
		return nil, fmt.Errorf("ELASTICSEARCH_HOST not set")
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.ElasticsearchHost},
		APIKey:    cfg.ElasticsearchAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	logrus.Info("Elasticsearch client initialized")

	return &ESClient{client: client}, nil
}

// CreateMapping creates the legal document index with its field mappings.
func (c *ESClient) CreateMapping(ctx context.Context, index string) error {
	body, err := json.Marshal(legalDocumentMappings)
	if err != nil {
		return fmt.Errorf("marshal mappings: %w", err)
	}

	ctxReq, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	res, err := c.client.Indices.Create(
		index,
		c.client.Indices.Create.WithBody(bytes.NewReader(body)),
		c.client.Indices.Create.WithContext(ctxReq),
	)
	if err != nil {
		return &core.UpstreamError{Op: "create mapping", StatusCode: http.StatusBadGateway, Detail: err.Error()}
	}
	defer res.Body.Close()

	if res.IsError() {
		return upstreamError("create mapping", res)
	}
	return nil
}

func (c *ESClient) DeleteMapping(ctx context.Context, index string) error {
	ctxReq, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	res, err := c.client.Indices.Delete(
		[]string{index},
		c.client.Indices.Delete.WithContext(ctxReq),
	)
	if err != nil {
		return &core.UpstreamError{Op: "delete mapping", StatusCode: http.StatusBadGateway, Detail: err.Error()}
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return core.ErrResourceNotFound
	}
	if res.IsError() {
		return upstreamError("delete mapping", res)
	}
	return nil
}

func (c *ESClient) DocumentExists(ctx context.Context, index, id string) (bool, error) {
	ctxReq, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	res, err := c.client.Exists(index, id, c.client.Exists.WithContext(ctxReq))
	if err != nil {
		return false, &core.UpstreamError{Op: "exists", StatusCode: http.StatusBadGateway, Detail: err.Error()}
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, upstreamError("exists", res)
	}
}

// IndexDocument writes doc under the caller-supplied slug id with create
// semantics: a conflicting id fails with ErrDuplicateDocument. The conflict
// reported by the write itself is the authoritative duplicate signal; callers
// may use DocumentExists only as a fast-path rejection.
func (c *ESClient) IndexDocument(ctx context.Context, index, id string, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	ctxReq, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	res, err := c.client.Create(index, id, bytes.NewReader(body), c.client.Create.WithContext(ctxReq))
	if err != nil {
		return &core.UpstreamError{Op: "index document", StatusCode: http.StatusBadGateway, Detail: err.Error()}
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusConflict {
		return core.ErrDuplicateDocument
	}
	if res.IsError() {
		return upstreamError("index document", res)
	}
	return nil
}

func (c *ESClient) GetDocument(ctx context.Context, index, id string) (json.RawMessage, error) {
	ctxReq, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	res, err := c.client.Get(index, id, c.client.Get.WithContext(ctxReq))
	if err != nil {
		return nil, &core.UpstreamError{Op: "get document", StatusCode: http.StatusBadGateway, Detail: err.Error()}
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, core.ErrResourceNotFound
	}
	if res.IsError() {
		return nil, upstreamError("get document", res)
	}

	var envelope struct {
		Source json.RawMessage `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode get response: %w", err)
	}
	return envelope.Source, nil
}

// Search executes an arbitrary query+aggregate body against the index.
func (c *ESClient) Search(ctx context.Context, index string, body map[string]any) (*core.SearchResult, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	ctxReq, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	res, err := c.client.Search(
		c.client.Search.WithContext(ctxReq),
		c.client.Search.WithIndex(index),
		c.client.Search.WithBody(bytes.NewReader(encoded)),
		c.client.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, &core.UpstreamError{Op: "search", StatusCode: http.StatusBadGateway, Detail: err.Error()}
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, upstreamError("search", res)
	}

	var envelope struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID     string          `json:"_id"`
				Score  *float64        `json:"_score"`
				Source json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
		Aggregations map[string]struct {
			Buckets []core.AggregationBucket `json:"buckets"`
		} `json:"aggregations"`
	}
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	result := &core.SearchResult{
		TotalHits:    envelope.Hits.Total.Value,
		Hits:         make([]core.SearchHit, 0, len(envelope.Hits.Hits)),
		Aggregations: make(map[string][]core.AggregationBucket, len(envelope.Aggregations)),
	}
	for _, h := range envelope.Hits.Hits {
		hit := core.SearchHit{ID: h.ID, Source: h.Source}
		if h.Score != nil {
			hit.Score = *h.Score
		}
		result.Hits = append(result.Hits, hit)
	}
	for name, agg := range envelope.Aggregations {
		result.Aggregations[name] = agg.Buckets
	}
	return result, nil
}

// upstreamError drains the error body into an UpstreamError so callers see
// the cluster's status and reason instead of a generic failure.
func upstreamError(op string, res *esapi.Response) error {
	detail := res.Status()
	if raw, err := io.ReadAll(res.Body); err == nil && len(raw) > 0 {
		var envelope struct {
			Error struct {
				Reason string `json:"reason"`
			} `json:"error"`
		}
		if json.Unmarshal(raw, &envelope) == nil && envelope.Error.Reason != "" {
			detail = envelope.Error.Reason
		}
	}
	return &core.UpstreamError{Op: op, StatusCode: res.StatusCode, Detail: detail}
}

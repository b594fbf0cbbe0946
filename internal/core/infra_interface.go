package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/lexin-ta/lexin-api/internal/models"
)

// ObjectClient defines interactions with S3 or any object storage.
// It's abstract so you can replace AWS with MinIO, GCP, etc. easily.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data []byte, contentType string) (url string, err error)
	DeleteFile(ctx context.Context, bucket, key string) error
	GetFile(ctx context.Context, bucket, key string) ([]byte, error)

	// ClearBucket deletes every object under prefix, best-effort: per-object
	// failures are logged and skipped, never returned.
	ClearBucket(ctx context.Context, bucket, prefix string)
}

// SearchHit is one scored document returned from the search index.
type SearchHit struct {
	ID     string
	Score  float64
	Source json.RawMessage
}

// AggregationBucket is one distinct value of a faceted field with its count.
// Keys are kept as strings; numeric bucket keys (e.g. years) are stringified.
type AggregationBucket struct {
	Key      string
	DocCount int64
}

func (b *AggregationBucket) UnmarshalJSON(data []byte) error {
	var raw struct {
		Key         any    `json:"key"`
		KeyAsString string `json:"key_as_string"`
		DocCount    int64  `json:"doc_count"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	b.DocCount = raw.DocCount
	switch {
	case raw.KeyAsString != "":
		b.Key = raw.KeyAsString
	default:
		switch k := raw.Key.(type) {
		case string:
			b.Key = k
		case json.Number:
			b.Key = k.String()
		default:
			b.Key = fmt.Sprint(k)
		}
	}
	return nil
}

// SearchResult is the parsed response of a query+aggregate call.
type SearchResult struct {
	TotalHits    int64
	Hits         []SearchHit
	Aggregations map[string][]AggregationBucket
}

// SearchClient wraps the document search engine. Query bodies are plain maps
// so services can build arbitrary relevance queries without the adapter
// knowing about them.
type SearchClient interface {
	CreateMapping(ctx context.Context, index string) error
	DeleteMapping(ctx context.Context, index string) error

	DocumentExists(ctx context.Context, index, id string) (bool, error)

	// IndexDocument creates the document under the caller-supplied id.
	// Indexing an id that already exists fails with ErrDuplicateDocument.
	IndexDocument(ctx context.Context, index, id string, doc any) error

	// GetDocument returns the raw _source of the document, or
	// ErrResourceNotFound if the id is unknown.
	GetDocument(ctx context.Context, index, id string) (json.RawMessage, error)

	Search(ctx context.Context, index string, body map[string]any) (*SearchResult, error)
}

// TextExtractor reconstructs reading-order lines from raw document bytes and
// classifies each as a title or a paragraph.
type TextExtractor interface {
	// Extract returns two equal-length slices: one classification
	// ("title" or "paragraph") and one text line per entry.
	Extract(data []byte) (contentType []string, contentText []string, err error)
}

// DbClient defines the relational persistence the core needs: the bookmark
// table. It abstracts Postgres so higher layers never depend on a specific DB.
type DbClient interface {
	// CreateBookmark inserts the pair; a bookmark that already exists is a
	// no-op, and bookmark is updated in place with the stored row's id and
	// creation time either way.
	CreateBookmark(ctx context.Context, bookmark *models.LegalDocumentBookmark) error

	// DeleteBookmark removes the pair; deleting an absent bookmark is a no-op.
	DeleteBookmark(ctx context.Context, userID, documentID string) error

	ListBookmarksByUser(ctx context.Context, userID string) ([]models.LegalDocumentBookmark, error)

	Close() error
}

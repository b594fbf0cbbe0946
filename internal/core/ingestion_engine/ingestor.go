package ingestion_engine

import (
	"context"

	"github.com/lexin-ta/lexin-api/internal/models"
)

type Ingestor interface {
	// IngestArchive unpacks a zip of legal document PDFs plus their
	// metadata.json manifest and pushes every described document through
	// extraction, blob upload and indexing. Per-document failures are
	// captured in the result partition, never returned as an error.
	IngestArchive(ctx context.Context, zipBytes []byte, declaredContentType string) (*models.IngestArchiveResult, error)
}

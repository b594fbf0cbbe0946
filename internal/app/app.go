package app

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lexin-ta/lexin-api/internal/config"
	db "github.com/lexin-ta/lexin-api/internal/core/database"
	"github.com/lexin-ta/lexin-api/internal/core/extractor"
	"github.com/lexin-ta/lexin-api/internal/core/ingestion_engine"
	objectclient "github.com/lexin-ta/lexin-api/internal/core/object-client"
	searchclient "github.com/lexin-ta/lexin-api/internal/core/search-client"
	"github.com/lexin-ta/lexin-api/internal/services"
)

// App owns the client handles constructed once at startup. No component
// reaches for ambient globals; everything is injected from here.
type App struct {
	DBClient     *db.DatabaseClient
	ObjectClient *objectclient.S3Client
	SearchClient *searchclient.ESClient
	Server       *Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	logrus.Info("Database initialized and ready.")

	objClient, err := objectclient.NewS3Client(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	logrus.Info("Object client initialized and ready.")

	esClient, err := searchclient.NewESClient(cfg)
	if err != nil {
		return nil, err
	}

	pdfExtractor := extractor.NewPDFExtractor()

	ingestor := ingestion_engine.NewArchiveIngestor(
		objClient, esClient, pdfExtractor,
		cfg.DocumentIndex, cfg.BucketName, cfg.BucketFolder,
		cfg.IngestWorkers,
	)

	docService := services.NewLegalDocumentService(esClient, objClient, cfg.DocumentIndex, cfg.BucketName, cfg.BucketFolder)
	bookmarkService := services.NewBookmarkService(dbClient, docService)

	server := NewServer(cfg, ingestor, docService, bookmarkService)

	return &App{
		DBClient:     dbClient,
		ObjectClient: objClient,
		SearchClient: esClient,
		Server:       server,
	}, nil
}

func (a *App) Close() {
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}

package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/lexin-ta/lexin-api/internal/api/handlers"
	appMiddleware "github.com/lexin-ta/lexin-api/internal/api/middlewares"
	"github.com/lexin-ta/lexin-api/internal/config"
	"github.com/lexin-ta/lexin-api/internal/core/ingestion_engine"
	"github.com/lexin-ta/lexin-api/internal/services"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
}

// NewServer builds and wires all routes.
func NewServer(
	cfg *config.Config,
	ingestor ingestion_engine.Ingestor,
	docService *services.LegalDocumentService,
	bookmarkService *services.BookmarkService,
) *Server {
	docHandler := handlers.NewDocumentHandler(ingestor, docService)
	bookmarkHandler := handlers.NewBookmarkHandler(bookmarkService)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8888"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})

		api.Route("/legal-documents", func(docs chi.Router) {
			docs.Post("/mapping", docHandler.CreateMapping)
			docs.Delete("/mapping", docHandler.DeleteMapping)
			docs.Post("/upload", docHandler.UploadArchive)
			docs.Get("/search", docHandler.Search)
			docs.Post("/bulk", docHandler.Bulk)
			docs.Get("/distinct", docHandler.Distinct)
			docs.Get("/{documentID}", docHandler.GetDetail)
			docs.Get("/{documentID}/content", docHandler.GetContent)
			docs.Get("/{documentID}/download", docHandler.Download)
		})

		// Bookmarks belong to the verified user from the token.
		api.Group(func(protected chi.Router) {
			protected.Use(appMiddleware.JWTMiddleware(cfg.JWTSecret))
			protected.Post("/bookmarks", bookmarkHandler.Create)
			protected.Get("/bookmarks", bookmarkHandler.List)
			protected.Delete("/bookmarks/{documentID}", bookmarkHandler.Delete)
		})
	})

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	return &Server{httpServer: httpSrv}
}

// Start runs the HTTP server.
func (s *Server) Start() {
	logrus.Infof("HTTP server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logrus.Fatalf("server error: %v", err)
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	logrus.Info("Shutting down HTTP server...")
	return s.httpServer.Shutdown(ctx)
}

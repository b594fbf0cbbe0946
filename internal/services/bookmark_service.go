package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/lexin-ta/lexin-api/internal/core"
	"github.com/lexin-ta/lexin-api/internal/models"
)

// BookmarkedDocument is one bookmark hydrated through the document index.
// Document stays null when the bookmarked id no longer resolves; the bookmark
// itself is a weak reference and remains valid.
type BookmarkedDocument struct {
	DocumentID string          `json:"document_id"`
	CreatedAt  time.Time       `json:"created_at"`
	Document   json.RawMessage `json:"document,omitempty"`
}

// BookmarkService joins user ids to document ids in the relational store and
// resolves them back through the document service.
type BookmarkService struct {
	db   core.DbClient
	docs *LegalDocumentService
}

func NewBookmarkService(db core.DbClient, docs *LegalDocumentService) *BookmarkService {
	return &BookmarkService{db: db, docs: docs}
}

// CreateBookmark saves the pair. No existence check is made against the
// search index; bookmarking an id that was never indexed is allowed.
func (s *BookmarkService) CreateBookmark(ctx context.Context, userID, documentID string) (*models.LegalDocumentBookmark, error) {
	bookmark := &models.LegalDocumentBookmark{
		ID:         uuid.NewString(),
		UserID:     userID,
		DocumentID: documentID,
		CreatedAt:  time.Now(),
	}
	if err := s.db.CreateBookmark(ctx, bookmark); err != nil {
		return nil, err
	}
	return bookmark, nil
}

func (s *BookmarkService) DeleteBookmark(ctx context.Context, userID, documentID string) error {
	return s.db.DeleteBookmark(ctx, userID, documentID)
}

// ListBookmarks returns the user's bookmarks hydrated with the concise
// document projection. Ids missing from the index come back unhydrated.
func (s *BookmarkService) ListBookmarks(ctx context.Context, userID string) ([]BookmarkedDocument, error) {
	bookmarks, err := s.db.ListBookmarksByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(bookmarks) == 0 {
		return []BookmarkedDocument{}, nil
	}

	ids := make([]string, 0, len(bookmarks))
	for _, b := range bookmarks {
		ids = append(ids, b.DocumentID)
	}

	byID := make(map[string]json.RawMessage, len(ids))
	docs, err := s.docs.GetDocumentsByIDList(ctx, ids)
	if err != nil {
		// Hydration is a convenience; the bookmark list itself stands.
		logrus.Warnf("hydrate bookmarks for user %s: %v", userID, err)
	} else {
		for _, raw := range docs {
			var envelope struct {
				ID string `json:"id"`
			}
			if json.Unmarshal(raw, &envelope) == nil && envelope.ID != "" {
				byID[envelope.ID] = raw
			}
		}
	}

	out := make([]BookmarkedDocument, 0, len(bookmarks))
	for _, b := range bookmarks {
		out = append(out, BookmarkedDocument{
			DocumentID: b.DocumentID,
			CreatedAt:  b.CreatedAt,
			Document:   byID[b.DocumentID],
		})
	}
	return out, nil
}

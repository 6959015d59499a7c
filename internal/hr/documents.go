package hr

import (
	"context"
	"fmt"
	"time"

	"github.com/koustreak/talenttrack/internal/database"
	"github.com/koustreak/talenttrack/internal/errs"
	"github.com/koustreak/talenttrack/internal/filestore"
)

var documentColumns = []string{
	"id", "title", "document_type", "file_name", "file_path", "file_size", "mime_type",
	"access_level", "is_active", "download_count",
}

// Download is a short-lived link to a document file.
type Download struct {
	DocumentID int64     `json:"document_id"`
	FileName   string    `json:"file_name"`
	URL        string    `json:"url"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// GetDocument returns one document's metadata by id.
func (s *Store) GetDocument(ctx context.Context, id int64) (Record, error) {
	return s.one(ctx, database.Select("documents", s.dialect()).
		Columns(documentColumns...).
		Where("id", "=", id), "document", id)
}

// DocumentDownload issues a presigned URL for the document's file and
// counts the download. Inactive documents are reported as not found and
// restricted ones are refused.
func (s *Store) DocumentDownload(ctx context.Context, files filestore.Store, id int64, ttl time.Duration) (*Download, error) {
	doc, err := s.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if !truthy(doc["is_active"]) {
		return nil, errs.New(errs.ErrKindNotFound, fmt.Sprintf("document %d not found", id))
	}
	if doc["access_level"] == "restricted" {
		return nil, errs.New(errs.ErrKindPermissionDenied, fmt.Sprintf("document %d is restricted", id))
	}

	path, _ := doc["file_path"].(string)
	key, err := filestore.ObjectKey(path)
	if err != nil {
		return nil, err
	}
	if _, err := files.StatObject(ctx, key); err != nil {
		return nil, err
	}
	url, err := files.PresignGetURL(ctx, key, ttl)
	if err != nil {
		return nil, err
	}

	d := s.dialect()
	sql := fmt.Sprintf("UPDATE %s SET %s = %s + 1 WHERE %s = %s",
		database.QuoteIdent(d, "documents"),
		database.QuoteIdent(d, "download_count"), database.QuoteIdent(d, "download_count"),
		database.QuoteIdent(d, "id"), database.Placeholder(d, 1))
	if _, err := s.db.Query(ctx, sql, database.AsExec(), database.WithArgs(id)); err != nil {
		return nil, err
	}

	name, _ := doc["file_name"].(string)
	return &Download{
		DocumentID: id,
		FileName:   name,
		URL:        url,
		ExpiresAt:  time.Now().Add(ttl).UTC(),
	}, nil
}

// truthy reads a boolean column; MySQL and SQLite store BOOLEAN as an integer.
func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case int64:
		return b != 0
	case int32:
		return b != 0
	case string:
		return b == "1" || b == "true" || b == "t"
	default:
		return false
	}
}

package storage

import (
	"context"
	"fmt"
	"io"
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader публикует файлы (снимки сеток) во внешнее хранилище.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}

// BracketSnapshotKey returns the object key a tournament's bracket snapshot is
// published under.
func BracketSnapshotKey(tournamentID int) string {
	return fmt.Sprintf("brackets/tournament-%d.json", tournamentID)
}

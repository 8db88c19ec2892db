package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalUploader is a filesystem stand-in for the object-storage
// collaborator: it writes the bytes under a public directory and returns
// the URL they will be served from.
type LocalUploader struct {
	Dir     string
	BaseURL string
}

func NewLocalUploader(dir, baseURL string) (*LocalUploader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &LocalUploader{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (u *LocalUploader) Upload(_ context.Context, ownerID uuid.UUID, data []byte, mimeType string) (string, error) {
	name := fmt.Sprintf("%s-%s%s", ownerID, uuid.New(), extensionFor(mimeType))
	if err := os.WriteFile(filepath.Join(u.Dir, name), data, 0o644); err != nil {
		return "", err
	}
	return u.BaseURL + "/" + name, nil
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

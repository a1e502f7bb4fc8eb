package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

var ErrUnsupportedContentType = errors.New("unsupported file content type")

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}

var allowedMaterialTypes = map[string]string{
	"application/pdf":    ".pdf",
	"application/zip":    ".zip",
	"application/msword": ".doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   ".docx",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": ".pptx",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         ".xlsx",
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"text/plain": ".txt",
}

// MaterialKey builds a unique object key like "materials/stage_3/<uuid>.pdf".
func MaterialKey(stageID int, contentType string) (string, error) {
	ct := strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	ext, ok := allowedMaterialTypes[ct]
	if !ok {
		return "", ErrUnsupportedContentType
	}
	return path.Join("materials", "stage_"+strconv.Itoa(stageID), uuid.NewString()+ext), nil
}

package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/gtead/marketplace-backend/internal/logger"
	"github.com/gtead/marketplace-backend/internal/utils"
)

const MaxUploadBytes = 50 << 20

const (
	UploadCategoryVideo    = "video"
	UploadCategoryDocument = "document"
)

var uploadExtensions = map[string]map[string]bool{
	UploadCategoryVideo: {
		".mp4": true, ".mov": true, ".avi": true,
	},
	UploadCategoryDocument: {
		".pdf": true, ".doc": true, ".docx": true, ".txt": true,
		".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	},
}

type UploadService interface {
	// Save validates the file against the category's extension allowlist
	// and the size ceiling, stores it, and returns its public URL.
	Save(ctx context.Context, category string, header *multipart.FileHeader) (string, error)
}

type uploadService struct {
	log    *logger.Logger
	bucket BucketService
	dir    string
}

// NewUploadService stores files in the GCS bucket when one is wired, on
// local disk under UPLOAD_DIR otherwise.
func NewUploadService(log *logger.Logger, bucket BucketService) (UploadService, error) {
	us := &uploadService{
		log:    log.With("service", "UploadService"),
		bucket: bucket,
		dir:    utils.GetEnv("UPLOAD_DIR", "./uploads", log),
	}
	if bucket == nil {
		if err := os.MkdirAll(us.dir, 0o755); err != nil {
			return nil, fmt.Errorf("create upload dir: %w", err)
		}
	}
	return us, nil
}

func (us *uploadService) Save(ctx context.Context, category string, header *multipart.FileHeader) (string, error) {
	allowed, ok := uploadExtensions[category]
	if !ok {
		return "", validationErrorf("Unknown upload category")
	}
	if header.Size > MaxUploadBytes {
		return "", validationErrorf("File exceeds the 50MB size limit")
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowed[ext] {
		return "", validationErrorf(fmt.Sprintf("File type %s is not allowed for %s uploads", ext, category))
	}

	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	name := uuid.NewString() + ext
	if us.bucket != nil {
		key := "uploads/" + name
		if err := us.bucket.UploadFile(ctx, key, src); err != nil {
			return "", err
		}
		us.log.Info("Upload stored in bucket", "key", key, "size", header.Size)
		return us.bucket.GetPublicURL(key), nil
	}

	dst, err := os.Create(filepath.Join(us.dir, name))
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("write upload file: %w", err)
	}
	us.log.Info("Upload stored on disk", "name", name, "size", header.Size)
	return "/uploads/" + name, nil
}

package minio

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"github.com/ipfolio/ipfolio/internal/infrastructure/monitoring/logging"
	"github.com/ipfolio/ipfolio/pkg/errors"
)

// ArchiveStore keeps a copy of every imported spreadsheet. Objects are laid
// out by upload date so operators can browse the bucket chronologically.
type ArchiveStore struct {
	client *Client
	bucket string
	logger logging.Logger
}

// NewArchiveStore builds a store over the given bucket. An empty bucket name
// falls back to the client's default bucket.
func NewArchiveStore(client *Client, bucket string, logger logging.Logger) *ArchiveStore {
	if bucket == "" {
		bucket = client.cfg.Bucket
	}
	return &ArchiveStore{client: client, bucket: bucket, logger: logger.Named("archive_store")}
}

// Archive stores the upload and returns the object reference. The object name
// keeps the original extension so archived files open with the right tool.
func (s *ArchiveStore) Archive(ctx context.Context, filename string, data []byte) (string, error) {
	objectName := s.objectName(filename)
	_, err := s.client.api.PutObject(ctx, s.bucket, objectName,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentTypeFor(filename)},
	)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeImportArchiveFailed, "archiving upload")
	}
	s.logger.Info("upload archived",
		logging.String("bucket", s.bucket),
		logging.String("object", objectName),
		logging.Int("size", len(data)),
	)
	return s.bucket + "/" + objectName, nil
}

// PresignedURL returns a short-lived download link for an archived object ref
// as returned by Archive.
func (s *ArchiveStore) PresignedURL(ctx context.Context, ref string) (string, error) {
	objectName := strings.TrimPrefix(ref, s.bucket+"/")
	u, err := s.client.api.PresignedGetObject(ctx, s.bucket, objectName, s.client.cfg.PresignExpiry, url.Values{})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternal, "presigning archive object")
	}
	return u.String(), nil
}

func (s *ArchiveStore) objectName(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filepath.Base(filename), ext)
	if base == "" {
		base = "upload"
	}
	now := time.Now().UTC()
	return fmt.Sprintf("imports/%s/%s-%s%s",
		now.Format("2006/01/02"), base, uuid.NewString(), ext)
}

func contentTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".xls":
		return "application/vnd.ms-excel"
	case ".csv":
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}

package gcs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/quizard-app/quizard-api/internal/config"
	"github.com/quizard-app/quizard-api/internal/platform/logger"
)

// downloadTimeout bounds a single object read. Source materials are capped
// well below anything that should take this long to stream.
const downloadTimeout = 2 * time.Minute

// BucketReader reads staged uploads from the configured bucket. Clients
// upload source materials directly to object storage before requesting a
// quiz; generation only ever reads them back.
type BucketReader struct {
	client *storage.Client
	bucket string
	logger *slog.Logger
}

// NewBucketReader creates a BucketReader for the configured bucket. When
// cfg.CredentialsFile is empty the client authenticates with application
// default credentials.
// If logger is nil, a default logger will be used.
func NewBucketReader(
	ctx context.Context,
	cfg config.StorageConfig,
	logger *slog.Logger,
) (*BucketReader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage bucket cannot be empty")
	}

	if logger == nil {
		logger = slog.Default()
	}

	opts := []option.ClientOption{option.WithScopes(storage.ScopeReadOnly)}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &BucketReader{
		client: client,
		bucket: cfg.Bucket,
		logger: logger.With(slog.String("component", "bucket_reader")),
	}, nil
}

// ReadObject downloads the object at key and returns its content. The read
// happens under its own timeout so a stalled download cannot hold a
// generation task open indefinitely.
func (b *BucketReader) ReadObject(ctx context.Context, key string) ([]byte, error) {
	log := logger.FromContextOrDefault(ctx, b.logger)

	if key == "" {
		return nil, fmt.Errorf("object key cannot be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	reader, err := b.client.Bucket(b.bucket).Object(key).NewReader(ctx)
	if err != nil {
		log.Error("failed to open object reader",
			slog.String("error", err.Error()),
			slog.String("object_key", key))
		return nil, fmt.Errorf("failed to open object %q: %w", key, err)
	}
	defer func() { _ = reader.Close() }()

	content, err := io.ReadAll(reader)
	if err != nil {
		log.Error("failed to read object",
			slog.String("error", err.Error()),
			slog.String("object_key", key))
		return nil, fmt.Errorf("failed to read object %q: %w", key, err)
	}

	log.Debug("object read successfully",
		slog.String("object_key", key),
		slog.Int("size_bytes", len(content)))
	return content, nil
}

// Close releases the underlying storage client.
func (b *BucketReader) Close() error {
	return b.client.Close()
}

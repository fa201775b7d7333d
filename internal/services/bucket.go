package services

import (
  "context"
  "fmt"
  "os"

  "cloud.google.com/go/storage"

  "github.com/autoassist/autoassist-backend/internal/logger"
)

// BucketService stores generated artifacts (currently the premium PDF
// reports) in Google Cloud Storage and hands back a public URL. Reports are
// immutable and written under unique keys, so there is no delete path.
type BucketService interface {
  UploadObject(ctx context.Context, objectKey string, contentType string, data []byte) (string, error)
}

type bucketService struct {
  log        *logger.Logger
  client     *storage.Client
  bucketName string
}

func NewBucketService(ctx context.Context, log *logger.Logger) (BucketService, error) {
  serviceLog := log.With("service", "BucketService")
  bucketName := os.Getenv("GCS_BUCKET_NAME")
  if bucketName == "" {
    return nil, fmt.Errorf("missing GCS_BUCKET_NAME environment variable")
  }
  client, err := storage.NewClient(ctx)
  if err != nil {
    serviceLog.Error("Failed to create GCS client", "error", err)
    return nil, fmt.Errorf("failed to create GCS client: %w", err)
  }
  return &bucketService{
    log:        serviceLog,
    client:     client,
    bucketName: bucketName,
  }, nil
}

func (bs *bucketService) UploadObject(ctx context.Context, objectKey string, contentType string, data []byte) (string, error) {
  writer := bs.client.Bucket(bs.bucketName).Object(objectKey).NewWriter(ctx)
  writer.ContentType = contentType
  if _, err := writer.Write(data); err != nil {
    _ = writer.Close()
    bs.log.Error("Failed to write object to bucket", "objectKey", objectKey, "error", err)
    return "", fmt.Errorf("failed to write object %q: %w", objectKey, err)
  }
  if err := writer.Close(); err != nil {
    bs.log.Error("Failed to finalize object upload", "objectKey", objectKey, "error", err)
    return "", fmt.Errorf("failed to finalize object %q: %w", objectKey, err)
  }
  url := fmt.Sprintf("https://storage.googleapis.com/%s/%s", bs.bucketName, objectKey)
  bs.log.Info("Object uploaded", "objectKey", objectKey, "bytes", len(data))
  return url, nil
}

package gcp

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/levelup-backend/internal/platform/logger"
)

type BucketCategory string

const (
	BucketCategoryAvatar     BucketCategory = "avatar"
	BucketCategorySubmission BucketCategory = "submission"
)

// StoredObject describes an uploaded object.
type StoredObject struct {
	Key         string
	URL         string
	Size        int64
	ContentType string
}

type BucketService interface {
	UploadFile(ctx context.Context, category BucketCategory, key string, file io.Reader) (StoredObject, error)
	DeleteFile(ctx context.Context, category BucketCategory, key string) error
	GetPublicURL(category BucketCategory, key string) string
}

type gcsBucketService struct {
	log           *logger.Logger
	storageClient *storage.Client
	cfg           ObjectStorageConfig
}

// NewBucketService builds the bucket service for cfg.Mode. Memory mode
// needs no credentials or network.
func NewBucketService(ctx context.Context, log *logger.Logger, cfg ObjectStorageConfig) (BucketService, error) {
	cfg = cfg.Normalize()
	if err := ValidateObjectStorageConfig(cfg); err != nil {
		return nil, fmt.Errorf("validate object storage config: %w", err)
	}
	serviceLog := log.With("service", "BucketService")
	if cfg.Mode == ObjectStorageModeMemory {
		serviceLog.Warn("Object storage running in memory mode")
		return NewMemoryBucketService(cfg.PublicBaseURL), nil
	}

	stClient, err := newStorageClientForMode(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	serviceLog.Info(
		"Object storage initialized",
		"mode", cfg.Mode,
		"emulator_host", cfg.EmulatorHost,
		"public_base_url", cfg.PublicBaseURL,
		"avatar_bucket", cfg.AvatarBucket,
		"submission_bucket", cfg.SubmissionBucket,
	)
	return &gcsBucketService{log: serviceLog, storageClient: stClient, cfg: cfg}, nil
}

func newStorageClientForMode(ctx context.Context, cfg ObjectStorageConfig) (*storage.Client, error) {
	switch cfg.Mode {
	case ObjectStorageModeGCS:
		opts := ClientOptions(cfg.CredentialsJSON)
		opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
		return storage.NewClient(ctx, opts...)
	case ObjectStorageModeGCSEmulator:
		return storage.NewClient(ctx,
			option.WithoutAuthentication(),
			option.WithEndpoint(cfg.EmulatorHost+"/storage/v1/"),
		)
	default:
		return nil, &ObjectStorageConfigError{Code: ObjectStorageConfigErrorInvalidMode, Mode: string(cfg.Mode)}
	}
}

func (bs *gcsBucketService) bucketName(category BucketCategory) (string, error) {
	switch category {
	case BucketCategoryAvatar:
		return bs.cfg.AvatarBucket, nil
	case BucketCategorySubmission:
		return bs.cfg.SubmissionBucket, nil
	default:
		return "", fmt.Errorf("unknown bucket category: %s", category)
	}
}

func (bs *gcsBucketService) UploadFile(ctx context.Context, category BucketCategory, key string, file io.Reader) (StoredObject, error) {
	name, err := bs.bucketName(category)
	if err != nil {
		return StoredObject{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := bs.storageClient.Bucket(name).Object(key).NewWriter(ctx)
	ct := contentTypeForKey(key)
	if ct != "" {
		w.ContentType = ct
	}
	n, err := io.Copy(w, file)
	if err != nil {
		_ = w.Close()
		return StoredObject{}, fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return StoredObject{}, fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return StoredObject{Key: key, URL: bs.GetPublicURL(category, key), Size: n, ContentType: ct}, nil
}

func (bs *gcsBucketService) DeleteFile(ctx context.Context, category BucketCategory, key string) error {
	name, err := bs.bucketName(category)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := bs.storageClient.Bucket(name).Object(key).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete GCS object %q in bucket %q: %w", key, name, err)
	}
	return nil
}

func (bs *gcsBucketService) GetPublicURL(category BucketCategory, key string) string {
	name, err := bs.bucketName(category)
	if err != nil {
		return key
	}
	return publicObjectURL(bs.cfg, name, key)
}

func publicObjectURL(cfg ObjectStorageConfig, bucket, key string) string {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if cfg.IsEmulatorMode() {
		base := cfg.PublicBaseURL
		if base == "" {
			base = cfg.EmulatorHost
		}
		return fmt.Sprintf("%s/storage/v1/b/%s/o/%s?alt=media", base, url.PathEscape(bucket), url.PathEscape(key))
	}
	if cfg.PublicBaseURL != "" {
		return fmt.Sprintf("%s/%s/%s", cfg.PublicBaseURL, bucket, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, key)
}

func contentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	if i := strings.Index(s, "?"); i >= 0 {
		s = s[:i]
	}
	switch {
	case strings.HasSuffix(s, ".png"):
		return "image/png"
	case strings.HasSuffix(s, ".jpg"), strings.HasSuffix(s, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(s, ".gif"):
		return "image/gif"
	case strings.HasSuffix(s, ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(s, ".zip"):
		return "application/zip"
	case strings.HasSuffix(s, ".mp4"):
		return "video/mp4"
	case strings.HasSuffix(s, ".txt"), strings.HasSuffix(s, ".md"):
		return "text/plain"
	default:
		return ""
	}
}

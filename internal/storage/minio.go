package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrNotArchived is returned for posts with no archived copy.
var ErrNotArchived = errors.New("post not archived")

// MinIOStorage keeps a copy of every published post in a bucket, one object
// per post under ArchiveKey.
type MinIOStorage struct {
	client *minio.Client
	bucket string
	now    func() time.Time
}

// NewMinIOStorage connects to MinIO and creates the bucket if needed.
func NewMinIOStorage(ctx context.Context, cfg *MinIOConfig) (*MinIOStorage, error) {
	if !cfg.Enabled() {
		return nil, errors.New("minio endpoint not configured")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	exists, err := mc.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := mc.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio create bucket %s: %w", cfg.Bucket, err)
		}
	}
	return &MinIOStorage{client: mc, bucket: cfg.Bucket, now: time.Now}, nil
}

// ArchiveKey is the object key a published post is stored under.
func ArchiveKey(postID string) string {
	return "published/" + postID + ".txt"
}

// Archive stores the published content of a post, replacing older copies.
func (s *MinIOStorage) Archive(ctx context.Context, postID, content string) error {
	_, err := s.client.PutObject(ctx, s.bucket, ArchiveKey(postID), strings.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType: "text/plain; charset=utf-8",
		UserMetadata: map[string]string{
			"post-id":      postID,
			"published-at": s.now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return fmt.Errorf("archive post %s: %w", postID, err)
	}
	return nil
}

// Remove deletes the archived copy of a post. Removing a post that was never
// archived succeeds.
func (s *MinIOStorage) Remove(ctx context.Context, postID string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, ArchiveKey(postID), minio.RemoveObjectOptions{}); err != nil {
		if errors.Is(s.mapErr(postID, err), ErrNotArchived) {
			return nil
		}
		return fmt.Errorf("remove archived post %s: %w", postID, err)
	}
	return nil
}

// Archived reads back the archived content of a post.
func (s *MinIOStorage) Archived(ctx context.Context, postID string) (string, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, ArchiveKey(postID), minio.GetObjectOptions{})
	if err != nil {
		return "", s.mapErr(postID, err)
	}
	defer obj.Close()
	b, err := io.ReadAll(obj)
	if err != nil {
		return "", s.mapErr(postID, err)
	}
	return string(b), nil
}

// ArchiveURL returns a presigned link to the archived post, valid for ttl.
func (s *MinIOStorage) ArchiveURL(ctx context.Context, postID string, ttl time.Duration) (string, error) {
	if _, err := s.client.StatObject(ctx, s.bucket, ArchiveKey(postID), minio.StatObjectOptions{}); err != nil {
		return "", s.mapErr(postID, err)
	}
	params := url.Values{}
	params.Set("response-content-disposition", fmt.Sprintf("inline; filename=%q", postID+".txt"))
	u, err := s.client.PresignedGetObject(ctx, s.bucket, ArchiveKey(postID), ttl, params)
	if err != nil {
		return "", fmt.Errorf("presign post %s: %w", postID, err)
	}
	return u.String(), nil
}

func (s *MinIOStorage) mapErr(postID string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("post %s: %w", postID, ErrNotArchived)
	}
	return fmt.Errorf("archive of post %s: %w", postID, err)
}

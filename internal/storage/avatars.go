package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var ErrUnsupportedContentType = errors.New("unsupported avatar content type")

var avatarExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// PresignedUpload describes where the client should PUT the avatar bytes.
type PresignedUpload struct {
	UploadURL string    `json:"upload_url"`
	Method    string    `json:"method"`
	Key       string    `json:"key"`
	AvatarURL string    `json:"avatar_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type AvatarSigner interface {
	PresignAvatarUpload(ctx context.Context, userID int64, contentType string) (*PresignedUpload, error)
}

type S3AvatarSigner struct {
	presign *s3.PresignClient
	bucket  string
	region  string
	ttl     time.Duration
}

// NewS3AvatarSigner loads AWS credentials from the default chain.
func NewS3AvatarSigner(ctx context.Context, region, bucket string, ttl time.Duration) (*S3AvatarSigner, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewS3AvatarSignerFromClient(s3.NewFromConfig(cfg), region, bucket, ttl), nil
}

func NewS3AvatarSignerFromClient(client *s3.Client, region, bucket string, ttl time.Duration) *S3AvatarSigner {
	return &S3AvatarSigner{
		presign: s3.NewPresignClient(client),
		bucket:  bucket,
		region:  region,
		ttl:     ttl,
	}
}

func (s *S3AvatarSigner) PresignAvatarUpload(ctx context.Context, userID int64, contentType string) (*PresignedUpload, error) {
	ext, ok := avatarExtensions[contentType]
	if !ok {
		return nil, ErrUnsupportedContentType
	}
	key := AvatarKey(userID, uuid.NewString(), ext)

	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return nil, fmt.Errorf("presign avatar upload: %w", err)
	}

	return &PresignedUpload{
		UploadURL: req.URL,
		Method:    req.Method,
		Key:       key,
		AvatarURL: fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key),
		ExpiresAt: time.Now().Add(s.ttl).UTC(),
	}, nil
}

func AvatarKey(userID int64, name, ext string) string {
	return fmt.Sprintf("avatars/%d/%s%s", userID, name, ext)
}

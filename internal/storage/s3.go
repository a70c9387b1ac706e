package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3Config carries the settings for an S3-compatible object store. A
// non-empty BaseEndpoint points the client at MinIO or another compatible
// service instead of AWS.
type S3Config struct {
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	BaseEndpoint  string
	PublicBaseURL string
}

// S3PhotoStorage stores uploaded photos in an S3 bucket and returns public
// URLs under PublicBaseURL.
type S3PhotoStorage struct {
	client *s3.Client
	cfg    S3Config
}

// NewS3PhotoStorage builds the S3 client from static credentials.
func NewS3PhotoStorage(ctx context.Context, cfg S3Config) (*S3PhotoStorage, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &S3PhotoStorage{client: client, cfg: cfg}, nil
}

// Upload puts the object under a per-owner, per-entry key and returns its
// public URL.
func (s *S3PhotoStorage) Upload(ctx context.Context, up Upload) (string, error) {
	key := objectKey(up)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		Body:          up.Body,
		ContentType:   aws.String(up.ContentType),
		ContentLength: aws.Int64(up.Size),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload photo: %w", err)
	}

	base := strings.TrimSuffix(s.cfg.PublicBaseURL, "/")
	return base + "/" + key, nil
}

func objectKey(up Upload) string {
	ext := path.Ext(up.Filename)
	return fmt.Sprintf("photos/%s/%s/%s%s", up.OwnerID, up.EntryID, uuid.NewString(), ext)
}

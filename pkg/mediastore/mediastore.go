// Package mediastore issues presigned S3 upload URLs for user media.
package mediastore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config holds S3 (or S3-compatible) connection details.
type Config struct {
	Region    string
	Bucket    string
	Endpoint  string // optional, for MinIO and friends
	AccessKey string
	SecretKey string
	// PublicURL is the base URL objects are served from. Defaults to the
	// virtual-hosted bucket URL.
	PublicURL string
}

// Upload is a presigned PUT and the URL the object will be readable at.
type Upload struct {
	UploadURL string    `json:"uploadUrl"`
	MediaURL  string    `json:"mediaUrl"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Store presigns uploads into a single bucket.
type Store struct {
	presign   *s3.PresignClient
	bucket    string
	publicURL string
}

func New(ctx context.Context, cfg Config) (*Store, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	publicURL := strings.TrimRight(cfg.PublicURL, "/")
	if publicURL == "" {
		if cfg.Endpoint != "" {
			publicURL = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
		} else {
			publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}

	return &Store{
		presign:   s3.NewPresignClient(client),
		bucket:    cfg.Bucket,
		publicURL: publicURL,
	}, nil
}

// PresignPut returns a URL the client can PUT contentType bytes to under key.
func (s *Store) PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (*Upload, error) {
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}
	return &Upload{
		UploadURL: req.URL,
		MediaURL:  s.publicURL + "/" + key,
		Key:       key,
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}

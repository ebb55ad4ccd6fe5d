package services

import (
	"context"
	"fmt"
	"time"

	"bloom/internal/apperrors"
	"bloom/pkg/mediastore"

	"github.com/google/uuid"
)

var mediaExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
	"video/mp4":  "mp4",
}

// Presigner issues upload URLs.
type Presigner interface {
	PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (*mediastore.Upload, error)
}

// MediaService hands out upload URLs for avatars and post media.
type MediaService struct {
	store Presigner
	ttl   time.Duration
}

func NewMediaService(store Presigner, ttl time.Duration) *MediaService {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &MediaService{store: store, ttl: ttl}
}

// CreateUploadURL reserves a fresh object key under the user's prefix.
func (s *MediaService) CreateUploadURL(ctx context.Context, userID, contentType string) (upload *mediastore.Upload, err error) {
	ctx, span := startSpan(ctx, "MediaService.CreateUploadURL")
	defer func() { endSpan(span, err) }()

	ext, ok := mediaExtensions[contentType]
	if !ok {
		return nil, apperrors.BadRequest("Unsupported content type", "contentType")
	}
	d := time.Now().UTC()
	key := fmt.Sprintf("users/%s/%d/%02d/%s.%s", userID, d.Year(), d.Month(), uuid.NewString(), ext)

	upload, err = s.store.PresignPut(ctx, key, contentType, s.ttl)
	if err != nil {
		return nil, apperrors.Internal("Could not create upload URL", err)
	}
	return upload, nil
}

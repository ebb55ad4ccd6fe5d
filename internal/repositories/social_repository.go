package repositories

import (
	"context"

	"bloom/internal/models"
)

// FollowRepository defines the interface for the follow graph.
type FollowRepository interface {
	Exists(ctx context.Context, followerID, followingID string) (bool, error)
	Create(ctx context.Context, follow *models.Follow) error
	Delete(ctx context.Context, followerID, followingID string) error
	CountFollowers(ctx context.Context, userID string) (int64, error)
	CountFollowing(ctx context.Context, userID string) (int64, error)
}

// PostRepository defines the interface for feed data access.
type PostRepository interface {
	// CreateWithActivity inserts the on-chain activity and the post that
	// references it in one transaction.
	CreateWithActivity(ctx context.Context, post *models.Post, activity *models.OnchainActivity) error
	FindByID(ctx context.Context, id string) (*models.Post, error)
	ListByUserID(ctx context.Context, userID string) ([]models.Post, error)
}

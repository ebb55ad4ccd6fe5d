package repositories

import (
	"context"
	"fmt"

	"bloom/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMFollowRepository is a GORM implementation of FollowRepository.
type GORMFollowRepository struct {
	db *gorm.DB
}

func NewGORMFollowRepository(db *gorm.DB) *GORMFollowRepository {
	return &GORMFollowRepository{db: db}
}

func (r *GORMFollowRepository) Exists(ctx context.Context, followerID, followingID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check follow: %w", err)
	}
	return count > 0, nil
}

func (r *GORMFollowRepository) Create(ctx context.Context, follow *models.Follow) error {
	if err := r.db.WithContext(ctx).Create(follow).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create follow: %w", err)
	}
	return nil
}

// Delete removes the edge, returning ErrNotFound when there was none.
func (r *GORMFollowRepository) Delete(ctx context.Context, followerID, followingID string) error {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete follow: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GORMFollowRepository) CountFollowers(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("following_id = ?", userID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count followers: %w", err)
	}
	return count, nil
}

func (r *GORMFollowRepository) CountFollowing(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("follower_id = ?", userID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count following: %w", err)
	}
	return count, nil
}

// GORMPostRepository is a GORM implementation of PostRepository.
type GORMPostRepository struct {
	db *gorm.DB
}

func NewGORMPostRepository(db *gorm.DB) *GORMPostRepository {
	return &GORMPostRepository{db: db}
}

func (r *GORMPostRepository) CreateWithActivity(ctx context.Context, post *models.Post, activity *models.OnchainActivity) error {
	if activity.ID == "" {
		activity.ID = uuid.New().String()
	}
	if post.ID == "" {
		post.ID = uuid.New().String()
	}
	post.OnchainActivityID = activity.ID

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(activity).Error; err != nil {
			return fmt.Errorf("failed to create onchain activity: %w", err)
		}
		if err := tx.Omit(clause.Associations).Create(post).Error; err != nil {
			return fmt.Errorf("failed to create post: %w", err)
		}
		post.OnchainActivity = activity
		return nil
	})
}

func (r *GORMPostRepository) FindByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("OnchainActivity").
		Preload("User", func(db *gorm.DB) *gorm.DB {
			// public author fields only
			return db.Select("id", "username", "bio", "avatar")
		}).
		First(&post, "id = ?", id).Error
	if err != nil {
		if notFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get post %s: %w", id, err)
	}
	return &post, nil
}

// ListByUserID returns the user's posts, newest first.
func (r *GORMPostRepository) ListByUserID(ctx context.Context, userID string) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.WithContext(ctx).
		Preload("OnchainActivity").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list posts for user %s: %w", userID, err)
	}
	return posts, nil
}

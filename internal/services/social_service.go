package services

import (
	"context"
	"errors"

	"bloom/internal/apperrors"
	"bloom/internal/models"
	"bloom/internal/repositories"
)

// SocialService manages the follow graph.
type SocialService struct {
	users   repositories.UserRepository
	follows repositories.FollowRepository
	events  EventPublisher
}

// NewSocialService creates a new SocialService. events may be nil.
func NewSocialService(users repositories.UserRepository, follows repositories.FollowRepository, events EventPublisher) *SocialService {
	return &SocialService{users: users, follows: follows, events: publisherOrNoop(events)}
}

func (s *SocialService) target(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.FindByUsername(ctx, normalizeUsername(username))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperrors.NotFound("User not found")
	}
	if err != nil {
		return nil, apperrors.Internal("Could not load user", err)
	}
	return user, nil
}

// Follow makes followerID follow username.
func (s *SocialService) Follow(ctx context.Context, followerID, username string) (err error) {
	ctx, span := startSpan(ctx, "SocialService.Follow")
	defer func() { endSpan(span, err) }()

	target, err := s.target(ctx, username)
	if err != nil {
		return err
	}
	if target.ID == followerID {
		return apperrors.BadRequest("You cannot follow yourself", "username")
	}

	exists, err := s.follows.Exists(ctx, followerID, target.ID)
	if err != nil {
		return apperrors.Internal("Could not check follow status", err)
	}
	if exists {
		return apperrors.Conflict("Already following this user", "username")
	}

	if err := s.follows.Create(ctx, &models.Follow{FollowerID: followerID, FollowingID: target.ID}); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return apperrors.Conflict("Already following this user", "username")
		}
		return apperrors.Internal("Could not follow user", err)
	}

	publish(ctx, s.events, EventUserFollowed, map[string]string{
		"followerId":  followerID,
		"followingId": target.ID,
	})
	return nil
}

// Unfollow removes the edge from followerID to username.
func (s *SocialService) Unfollow(ctx context.Context, followerID, username string) (err error) {
	ctx, span := startSpan(ctx, "SocialService.Unfollow")
	defer func() { endSpan(span, err) }()

	target, err := s.target(ctx, username)
	if err != nil {
		return err
	}
	if err := s.follows.Delete(ctx, followerID, target.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.NotFound("You are not following this user")
		}
		return apperrors.Internal("Could not unfollow user", err)
	}
	return nil
}

// IsFollowing reports whether followerID follows username.
func (s *SocialService) IsFollowing(ctx context.Context, followerID, username string) (bool, error) {
	target, err := s.target(ctx, username)
	if err != nil {
		return false, err
	}
	ok, err := s.follows.Exists(ctx, followerID, target.ID)
	if err != nil {
		return false, apperrors.Internal("Could not check follow status", err)
	}
	return ok, nil
}

package services

import (
	"context"
	"fmt"

	"yatube/app/models"
	"yatube/app/repositories"
)

// FollowService manages subscriptions between users.
type FollowService struct {
	users   repositories.UserRepository
	follows repositories.FollowRepository
}

// NewFollowService creates a new FollowService
func NewFollowService(users repositories.UserRepository, follows repositories.FollowRepository) *FollowService {
	return &FollowService{users: users, follows: follows}
}

// Author resolves the user behind a profile URL.
func (s *FollowService) Author(ctx context.Context, username string) (*models.User, error) {
	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("user %q: %w", username, err)
	}
	return author, nil
}

// Follow subscribes user to author. Following yourself is silently ignored
// and repeating a follow leaves the existing edge alone.
func (s *FollowService) Follow(ctx context.Context, user, author *models.User) error {
	f := &models.Follow{UserID: user.ID, AuthorID: author.ID}
	if f.IsSelf() {
		return nil
	}
	f.BeforeCreate()
	if err := f.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := s.follows.Create(ctx, f); err != nil {
		return fmt.Errorf("failed to follow %s: %w", author.Username, err)
	}
	return nil
}

// Unfollow removes the subscription if there is one.
func (s *FollowService) Unfollow(ctx context.Context, user, author *models.User) error {
	if err := s.follows.Delete(ctx, user.ID, author.ID); err != nil {
		return fmt.Errorf("failed to unfollow %s: %w", author.Username, err)
	}
	return nil
}

// IsFollowing reports whether user follows author.
func (s *FollowService) IsFollowing(ctx context.Context, user, author *models.User) (bool, error) {
	if user == nil || user.ID == 0 {
		return false, nil
	}
	return s.follows.Exists(ctx, user.ID, author.ID)
}

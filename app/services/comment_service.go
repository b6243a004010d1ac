package services

import (
	"context"
	"fmt"

	"yatube/app/models"
	"yatube/app/repositories"
)

// CommentService handles business logic for comments
type CommentService struct {
	commentRepo repositories.CommentRepository
	postRepo    repositories.PostRepository
}

// NewCommentService creates a new CommentService
func NewCommentService(commentRepo repositories.CommentRepository, postRepo repositories.PostRepository) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
	}
}

// AddComment stores comment on post with author as its writer.
func (s *CommentService) AddComment(ctx context.Context, post *models.Post, author *models.User, comment *models.Comment) error {
	if err := comment.SetPost(post); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	comment.AuthorID = author.ID
	comment.BeforeCreate()

	// Validate comment
	if err := comment.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	comment.Author = author
	return nil
}

// GetComment retrieves a comment by ID
func (s *CommentService) GetComment(ctx context.Context, id int) (*models.Comment, error) {
	return s.commentRepo.GetByID(ctx, id)
}

// ListPostComments retrieves all comments for a post, newest first
func (s *CommentService) ListPostComments(ctx context.Context, postID int) ([]*models.Comment, error) {
	// Verify post exists
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, fmt.Errorf("post %d: %w", postID, err)
	}
	return s.commentRepo.ListByPost(ctx, postID)
}

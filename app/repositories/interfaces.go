package repositories

import (
	"context"

	"yatube/app/models"
)

// PostFilter narrows a post listing. Zero values match everything.
type PostFilter struct {
	GroupID  int
	AuthorID int
	// AuthorIDs restricts results to these authors when non-nil.
	// An empty non-nil slice matches nothing.
	AuthorIDs []int
}

// Matches reports whether the post passes the filter.
func (f PostFilter) Matches(p *models.Post) bool {
	if f.GroupID != 0 && !p.InGroup(f.GroupID) {
		return false
	}
	if f.AuthorID != 0 && p.AuthorID != f.AuthorID {
		return false
	}
	if f.AuthorIDs != nil {
		for _, id := range f.AuthorIDs {
			if id == p.AuthorID {
				return true
			}
		}
		return false
	}
	return true
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

// GroupRepository defines the interface for group data access
type GroupRepository interface {
	Create(ctx context.Context, group *models.Group) error
	GetByID(ctx context.Context, id int) (*models.Group, error)
	GetBySlug(ctx context.Context, slug string) (*models.Group, error)
	List(ctx context.Context) ([]*models.Group, error)
	// Delete removes the group together with its posts and their comments.
	Delete(ctx context.Context, id int) error
}

// PostRepository defines the interface for post data access.
// Listings are ordered newest first.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id int) (*models.Post, error)
	List(ctx context.Context, filter PostFilter, limit, offset int) ([]*models.Post, error)
	Count(ctx context.Context, filter PostFilter) (int, error)
	Update(ctx context.Context, post *models.Post) error
	// Delete removes the post together with its comments.
	Delete(ctx context.Context, id int) error
}

// CommentRepository defines the interface for comment data access.
// Listings are ordered newest first.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id int) (*models.Comment, error)
	ListByPost(ctx context.Context, postID int) ([]*models.Comment, error)
	CountByPost(ctx context.Context, postID int) (int, error)
	Update(ctx context.Context, comment *models.Comment) error
	Delete(ctx context.Context, id int) error
}

// FollowRepository defines the interface for follow edges.
type FollowRepository interface {
	// Create stores the edge if it is absent. Existing edges are left untouched.
	Create(ctx context.Context, follow *models.Follow) error
	// Delete removes the edge if present. Missing edges are not an error.
	Delete(ctx context.Context, userID, authorID int) error
	Exists(ctx context.Context, userID, authorID int) (bool, error)
	ListAuthorIDs(ctx context.Context, userID int) ([]int, error)
	CountFollowers(ctx context.Context, authorID int) (int, error)
	CountFollowing(ctx context.Context, userID int) (int, error)
}

// FlatPageRepository defines the interface for static pages.
type FlatPageRepository interface {
	Save(ctx context.Context, page *models.FlatPage) error
	GetByURL(ctx context.Context, url string) (*models.FlatPage, error)
	List(ctx context.Context) ([]*models.FlatPage, error)
	Delete(ctx context.Context, url string) error
}

// SessionRepository defines the interface for login sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	Get(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context) (int, error)
}

// Store bundles every repository the application needs.
type Store struct {
	Users     UserRepository
	Groups    GroupRepository
	Posts     PostRepository
	Comments  CommentRepository
	Follows   FollowRepository
	FlatPages FlatPageRepository
	Sessions  SessionRepository
}

package services

import (
	"context"
	"errors"
	"fmt"

	"yatube/app/models"
	"yatube/app/repositories"
)

// PageSizes sets how many posts each feed shows per page.
type PageSizes struct {
	Index   int
	Group   int
	Profile int
	Follow  int
}

// DefaultPageSizes are the feed sizes the site has always used.
func DefaultPageSizes() PageSizes {
	return PageSizes{Index: 2, Group: 2, Profile: 5, Follow: 5}
}

// Feed is one page of posts.
type Feed struct {
	Posts []*models.Post `json:"posts"`
	Page  Page           `json:"page"`
}

// Profile is an author's page as seen by a viewer.
type Profile struct {
	Author    *models.User
	Feed      *Feed
	PostCount int
	Followers int
	Following int
	// IsFollowing reports whether the viewer follows Author.
	IsFollowing bool
}

// PostDetail is a single post with its discussion.
type PostDetail struct {
	Post        *models.Post
	Author      *models.User
	PostCount   int
	Comments    []*models.Comment
	IsFollowing bool
}

// PostService handles business logic for posts and feeds
type PostService struct {
	store *repositories.Store
	sizes PageSizes
}

// NewPostService creates a new PostService
func NewPostService(store *repositories.Store, sizes PageSizes) *PostService {
	return &PostService{store: store, sizes: sizes}
}

// Index returns a page of every post.
func (s *PostService) Index(ctx context.Context, rawPage string) (*Feed, error) {
	return s.feed(ctx, repositories.PostFilter{}, s.sizes.Index, rawPage)
}

// GroupFeed returns a page of the posts filed under the group with slug.
func (s *PostService) GroupFeed(ctx context.Context, slug, rawPage string) (*models.Group, *Feed, error) {
	group, err := s.store.Groups.GetBySlug(ctx, slug)
	if err != nil {
		return nil, nil, fmt.Errorf("group %q: %w", slug, err)
	}
	feed, err := s.feed(ctx, repositories.PostFilter{GroupID: group.ID}, s.sizes.Group, rawPage)
	if err != nil {
		return nil, nil, err
	}
	return group, feed, nil
}

// FollowFeed returns a page of posts by the authors viewer follows.
func (s *PostService) FollowFeed(ctx context.Context, viewer *models.User, rawPage string) (*Feed, error) {
	ids, err := s.store.Follows.ListAuthorIDs(ctx, viewer.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list followed authors: %w", err)
	}
	return s.feed(ctx, repositories.PostFilter{AuthorIDs: ids}, s.sizes.Follow, rawPage)
}

// Profile returns the author's page. viewer may be nil.
func (s *PostService) Profile(ctx context.Context, username string, viewer *models.User, rawPage string) (*Profile, error) {
	author, err := s.store.Users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("user %q: %w", username, err)
	}
	feed, err := s.feed(ctx, repositories.PostFilter{AuthorID: author.ID}, s.sizes.Profile, rawPage)
	if err != nil {
		return nil, err
	}

	profile := &Profile{Author: author, Feed: feed, PostCount: feed.Page.Count}
	if profile.Followers, err = s.store.Follows.CountFollowers(ctx, author.ID); err != nil {
		return nil, err
	}
	if profile.Following, err = s.store.Follows.CountFollowing(ctx, author.ID); err != nil {
		return nil, err
	}
	if profile.IsFollowing, err = s.isFollowing(ctx, viewer, author); err != nil {
		return nil, err
	}
	return profile, nil
}

// Detail returns the post by username's author with its comments.
func (s *PostService) Detail(ctx context.Context, username string, postID int, viewer *models.User) (*PostDetail, error) {
	post, author, err := s.AuthoredPost(ctx, username, postID)
	if err != nil {
		return nil, err
	}
	if err := s.populate(ctx, []*models.Post{post}); err != nil {
		return nil, err
	}

	comments, err := s.store.Comments.ListByPost(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get comments: %w", err)
	}
	if err := s.attachCommentAuthors(ctx, comments); err != nil {
		return nil, err
	}
	post.Comments = comments
	post.CommentCount = len(comments)

	detail := &PostDetail{Post: post, Author: author, Comments: comments}
	if detail.PostCount, err = s.store.Posts.Count(ctx, repositories.PostFilter{AuthorID: author.ID}); err != nil {
		return nil, err
	}
	if detail.IsFollowing, err = s.isFollowing(ctx, viewer, author); err != nil {
		return nil, err
	}
	return detail, nil
}

// AuthoredPost loads the post and its author, reporting ErrNotFound when
// either is missing or the post belongs to someone else.
func (s *PostService) AuthoredPost(ctx context.Context, username string, postID int) (*models.Post, *models.User, error) {
	author, err := s.store.Users.GetByUsername(ctx, username)
	if err != nil {
		return nil, nil, fmt.Errorf("user %q: %w", username, err)
	}
	post, err := s.store.Posts.GetByID(ctx, postID)
	if err != nil {
		return nil, nil, fmt.Errorf("post %d: %w", postID, err)
	}
	if post.AuthorID != author.ID {
		return nil, nil, fmt.Errorf("post %d by %q: %w", postID, username, ErrNotFound)
	}
	post.Author = author
	return post, author, nil
}

// GetPost retrieves a post by ID with author, group and comment count.
func (s *PostService) GetPost(ctx context.Context, id int) (*models.Post, error) {
	post, err := s.store.Posts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("post %d: %w", id, err)
	}
	if err := s.populate(ctx, []*models.Post{post}); err != nil {
		return nil, err
	}
	return post, nil
}

// CreatePost stores a new post written by author.
func (s *PostService) CreatePost(ctx context.Context, author *models.User, post *models.Post) error {
	post.AuthorID = author.ID
	post.BeforeCreate()
	if err := post.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := s.checkGroup(ctx, post); err != nil {
		return err
	}
	if err := s.store.Posts.Create(ctx, post); err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	post.Author = author
	return nil
}

// UpdatePost saves editor's changes to text, group and image.
// Only the author may edit; the author and pub date never change.
func (s *PostService) UpdatePost(ctx context.Context, editor *models.User, post *models.Post) error {
	existing, err := s.store.Posts.GetByID(ctx, post.ID)
	if err != nil {
		return fmt.Errorf("post %d: %w", post.ID, err)
	}
	if !existing.IsAuthoredBy(editor) {
		return ErrNotAuthor
	}

	post.AuthorID = existing.AuthorID
	post.PubDate = existing.PubDate
	if err := post.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := s.checkGroup(ctx, post); err != nil {
		return err
	}
	return s.store.Posts.Update(ctx, post)
}

// Groups lists every group for the post form.
func (s *PostService) Groups(ctx context.Context) ([]*models.Group, error) {
	return s.store.Groups.List(ctx)
}

func (s *PostService) checkGroup(ctx context.Context, post *models.Post) error {
	if post.GroupID == nil {
		return nil
	}
	if _, err := s.store.Groups.GetByID(ctx, *post.GroupID); err != nil {
		return fmt.Errorf("%w: group %d: %v", ErrInvalid, *post.GroupID, err)
	}
	return nil
}

func (s *PostService) isFollowing(ctx context.Context, viewer, author *models.User) (bool, error) {
	if viewer == nil || viewer.ID == 0 || viewer.Is(author) {
		return false, nil
	}
	return s.store.Follows.Exists(ctx, viewer.ID, author.ID)
}

func (s *PostService) feed(ctx context.Context, filter repositories.PostFilter, perPage int, rawPage string) (*Feed, error) {
	count, err := s.store.Posts.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}
	page := NewPage(count, perPage, rawPage)
	posts, err := s.store.Posts.List(ctx, filter, page.PerPage, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	if err := s.populate(ctx, posts); err != nil {
		return nil, err
	}
	return &Feed{Posts: posts, Page: page}, nil
}

// populate attaches authors, groups and comment counts.
func (s *PostService) populate(ctx context.Context, posts []*models.Post) error {
	users := map[int]*models.User{}
	groups := map[int]*models.Group{}
	for _, post := range posts {
		if post.Author == nil {
			author, ok := users[post.AuthorID]
			if !ok {
				var err error
				if author, err = s.store.Users.GetByID(ctx, post.AuthorID); err != nil {
					return fmt.Errorf("author of post %d: %w", post.ID, err)
				}
				users[post.AuthorID] = author
			}
			post.Author = author
		}

		if post.GroupID != nil {
			group, ok := groups[*post.GroupID]
			if !ok {
				var err error
				group, err = s.store.Groups.GetByID(ctx, *post.GroupID)
				if err != nil && !errors.Is(err, repositories.ErrNotFound) {
					return fmt.Errorf("group of post %d: %w", post.ID, err)
				}
				groups[*post.GroupID] = group
			}
			post.Group = group
		}

		n, err := s.store.Comments.CountByPost(ctx, post.ID)
		if err != nil {
			return fmt.Errorf("failed to count comments for post %d: %w", post.ID, err)
		}
		post.CommentCount = n
	}
	return nil
}

func (s *PostService) attachCommentAuthors(ctx context.Context, comments []*models.Comment) error {
	users := map[int]*models.User{}
	for _, c := range comments {
		author, ok := users[c.AuthorID]
		if !ok {
			var err error
			if author, err = s.store.Users.GetByID(ctx, c.AuthorID); err != nil {
				return fmt.Errorf("author of comment %d: %w", c.ID, err)
			}
			users[c.AuthorID] = author
		}
		c.Author = author
	}
	return nil
}

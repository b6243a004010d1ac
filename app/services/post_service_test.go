package services

import (
	"context"
	"testing"
	"time"

	"yatube/app/models"
	"yatube/app/repositories"
	"yatube/app/repositories/mock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	ctx   context.Context
	store *repositories.Store
	posts *PostService
	leo   *models.User
	fyo   *models.User
	cats  *models.Group
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{ctx: context.Background(), store: mock.NewStore()}
	f.posts = NewPostService(f.store, DefaultPageSizes())

	f.leo = &models.User{Username: "leo"}
	f.fyo = &models.User{Username: "fyodor"}
	require.NoError(t, f.store.Users.Create(f.ctx, f.leo))
	require.NoError(t, f.store.Users.Create(f.ctx, f.fyo))
	f.cats = &models.Group{Title: "Cats", Slug: "cats"}
	require.NoError(t, f.store.Groups.Create(f.ctx, f.cats))
	return f
}

func (f *fixture) post(t *testing.T, author *models.User, text string, group *models.Group, at time.Time) *models.Post {
	t.Helper()
	p := &models.Post{Text: text, PubDate: at}
	p.SetGroup(group)
	require.NoError(t, f.posts.CreatePost(f.ctx, author, p))
	return p
}

func TestPostServiceCreate(t *testing.T) {
	f := newFixture(t)

	t.Run("valid post", func(t *testing.T) {
		p := &models.Post{Text: "hello"}
		require.NoError(t, f.posts.CreatePost(f.ctx, f.leo, p))
		assert.Equal(t, f.leo.ID, p.AuthorID)
		assert.False(t, p.PubDate.IsZero())
		assert.Greater(t, p.ID, 0)
	})

	t.Run("empty text", func(t *testing.T) {
		err := f.posts.CreatePost(f.ctx, f.leo, &models.Post{Text: ""})
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("unknown group", func(t *testing.T) {
		missing := 99
		err := f.posts.CreatePost(f.ctx, f.leo, &models.Post{Text: "x", GroupID: &missing})
		assert.ErrorIs(t, err, ErrInvalid)
	})
}

func TestPostServiceFeeds(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	p1 := f.post(t, f.leo, "one", nil, base)
	p2 := f.post(t, f.fyo, "two", f.cats, base.Add(time.Minute))
	p3 := f.post(t, f.leo, "three", f.cats, base.Add(2*time.Minute))

	t.Run("index newest first in pages of two", func(t *testing.T) {
		feed, err := f.posts.Index(f.ctx, "")
		require.NoError(t, err)
		require.Len(t, feed.Posts, 2)
		assert.Equal(t, p3.ID, feed.Posts[0].ID)
		assert.Equal(t, p2.ID, feed.Posts[1].ID)
		assert.Equal(t, 2, feed.Page.NumPages)
		assert.Equal(t, "leo", feed.Posts[0].Author.Username)
		assert.Equal(t, "Cats", feed.Posts[0].Group.Title)

		feed, err = f.posts.Index(f.ctx, "7")
		require.NoError(t, err)
		require.Len(t, feed.Posts, 1)
		assert.Equal(t, p1.ID, feed.Posts[0].ID)
	})

	t.Run("group feed", func(t *testing.T) {
		group, feed, err := f.posts.GroupFeed(f.ctx, "cats", "1")
		require.NoError(t, err)
		assert.Equal(t, f.cats.ID, group.ID)
		assert.Equal(t, 2, feed.Page.Count)

		_, _, err = f.posts.GroupFeed(f.ctx, "dogs", "1")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("profile", func(t *testing.T) {
		require.NoError(t, f.store.Follows.Create(f.ctx, &models.Follow{UserID: f.fyo.ID, AuthorID: f.leo.ID}))

		profile, err := f.posts.Profile(f.ctx, "leo", f.fyo, "")
		require.NoError(t, err)
		assert.Equal(t, 2, profile.PostCount)
		assert.Equal(t, 1, profile.Followers)
		assert.Equal(t, 0, profile.Following)
		assert.True(t, profile.IsFollowing)

		profile, err = f.posts.Profile(f.ctx, "leo", nil, "")
		require.NoError(t, err)
		assert.False(t, profile.IsFollowing)

		_, err = f.posts.Profile(f.ctx, "nobody", nil, "")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("follow feed", func(t *testing.T) {
		feed, err := f.posts.FollowFeed(f.ctx, f.fyo, "")
		require.NoError(t, err)
		require.Len(t, feed.Posts, 2)
		for _, p := range feed.Posts {
			assert.Equal(t, f.leo.ID, p.AuthorID)
		}

		feed, err = f.posts.FollowFeed(f.ctx, f.leo, "")
		require.NoError(t, err)
		assert.Empty(t, feed.Posts)
		assert.Equal(t, 1, feed.Page.NumPages)
	})
}

func TestPostServiceDetail(t *testing.T) {
	f := newFixture(t)
	post := f.post(t, f.leo, "hello", nil, time.Now())

	comments := NewCommentService(f.store.Comments, f.store.Posts)
	require.NoError(t, comments.AddComment(f.ctx, post, f.fyo, &models.Comment{Text: "first!"}))
	require.NoError(t, comments.AddComment(f.ctx, post, f.leo, &models.Comment{Text: "thanks", Created: time.Now().Add(time.Second)}))

	t.Run("detail with comments", func(t *testing.T) {
		detail, err := f.posts.Detail(f.ctx, "leo", post.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, detail.PostCount)
		require.Len(t, detail.Comments, 2)
		assert.Equal(t, "thanks", detail.Comments[0].Text)
		assert.Equal(t, "fyodor", detail.Comments[1].Author.Username)
		assert.Equal(t, 2, detail.Post.CommentCount)
	})

	t.Run("wrong author in URL", func(t *testing.T) {
		_, err := f.posts.Detail(f.ctx, "fyodor", post.ID, nil)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("missing post", func(t *testing.T) {
		_, err := f.posts.Detail(f.ctx, "leo", 404, nil)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPostServiceUpdate(t *testing.T) {
	f := newFixture(t)
	post := f.post(t, f.leo, "original", nil, time.Now())

	t.Run("author edits", func(t *testing.T) {
		edit := &models.Post{ID: post.ID, Text: "edited"}
		edit.SetGroup(f.cats)
		require.NoError(t, f.posts.UpdatePost(f.ctx, f.leo, edit))

		got, err := f.posts.GetPost(f.ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, "edited", got.Text)
		assert.Equal(t, f.leo.ID, got.AuthorID)
		assert.True(t, got.InGroup(f.cats.ID))
	})

	t.Run("someone else edits", func(t *testing.T) {
		err := f.posts.UpdatePost(f.ctx, f.fyo, &models.Post{ID: post.ID, Text: "hijacked"})
		assert.ErrorIs(t, err, ErrNotAuthor)

		got, err := f.posts.GetPost(f.ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, "edited", got.Text)
	})

	t.Run("invalid edit", func(t *testing.T) {
		err := f.posts.UpdatePost(f.ctx, f.leo, &models.Post{ID: post.ID, Text: ""})
		assert.ErrorIs(t, err, ErrInvalid)
	})
}

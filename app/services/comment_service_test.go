package services

import (
	"testing"
	"time"

	"yatube/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentService(t *testing.T) {
	f := newFixture(t)
	post := f.post(t, f.leo, "hello", nil, time.Now())
	service := NewCommentService(f.store.Comments, f.store.Posts)

	t.Run("add comment", func(t *testing.T) {
		c := &models.Comment{Text: "Nice post"}
		require.NoError(t, service.AddComment(f.ctx, post, f.fyo, c))
		assert.Equal(t, post.ID, c.PostID)
		assert.Equal(t, f.fyo.ID, c.AuthorID)
		assert.False(t, c.Created.IsZero())

		got, err := service.GetComment(f.ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "Nice post", got.Text)
	})

	t.Run("empty text", func(t *testing.T) {
		err := service.AddComment(f.ctx, post, f.fyo, &models.Comment{Text: ""})
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("nil post", func(t *testing.T) {
		err := service.AddComment(f.ctx, nil, f.fyo, &models.Comment{Text: "x"})
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("missing post", func(t *testing.T) {
		err := service.AddComment(f.ctx, &models.Post{ID: 999}, f.fyo, &models.Comment{Text: "x"})
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = service.ListPostComments(f.ctx, 999)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list", func(t *testing.T) {
		comments, err := service.ListPostComments(f.ctx, post.ID)
		require.NoError(t, err)
		assert.Len(t, comments, 1)
	})
}

func TestFollowService(t *testing.T) {
	f := newFixture(t)
	service := NewFollowService(f.store.Users, f.store.Follows)

	t.Run("follow and unfollow", func(t *testing.T) {
		require.NoError(t, service.Follow(f.ctx, f.fyo, f.leo))
		require.NoError(t, service.Follow(f.ctx, f.fyo, f.leo))

		ok, err := service.IsFollowing(f.ctx, f.fyo, f.leo)
		require.NoError(t, err)
		assert.True(t, ok)
		n, err := f.store.Follows.CountFollowers(f.ctx, f.leo.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		require.NoError(t, service.Unfollow(f.ctx, f.fyo, f.leo))
		require.NoError(t, service.Unfollow(f.ctx, f.fyo, f.leo))
		ok, err = service.IsFollowing(f.ctx, f.fyo, f.leo)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("self follow is ignored", func(t *testing.T) {
		require.NoError(t, service.Follow(f.ctx, f.leo, f.leo))
		ok, err := service.IsFollowing(f.ctx, f.leo, f.leo)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("anonymous never follows", func(t *testing.T) {
		ok, err := service.IsFollowing(f.ctx, nil, f.leo)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("author lookup", func(t *testing.T) {
		a, err := service.Author(f.ctx, "leo")
		require.NoError(t, err)
		assert.Equal(t, f.leo.ID, a.ID)

		_, err = service.Author(f.ctx, "ghost")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

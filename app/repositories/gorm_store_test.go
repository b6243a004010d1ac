package repositories

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"yatube/app/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestGormStoreSQLite(t *testing.T) {
	db, err := OpenSQL(sqlite.Open(filepath.Join(t.TempDir(), "yatube.db")), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	testGormStore(t, db)
}

func TestGormStoreMySQL(t *testing.T) {
	dsn := os.Getenv("YATUBE_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("YATUBE_TEST_MYSQL_DSN not set")
	}
	db, err := OpenMySQL(dsn, zerolog.Nop())
	require.NoError(t, err)
	for _, table := range []string{"comments", "posts", "follows", "sessions", "flat_pages", "`groups`", "users"} {
		require.NoError(t, db.Exec("DELETE FROM "+table).Error)
	}
	testGormStore(t, db)
}

func testGormStore(t *testing.T, db *gorm.DB) {
	store := NewGormStore(db)
	ctx := context.Background()

	author := &models.User{Username: "leo", DateJoined: time.Now()}
	require.NoError(t, store.Users.Create(ctx, author))
	assert.ErrorIs(t, store.Users.Create(ctx, &models.User{Username: "leo", DateJoined: time.Now()}), ErrDuplicate)
	reader := &models.User{Username: "fyodor", DateJoined: time.Now()}
	require.NoError(t, store.Users.Create(ctx, reader))

	got, err := store.Users.GetByUsername(ctx, "leo")
	require.NoError(t, err)
	assert.Equal(t, author.ID, got.ID)
	_, err = store.Users.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)

	group := &models.Group{Title: "Cats", Slug: "cats"}
	require.NoError(t, store.Groups.Create(ctx, group))
	assert.ErrorIs(t, store.Groups.Create(ctx, &models.Group{Title: "Cats again", Slug: "cats"}), ErrDuplicate)

	gid := group.ID
	first := &models.Post{Text: "first", AuthorID: author.ID, PubDate: time.Now().Add(-time.Minute)}
	second := &models.Post{Text: "second", AuthorID: author.ID, GroupID: &gid, PubDate: time.Now()}
	require.NoError(t, store.Posts.Create(ctx, first))
	require.NoError(t, store.Posts.Create(ctx, second))

	t.Run("posts newest first", func(t *testing.T) {
		posts, err := store.Posts.List(ctx, PostFilter{}, 10, 0)
		require.NoError(t, err)
		require.Len(t, posts, 2)
		assert.Equal(t, second.ID, posts[0].ID)
		assert.Equal(t, first.ID, posts[1].ID)

		posts, err = store.Posts.List(ctx, PostFilter{}, 1, 1)
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, first.ID, posts[0].ID)

		n, err := store.Posts.Count(ctx, PostFilter{GroupID: gid})
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		n, err = store.Posts.Count(ctx, PostFilter{AuthorIDs: []int{}})
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("update keeps author", func(t *testing.T) {
		edited := &models.Post{ID: first.ID, Text: "first, edited", AuthorID: reader.ID}
		require.NoError(t, store.Posts.Update(ctx, edited))
		p, err := store.Posts.GetByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, "first, edited", p.Text)
		assert.Equal(t, author.ID, p.AuthorID)

		assert.ErrorIs(t, store.Posts.Update(ctx, &models.Post{ID: 999, Text: "ghost"}), ErrNotFound)
	})

	t.Run("follows are idempotent", func(t *testing.T) {
		require.NoError(t, store.Follows.Create(ctx, &models.Follow{UserID: reader.ID, AuthorID: author.ID, Created: time.Now()}))
		require.NoError(t, store.Follows.Create(ctx, &models.Follow{UserID: reader.ID, AuthorID: author.ID, Created: time.Now()}))
		ids, err := store.Follows.ListAuthorIDs(ctx, reader.ID)
		require.NoError(t, err)
		assert.Equal(t, []int{author.ID}, ids)

		ok, err := store.Follows.Exists(ctx, reader.ID, author.ID)
		require.NoError(t, err)
		assert.True(t, ok)
		n, err := store.Follows.CountFollowers(ctx, author.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		require.NoError(t, store.Follows.Delete(ctx, reader.ID, author.ID))
		ok, err = store.Follows.Exists(ctx, reader.ID, author.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("flat pages upsert", func(t *testing.T) {
		require.NoError(t, store.FlatPages.Save(ctx, &models.FlatPage{URL: "/about-us/", Title: "About", Content: "v1"}))
		require.NoError(t, store.FlatPages.Save(ctx, &models.FlatPage{URL: "/about-us/", Title: "About", Content: "v2"}))
		page, err := store.FlatPages.GetByURL(ctx, "/about-us/")
		require.NoError(t, err)
		assert.Equal(t, "v2", page.Content)
		pages, err := store.FlatPages.List(ctx)
		require.NoError(t, err)
		assert.Len(t, pages, 1)
	})

	t.Run("sessions expire", func(t *testing.T) {
		now := time.Now()
		require.NoError(t, store.Sessions.Create(ctx, &models.Session{ID: "live", UserID: author.ID, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}))
		require.NoError(t, store.Sessions.Create(ctx, &models.Session{ID: "stale", UserID: author.ID, CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}))

		s, err := store.Sessions.Get(ctx, "live")
		require.NoError(t, err)
		assert.Equal(t, author.ID, s.UserID)
		_, err = store.Sessions.Get(ctx, "stale")
		assert.ErrorIs(t, err, ErrNotFound)

		n, err := store.Sessions.DeleteExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("deletes cascade", func(t *testing.T) {
		require.NoError(t, store.Comments.Create(ctx, &models.Comment{PostID: first.ID, AuthorID: reader.ID, Text: "hi", Created: time.Now()}))
		assert.ErrorIs(t, store.Comments.Create(ctx, &models.Comment{PostID: 999, AuthorID: reader.ID, Text: "lost", Created: time.Now()}), ErrNotFound)

		require.NoError(t, store.Posts.Delete(ctx, first.ID))
		n, err := store.Comments.CountByPost(ctx, first.ID)
		require.NoError(t, err)
		assert.Zero(t, n)

		require.NoError(t, store.Groups.Delete(ctx, gid))
		_, err = store.Posts.GetByID(ctx, second.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = store.Groups.GetBySlug(ctx, "cats")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

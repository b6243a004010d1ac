package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"yatube/app/config"
)

func testEnv(t *testing.T, input string) (*Env, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(t.TempDir(), "db")
	cfg.Auth.BcryptCost = bcrypt.MinCost
	var out bytes.Buffer
	return &Env{Config: cfg, In: strings.NewReader(input), Out: &out}, &out
}

func TestDBInit(t *testing.T) {
	env, out := testEnv(t, "")

	require.NoError(t, DB(env, []string{"init"}))
	assert.Contains(t, out.String(), "Database initialized")
	assert.DirExists(t, env.Config.Database.Path)

	out.Reset()
	require.NoError(t, DB(env, []string{"init"}))
	assert.Contains(t, out.String(), "already exists")
}

func TestDBUsage(t *testing.T) {
	env, _ := testEnv(t, "")
	assert.ErrorIs(t, DB(env, nil), ErrUsage)
	assert.ErrorIs(t, DB(env, []string{"vacuum"}), ErrUsage)
	assert.ErrorIs(t, DB(env, []string{"restore"}), ErrUsage)
}

func TestDBClean(t *testing.T) {
	t.Run("declined", func(t *testing.T) {
		env, out := testEnv(t, "n\n")
		require.NoError(t, DB(env, []string{"init"}))
		require.NoError(t, DB(env, []string{"clean"}))
		assert.Contains(t, out.String(), "Operation cancelled")
		assert.DirExists(t, env.Config.Database.Path)
	})

	t.Run("confirmed", func(t *testing.T) {
		env, out := testEnv(t, "y\n")
		require.NoError(t, DB(env, []string{"init"}))
		require.NoError(t, DB(env, []string{"clean"}))
		assert.Contains(t, out.String(), "Database cleaned successfully")
		assert.NoDirExists(t, env.Config.Database.Path)
	})
}

func TestBackupAndRestore(t *testing.T) {
	ctx := context.Background()
	env, out := testEnv(t, "y\n")

	require.NoError(t, User(ctx, env, []string{"create", "leo", "war-and-peace", "leo@example.com"}))
	assert.Contains(t, out.String(), `User "leo" created`)
	require.NoError(t, Group(ctx, env, []string{"create", "cats", "Cats", "All", "about", "cats"}))

	backup := filepath.Join(t.TempDir(), "yatube.bak")
	require.NoError(t, DB(env, []string{"backup", backup}))
	info, err := os.Stat(backup)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())

	require.NoError(t, DB(env, []string{"restore", backup}))
	assert.Contains(t, out.String(), "Database restored")

	s, err := openStore(env.Config.Database)
	require.NoError(t, err)
	defer s.close()
	u, err := s.Users.GetByUsername(ctx, "leo")
	require.NoError(t, err)
	assert.Equal(t, "leo@example.com", u.Email)
	g, err := s.Groups.GetBySlug(ctx, "cats")
	require.NoError(t, err)
	assert.Equal(t, "All about cats", g.Description)
}

func TestBackupWithoutDatabase(t *testing.T) {
	env, _ := testEnv(t, "")
	assert.Error(t, DB(env, []string{"backup"}))
}

func TestFlatPage(t *testing.T) {
	ctx := context.Background()

	t.Run("from stdin", func(t *testing.T) {
		env, out := testEnv(t, "<p>We write.</p>")
		require.NoError(t, FlatPage(ctx, env, []string{"set", "/about-us/", "About us"}))
		assert.Contains(t, out.String(), "Flat page /about-us/ saved")

		s, err := openStore(env.Config.Database)
		require.NoError(t, err)
		defer s.close()
		page, err := s.FlatPages.GetByURL(ctx, "/about-us/")
		require.NoError(t, err)
		assert.Equal(t, "<p>We write.</p>", page.Content)
	})

	t.Run("from file", func(t *testing.T) {
		env, _ := testEnv(t, "")
		file := filepath.Join(t.TempDir(), "terms.html")
		require.NoError(t, os.WriteFile(file, []byte("<p>Be kind.</p>"), 0o644))
		require.NoError(t, FlatPage(ctx, env, []string{"set", "/terms/", "Terms", file}))
	})

	t.Run("bad url", func(t *testing.T) {
		env, _ := testEnv(t, "x")
		assert.Error(t, FlatPage(ctx, env, []string{"set", "terms", "Terms"}))
	})

	t.Run("usage", func(t *testing.T) {
		env, _ := testEnv(t, "")
		assert.ErrorIs(t, FlatPage(ctx, env, []string{"get", "/terms/"}), ErrUsage)
	})
}

func TestUserAndGroupValidation(t *testing.T) {
	ctx := context.Background()
	env, _ := testEnv(t, "")

	assert.ErrorIs(t, User(ctx, env, []string{"create", "leo"}), ErrUsage)
	assert.Error(t, User(ctx, env, []string{"create", "leo tolstoy", "pw"}))
	assert.Error(t, Group(ctx, env, []string{"create", "not a slug", "Title"}))

	require.NoError(t, User(ctx, env, []string{"create", "leo", "pw"}))
	assert.Error(t, User(ctx, env, []string{"create", "leo", "pw"}))
}

package controllers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"yatube/app/middleware"
	"yatube/app/models"
	"yatube/app/repositories"
	"yatube/app/repositories/mock"
	"yatube/app/services"
	"yatube/app/views"
)

var smallGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x02, 0x00,
	0x01, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xFF, 0xFF, 0xFF, 0x21, 0xF9, 0x04, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x2C, 0x00, 0x00, 0x00, 0x00,
	0x02, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x0C,
	0x0A, 0x00, 0x3B,
}

type fixture struct {
	ctx      context.Context
	store    *repositories.Store
	posts    *services.PostService
	auth     *services.AuthService
	mediaDir string
	router   *mux.Router

	leo  *models.User
	fyo  *models.User
	cats *models.Group
}

// newFixture wires every controller onto a bare router. Login checks are
// left to the middleware tests; requests carry their user via asUser.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{ctx: context.Background(), store: mock.NewStore(), mediaDir: t.TempDir()}
	f.posts = services.NewPostService(f.store, services.DefaultPageSizes())
	f.auth = services.NewAuthService(f.store.Users, f.store.Sessions, bcrypt.MinCost, time.Hour)

	f.leo = &models.User{Username: "leo", FirstName: "Leo"}
	require.NoError(t, f.auth.Register(f.ctx, f.leo, "war-and-peace"))
	f.fyo = &models.User{Username: "fyodor"}
	require.NoError(t, f.auth.Register(f.ctx, f.fyo, "the-idiot-1869"))
	f.cats = &models.Group{Title: "Cats", Slug: "cats", Description: "All about cats"}
	require.NoError(t, f.store.Groups.Create(f.ctx, f.cats))

	renderer, err := views.New("/media/")
	require.NoError(t, err)
	sessions := middleware.NewSessions(f.auth, middleware.SessionOptions{
		CookieName: "sessionid",
		TTL:        time.Hour,
		HashKey:    []byte(strings.Repeat("h", 32)),
	})

	postC := NewPostController(renderer, f.posts, services.NewFileMediaStore(f.mediaDir), 1<<20)
	commentC := NewCommentController(renderer, postC, services.NewCommentService(f.store.Comments, f.store.Posts))
	profileC := NewProfileController(renderer, f.posts, services.NewFollowService(f.store.Users, f.store.Follows))
	authC := NewAuthController(renderer, f.auth, sessions)
	pageC := NewPageController(renderer, services.NewSiteService(f.store.Groups, f.store.FlatPages))

	r := mux.NewRouter()
	r.HandleFunc("/", postC.Index)
	r.HandleFunc("/new/", postC.New)
	r.HandleFunc("/follow/", postC.FollowIndex)
	r.HandleFunc("/group/{slug}/", postC.GroupPosts)
	r.HandleFunc("/auth/signup/", authC.Signup)
	r.HandleFunc("/auth/login/", authC.Login)
	r.HandleFunc("/auth/logout/", authC.Logout)
	r.HandleFunc("/about-us/", pageC.FlatPage("/about-us/"))
	r.HandleFunc("/about/{url:.+}", pageC.About)
	r.HandleFunc("/healthz", pageC.Healthz)
	r.HandleFunc("/api/posts/{post_id:[0-9]+}", postC.APIShow)
	r.HandleFunc("/api/posts/{post_id:[0-9]+}/comments", commentC.APIIndex)
	r.HandleFunc("/api/users/{username}/posts", postC.APIUserPosts)
	r.HandleFunc("/{username}/", profileC.Show)
	r.HandleFunc("/{username}/follow/", profileC.Follow)
	r.HandleFunc("/{username}/unfollow/", profileC.Unfollow)
	r.HandleFunc("/{username}/{post_id:[0-9]+}/", postC.Show)
	r.HandleFunc("/{username}/{post_id:[0-9]+}/edit/", postC.Edit)
	r.HandleFunc("/{username}/{post_id:[0-9]+}/comment/", commentC.Create)
	r.NotFoundHandler = http.HandlerFunc(pageC.NotFound)
	f.router = r
	return f
}

func (f *fixture) post(t *testing.T, author *models.User, text string, group *models.Group) *models.Post {
	t.Helper()
	p := &models.Post{Text: text}
	p.SetGroup(group)
	require.NoError(t, f.posts.CreatePost(f.ctx, author, p))
	return p
}

func (f *fixture) do(req *http.Request, user *models.User) *httptest.ResponseRecorder {
	if user != nil {
		req = req.WithContext(middleware.WithUser(req.Context(), user))
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) get(path string, user *models.User) *httptest.ResponseRecorder {
	return f.do(httptest.NewRequest(http.MethodGet, path, nil), user)
}

func (f *fixture) postForm(path string, values url.Values, user *models.User) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return f.do(req, user)
}

func (f *fixture) postMultipart(t *testing.T, path string, fields map[string]string, fileName string, file []byte, user *models.User) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		part, err := mw.CreateFormFile("image", fileName)
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return f.do(req, user)
}

func (f *fixture) count(t *testing.T, filter repositories.PostFilter) int {
	t.Helper()
	n, err := f.store.Posts.Count(f.ctx, filter)
	require.NoError(t, err)
	return n
}

package routes

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"yatube/app/cache"
	"yatube/app/config"
	"yatube/app/middleware"
	"yatube/app/models"
	"yatube/app/repositories"
	"yatube/app/services"
)

var smallGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x02, 0x00,
	0x01, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xFF, 0xFF, 0xFF, 0x21, 0xF9, 0x04, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x2C, 0x00, 0x00, 0x00, 0x00,
	0x02, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x0C,
	0x0A, 0x00, 0x3B,
}

// site is a full server over an in-memory Badger store.
type site struct {
	t      *testing.T
	ctx    context.Context
	store  *repositories.Store
	pages  *cache.PageCache
	server *httptest.Server
}

func newSite(t *testing.T) *site {
	t.Helper()
	db, err := repositories.OpenBadger(repositories.BadgerOptions{InMemory: true, Logger: zerolog.Nop()})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := config.Default()
	cfg.Media.Dir = t.TempDir()
	cfg.Media.StaticDir = t.TempDir()
	cfg.Auth.BcryptCost = bcrypt.MinCost
	cfg.Session.HashKey = strings.Repeat("k", 32)

	pages, err := cache.New(cfg.Cache.MaxCost, cfg.Cache.TTL)
	require.NoError(t, err)
	t.Cleanup(pages.Close)

	s := &site{t: t, ctx: context.Background(), store: repositories.NewBadgerStore(db), pages: pages}
	handler, err := SetupRoutes(Deps{
		Config:  cfg,
		Store:   s.store,
		Pages:   pages,
		Limiter: middleware.NewRateLimiter(100, 100),
	})
	require.NoError(t, err)
	s.server = httptest.NewServer(handler)
	t.Cleanup(s.server.Close)
	return s
}

func (s *site) register(username, password string) *models.User {
	s.t.Helper()
	auth := services.NewAuthService(s.store.Users, s.store.Sessions, bcrypt.MinCost, 0)
	u := &models.User{Username: username, FirstName: strings.ToUpper(username[:1]) + username[1:]}
	require.NoError(s.t, auth.Register(s.ctx, u, password))
	return u
}

func (s *site) group(slug string) *models.Group {
	s.t.Helper()
	g := &models.Group{Title: strings.ToUpper(slug[:1]) + slug[1:], Slug: slug}
	require.NoError(s.t, s.store.Groups.Create(s.ctx, g))
	return g
}

func (s *site) posts(filter repositories.PostFilter) []*models.Post {
	s.t.Helper()
	posts, err := s.store.Posts.List(s.ctx, filter, 100, 0)
	require.NoError(s.t, err)
	return posts
}

var csrfInput = regexp.MustCompile(`name="` + middleware.CSRFFieldName + `" value="([^"]+)"`)

// client is a browser: it keeps cookies, does not follow redirects and
// submits forms with the CSRF token a rendered form would carry.
type client struct {
	s     *site
	http  *http.Client
	token string
}

type result struct {
	status   int
	location string
	header   http.Header
	body     string
}

func (s *site) client() *client {
	jar, err := cookiejar.New(nil)
	require.NoError(s.t, err)
	return &client{s: s, http: &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}}
}

func (c *client) do(req *http.Request) *result {
	c.s.t.Helper()
	resp, err := c.http.Do(req)
	require.NoError(c.s.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(c.s.t, err)
	return &result{
		status:   resp.StatusCode,
		location: resp.Header.Get("Location"),
		header:   resp.Header,
		body:     string(body),
	}
}

func (c *client) get(path string) *result {
	c.s.t.Helper()
	return c.getWith(path, nil)
}

func (c *client) getWith(path string, header http.Header) *result {
	c.s.t.Helper()
	req, err := http.NewRequest(http.MethodGet, c.s.server.URL+path, nil)
	require.NoError(c.s.t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	return c.do(req)
}

// csrfToken reads the token from the login form once per client.
func (c *client) csrfToken() string {
	c.s.t.Helper()
	if c.token == "" {
		res := c.get("/auth/login/")
		m := csrfInput.FindStringSubmatch(res.body)
		require.NotNil(c.s.t, m, "login form has no csrf field")
		c.token = m[1]
	}
	return c.token
}

func (c *client) postForm(path string, values url.Values) *result {
	c.s.t.Helper()
	form := url.Values{middleware.CSRFFieldName: {c.csrfToken()}}
	for k, v := range values {
		form[k] = v
	}
	return c.postRaw(path, form)
}

// postRaw submits values exactly as given.
func (c *client) postRaw(path string, values url.Values) *result {
	c.s.t.Helper()
	req, err := http.NewRequest(http.MethodPost, c.s.server.URL+path, strings.NewReader(values.Encode()))
	require.NoError(c.s.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *client) postMultipart(path string, fields map[string]string, fileName string, file []byte) *result {
	c.s.t.Helper()
	token := c.csrfToken()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(c.s.t, mw.WriteField(middleware.CSRFFieldName, token))
	for k, v := range fields {
		require.NoError(c.s.t, mw.WriteField(k, v))
	}
	if fileName != "" {
		part, err := mw.CreateFormFile("image", fileName)
		require.NoError(c.s.t, err)
		_, err = part.Write(file)
		require.NoError(c.s.t, err)
	}
	require.NoError(c.s.t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, c.s.server.URL+path, &body)
	require.NoError(c.s.t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req)
}

func (c *client) login(username, password string) {
	c.s.t.Helper()
	res := c.postForm("/auth/login/", url.Values{"username": {username}, "password": {password}})
	require.Equal(c.s.t, http.StatusFound, res.status, res.body)
	require.Equal(c.s.t, "/", res.location)
}

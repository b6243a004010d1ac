package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"yatube/app/cache"
	"yatube/app/logging"
	"yatube/app/models"
	"yatube/app/repositories/mock"
	"yatube/app/services"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.RequestIDFromContext(r.Context())
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "upstream-1")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "upstream-1", seen)
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := logging.Logger()
	logging.SetLogger(zerolog.New(&buf))
	t.Cleanup(func() { logging.SetLogger(prev) })

	handler := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", nil))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/test", entry["path"])
	assert.Equal(t, float64(http.StatusTeapot), entry["status"])
	assert.Equal(t, float64(15), entry["bytes"])
	assert.Contains(t, entry, "took")
}

func TestRecoverer(t *testing.T) {
	prev := logging.Logger()
	logging.SetLogger(zerolog.Nop())
	t.Cleanup(func() { logging.SetLogger(prev) })

	handler := Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("test panic")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal Server Error\n", w.Body.String())

	page := RecoverWith(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("<h1>Error 500</h1>"))
	}))
	w = httptest.NewRecorder()
	page(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("again")
	})).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "<h1>Error 500</h1>", w.Body.String())
}

func TestContentTypeJSON(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		expectedHeader string
	}{
		{name: "API route", path: "/api/posts/", expectedHeader: "application/json"},
		{name: "Non-API route", path: "/group/cats/", expectedHeader: ""},
		{name: "Short path", path: "/", expectedHeader: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ContentTypeJSON(ok).ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.expectedHeader, w.Header().Get("Content-Type"))
		})
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	Chain(ok, mark("outer"), mark("inner")).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"outer", "inner"}, order)
}

func newSessions(t *testing.T) (*Sessions, *models.User) {
	t.Helper()
	store := mock.NewStore()
	auth := services.NewAuthService(store.Users, store.Sessions, bcrypt.MinCost, time.Hour)
	user := &models.User{Username: "leo"}
	require.NoError(t, auth.Register(context.Background(), user, "war-and-peace"))

	sessions := NewSessions(auth, SessionOptions{
		CookieName: "sessionid",
		TTL:        time.Hour,
		HashKey:    []byte(strings.Repeat("k", 32)),
	})
	return sessions, user
}

func TestSessions(t *testing.T) {
	sessions, user := newSessions(t)

	login := httptest.NewRecorder()
	require.NoError(t, sessions.Login(login, httptest.NewRequest(http.MethodPost, "/auth/login/", nil), user))
	cookies := login.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sessionid", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	var current *models.User
	handler := sessions.Load(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		current = CurrentUser(r.Context())
	}))

	t.Run("valid cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(cookies[0])
		handler.ServeHTTP(httptest.NewRecorder(), req)
		require.NotNil(t, current)
		assert.Equal(t, "leo", current.Username)
	})

	t.Run("tampered cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "sessionid", Value: "forged"})
		handler.ServeHTTP(httptest.NewRecorder(), req)
		assert.Nil(t, current)
	})

	t.Run("logout", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/logout/", nil)
		req.AddCookie(cookies[0])
		w := httptest.NewRecorder()
		require.NoError(t, sessions.Logout(w, req))
		assert.Equal(t, -1, w.Result().Cookies()[0].MaxAge)

		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(cookies[0])
		w = httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Nil(t, current)
		require.NotEmpty(t, w.Result().Cookies(), "stale cookie is cleared")
	})
}

func TestLoginRequired(t *testing.T) {
	handler := LoginRequired(ok)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/new/", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login/?next=/new/", w.Header().Get("Location"))

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/leo/1/edit/", nil)
	handler.ServeHTTP(w, req.WithContext(WithUser(req.Context(), &models.User{ID: 1, Username: "leo"})))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoginRedirect(t *testing.T) {
	assert.Equal(t, "/auth/login/?next=/follow/", LoginRedirect("/follow/"))
	assert.Equal(t, "/auth/login/?next=/follow/%3Fpage%3D2", LoginRedirect("/follow/?page=2"))
}

func TestCachePage(t *testing.T) {
	pages, err := cache.New(1<<20, time.Minute)
	require.NoError(t, err)
	t.Cleanup(pages.Close)

	body := "first"
	handler := CachePage(pages, "index_page", "sessionid")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}))

	get := func(cookie string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if cookie != "" {
			req.AddCookie(&http.Cookie{Name: "sessionid", Value: cookie})
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, "first", get("").Body.String())
	body = "second"

	cached := get("")
	assert.Equal(t, "first", cached.Body.String())
	assert.Equal(t, "text/html; charset=utf-8", cached.Header().Get("Content-Type"))
	assert.Equal(t, "second", get("someone").Body.String(), "sessions get their own entry")

	pages.Clear()
	assert.Equal(t, "second", get("").Body.String())
}

func TestCachePageSeparatesRepresentations(t *testing.T) {
	pages, err := cache.New(1<<20, time.Minute)
	require.NoError(t, err)
	t.Cleanup(pages.Close)

	handler := CachePage(pages, "index_page", "sessionid")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if WantsJSON(r) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"posts":[]}`))
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<p>posts</p>"))
	}))

	get := func(accept string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if accept != "" {
			req.Header.Set("Accept", accept)
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, `{"posts":[]}`, get("application/json").Body.String())
	html := get("text/html")
	assert.Equal(t, "<p>posts</p>", html.Body.String())
	assert.Equal(t, "text/html; charset=utf-8", html.Header().Get("Content-Type"))
	assert.ElementsMatch(t, []string{"Accept", "Cookie"}, html.Header().Values("Vary"))
	assert.Equal(t, "application/json", get("application/json").Header().Get("Content-Type"))
}

func TestCachePageDropsPerRequestHeaders(t *testing.T) {
	pages, err := cache.New(1<<20, time.Minute)
	require.NoError(t, err)
	t.Cleanup(pages.Close)

	handler := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "visitor", Value: "first"})
		_, _ = w.Write([]byte("page"))
	}), RequestID, CachePage(pages, "index_page", "sessionid"))

	get := func(id string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", id)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	first := get("one")
	assert.Equal(t, "one", first.Header().Get("X-Request-ID"))
	assert.NotEmpty(t, first.Header().Get("Set-Cookie"))

	second := get("two")
	assert.Equal(t, "page", second.Body.String())
	assert.Equal(t, []string{"two"}, second.Header().Values("X-Request-ID"))
	assert.Empty(t, second.Header().Get("Set-Cookie"))
}

func TestCSRF(t *testing.T) {
	protect := CSRF(CSRFOptions{Key: bytes.Repeat([]byte("c"), 32)})
	handler := protect(ok)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/new/", nil))
	assert.Equal(t, http.StatusOK, w.Code, "safe methods pass")

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/new/", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCachePageSkipsErrorsAndPosts(t *testing.T) {
	pages, err := cache.New(1<<20, time.Minute)
	require.NoError(t, err)
	t.Cleanup(pages.Close)

	calls := 0
	handler := CachePage(pages, "p", "sessionid")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing/", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing/", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/missing/", nil))
	assert.Equal(t, 3, calls)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	handler := rl.Limit("login")(ok)

	post := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/auth/login/", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, post("10.0.0.1:1234"))
	assert.Equal(t, http.StatusOK, post("10.0.0.1:1235"))
	assert.Equal(t, http.StatusTooManyRequests, post("10.0.0.1:1236"))
	assert.Equal(t, http.StatusOK, post("10.0.0.2:1234"), "limits are per client")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/login/", nil)
	req.RemoteAddr = "10.0.0.1:9999"
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, "GET is never limited")

	rl.idle = 0
	assert.Equal(t, 2, rl.Cleanup())
}

package middleware

import (
	"bytes"
	"net/http"
	"strings"

	"yatube/app/cache"
	"yatube/app/metrics"
)

// perRequestHeaders are never replayed from a cached page.
var perRequestHeaders = []string{"X-Request-ID", "Set-Cookie"}

// CachePage serves GET responses from pages for the cache's TTL. The key
// covers the full URL, the representation (HTML or JSON) and the session
// cookie, so logged-in and anonymous visitors never share an entry.
func CachePage(pages *cache.PageCache, prefix, cookieName string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if pages == nil || (r.Method != http.MethodGet && r.Method != http.MethodHead) {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Add("Vary", "Accept")
			w.Header().Add("Vary", "Cookie")

			key := pageKey(prefix, r, cookieName)
			if page, ok := pages.Get(key); ok {
				metrics.RecordCacheLookup(true)
				for k, v := range page.Header {
					w.Header()[k] = v
				}
				w.WriteHeader(page.Status)
				if r.Method == http.MethodGet {
					_, _ = w.Write(page.Body)
				}
				return
			}
			metrics.RecordCacheLookup(false)

			rec := &bufferingWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.status == http.StatusOK && r.Method == http.MethodGet {
				header := w.Header().Clone()
				for _, h := range perRequestHeaders {
					header.Del(h)
				}
				pages.Set(key, &cache.Page{
					Status: rec.status,
					Header: header,
					Body:   rec.buf.Bytes(),
				})
			}
		})
	}
}

func pageKey(prefix string, r *http.Request, cookieName string) string {
	key := prefix + ":" + r.Host + r.URL.RequestURI()
	if WantsJSON(r) {
		key += "|json"
	}
	if c, err := r.Cookie(cookieName); err == nil {
		key += "|" + c.Value
	}
	return key
}

// bufferingWriter tees the body so it can be stored after the handler returns.
type bufferingWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	wrote  bool
}

func (b *bufferingWriter) WriteHeader(code int) {
	if !b.wrote {
		b.status = code
		b.wrote = true
	}
	b.ResponseWriter.WriteHeader(code)
}

func (b *bufferingWriter) Write(p []byte) (int, error) {
	b.wrote = true
	b.buf.Write(p)
	return b.ResponseWriter.Write(p)
}

// WantsJSON reports whether the response should be JSON rather than HTML:
// API paths always are, other pages when the client asks for it.
func WantsJSON(r *http.Request) bool {
	return r.Header.Get("Accept") == "application/json" || strings.HasPrefix(r.URL.Path, "/api/")
}

// Package controllers turns HTTP requests into service calls and renders
// the result as HTML or, for API requests, JSON.
package controllers

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"

	"yatube/app/logging"
	"yatube/app/middleware"
	"yatube/app/services"
	"yatube/app/views"
)

// Data is the template context for a page.
type Data map[string]interface{}

// base holds what every controller needs to answer a request.
type base struct {
	views *views.Renderer
}

func wantsJSON(r *http.Request) bool {
	return middleware.WantsJSON(r)
}

// render writes page name with status. The current user, request path and
// CSRF field are always available to templates. A page that fails to render
// is replaced by the 500 page.
func (b *base) render(w http.ResponseWriter, r *http.Request, status int, name string, data Data) {
	if data == nil {
		data = Data{}
	}
	data["User"] = middleware.CurrentUser(r.Context())
	data["Path"] = r.URL.Path
	data["CSRFField"] = csrf.TemplateField(r)

	var buf bytes.Buffer
	if err := b.views.Render(&buf, name, data); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("page", name).Msg("template error")
		if name == "500" {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		b.render(w, r, http.StatusInternalServerError, "500", nil)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (b *base) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (b *base) sendError(w http.ResponseWriter, r *http.Request, message string, status int) {
	if wantsJSON(r) {
		b.sendJSON(w, status, map[string]string{"error": message})
		return
	}
	switch status {
	case http.StatusNotFound:
		b.render(w, r, status, "404", nil)
	case http.StatusInternalServerError:
		b.render(w, r, status, "500", nil)
	default:
		http.Error(w, message, status)
	}
}

// fail maps a service error to 404 or 500.
func (b *base) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, services.ErrNotFound) {
		b.sendError(w, r, "Not found", http.StatusNotFound)
		return
	}
	logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	b.sendError(w, r, "Internal Server Error", http.StatusInternalServerError)
}

// NotFound renders the 404 page for unmatched routes.
func (b *base) NotFound(w http.ResponseWriter, r *http.Request) {
	b.sendError(w, r, "Not found", http.StatusNotFound)
}

// ServerError renders the 500 page.
func (b *base) ServerError(w http.ResponseWriter, r *http.Request) {
	b.sendError(w, r, "Internal Server Error", http.StatusInternalServerError)
}

// feedJSON is the API shape of one page of posts.
type feedJSON struct {
	Posts    interface{} `json:"posts"`
	Page     int         `json:"page"`
	NumPages int         `json:"num_pages"`
	Count    int         `json:"count"`
}

func (b *base) sendFeed(w http.ResponseWriter, feed *services.Feed) {
	b.sendJSON(w, http.StatusOK, feedJSON{
		Posts:    feed.Posts,
		Page:     feed.Page.Number,
		NumPages: feed.Page.NumPages,
		Count:    feed.Page.Count,
	})
}

// postID parses the post_id route variable. Routes constrain it to digits,
// so a failure means the number overflowed and the post cannot exist.
func postID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["post_id"])
	return id, err == nil
}

func postURL(username string, id int) string {
	return "/" + username + "/" + strconv.Itoa(id) + "/"
}

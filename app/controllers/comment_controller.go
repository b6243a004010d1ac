package controllers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"yatube/app/forms"
	"yatube/app/metrics"
	"yatube/app/middleware"
	"yatube/app/services"
	"yatube/app/views"
)

// CommentController handles comments on posts.
type CommentController struct {
	base
	posts    *PostController
	comments *services.CommentService
}

// NewCommentController creates a new CommentController. Invalid comments
// re-render the post page through posts.
func NewCommentController(v *views.Renderer, posts *PostController, comments *services.CommentService) *CommentController {
	return &CommentController{base: base{views: v}, posts: posts, comments: comments}
}

// Create stores a comment from the current user. A GET just goes back to the post.
func (cc *CommentController) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := mux.Vars(r)["username"]
	id, ok := postID(r)
	if !ok {
		cc.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		http.Redirect(w, r, postURL(username, id), http.StatusFound)
		return
	}

	post, _, err := cc.posts.posts.AuthoredPost(ctx, username, id)
	if err != nil {
		cc.fail(w, r, err)
		return
	}

	form, err := forms.BindCommentForm(r)
	if err != nil {
		cc.sendError(w, r, err.Error(), http.StatusBadRequest)
		return
	}
	if !form.Valid() {
		cc.posts.showPost(w, r, http.StatusOK, form)
		return
	}

	comment := form.Comment()
	if err := cc.comments.AddComment(ctx, post, middleware.CurrentUser(ctx), comment); err != nil {
		if errors.Is(err, services.ErrInvalid) {
			form.Errors.Add(forms.NonFieldErrors, err.Error())
			cc.posts.showPost(w, r, http.StatusOK, form)
			return
		}
		cc.fail(w, r, err)
		return
	}
	metrics.RecordCreated("comment")
	http.Redirect(w, r, postURL(username, id), http.StatusFound)
}

// APIIndex returns a post's comments, newest first.
func (cc *CommentController) APIIndex(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		cc.NotFound(w, r)
		return
	}
	comments, err := cc.comments.ListPostComments(r.Context(), id)
	if err != nil {
		cc.fail(w, r, err)
		return
	}
	cc.sendJSON(w, http.StatusOK, map[string]interface{}{"comments": comments, "count": len(comments)})
}

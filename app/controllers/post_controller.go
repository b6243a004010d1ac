package controllers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"yatube/app/forms"
	"yatube/app/logging"
	"yatube/app/metrics"
	"yatube/app/middleware"
	"yatube/app/models"
	"yatube/app/services"
	"yatube/app/views"
)

// PostController handles feeds and post pages.
type PostController struct {
	base
	posts     *services.PostService
	media     services.MediaStore
	maxUpload int64
}

// NewPostController creates a new PostController
func NewPostController(v *views.Renderer, posts *services.PostService, media services.MediaStore, maxUpload int64) *PostController {
	return &PostController{base: base{views: v}, posts: posts, media: media, maxUpload: maxUpload}
}

// Index lists every post, newest first.
func (pc *PostController) Index(w http.ResponseWriter, r *http.Request) {
	feed, err := pc.posts.Index(r.Context(), r.URL.Query().Get("page"))
	if err != nil {
		pc.fail(w, r, err)
		return
	}
	if wantsJSON(r) {
		pc.sendFeed(w, feed)
		return
	}
	pc.render(w, r, http.StatusOK, "index", Data{"Feed": feed})
}

// GroupPosts lists the posts filed under a group.
func (pc *PostController) GroupPosts(w http.ResponseWriter, r *http.Request) {
	group, feed, err := pc.posts.GroupFeed(r.Context(), mux.Vars(r)["slug"], r.URL.Query().Get("page"))
	if err != nil {
		pc.fail(w, r, err)
		return
	}
	if wantsJSON(r) {
		pc.sendFeed(w, feed)
		return
	}
	pc.render(w, r, http.StatusOK, "group", Data{"Group": group, "Feed": feed})
}

// FollowIndex lists posts by the authors the current user follows.
func (pc *PostController) FollowIndex(w http.ResponseWriter, r *http.Request) {
	feed, err := pc.posts.FollowFeed(r.Context(), middleware.CurrentUser(r.Context()), r.URL.Query().Get("page"))
	if err != nil {
		pc.fail(w, r, err)
		return
	}
	if wantsJSON(r) {
		pc.sendFeed(w, feed)
		return
	}
	pc.render(w, r, http.StatusOK, "follow", Data{"Feed": feed})
}

// Show displays a single post with its comments.
func (pc *PostController) Show(w http.ResponseWriter, r *http.Request) {
	pc.showPost(w, r, http.StatusOK, forms.NewCommentForm())
}

// showPost renders the post page with form as the comment form.
func (pc *PostController) showPost(w http.ResponseWriter, r *http.Request, status int, form *forms.CommentForm) {
	id, ok := postID(r)
	if !ok {
		pc.NotFound(w, r)
		return
	}
	viewer := middleware.CurrentUser(r.Context())
	detail, err := pc.posts.Detail(r.Context(), mux.Vars(r)["username"], id, viewer)
	if err != nil {
		pc.fail(w, r, err)
		return
	}
	if wantsJSON(r) {
		pc.sendJSON(w, http.StatusOK, detail.Post)
		return
	}
	pc.render(w, r, status, "post", Data{
		"Post":      detail.Post,
		"Author":    detail.Author,
		"PostCount": detail.PostCount,
		"Comments":  detail.Comments,
		"Following": detail.IsFollowing,
		"Form":      form,
	})
}

// New shows and handles the new post form.
func (pc *PostController) New(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	groups, err := pc.posts.Groups(ctx)
	if err != nil {
		pc.fail(w, r, err)
		return
	}

	if r.Method != http.MethodPost {
		pc.render(w, r, http.StatusOK, "new_post", Data{"Form": forms.NewPostForm(groups)})
		return
	}

	form, err := forms.BindPostForm(r, groups, pc.maxUpload)
	if err != nil {
		pc.sendError(w, r, err.Error(), http.StatusBadRequest)
		return
	}
	if !form.Valid() {
		pc.render(w, r, http.StatusOK, "new_post", Data{"Form": form})
		return
	}

	post := &models.Post{}
	form.Apply(post)
	if form.Image != nil {
		if post.Image, err = pc.media.Save(form.Image); err != nil {
			pc.fail(w, r, err)
			return
		}
	}

	if err := pc.posts.CreatePost(ctx, middleware.CurrentUser(ctx), post); err != nil {
		pc.discard(r, post.Image)
		if errors.Is(err, services.ErrInvalid) {
			form.Errors.Add(forms.NonFieldErrors, err.Error())
			pc.render(w, r, http.StatusOK, "new_post", Data{"Form": form})
			return
		}
		pc.fail(w, r, err)
		return
	}
	metrics.RecordCreated("post")
	logging.Ctx(ctx).Info().Int("post_id", post.ID).Int("author_id", post.AuthorID).Msg("post created")
	http.Redirect(w, r, "/", http.StatusFound)
}

// Edit shows and handles the edit form. Anyone other than the author is
// sent back to the post.
func (pc *PostController) Edit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	username := vars["username"]
	id, ok := postID(r)
	if !ok {
		pc.NotFound(w, r)
		return
	}

	user := middleware.CurrentUser(ctx)
	if user.Username != username {
		http.Redirect(w, r, postURL(username, id), http.StatusFound)
		return
	}

	post, _, err := pc.posts.AuthoredPost(ctx, username, id)
	if err != nil {
		pc.fail(w, r, err)
		return
	}
	groups, err := pc.posts.Groups(ctx)
	if err != nil {
		pc.fail(w, r, err)
		return
	}

	if r.Method != http.MethodPost {
		pc.render(w, r, http.StatusOK, "new_post", Data{"Form": forms.PostFormFor(post, groups), "Post": post})
		return
	}

	form, err := forms.BindPostForm(r, groups, pc.maxUpload)
	if err != nil {
		pc.sendError(w, r, err.Error(), http.StatusBadRequest)
		return
	}
	form.CurrentImage = post.Image
	if !form.Valid() {
		pc.render(w, r, http.StatusOK, "new_post", Data{"Form": form, "Post": post})
		return
	}

	previous := post.Image
	form.Apply(post)
	switch {
	case form.Image != nil:
		if post.Image, err = pc.media.Save(form.Image); err != nil {
			pc.fail(w, r, err)
			return
		}
	case form.ClearImage:
		post.Image = ""
	}

	if err := pc.posts.UpdatePost(ctx, user, post); err != nil {
		if post.Image != previous {
			pc.discard(r, post.Image)
		}
		if errors.Is(err, services.ErrNotAuthor) {
			http.Redirect(w, r, postURL(username, id), http.StatusFound)
			return
		}
		if errors.Is(err, services.ErrInvalid) {
			form.Errors.Add(forms.NonFieldErrors, err.Error())
			pc.render(w, r, http.StatusOK, "new_post", Data{"Form": form, "Post": post})
			return
		}
		pc.fail(w, r, err)
		return
	}
	if post.Image != previous {
		pc.discard(r, previous)
	}
	http.Redirect(w, r, postURL(username, id), http.StatusFound)
}

// discard removes an image that no post refers to any more.
func (pc *PostController) discard(r *http.Request, name string) {
	if name == "" {
		return
	}
	if err := pc.media.Delete(name); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Str("image", name).Msg("failed to remove image")
	}
}

// APIShow returns one post as JSON.
func (pc *PostController) APIShow(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		pc.NotFound(w, r)
		return
	}
	post, err := pc.posts.GetPost(r.Context(), id)
	if err != nil {
		pc.fail(w, r, err)
		return
	}
	pc.sendJSON(w, http.StatusOK, post)
}

// APIUserPosts returns a page of one author's posts as JSON.
func (pc *PostController) APIUserPosts(w http.ResponseWriter, r *http.Request) {
	profile, err := pc.posts.Profile(r.Context(), mux.Vars(r)["username"], nil, r.URL.Query().Get("page"))
	if err != nil {
		pc.fail(w, r, err)
		return
	}
	pc.sendFeed(w, profile.Feed)
}

package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"yatube/app/metrics"
	"yatube/app/middleware"
	"yatube/app/services"
	"yatube/app/views"
)

// ProfileController handles author pages and subscriptions.
type ProfileController struct {
	base
	posts   *services.PostService
	follows *services.FollowService
}

// NewProfileController creates a new ProfileController
func NewProfileController(v *views.Renderer, posts *services.PostService, follows *services.FollowService) *ProfileController {
	return &ProfileController{base: base{views: v}, posts: posts, follows: follows}
}

// Show renders an author's page of posts.
func (pc *ProfileController) Show(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.CurrentUser(r.Context())
	profile, err := pc.posts.Profile(r.Context(), mux.Vars(r)["username"], viewer, r.URL.Query().Get("page"))
	if err != nil {
		pc.fail(w, r, err)
		return
	}
	if wantsJSON(r) {
		pc.sendFeed(w, profile.Feed)
		return
	}
	pc.render(w, r, http.StatusOK, "profile", Data{
		"Author":    profile.Author,
		"Profile":   profile,
		"PostCount": profile.PostCount,
		"Feed":      profile.Feed,
		"Following": profile.IsFollowing,
	})
}

// Follow subscribes the current user to the author.
func (pc *ProfileController) Follow(w http.ResponseWriter, r *http.Request) {
	author, err := pc.follows.Author(r.Context(), mux.Vars(r)["username"])
	if err != nil {
		pc.fail(w, r, err)
		return
	}
	user := middleware.CurrentUser(r.Context())
	if err := pc.follows.Follow(r.Context(), user, author); err != nil {
		pc.fail(w, r, err)
		return
	}
	if !user.Is(author) {
		metrics.RecordCreated("follow")
	}
	pc.back(w, r, author.Username)
}

// Unfollow drops the current user's subscription to the author.
func (pc *ProfileController) Unfollow(w http.ResponseWriter, r *http.Request) {
	author, err := pc.follows.Author(r.Context(), mux.Vars(r)["username"])
	if err != nil {
		pc.fail(w, r, err)
		return
	}
	if err := pc.follows.Unfollow(r.Context(), middleware.CurrentUser(r.Context()), author); err != nil {
		pc.fail(w, r, err)
		return
	}
	pc.back(w, r, author.Username)
}

// back returns to the referring page, or the author's profile.
func (pc *ProfileController) back(w http.ResponseWriter, r *http.Request, username string) {
	target := r.Header.Get("Referer")
	if target == "" {
		target = "/" + username + "/"
	}
	http.Redirect(w, r, target, http.StatusFound)
}

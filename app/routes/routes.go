// Package routes wires controllers and middleware into the site router.
package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"yatube/app/cache"
	"yatube/app/config"
	"yatube/app/controllers"
	"yatube/app/middleware"
	"yatube/app/repositories"
	"yatube/app/services"
	"yatube/app/views"
)

// FlatPageURLs are the flat pages mounted at the site root.
var FlatPageURLs = []string{"/about-us/", "/terms/", "/about-author/", "/about-spec/"}

// Deps are the long-lived pieces the router is built from.
type Deps struct {
	Config *config.Config
	Store  *repositories.Store
	// Pages caches the index page. Nil disables caching.
	Pages *cache.PageCache
	// Limiter throttles login attempts. Nil disables throttling.
	Limiter *middleware.RateLimiter
}

// SetupRoutes builds the site handler: the mux router wrapped in request ID,
// access log, panic recovery, session loading and CSRF checks.
func SetupRoutes(d Deps) (http.Handler, error) {
	cfg := d.Config

	renderer, err := views.New(cfg.Media.URLPrefix)
	if err != nil {
		return nil, err
	}

	auth := services.NewAuthService(d.Store.Users, d.Store.Sessions, cfg.Auth.BcryptCost, cfg.Session.TTL)
	posts := services.NewPostService(d.Store, cfg.Feed.PageSizes())
	sessions := middleware.NewSessions(auth, middleware.SessionOptions{
		CookieName: cfg.Session.CookieName,
		TTL:        cfg.Session.TTL,
		HashKey:    []byte(cfg.Session.HashKey),
		BlockKey:   []byte(cfg.Session.BlockKey),
		Secure:     cfg.Session.Secure,
	})

	postController := controllers.NewPostController(renderer, posts, services.NewFileMediaStore(cfg.Media.Dir), cfg.Media.MaxUpload)
	commentController := controllers.NewCommentController(renderer, postController, services.NewCommentService(d.Store.Comments, d.Store.Posts))
	profileController := controllers.NewProfileController(renderer, posts, services.NewFollowService(d.Store.Users, d.Store.Follows))
	authController := controllers.NewAuthController(renderer, auth, sessions)
	pageController := controllers.NewPageController(renderer, services.NewSiteService(d.Store.Groups, d.Store.FlatPages))

	router := mux.NewRouter()
	router.Use(middleware.Prometheus)
	router.NotFoundHandler = http.HandlerFunc(pageController.NotFound)

	// Operational endpoints
	router.HandleFunc("/healthz", pageController.Healthz).Methods("GET", "HEAD")
	if cfg.Server.Metrics {
		router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	}

	// Static assets and uploads
	if cfg.Media.StaticDir != "" {
		router.PathPrefix(cfg.Media.StaticPath).Handler(http.StripPrefix(cfg.Media.StaticPath, http.FileServer(http.Dir(cfg.Media.StaticDir))))
	}
	router.PathPrefix(cfg.Media.URLPrefix).Handler(http.StripPrefix(cfg.Media.URLPrefix, http.FileServer(http.Dir(cfg.Media.Dir))))

	// API routes with JSON content type
	api := router.PathPrefix("/api").Subrouter()
	api.Use(middleware.ContentTypeJSON)
	api.HandleFunc("/posts", postController.Index).Methods("GET")
	api.HandleFunc("/posts/{post_id:[0-9]+}", postController.APIShow).Methods("GET")
	api.HandleFunc("/posts/{post_id:[0-9]+}/comments", commentController.APIIndex).Methods("GET")
	api.HandleFunc("/groups/{slug}/posts", postController.GroupPosts).Methods("GET")
	api.HandleFunc("/users/{username}/posts", postController.APIUserPosts).Methods("GET")

	// Index, cached per URL and session
	var index http.Handler = http.HandlerFunc(postController.Index)
	if d.Pages != nil {
		index = middleware.CachePage(d.Pages, cfg.Cache.KeyPrefix, sessions.CookieName())(index)
	}
	router.Handle("/", index).Methods("GET", "HEAD")

	// Auth
	authRoutes := router.PathPrefix("/auth").Subrouter()
	authRoutes.HandleFunc("/signup/", authController.Signup).Methods("GET", "POST")
	var login http.Handler = http.HandlerFunc(authController.Login)
	if d.Limiter != nil {
		login = d.Limiter.Limit("login")(login)
	}
	authRoutes.Handle("/login/", login).Methods("GET", "POST")
	authRoutes.HandleFunc("/logout/", authController.Logout).Methods("GET", "POST")

	// Flat pages
	for _, url := range FlatPageURLs {
		router.HandleFunc(url, pageController.FlatPage(url)).Methods("GET", "HEAD")
	}
	router.HandleFunc("/about/{url:.+}", pageController.About).Methods("GET", "HEAD")

	// Feeds and post creation
	router.Handle("/new/", protected(postController.New)).Methods("GET", "POST")
	router.Handle("/follow/", protected(postController.FollowIndex)).Methods("GET", "HEAD")
	router.HandleFunc("/group/{slug}/", postController.GroupPosts).Methods("GET", "HEAD")

	// Profiles and posts; registered last so fixed paths win over usernames
	users := router.PathPrefix("/{username}").Subrouter()
	users.HandleFunc("/", profileController.Show).Methods("GET", "HEAD")
	users.Handle("/follow/", protected(profileController.Follow)).Methods("GET", "POST")
	users.Handle("/unfollow/", protected(profileController.Unfollow)).Methods("GET", "POST")
	users.HandleFunc("/{post_id:[0-9]+}/", postController.Show).Methods("GET", "HEAD")
	users.Handle("/{post_id:[0-9]+}/edit/", protected(postController.Edit)).Methods("GET", "POST")
	users.Handle("/{post_id:[0-9]+}/comment/", protected(commentController.Create)).Methods("GET", "POST")

	return middleware.Chain(router,
		middleware.RequestID,
		middleware.Logger,
		middleware.RecoverWith(http.HandlerFunc(pageController.ServerError)),
		sessions.Load,
		middleware.CSRF(middleware.CSRFOptions{
			Key:     []byte(cfg.Session.CSRFKey),
			Secure:  cfg.Session.Secure,
			Failure: http.HandlerFunc(pageController.Forbidden),
		}),
	), nil
}

func protected(h http.HandlerFunc) http.Handler {
	return middleware.LoginRequired(h)
}


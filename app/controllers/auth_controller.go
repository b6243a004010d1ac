package controllers

import (
	"errors"
	"net/http"

	"yatube/app/forms"
	"yatube/app/logging"
	"yatube/app/metrics"
	"yatube/app/middleware"
	"yatube/app/services"
	"yatube/app/views"
)

const msgBadLogin = "Please enter a correct username and password. Note that both fields may be case-sensitive."

// AuthController handles signup, login and logout.
type AuthController struct {
	base
	auth     *services.AuthService
	sessions *middleware.Sessions
}

// NewAuthController creates a new AuthController
func NewAuthController(v *views.Renderer, auth *services.AuthService, sessions *middleware.Sessions) *AuthController {
	return &AuthController{base: base{views: v}, auth: auth, sessions: sessions}
}

// Signup shows and handles the registration form.
func (ac *AuthController) Signup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ac.render(w, r, http.StatusOK, "signup", Data{"Form": forms.NewSignupForm()})
		return
	}

	form, err := forms.BindSignupForm(r)
	if err != nil {
		ac.sendError(w, r, err.Error(), http.StatusBadRequest)
		return
	}
	if !form.Valid() {
		ac.render(w, r, http.StatusOK, "signup", Data{"Form": form})
		return
	}

	user := form.User()
	switch err := ac.auth.Register(r.Context(), user, form.Password1); {
	case errors.Is(err, services.ErrUsernameTaken):
		form.Errors.Add("username", "A user with that username already exists.")
		ac.render(w, r, http.StatusOK, "signup", Data{"Form": form})
		return
	case errors.Is(err, services.ErrInvalid):
		form.Errors.Add(forms.NonFieldErrors, err.Error())
		ac.render(w, r, http.StatusOK, "signup", Data{"Form": form})
		return
	case err != nil:
		ac.fail(w, r, err)
		return
	}
	metrics.RecordCreated("user")
	logging.Ctx(r.Context()).Info().Str("username", user.Username).Msg("user registered")
	http.Redirect(w, r, middleware.LoginURL, http.StatusFound)
}

// Login shows and handles the login form.
func (ac *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ac.render(w, r, http.StatusOK, "login", Data{"Form": forms.NewLoginForm(r.URL.Query().Get("next"))})
		return
	}

	form, err := forms.BindLoginForm(r)
	if err != nil {
		ac.sendError(w, r, err.Error(), http.StatusBadRequest)
		return
	}
	if !form.Valid() {
		ac.render(w, r, http.StatusOK, "login", Data{"Form": form})
		return
	}

	user, err := ac.auth.Authenticate(r.Context(), form.Username, form.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		metrics.RecordLogin(false)
		form.Errors.Add(forms.NonFieldErrors, msgBadLogin)
		ac.render(w, r, http.StatusOK, "login", Data{"Form": form})
		return
	}
	if err != nil {
		ac.fail(w, r, err)
		return
	}
	if err := ac.sessions.Login(w, r, user); err != nil {
		ac.fail(w, r, err)
		return
	}
	metrics.RecordLogin(true)

	next := form.Next
	if next == "" {
		next = "/"
	}
	http.Redirect(w, r, next, http.StatusFound)
}

// Logout ends the session and shows the logged-out page.
func (ac *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	if err := ac.sessions.Logout(w, r); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("failed to end session")
	}
	// the page must not show the user who just left
	r = r.WithContext(middleware.WithUser(r.Context(), nil))
	ac.render(w, r, http.StatusOK, "logged_out", nil)
}

package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/securecookie"

	"yatube/app/logging"
	"yatube/app/models"
	"yatube/app/repositories"
	"yatube/app/services"
)

type userKey struct{}

// LoginURL is where anonymous visitors are sent for protected pages.
const LoginURL = "/auth/login/"

// Sessions binds the signed session cookie to users.
type Sessions struct {
	auth   *services.AuthService
	codec  *securecookie.SecureCookie
	name   string
	ttl    time.Duration
	secure bool
}

// SessionOptions configures NewSessions.
type SessionOptions struct {
	CookieName string
	TTL        time.Duration
	HashKey    []byte
	BlockKey   []byte
	Secure     bool
}

// NewSessions builds the cookie codec. A missing hash key is replaced with a
// random one, which logs everybody out on restart.
func NewSessions(auth *services.AuthService, o SessionOptions) *Sessions {
	hashKey := o.HashKey
	if len(hashKey) == 0 {
		hashKey = securecookie.GenerateRandomKey(64)
		logging.Warn().Msg("session hash key not configured, using a random one")
	}
	var blockKey []byte
	if len(o.BlockKey) > 0 {
		blockKey = o.BlockKey
	}
	codec := securecookie.New(hashKey, blockKey)
	codec.MaxAge(int(o.TTL.Seconds()))
	codec.SetSerializer(securecookie.JSONEncoder{})

	return &Sessions{auth: auth, codec: codec, name: o.CookieName, ttl: o.TTL, secure: o.Secure}
}

// CookieName is the name of the session cookie.
func (s *Sessions) CookieName() string {
	return s.name
}

// Load resolves the session cookie to a user and stores it in the request context.
// Invalid or expired cookies are cleared.
func (s *Sessions) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.sessionID(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		user, err := s.auth.SessionUser(r.Context(), id)
		switch {
		case err == nil:
			r = r.WithContext(WithUser(r.Context(), user))
		case errors.Is(err, repositories.ErrNotFound):
			s.clear(w)
		default:
			logging.Ctx(r.Context()).Error().Err(err).Msg("failed to load session")
		}
		next.ServeHTTP(w, r)
	})
}

// Login starts a session for user and sets the cookie.
func (s *Sessions) Login(w http.ResponseWriter, r *http.Request, user *models.User) error {
	if id, ok := s.sessionID(r); ok {
		_ = s.auth.EndSession(r.Context(), id)
	}
	session, err := s.auth.StartSession(r.Context(), user)
	if err != nil {
		return err
	}
	encoded, err := s.codec.Encode(s.name, session.ID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.name,
		Value:    encoded,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Logout ends the current session, if any, and expires the cookie.
func (s *Sessions) Logout(w http.ResponseWriter, r *http.Request) error {
	id, ok := s.sessionID(r)
	s.clear(w)
	if !ok {
		return nil
	}
	return s.auth.EndSession(r.Context(), id)
}

func (s *Sessions) sessionID(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(s.name)
	if err != nil {
		return "", false
	}
	var id string
	if err := s.codec.Decode(s.name, cookie.Value, &id); err != nil || id == "" {
		return "", false
	}
	return id, true
}

func (s *Sessions) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
	})
}

// WithUser stores the authenticated user in ctx.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// CurrentUser returns the authenticated user, or nil for anonymous requests.
func CurrentUser(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey{}).(*models.User)
	return user
}

// LoginRequired redirects anonymous visitors to the login page with ?next= set
// to the page they asked for.
func LoginRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if CurrentUser(r.Context()) == nil {
			http.Redirect(w, r, LoginRedirect(r.URL.RequestURI()), http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// LoginRedirect builds /auth/login/?next=<path>, leaving slashes readable.
func LoginRedirect(path string) string {
	return LoginURL + "?next=" + strings.ReplaceAll(url.QueryEscape(path), "%2F", "/")
}

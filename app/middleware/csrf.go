package middleware

import (
	"net/http"

	"github.com/gorilla/csrf"
	"github.com/gorilla/securecookie"

	"yatube/app/logging"
	"yatube/app/metrics"
)

// CSRFFieldName is the form field carrying the CSRF token.
const CSRFFieldName = "csrfmiddlewaretoken"

// CSRFOptions configures CSRF.
type CSRFOptions struct {
	// Key must be 32 bytes. A missing key is replaced with a random one.
	Key []byte
	// Secure marks the token cookie Secure and turns on the Referer check
	// for unsafe methods. Leave it off for plain HTTP.
	Secure bool
	// Failure answers rejected requests. Nil sends a plain 403.
	Failure http.Handler
}

// CSRF rejects POST and other unsafe requests that lack a valid token.
// Templates render the token through csrf.TemplateField.
func CSRF(o CSRFOptions) Middleware {
	key := o.Key
	if len(key) == 0 {
		key = securecookie.GenerateRandomKey(32)
		logging.Warn().Msg("csrf key not configured, using a random one")
	}
	failure := o.Failure
	if failure == nil {
		failure = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "Forbidden", http.StatusForbidden)
		})
	}
	protect := csrf.Protect(key,
		csrf.Secure(o.Secure),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.FieldName(CSRFFieldName),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			metrics.RecordCSRFRejected()
			logging.Ctx(r.Context()).Warn().Err(csrf.FailureReason(r)).Str("path", r.URL.Path).Msg("csrf check failed")
			failure.ServeHTTP(w, r)
		})),
	)
	return func(next http.Handler) http.Handler {
		h := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !o.Secure {
				r = csrf.PlaintextHTTPRequest(r)
			}
			h.ServeHTTP(w, r)
		})
	}
}

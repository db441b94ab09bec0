package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/kantina/canteen/internal/common"
	"github.com/kantina/canteen/internal/logging"
	"github.com/kantina/canteen/internal/server/auth"
)

type ctxKey string

const sessionKey ctxKey = "session"

func withSession(ctx context.Context, sess auth.SessionContext) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

// sessionFrom returns the caller's session; anonymous when none was resolved.
func sessionFrom(ctx context.Context) auth.SessionContext {
	sess, _ := ctx.Value(sessionKey).(auth.SessionContext)
	return sess
}

// requestLogger writes one access line per request.
func (a *api) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		ctx := logging.ContextWith(r.Context(), "request_id", middleware.GetReqID(r.Context()))

		next.ServeHTTP(ww, r.WithContext(ctx))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		a.logger.Info(ctx, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// loadSession resolves the session cookie, if any. Invalid or stale cookies
// are cleared and the request continues anonymously.
func (a *api) loadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(common.SessionCookieName)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		sess, err := a.users.ResolveSession(r.Context(), cookie.Value)
		if err != nil {
			if errors.Is(err, common.ErrorUnauthorized) {
				a.clearSessionCookie(w)
				next.ServeHTTP(w, r)
				return
			}
			a.writeError(w, r, err, http.StatusBadRequest)
			return
		}

		next.ServeHTTP(w, r.WithContext(withSession(r.Context(), sess)))
	})
}

func requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !sessionFrom(r.Context()).Authenticated() {
			writeErrorMessage(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requireApproved(next http.Handler) http.Handler {
	return requireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !sessionFrom(r.Context()).IsApproved {
			writeErrorMessage(w, http.StatusForbidden, "account not approved")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func requireAdmin(next http.Handler) http.Handler {
	return requireApproved(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !sessionFrom(r.Context()).IsAdmin {
			writeErrorMessage(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func (a *api) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(a.cookie.TTL.Seconds()),
		HttpOnly: true,
		Secure:   a.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *api) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

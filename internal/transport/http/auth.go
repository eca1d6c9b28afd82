package http

import (
	"context"
	"net/http"
	"strings"

	"asd-screening-service/internal/domain"
	"github.com/gorilla/mux"
)

// Authenticator resolves the current user of a request.
type Authenticator interface {
	CurrentUser(r *http.Request) (domain.User, error)
}

// HeaderAuthenticator trusts an upstream-provided user header. Browsers
// cannot set headers on websocket upgrades, so the userId query parameter
// is accepted as a fallback. Intended for development and for deployments
// behind an authenticating proxy.
type HeaderAuthenticator struct {
	Header string
}

const DefaultUserHeader = "X-User-ID"

func (a HeaderAuthenticator) CurrentUser(r *http.Request) (domain.User, error) {
	header := a.Header
	if header == "" {
		header = DefaultUserHeader
	}
	id := strings.TrimSpace(r.Header.Get(header))
	if id == "" {
		id = strings.TrimSpace(r.URL.Query().Get("userId"))
	}
	if id == "" {
		return domain.User{}, domain.ErrUnauthenticated
	}
	return domain.User{ID: id, DisplayName: r.URL.Query().Get("name")}, nil
}

type userKey struct{}

// RequireUser rejects anonymous requests with 401 and stores the resolved
// user on the request context.
func RequireUser(auth Authenticator) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := auth.CurrentUser(r)
			if err != nil {
				writeError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// WithUser attaches user to ctx.
func WithUser(ctx context.Context, user domain.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// UserFrom returns the user stored by RequireUser.
func UserFrom(ctx context.Context) (domain.User, bool) {
	user, ok := ctx.Value(userKey{}).(domain.User)
	return user, ok
}

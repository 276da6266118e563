package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/server/models"
)

type ctxKey string

const userKey ctxKey = "user"

type contextSetter interface {
	SetContext(context.Context)
}

// requireAuth resolves the access token to a user and stores it in the
// request context. The token comes from the accessToken cookie or an
// Authorization bearer header.
func (r *Router) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		user, err := r.auth.Authenticate(req.Context(), accessToken(req))
		if err != nil {
			writeError(w, err)
			return
		}

		ctx := context.WithValue(req.Context(), userKey, user)
		if setter, ok := w.(contextSetter); ok {
			setter.SetContext(ctx)
		}
		next(w, req.WithContext(ctx))
	}
}

func userFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey).(*models.User)
	return u, ok && u != nil
}

// currentUser is only called behind requireAuth.
func currentUser(w http.ResponseWriter, req *http.Request) (*models.User, bool) {
	u, ok := userFromContext(req.Context())
	if !ok {
		writeError(w, common.Unauthorized("Unauthorized request"))
	}
	return u, ok
}

func accessToken(req *http.Request) string {
	if c, err := req.Cookie(common.AccessTokenCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return bearerToken(req.Header.Get(common.AuthorizationHeaderName))
}

func bearerToken(header string) string {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

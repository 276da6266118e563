package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/vidtube/internal/common"
)

func (r *Router) tokenCookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   r.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (r *Router) setTokenCookies(w http.ResponseWriter, access, refresh string) {
	http.SetCookie(w, r.tokenCookie(common.AccessTokenCookieName, access, 0))
	http.SetCookie(w, r.tokenCookie(common.RefreshTokenCookieName, refresh, 0))
}

func (r *Router) clearTokenCookies(w http.ResponseWriter) {
	http.SetCookie(w, r.tokenCookie(common.AccessTokenCookieName, "", -1))
	http.SetCookie(w, r.tokenCookie(common.RefreshTokenCookieName, "", -1))
}

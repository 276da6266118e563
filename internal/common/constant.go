package common

// Cookie names used to deliver the session token pair to browser clients.
const (
	AccessTokenCookieName  = "accessToken"
	RefreshTokenCookieName = "refreshToken"
)

// AuthorizationHeaderName carries "Bearer <access token>" for clients that
// do not use cookies.
const AuthorizationHeaderName = "Authorization"

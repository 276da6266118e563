// Package httpapi is the public HTTP boundary: it maps routes onto the
// session, profile and channel services and renders the apiResponse
// envelope.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/vidtube/internal/logging"
	"github.com/dmitrijs2005/vidtube/internal/server/models"
	"github.com/dmitrijs2005/vidtube/internal/server/services"
)

type SessionAPI interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.Account, error)
	Login(ctx context.Context, in services.LoginInput) (*services.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, userID string) error
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
}

type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*models.User, error)
}

type ProfileAPI interface {
	CurrentUser(ctx context.Context, userID string) (*models.Account, error)
	UpdateAccount(ctx context.Context, userID, fullName, email string) (*models.Account, error)
	UpdateAvatar(ctx context.Context, userID, localPath string) (*models.Account, error)
	UpdateCoverImage(ctx context.Context, userID, localPath string) (*models.Account, error)
}

type ChannelAPI interface {
	ChannelProfile(ctx context.Context, handle, viewerID string) (*models.ChannelProfile, error)
	WatchHistory(ctx context.Context, viewerID string) ([]models.HistoryItem, error)
	ToggleSubscription(ctx context.Context, subscriberID, channelID string) (bool, error)
	RecordView(ctx context.Context, viewerID, videoID string) error
}

// Deps are the collaborators of a Router. Limiter defaults to an in-memory
// limiter and Metrics to a fresh registry.
type Deps struct {
	Sessions       SessionAPI
	Auth           Authenticator
	Profiles       ProfileAPI
	Channels       ChannelAPI
	Limiter        RateLimiter
	Metrics        *Metrics
	Logger         logging.Logger
	DBHealth       func(context.Context) error
	CookieSecure   bool
	UploadDir      string
	MaxUploadBytes int64
}

// Router wires HTTP endpoints to services.
type Router struct {
	mux            *http.ServeMux
	logger         logging.Logger
	sessions       SessionAPI
	auth           Authenticator
	profiles       ProfileAPI
	channels       ChannelAPI
	limiter        RateLimiter
	metrics        *Metrics
	dbHealth       func(context.Context) error
	cookieSecure   bool
	uploadDir      string
	maxUploadBytes int64
}

const (
	rateWindowDefault  = time.Minute
	rateLimitRegister  = 5
	rateLimitLogin     = 12
	rateLimitRefresh   = 30
	rateLimitUserWrite = 60
	healthCheckTimeout = 2 * time.Second
	defaultUploadBytes = 16 << 20
)

func NewRouter(d Deps) *Router {
	r := &Router{
		mux:            http.NewServeMux(),
		logger:         d.Logger,
		sessions:       d.Sessions,
		auth:           d.Auth,
		profiles:       d.Profiles,
		channels:       d.Channels,
		limiter:        d.Limiter,
		metrics:        d.Metrics,
		dbHealth:       d.DBHealth,
		cookieSecure:   d.CookieSecure,
		uploadDir:      d.UploadDir,
		maxUploadBytes: d.MaxUploadBytes,
	}
	if r.logger == nil {
		r.logger = logging.Nop{}
	}
	r.logger = r.logger.With("module", "http")
	if r.limiter == nil {
		r.limiter = NewMemoryRateLimiter()
	}
	if r.metrics == nil {
		r.metrics = NewMetrics()
	}
	if r.maxUploadBytes <= 0 {
		r.maxUploadBytes = defaultUploadBytes
	}
	r.register()
	return r
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Close releases the limiter.
func (r *Router) Close() {
	if r.limiter != nil {
		r.limiter.Close()
	}
}

func (r *Router) handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, r.audit(pattern, h))
}

func (r *Router) register() {
	r.mux.Handle("GET /metrics", r.metrics.Handler())
	r.handle("GET /healthz", r.handleHealthz)

	r.handle("POST /api/v1/users/register",
		r.withRateLimit("register", rateLimitRegister, rateWindowDefault, rateLimitKeyIP, r.handleRegister))
	r.handle("POST /api/v1/users/login",
		r.withRateLimit("login", rateLimitLogin, rateWindowDefault, rateLimitKeyIP, r.handleLogin))
	r.handle("POST /api/v1/users/refresh-token",
		r.withRateLimit("refresh", rateLimitRefresh, rateWindowDefault, rateLimitKeyIP, r.handleRefresh))

	r.handle("POST /api/v1/users/logout", r.requireAuth(r.handleLogout))
	r.handle("POST /api/v1/users/change-password", r.authRate("change-password", rateLimitUserWrite, r.handleChangePassword))
	r.handle("GET /api/v1/users/current-user", r.requireAuth(r.handleCurrentUser))
	r.handle("PATCH /api/v1/users/update-account", r.authRate("update-account", rateLimitUserWrite, r.handleUpdateAccount))
	r.handle("PATCH /api/v1/users/avatar", r.authRate("avatar", rateLimitUserWrite, r.handleUpdateAvatar))
	r.handle("PATCH /api/v1/users/cover-image", r.authRate("cover-image", rateLimitUserWrite, r.handleUpdateCoverImage))
	r.handle("GET /api/v1/users/c/{username}", r.requireAuth(r.handleChannelProfile))
	r.handle("GET /api/v1/users/history", r.requireAuth(r.handleWatchHistory))

	r.handle("POST /api/v1/subscriptions/c/{channelId}", r.authRate("subscriptions", rateLimitUserWrite, r.handleToggleSubscription))
	r.handle("POST /api/v1/videos/{videoId}/views", r.authRate("views", rateLimitUserWrite, r.handleRecordView))
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	status, code := "ok", http.StatusOK
	database := map[string]any{"status": "up"}
	if r.dbHealth != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := r.dbHealth(ctx); err != nil {
			r.logger.Warn(ctx, "database health check failed", "error", err)
			status, code = "degraded", http.StatusServiceUnavailable
			database = map[string]any{"status": "down"}
		}
	}
	writeJSON(w, code, map[string]any{
		"status":     status,
		"components": map[string]any{"database": database},
		"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
	})
}

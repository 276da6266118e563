package httpapi

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/server/models"
	"github.com/dmitrijs2005/vidtube/internal/server/services"
)

type stubSessions struct {
	register func(context.Context, services.RegisterInput) (*models.Account, error)
	login    func(context.Context, services.LoginInput) (*services.LoginResult, error)
	refresh  func(context.Context, string) (*services.TokenPair, error)
	logout   func(context.Context, string) error
	change   func(context.Context, string, string, string) error
}

func (s *stubSessions) Register(ctx context.Context, in services.RegisterInput) (*models.Account, error) {
	return s.register(ctx, in)
}

func (s *stubSessions) Login(ctx context.Context, in services.LoginInput) (*services.LoginResult, error) {
	return s.login(ctx, in)
}

func (s *stubSessions) Refresh(ctx context.Context, token string) (*services.TokenPair, error) {
	return s.refresh(ctx, token)
}

func (s *stubSessions) Logout(ctx context.Context, userID string) error {
	return s.logout(ctx, userID)
}

func (s *stubSessions) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	return s.change(ctx, userID, oldPassword, newPassword)
}

// stubAuth accepts exactly the tokens in its map.
type stubAuth map[string]*models.User

func (a stubAuth) Authenticate(_ context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, common.Unauthorized("Unauthorized request")
	}
	u, ok := a[token]
	if !ok {
		return nil, common.Unauthorized("Invalid access token")
	}
	return u, nil
}

type stubProfiles struct {
	current func(context.Context, string) (*models.Account, error)
	account func(context.Context, string, string, string) (*models.Account, error)
	avatar  func(context.Context, string, string) (*models.Account, error)
	cover   func(context.Context, string, string) (*models.Account, error)
}

func (s *stubProfiles) CurrentUser(ctx context.Context, userID string) (*models.Account, error) {
	return s.current(ctx, userID)
}

func (s *stubProfiles) UpdateAccount(ctx context.Context, userID, fullName, email string) (*models.Account, error) {
	return s.account(ctx, userID, fullName, email)
}

func (s *stubProfiles) UpdateAvatar(ctx context.Context, userID, path string) (*models.Account, error) {
	return s.avatar(ctx, userID, path)
}

func (s *stubProfiles) UpdateCoverImage(ctx context.Context, userID, path string) (*models.Account, error) {
	return s.cover(ctx, userID, path)
}

type stubChannels struct {
	profile func(context.Context, string, string) (*models.ChannelProfile, error)
	history func(context.Context, string) ([]models.HistoryItem, error)
	toggle  func(context.Context, string, string) (bool, error)
	view    func(context.Context, string, string) error
}

func (s *stubChannels) ChannelProfile(ctx context.Context, handle, viewerID string) (*models.ChannelProfile, error) {
	return s.profile(ctx, handle, viewerID)
}

func (s *stubChannels) WatchHistory(ctx context.Context, viewerID string) ([]models.HistoryItem, error) {
	return s.history(ctx, viewerID)
}

func (s *stubChannels) ToggleSubscription(ctx context.Context, subscriberID, channelID string) (bool, error) {
	return s.toggle(ctx, subscriberID, channelID)
}

func (s *stubChannels) RecordView(ctx context.Context, viewerID, videoID string) error {
	return s.view(ctx, viewerID, videoID)
}

const validToken = "good-token"

var alice = &models.User{ID: "u-1", Username: "alice", Email: "alice@example.com", FullName: "Alice"}

type harness struct {
	sessions *stubSessions
	profiles *stubProfiles
	channels *stubChannels
	dbErr    error
	router   *Router
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		sessions: &stubSessions{},
		profiles: &stubProfiles{},
		channels: &stubChannels{},
	}
	dir := t.TempDir()
	h.router = NewRouter(Deps{
		Sessions:       h.sessions,
		Auth:           stubAuth{validToken: alice},
		Profiles:       h.profiles,
		Channels:       h.channels,
		Limiter:        newMemoryRateLimiter(time.Now),
		DBHealth:       func(context.Context) error { return h.dbErr },
		CookieSecure:   true,
		UploadDir:      dir,
		MaxUploadBytes: 1 << 20,
	})
	t.Cleanup(h.router.Close)
	return h
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

package services

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/cryptox"
	"github.com/dmitrijs2005/vidtube/internal/dbx"
	"github.com/dmitrijs2005/vidtube/internal/logging"
	"github.com/dmitrijs2005/vidtube/internal/server/auth"
	"github.com/dmitrijs2005/vidtube/internal/server/config"
	"github.com/dmitrijs2005/vidtube/internal/server/media"
	"github.com/dmitrijs2005/vidtube/internal/server/models"
	"github.com/dmitrijs2005/vidtube/internal/server/repositories/credentials"
	"github.com/dmitrijs2005/vidtube/internal/server/repositories/history"
	"github.com/dmitrijs2005/vidtube/internal/server/repositories/subscriptions"
	"github.com/dmitrijs2005/vidtube/internal/server/repositories/users"
	"github.com/dmitrijs2005/vidtube/internal/server/repositories/videos"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// --- in-memory storage shared by all fake repositories ---

type memUser struct {
	user    models.User
	hash    []byte
	refresh *string
	version int64
}

type memStore struct {
	mu      sync.Mutex
	users   map[string]*memUser
	subs    map[[2]string]time.Time
	videos  map[string]models.Video
	history map[string][]string
	fail    map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		users:   map[string]*memUser{},
		subs:    map[[2]string]time.Time{},
		videos:  map[string]models.Video{},
		history: map[string][]string{},
		fail:    map[string]error{},
	}
}

// failOn makes the named repository operation return err.
func (s *memStore) failOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[op] = err
}

func (s *memStore) injected(op string) error {
	return s.fail[op]
}

func (s *memStore) addVideo(ownerID, title string) models.Video {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := models.Video{ID: uuid.NewString(), OwnerID: ownerID, Title: title, VideoFile: title + ".mp4", CreatedAt: time.Now()}
	s.videos[v.ID] = v
	return v
}

func (s *memStore) deleteUser(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
	for k := range s.subs {
		if k[0] == id || k[1] == id {
			delete(s.subs, k)
		}
	}
}

func (s *memStore) refreshDigest(id string) *string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return u.refresh
	}
	return nil
}

type memUsers struct{ s *memStore }

func (r memUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("users.Create"); err != nil {
		return nil, err
	}
	u.Username = strings.ToLower(u.Username)
	for _, m := range r.s.users {
		if m.user.Username == u.Username || strings.EqualFold(m.user.Email, u.Email) {
			return nil, common.ErrorConflict
		}
	}
	u.ID = uuid.NewString()
	u.CreatedAt, u.UpdatedAt = time.Now(), time.Now()
	stored := *u
	stored.PasswordHash = nil
	r.s.users[u.ID] = &memUser{user: stored, hash: u.PasswordHash}
	return u, nil
}

func (r memUsers) find(match func(models.User) bool) (*models.User, error) {
	for _, m := range r.s.users {
		if match(m.user) {
			u := m.user
			return &u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("users.GetByID"); err != nil {
		return nil, err
	}
	return r.find(func(u models.User) bool { return u.ID == id })
}

func (r memUsers) GetByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("users.GetByUsernameOrEmail"); err != nil {
		return nil, err
	}
	username = strings.ToLower(username)
	return r.find(func(u models.User) bool {
		return (username != "" && u.Username == username) || (email != "" && strings.EqualFold(u.Email, email))
	})
}

func (r memUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("users.GetByUsername"); err != nil {
		return nil, err
	}
	username = strings.ToLower(username)
	return r.find(func(u models.User) bool { return u.Username == username })
}

func (r memUsers) update(id string, fn func(u *models.User) error) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if err := fn(&m.user); err != nil {
		return nil, err
	}
	m.user.UpdatedAt = time.Now()
	u := m.user
	return &u, nil
}

func (r memUsers) UpdateAccount(ctx context.Context, id, fullName, email string) (*models.User, error) {
	return r.update(id, func(u *models.User) error {
		for _, other := range r.s.users {
			if other.user.ID != id && strings.EqualFold(other.user.Email, email) {
				return common.ErrorConflict
			}
		}
		u.FullName, u.Email = fullName, email
		return nil
	})
}

func (r memUsers) UpdateAvatar(ctx context.Context, id, avatar string) (*models.User, error) {
	return r.update(id, func(u *models.User) error { u.Avatar = avatar; return nil })
}

func (r memUsers) UpdateCoverImage(ctx context.Context, id, cover string) (*models.User, error) {
	return r.update(id, func(u *models.User) error { u.CoverImage = cover; return nil })
}

func (r memUsers) GetOwners(ctx context.Context, ids []string) (map[string]models.Owner, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := map[string]models.Owner{}
	for _, id := range ids {
		if m, ok := r.s.users[id]; ok {
			out[id] = m.user.Owner()
		}
	}
	return out, nil
}

type memCredentials struct{ s *memStore }

func (r memCredentials) SetPasswordHash(ctx context.Context, userID string, hash []byte) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("credentials.SetPasswordHash"); err != nil {
		return err
	}
	m, ok := r.s.users[userID]
	if !ok {
		return common.ErrorNotFound
	}
	m.hash = hash
	return nil
}

func (r memCredentials) GetPasswordHash(ctx context.Context, userID string) ([]byte, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.users[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return m.hash, nil
}

func (r memCredentials) GetRefreshSlot(ctx context.Context, userID string) (*models.RefreshSlot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("credentials.GetRefreshSlot"); err != nil {
		return nil, err
	}
	m, ok := r.s.users[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	slot := &models.RefreshSlot{UserID: userID, Version: m.version}
	if m.refresh != nil {
		h := *m.refresh
		slot.TokenHash = &h
	}
	return slot, nil
}

func (r memCredentials) SetRefreshToken(ctx context.Context, userID string, hash *string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("credentials.SetRefreshToken"); err != nil {
		return 0, err
	}
	m, ok := r.s.users[userID]
	if !ok {
		return 0, common.ErrorNotFound
	}
	m.refresh = hash
	m.version++
	return m.version, nil
}

func (r memCredentials) RotateRefreshToken(ctx context.Context, userID string, expected int64, newHash string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.users[userID]
	if !ok || m.version != expected || m.refresh == nil {
		return 0, common.ErrStaleToken
	}
	m.refresh = &newHash
	m.version++
	return m.version, nil
}

type memSubscriptions struct{ s *memStore }

func (r memSubscriptions) Create(ctx context.Context, subscriberID, channelID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[channelID]; !ok {
		return false, common.ErrorNotFound
	}
	if _, ok := r.s.users[subscriberID]; !ok {
		return false, common.ErrorNotFound
	}
	k := [2]string{subscriberID, channelID}
	if _, ok := r.s.subs[k]; ok {
		return false, nil
	}
	r.s.subs[k] = time.Now()
	return true, nil
}

func (r memSubscriptions) Delete(ctx context.Context, subscriberID, channelID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := [2]string{subscriberID, channelID}
	_, ok := r.s.subs[k]
	delete(r.s.subs, k)
	return ok, nil
}

func (r memSubscriptions) count(match func(k [2]string) bool) int64 {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for k := range r.s.subs {
		if match(k) {
			n++
		}
	}
	return n
}

func (r memSubscriptions) CountByChannel(ctx context.Context, channelID string) (int64, error) {
	if err := r.s.injected("subscriptions.Count"); err != nil {
		return 0, err
	}
	return r.count(func(k [2]string) bool { return k[1] == channelID }), nil
}

func (r memSubscriptions) CountBySubscriber(ctx context.Context, subscriberID string) (int64, error) {
	return r.count(func(k [2]string) bool { return k[0] == subscriberID }), nil
}

func (r memSubscriptions) Exists(ctx context.Context, subscriberID, channelID string) (bool, error) {
	return r.count(func(k [2]string) bool { return k == [2]string{subscriberID, channelID} }) > 0, nil
}

type memVideos struct{ s *memStore }

func (r memVideos) FindByIDs(ctx context.Context, ids []string) ([]models.Video, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Video
	for _, id := range ids {
		if v, ok := r.s.videos[id]; ok {
			out = append(out, v)
		}
	}
	// Storage returns rows unordered; reverse to make sure callers reorder.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (r memVideos) IncrementViews(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.videos[id]
	if !ok {
		return common.ErrorNotFound
	}
	v.Views++
	r.s.videos[id] = v
	return nil
}

type memHistory struct{ s *memStore }

func (r memHistory) List(ctx context.Context, userID string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.injected("history.List"); err != nil {
		return nil, err
	}
	return append([]string(nil), r.s.history[userID]...), nil
}

func (r memHistory) Append(ctx context.Context, userID, videoID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := []string{videoID}
	for _, id := range r.s.history[userID] {
		if id != videoID {
			ids = append(ids, id)
		}
	}
	r.s.history[userID] = ids
	return nil
}

// fakeRepoManager hands out the in-memory repositories regardless of DBTX.
type fakeRepoManager struct{ s *memStore }

func (m fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m fakeRepoManager) Users(dbx.DBTX) users.Repository { return memUsers{m.s} }
func (m fakeRepoManager) Credentials(dbx.DBTX) credentials.Repository { return memCredentials{m.s} }
func (m fakeRepoManager) Subscriptions(dbx.DBTX) subscriptions.Repository { return memSubscriptions{m.s} }
func (m fakeRepoManager) Videos(dbx.DBTX) videos.Repository { return memVideos{m.s} }
func (m fakeRepoManager) History(dbx.DBTX) history.Repository { return memHistory{m.s} }

// passthroughTx runs fn directly and counts units of work.
type passthroughTx struct {
	mu    sync.Mutex
	calls int
}

func (p *passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	return fn(ctx, nil)
}

// fakeMedia pretends to upload; paths listed in failing are rejected.
type fakeMedia struct {
	mu      sync.Mutex
	failing map[string]bool
	stored  []string
}

func (f *fakeMedia) Store(ctx context.Context, localPath string) (*media.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing[localPath] {
		return nil, fmt.Errorf("%w: bucket unavailable", common.ErrUploadFailed)
	}
	f.stored = append(f.stored, localPath)
	key := "media/" + filepath.Base(localPath)
	return &media.Asset{Key: key, URL: "http://cdn.test/" + key}, nil
}

// --- service fixtures ---

type fixture struct {
	store    *memStore
	tx       *passthroughTx
	media    *fakeMedia
	issuer   *auth.Issuer
	sessions *SessionService
	verifier *TokenVerifier
	profiles *ProfileService
	channels *ChannelService
}

func newFixture(t *testing.T, mutate ...func(*config.Config)) *fixture {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	for _, fn := range mutate {
		fn(cfg)
	}

	issuer, err := auth.NewIssuer(auth.Keys{Access: []byte("a-secret"), Refresh: []byte("r-secret")}, time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}

	f := &fixture{
		store:  newMemStore(),
		tx:     &passthroughTx{},
		media:  &fakeMedia{failing: map[string]bool{}},
		issuer: issuer,
	}
	rm := fakeRepoManager{f.store}
	log := logging.Nop{}
	hasher := cryptox.BcryptHasher{Cost: bcrypt.MinCost}

	f.sessions = NewSessionService(nil, f.tx, rm, issuer, hasher, f.media, log, cfg)
	f.verifier = f.sessions.Verifier()
	f.profiles = NewProfileService(nil, rm, f.media, log)
	f.channels = NewChannelService(nil, f.tx, rm, log)
	return f
}

func (f *fixture) register(t *testing.T, username, email string) *models.Account {
	t.Helper()
	acc, err := f.sessions.Register(context.Background(), RegisterInput{
		Username:   username,
		Email:      email,
		FullName:   strings.ToUpper(username[:1]) + username[1:] + " Doe",
		Password:   "pw-" + username,
		AvatarPath: "/tmp/" + username + "-avatar.png",
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return acc
}

func (f *fixture) login(t *testing.T, username string) TokenPair {
	t.Helper()
	res, err := f.sessions.Login(context.Background(), LoginInput{Username: username, Password: "pw-" + strings.ToLower(username)})
	if err != nil {
		t.Fatalf("login %s: %v", username, err)
	}
	return res.Tokens
}

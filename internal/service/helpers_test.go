package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/member-auth-api/internal/models"
	"github.com/noah-isme/member-auth-api/internal/repository"
	"github.com/noah-isme/member-auth-api/pkg/hash"
)

const (
	testAccessKey  = "access-signing-key-for-tests"
	testRefreshKey = "refresh-signing-key-for-tests"

	alicePassword = "Secure!Pw9x"
	bobPassword   = "River$Stone7"
)

var testEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestHasher() *hash.Argon2 {
	return hash.New(hash.Params{Time: 1, MemoryKB: 8, Threads: 1}, "pepper")
}

type fakeUserRepo struct {
	mu        sync.Mutex
	users     map[string]*models.User
	findErr   error
	updateErr error
	createErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (r *fakeUserRepo) add(hasher PasswordHasher, username, password string, status models.UserStatus, admin bool) *models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	user := &models.User{
		Username:      username,
		MemberSince:   testEpoch.Add(-24 * time.Hour),
		AdmissionYear: 20,
		LegalName:     username,
		Status:        status,
		Admin:         admin,
	}
	user.PasswordHash = hasher.Hash(user.Username, user.Salt(), password)
	r.users[username] = user
	return user
}

func (r *fakeUserRepo) set(username string, fn func(*models.User)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.users[username])
}

func (r *fakeUserRepo) remove(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, username)
}

func (r *fakeUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	user, ok := r.users[username]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	user, ok := r.users[username]
	if !ok {
		return sql.ErrNoRows
	}
	user.PasswordHash = passwordHash
	return nil
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if _, ok := r.users[user.Username]; ok {
		return repository.ErrDuplicateUsername
	}
	copied := *user
	r.users[user.Username] = &copied
	return nil
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (a *recordingAudit) Record(entry models.AuditLog) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
}

func (a *recordingAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}

type sessionHarness struct {
	t        *testing.T
	svc      *AuthService
	codec    *TokenCodec
	gate     *UserGate
	sessions *repository.SessionRepository
	users    *fakeUserRepo
	hasher   *hash.Argon2
	audit    *recordingAudit
	metrics  *MetricsService
	mr       *miniredis.Miniredis
	now      time.Time
}

func newSessionHarness(t *testing.T) *sessionHarness {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	h := &sessionHarness{
		t:       t,
		users:   newFakeUserRepo(),
		hasher:  newTestHasher(),
		audit:   &recordingAudit{},
		metrics: NewMetricsService(),
		mr:      mr,
		now:     testEpoch,
	}
	clock := func() time.Time { return h.now }
	h.codec = NewTokenCodec(testAccessKey, testRefreshKey, clock)
	h.sessions = repository.NewSessionRepository(client, "", nil)
	h.gate = NewUserGate(h.users, h.hasher, nil)
	h.svc = NewAuthService(AuthServiceParams{
		Codec:    h.codec,
		Sessions: h.sessions,
		Users:    h.gate,
		Audit:    h.audit,
		Metrics:  h.metrics,
		Clock:    clock,
	})

	h.users.add(h.hasher, "alice01", alicePassword, models.UserStatusUnverified, false)
	h.users.add(h.hasher, "bobsmith", bobPassword, models.UserStatusVerified, false)
	return h
}

// advance moves both the service clock and the Redis TTL clock.
func (h *sessionHarness) advance(d time.Duration) {
	h.now = h.now.Add(d)
	h.mr.FastForward(d)
}

func (h *sessionHarness) login(username, password string) *models.TokenPair {
	h.t.Helper()
	pair, err := h.svc.Login(context.Background(), models.LoginRequest{Username: username, Password: password})
	require.NoError(h.t, err)
	return pair
}

func (h *sessionHarness) keysFor(username string) []string {
	h.t.Helper()
	keys, err := h.sessions.Scan(context.Background(), username)
	require.NoError(h.t, err)
	return keys
}

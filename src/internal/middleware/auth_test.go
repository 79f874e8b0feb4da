package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"surihub-timeclock-svc/src/internal/cache"
	"surihub-timeclock-svc/src/internal/config"
	"surihub-timeclock-svc/src/internal/models"
	"surihub-timeclock-svc/src/internal/security"
	"surihub-timeclock-svc/src/internal/session"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSessionRepo struct {
	mock.Mock
}

func (m *mockSessionRepo) Create(ctx context.Context, s *session.Session) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockSessionRepo) GetByID(ctx context.Context, sessionID string) (*session.Session, error) {
	args := m.Called(ctx, sessionID)
	s, _ := args.Get(0).(*session.Session)
	return s, args.Error(1)
}

func (m *mockSessionRepo) UpdateActivity(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

func (m *mockSessionRepo) Deactivate(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

type fixture struct {
	router *gin.Engine
	tokens *security.TokenManager
	repo   *mockSessionRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := &config.Configuration{Cache: config.CacheConfig{SessionExpirationMinutes: 30}}
	tokens := security.NewTokenManager("surihub", "test-secret", time.Hour)
	repo := &mockSessionRepo{}
	auth := NewAuthMiddleware(tokens, cache.NewCacheService(client, cfg), repo)

	router := gin.New()
	router.Use(Metrics())
	ok := func(c *gin.Context) { c.String(http.StatusOK, c.GetString("user_id")) }
	router.GET("/me", auth.RequireAuth(), ok)
	router.GET("/admin", auth.RequireAuth(), auth.RequireAdminRights(), ok)
	router.GET("/admin-unauthenticated", auth.RequireAdminRights(), ok)

	return &fixture{router: router, tokens: tokens, repo: repo}
}

func (f *fixture) get(t *testing.T, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) login(t *testing.T, userID, sessionID, role string) string {
	t.Helper()
	token, _, err := f.tokens.SignAccessToken(userID, sessionID, userID+"@surihub.co.ke", role)
	require.NoError(t, err)
	return token
}

func activeSession(userID, sessionID, role string) *session.Session {
	return &session.Session{
		SessionID: sessionID,
		UserID:    userID,
		Role:      role,
		IsActive:  true,
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func TestRequireAuthMissingToken(t *testing.T) {
	f := newFixture(t)

	w := f.get(t, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.get(t, "/me", "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthValidSessionIsCached(t *testing.T) {
	f := newFixture(t)
	f.repo.On("GetByID", mock.Anything, "sess-1").Return(activeSession("u1", "sess-1", "employee"), nil).Once()
	f.repo.On("UpdateActivity", mock.Anything, "sess-1").Return(nil).Once()
	token := f.login(t, "u1", "sess-1", "employee")

	w := f.get(t, "/me", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", w.Body.String())

	// served from redis this time
	w = f.get(t, "/me", token)
	require.Equal(t, http.StatusOK, w.Code)

	f.repo.AssertExpectations(t)
}

func TestRequireAuthRejectsDeadSessions(t *testing.T) {
	loggedOut := activeSession("u1", "sess-1", "employee")
	now := time.Now()
	loggedOut.LogoutAt = &now

	otherUser := activeSession("u2", "sess-1", "employee")

	tests := []struct {
		name     string
		session  *session.Session
		err      error
		wantCode int
	}{
		{"logged out", loggedOut, nil, http.StatusUnauthorized},
		{"belongs to someone else", otherUser, nil, http.StatusUnauthorized},
		{"unknown", nil, models.ErrSessionNotFound, http.StatusUnauthorized},
		{"database down", nil, models.ErrDatabaseQuery, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.repo.On("GetByID", mock.Anything, "sess-1").Return(tt.session, tt.err)

			w := f.get(t, "/me", f.login(t, "u1", "sess-1", "employee"))
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestRequireAdminRights(t *testing.T) {
	f := newFixture(t)
	f.repo.On("GetByID", mock.Anything, "sess-e").Return(activeSession("emp", "sess-e", "employee"), nil)
	f.repo.On("GetByID", mock.Anything, "sess-a").Return(activeSession("adm", "sess-a", RoleAdmin), nil)
	f.repo.On("UpdateActivity", mock.Anything, mock.Anything).Return(nil)

	w := f.get(t, "/admin", f.login(t, "emp", "sess-e", "employee"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.get(t, "/admin", f.login(t, "adm", "sess-a", RoleAdmin))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "adm", w.Body.String())

	w = f.get(t, "/admin-unauthenticated", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

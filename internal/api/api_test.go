package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"alcyxob/growrep/internal/cache"
	"alcyxob/growrep/internal/domain"
	"alcyxob/growrep/internal/identity"
	"alcyxob/growrep/internal/metrics"
	"alcyxob/growrep/internal/mode"
	"alcyxob/growrep/internal/repository/memory"
	"alcyxob/growrep/internal/service"
	"alcyxob/growrep/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	router *gin.Engine
	fs     *storage.MemoryStorage
	creds  *memory.CredentialRepository
}

func newTestServer(t *testing.T, withStorage bool) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m, reg := metrics.NewTestManagerAndRegistry()
	records := memory.NewRecordRepository()
	users := memory.NewUserRepository()
	settings := memory.NewSettingsRepository()
	c := cache.New(cache.DefaultTTL, cache.WithMetrics(m))

	sw := mode.NewSwitch(domain.ModePrototype, c, m)
	leaderboard := service.NewLeaderboardService(records, users, settings, c, m)
	sw.SetRefresher(leaderboard)
	profiles := service.NewProfileService(users, c)

	creds := memory.NewCredentialRepository()
	provider := identity.NewLocalProvider(creds, identity.Options{
		JWTSecret:  "test-secret",
		BcryptCost: bcrypt.MinCost,
	})
	provider.OnAuthStateChange(profiles.HandleAuthState)

	ts := &testServer{router: gin.New(), creds: creds}
	var fs storage.FileStorage
	if withStorage {
		ts.fs = storage.NewMemoryStorage()
		fs = ts.fs
	}

	SetupRoutes(ts.router, Dependencies{
		Identity:    provider,
		Mode:        sw,
		Leaderboard: leaderboard,
		Posts:       service.NewPostService(records, c, leaderboard, m),
		Profiles:    profiles,
		Settings:    service.NewSettingsService(settings, c),
		Exports:     service.NewExportService(fs, memory.NewExportRepository(), leaderboard, 0),
		Metrics:     m,
		Gatherer:    reg,
	})
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) signUp(t *testing.T, email string) identity.Session {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/v1/auth/signup", "", gin.H{"email": email, "password": "secret123"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var s identity.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
	return s
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestPing(t *testing.T) {
	ts := newTestServer(t, false)
	w := ts.do(t, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
}

func TestAuthMiddleware(t *testing.T) {
	ts := newTestServer(t, false)

	w := ts.do(t, http.MethodGet, "/api/v1/posts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/posts", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/posts", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSignUpAndLogin(t *testing.T) {
	ts := newTestServer(t, false)
	s := ts.signUp(t, "ann@x.io")
	assert.NotEmpty(t, s.Token)

	w := ts.do(t, http.MethodPost, "/api/v1/auth/signup", "", gin.H{"email": "ann@x.io", "password": "secret123"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, string(identity.CodeEmailAlreadyInUse), decode[map[string]string](t, w)["code"])

	w = ts.do(t, http.MethodPost, "/api/v1/auth/signup", "", gin.H{"email": "bob@x.io", "password": "123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(identity.CodeWeakPassword), decode[map[string]string](t, w)["code"])

	w = ts.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "ann@x.io", "password": "wrong-one"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	body := decode[map[string]string](t, w)
	assert.Equal(t, string(identity.CodeWrongPassword), body["code"])
	assert.Equal(t, identity.Message(identity.CodeWrongPassword), body["error"])

	w = ts.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "ann@x.io", "password": "secret123"})
	assert.Equal(t, http.StatusOK, w.Code)

	// profile created on sign-up
	w = ts.do(t, http.MethodGet, "/api/v1/me", s.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ann@x.io", decode[domain.UserProfile](t, w).UserName)
}

func TestChangePassword_Mismatch(t *testing.T) {
	ts := newTestServer(t, false)
	s := ts.signUp(t, "ann@x.io")

	before, err := ts.creds.GetByEmail(context.Background(), "ann@x.io")
	require.NoError(t, err)
	hash := before.PasswordHash

	w := ts.do(t, http.MethodPut, "/api/v1/auth/password", s.Token, gin.H{"password": "newsecret1", "confirmPassword": "newsecret2"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = ts.do(t, http.MethodPut, "/api/v1/auth/password", s.Token, gin.H{"password": "newsecret1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	after, err := ts.creds.GetByEmail(context.Background(), "ann@x.io")
	require.NoError(t, err)
	assert.Equal(t, hash, after.PasswordHash)

	w = ts.do(t, http.MethodPost, "/api/v1/auth/password-reset/confirm", "", gin.H{"token": "x.y", "password": "newsecret1", "confirmPassword": "other"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, decode[map[string]string](t, w)["code"])

	w = ts.do(t, http.MethodPut, "/api/v1/auth/password", s.Token, gin.H{"password": "newsecret1", "confirmPassword": "newsecret1"})
	assert.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	w = ts.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "ann@x.io", "password": "newsecret1"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSubmitAndFeed(t *testing.T) {
	ts := newTestServer(t, false)
	s := ts.signUp(t, "ann@x.io")

	w := ts.do(t, http.MethodPost, "/api/v1/posts", s.Token, gin.H{"exerciseType": "pushup", "value": 42})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = ts.do(t, http.MethodPost, "/api/v1/posts", s.Token, gin.H{"exerciseType": "Lsit", "value": "17"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "seconds", decode[PostResponse](t, w).Unit)

	for _, bad := range []any{4.5, "abc", 0, 10001, nil} {
		w = ts.do(t, http.MethodPost, "/api/v1/posts", s.Token, gin.H{"exerciseType": "pushup", "value": bad})
		assert.Equal(t, http.StatusBadRequest, w.Code, "%v", bad)
	}
	w = ts.do(t, http.MethodPost, "/api/v1/posts", s.Token, gin.H{"exerciseType": "burpee", "value": 5})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "exerciseType", decode[map[string]string](t, w)["field"])

	w = ts.do(t, http.MethodGet, "/api/v1/posts", s.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	feed := decode[[]PostResponse](t, w)
	require.Len(t, feed, 2)
	assert.Equal(t, 17, feed[0].Value)
	assert.Equal(t, 42, feed[1].Value)
	assert.True(t, feed[0].IsOwner)
	assert.False(t, feed[0].LikedByViewer)

	w = ts.do(t, http.MethodGet, "/api/v1/posts?refresh=maybe", s.Token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLikesCommentsAndOwnership(t *testing.T) {
	ts := newTestServer(t, false)
	owner := ts.signUp(t, "owner@x.io")
	fan := ts.signUp(t, "fan@x.io")

	w := ts.do(t, http.MethodPost, "/api/v1/posts", owner.Token, gin.H{"exerciseType": "squat", "value": 30})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[PostResponse](t, w).ID

	w = ts.do(t, http.MethodPost, "/api/v1/posts/"+id+"/like", fan.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	like := decode[service.LikeResult](t, w)
	assert.True(t, like.Liked)
	assert.Equal(t, 1, like.LikeCount)

	w = ts.do(t, http.MethodGet, "/api/v1/posts", fan.Token, nil)
	feed := decode[[]PostResponse](t, w)
	require.Len(t, feed, 1)
	assert.True(t, feed[0].LikedByViewer)
	assert.False(t, feed[0].IsOwner)

	w = ts.do(t, http.MethodPost, "/api/v1/posts/"+id+"/comments", fan.Token, gin.H{"text": "nice"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/posts", owner.Token, nil)
	feed = decode[[]PostResponse](t, w)
	require.Len(t, feed[0].Comments, 1)
	assert.True(t, feed[0].Comments[0].CanDelete)

	w = ts.do(t, http.MethodDelete, "/api/v1/posts/"+id+"/comments/5", owner.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = ts.do(t, http.MethodDelete, "/api/v1/posts/"+id+"/comments/x", owner.Token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = ts.do(t, http.MethodDelete, "/api/v1/posts/"+id+"/comments/0", owner.Token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = ts.do(t, http.MethodDelete, "/api/v1/posts/"+id, fan.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = ts.do(t, http.MethodDelete, "/api/v1/posts/"+id, owner.Token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = ts.do(t, http.MethodDelete, "/api/v1/posts/"+id, owner.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = ts.do(t, http.MethodDelete, "/api/v1/posts/nope", owner.Token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestModeSwitch(t *testing.T) {
	ts := newTestServer(t, false)
	s := ts.signUp(t, "ann@x.io")

	w := ts.do(t, http.MethodPost, "/api/v1/posts", s.Token, gin.H{"exerciseType": "dips", "value": 8})
	require.Equal(t, http.StatusCreated, w.Code)

	w = ts.do(t, http.MethodPut, "/api/v1/mode", s.Token, gin.H{"mode": "alternate", "view": "progress", "exercise": "dips"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[ModeResponse](t, w)
	assert.Equal(t, domain.ModeAlternate, res.Mode)
	assert.True(t, res.Changed)
	assert.False(t, res.Stale)

	w = ts.do(t, http.MethodGet, "/api/v1/posts", s.Token, nil)
	assert.Empty(t, decode[[]PostResponse](t, w))

	w = ts.do(t, http.MethodGet, "/api/v1/mode", s.Token, nil)
	assert.Equal(t, domain.ModeAlternate, decode[ModeResponse](t, w).Mode)

	w = ts.do(t, http.MethodPut, "/api/v1/mode", s.Token, gin.H{"mode": "alternate"})
	assert.False(t, decode[ModeResponse](t, w).Changed)

	w = ts.do(t, http.MethodPut, "/api/v1/mode", s.Token, gin.H{"mode": "beta"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = ts.do(t, http.MethodPut, "/api/v1/mode", s.Token, gin.H{"mode": "prototype", "view": "charts"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPut, "/api/v1/mode", s.Token, gin.H{"mode": "prototype", "view": "scores"})
	require.Equal(t, http.StatusOK, w.Code)
	w = ts.do(t, http.MethodGet, "/api/v1/posts", s.Token, nil)
	assert.Len(t, decode[[]PostResponse](t, w), 1)
}

func TestScoresAndSettings(t *testing.T) {
	ts := newTestServer(t, false)
	s := ts.signUp(t, "ann@x.io")

	w := ts.do(t, http.MethodPost, "/api/v1/posts", s.Token, gin.H{"exerciseType": "pushup", "value": 10})
	require.Equal(t, http.StatusCreated, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/scores?metric=bogus", s.Token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "metric", decode[map[string]string](t, w)["field"])

	w = ts.do(t, http.MethodPut, "/api/v1/settings/multipliers", s.Token, gin.H{"pushup": 0.01})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = ts.do(t, http.MethodPut, "/api/v1/settings/multipliers", s.Token, gin.H{"pushup": 3})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 3.0, decode[domain.MultiplierSettings](t, w).Pushup)

	w = ts.do(t, http.MethodGet, "/api/v1/scores?metric=sum", s.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var board struct {
		Entries []struct {
			Rank  int     `json:"rank"`
			Value float64 `json:"value"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &board))
	require.Len(t, board.Entries, 1)
	assert.Equal(t, 1, board.Entries[0].Rank)
	assert.Equal(t, 30.0, board.Entries[0].Value)

	w = ts.do(t, http.MethodGet, "/api/v1/rankings", s.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = ts.do(t, http.MethodGet, "/api/v1/progress?exercise=pushup", s.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = ts.do(t, http.MethodGet, "/api/v1/progress?exercise=burpee", s.Token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProfileUserName(t *testing.T) {
	ts := newTestServer(t, false)
	ann := ts.signUp(t, "ann@x.io")
	bob := ts.signUp(t, "bob@x.io")

	w := ts.do(t, http.MethodPut, "/api/v1/me/username", ann.Token, gin.H{"userName": "annie"})
	require.Equal(t, http.StatusOK, w.Code)
	w = ts.do(t, http.MethodPut, "/api/v1/me/username", bob.Token, gin.H{"userName": "annie"})
	assert.Equal(t, http.StatusConflict, w.Code)
	w = ts.do(t, http.MethodPut, "/api/v1/me/username", bob.Token, gin.H{"userName": "b"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExports(t *testing.T) {
	ts := newTestServer(t, false)
	s := ts.signUp(t, "ann@x.io")
	w := ts.do(t, http.MethodPost, "/api/v1/exports/rankings", s.Token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	ts = newTestServer(t, true)
	s = ts.signUp(t, "ann@x.io")
	w = ts.do(t, http.MethodPost, "/api/v1/exports/rankings", s.Token, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, decode[service.ExportResult](t, w).DownloadURL, "mem://")

	w = ts.do(t, http.MethodGet, "/api/v1/exports", s.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]domain.Export](t, w), 1)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, false)
	ts.do(t, http.MethodGet, "/ping", "", nil)

	w := ts.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "growrep_test_server_request")
	assert.Contains(t, w.Body.String(), `growrep_test_server_active_mode{mode="prototype"} 1`)
}

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/skillsync-app/auth-service/internal/adapters/transport/http/middleware"
	appjwt "github.com/skillsync-app/auth-service/internal/app/auth/jwt"
	appsvc "github.com/skillsync-app/auth-service/internal/app/auth/service"
	authErrors "github.com/skillsync-app/auth-service/internal/domain/auth/errors"
	"github.com/skillsync-app/auth-service/internal/domain/auth/model"
	"github.com/skillsync-app/auth-service/internal/infra/config"
)

/* ──────────────────────────────── stubs ──────────────────────────────── */

type userRepoStub struct{ users map[string]model.User }

func (u *userRepoStub) CreateUser(_ context.Context, m model.User) (uuid.UUID, error) {
	for _, v := range u.users {
		if v.Email == m.Email {
			return uuid.Nil, authErrors.ErrAlreadyExists
		}
	}
	u.users[m.ID.String()] = m
	return m.ID, nil
}
func (u *userRepoStub) GetUserByEmail(_ context.Context, email string) (model.User, error) {
	for _, v := range u.users {
		if v.Email == email {
			return v, nil
		}
	}
	return model.User{}, authErrors.ErrNotFound
}
func (u *userRepoStub) GetUserByID(_ context.Context, id uuid.UUID) (model.User, error) {
	v, ok := u.users[id.String()]
	if !ok {
		return model.User{}, authErrors.ErrNotFound
	}
	return v, nil
}
func (u *userRepoStub) GetUserByUsername(_ context.Context, name string) (model.User, error) {
	for _, v := range u.users {
		if v.Username == name {
			return v, nil
		}
	}
	return model.User{}, authErrors.ErrNotFound
}
func (u *userRepoStub) UpdateUser(_ context.Context, m model.User) error {
	u.users[m.ID.String()] = m
	return nil
}
func (u *userRepoStub) SetPasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	v, ok := u.users[id.String()]
	if !ok {
		return authErrors.ErrNotFound
	}
	v.PasswordHash = hash
	u.users[id.String()] = v
	return nil
}

type tokenRepoStub struct{ revoked map[string]bool }

func (t *tokenRepoStub) Revoke(_ context.Context, jti string, _ time.Time) error {
	t.revoked[jti] = true
	return nil
}
func (t *tokenRepoStub) IsRevoked(_ context.Context, jti string) (bool, error) {
	return t.revoked[jti], nil
}

type otpRepoStub struct{ recs []model.PasswordResetOTP }

func (o *otpRepoStub) Create(_ context.Context, rec model.PasswordResetOTP) error {
	o.recs = append(o.recs, rec)
	return nil
}
func (o *otpRepoStub) Latest(_ context.Context, userID uuid.UUID, code string) (model.PasswordResetOTP, error) {
	matches := make([]model.PasswordResetOTP, 0)
	for _, r := range o.recs {
		if r.UserID == userID && r.OTP == code {
			matches = append(matches, r)
		}
	}
	if len(matches) == 0 {
		return model.PasswordResetOTP{}, authErrors.ErrNotFound
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].CreatedAt.After(matches[j].CreatedAt) })
	return matches[0], nil
}
func (o *otpRepoStub) DeleteForUser(_ context.Context, userID uuid.UUID) error {
	kept := o.recs[:0]
	for _, r := range o.recs {
		if r.UserID != userID {
			kept = append(kept, r)
		}
	}
	o.recs = kept
	return nil
}

type notifierStub struct{ sent []string }

func (n *notifierStub) Send(_ context.Context, to, _, _ string) error {
	n.sent = append(n.sent, to)
	return nil
}

/* ───────────────────────────── fixture ───────────────────────────── */

type fixture struct {
	router   *gin.Engine
	codec    *appjwt.CodecImpl
	expCodec *appjwt.CodecImpl
	otps     *otpRepoStub
	notifier *notifierStub
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	codecCfg := &config.Config{
		JWTSecret:       "handler-test-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
		Issuer:          "test",
		Audience:        "test",
	}
	codec, err := appjwt.NewCodec(codecCfg)
	require.NoError(t, err)

	expCfg := *codecCfg
	expCfg.AccessTokenTTL = -5 * time.Minute
	expCodec, err := appjwt.NewCodec(&expCfg)
	require.NoError(t, err)

	v := validator.New()
	_ = v.RegisterValidation("strongpwd", func(_ validator.FieldLevel) bool { return true })

	cfg := &config.Config{
		PasswordPepper: "pepper",
		OTPTTL:         10 * time.Minute,
		NotifyTimeout:  time.Second,
		CookieDomain:   "",
	}

	otps := &otpRepoStub{}
	notifier := &notifierStub{}
	svc := appsvc.New(
		&userRepoStub{users: make(map[string]model.User)},
		&tokenRepoStub{revoked: make(map[string]bool)},
		otps, notifier, codec, cfg, v, zap.NewNop(),
	)

	logger := zap.NewNop()
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Session(svc, cfg, logger))
	NewHandler(svc, cfg, logger, nil, nil).RegisterRoutes(router)

	return &fixture{router: router, codec: codec, expCodec: expCodec, otps: otps, notifier: notifier}
}

func (f *fixture) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "127.0.0.1:40000"
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func cookieByName(t *testing.T, w *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, ck := range w.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func (f *fixture) register(t *testing.T, email, username string) (access, refresh *http.Cookie, userID string) {
	t.Helper()
	w := f.do(t, "POST", "/register", gin.H{
		"email": email, "password": "Aa1aaaaa", "username": username,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	access = cookieByName(t, w, middleware.AccessCookie)
	refresh = cookieByName(t, w, middleware.RefreshCookie)
	require.NotNil(t, access)
	require.NotNil(t, refresh)

	var resp struct {
		UserID string `json:"userId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return access, refresh, resp.UserID
}

/* ───────────────────────────── tests ───────────────────────────── */

func TestRegister_SetsSessionCookies(t *testing.T) {
	f := newFixture(t)
	access, refresh, _ := f.register(t, "a@x.com", "alice")

	for _, ck := range []*http.Cookie{access, refresh} {
		require.True(t, ck.HttpOnly)
		require.True(t, ck.Secure)
		require.Equal(t, http.SameSiteLaxMode, ck.SameSite)
		require.Equal(t, "/", ck.Path)
	}
	require.Greater(t, refresh.MaxAge, access.MaxAge, "refresh cookie outlives access cookie")
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.register(t, "dup@x.com", "alice")
	w := f.do(t, "POST", "/register", gin.H{
		"email": "dup@x.com", "password": "Aa1aaaaa", "username": "bob",
	})
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestLogin_BadCredentials(t *testing.T) {
	f := newFixture(t)
	f.register(t, "l@x.com", "alice")
	w := f.do(t, "POST", "/login", gin.H{"email": "l@x.com", "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMe_Authenticated(t *testing.T) {
	f := newFixture(t)
	access, _, userID := f.register(t, "me@x.com", "alice")

	w := f.do(t, "GET", "/me", nil, access)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, userID, resp.ID)
	require.Equal(t, "alice", resp.Username)
}

func TestMe_Anonymous(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, "GET", "/me", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMe_GarbageCookieIsAnonymous(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, "GET", "/me", nil, &http.Cookie{Name: middleware.AccessCookie, Value: "garbage"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSilentRenewal_EndToEnd(t *testing.T) {
	f := newFixture(t)
	_, refresh, userID := f.register(t, "renew@x.com", "alice")

	uid, err := uuid.Parse(userID)
	require.NoError(t, err)
	expiredToken, _, _, err := f.expCodec.GenerateAccessToken(uid)
	require.NoError(t, err)

	w := f.do(t, "GET", "/me", nil,
		&http.Cookie{Name: middleware.AccessCookie, Value: expiredToken},
		&http.Cookie{Name: middleware.RefreshCookie, Value: refresh.Value},
	)
	require.Equal(t, http.StatusOK, w.Code, "request with renewable session must still succeed")

	renewed := cookieByName(t, w, middleware.AccessCookie)
	require.NotNil(t, renewed, "response must carry a renewed access cookie")
	require.NotEqual(t, expiredToken, renewed.Value)

	claims, err := f.codec.ValidateAccessToken(renewed.Value)
	require.NoError(t, err)
	require.Equal(t, userID, claims.Subject)

	require.Nil(t, cookieByName(t, w, middleware.RefreshCookie),
		"silent renewal must not rotate the refresh cookie")
}

func TestSilentRenewal_BadRefreshIsAnonymous(t *testing.T) {
	f := newFixture(t)
	_, _, userID := f.register(t, "dead@x.com", "alice")

	uid, err := uuid.Parse(userID)
	require.NoError(t, err)
	expiredAccess, _, _, err := f.expCodec.GenerateAccessToken(uid)
	require.NoError(t, err)

	w := f.do(t, "GET", "/me", nil,
		&http.Cookie{Name: middleware.AccessCookie, Value: expiredAccess},
		&http.Cookie{Name: middleware.RefreshCookie, Value: "garbage"},
	)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout_RevokesRefresh(t *testing.T) {
	f := newFixture(t)
	access, refresh, _ := f.register(t, "out@x.com", "alice")

	w := f.do(t, "POST", "/logout", nil, access, refresh)
	require.Equal(t, http.StatusOK, w.Code)

	// both cookies cleared
	for _, name := range []string{middleware.AccessCookie, middleware.RefreshCookie} {
		cleared := cookieByName(t, w, name)
		require.NotNil(t, cleared)
		require.Less(t, cleared.MaxAge, 0)
	}

	// the blacklisted refresh token no longer renews
	w = f.do(t, "POST", "/refresh", nil, refresh)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout_WithoutCookiesStillSucceeds(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, "POST", "/logout", gin.H{"refresh_token": "garbage"})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRefresh_FromCookie(t *testing.T) {
	f := newFixture(t)
	_, refresh, userID := f.register(t, "r@x.com", "alice")

	w := f.do(t, "POST", "/refresh", nil, refresh)
	require.Equal(t, http.StatusOK, w.Code)

	renewed := cookieByName(t, w, middleware.AccessCookie)
	require.NotNil(t, renewed)
	claims, err := f.codec.ValidateAccessToken(renewed.Value)
	require.NoError(t, err)
	require.Equal(t, userID, claims.Subject)

	require.Nil(t, cookieByName(t, w, middleware.RefreshCookie))
}

func TestRefresh_NoCookie(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, "POST", "/refresh", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPasswordResetFlow(t *testing.T) {
	f := newFixture(t)
	f.register(t, "pw@x.com", "alice")

	w := f.do(t, "POST", "/password/forgot", gin.H{"email": "pw@x.com"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, f.otps.recs, 1)
	require.Equal(t, []string{"pw@x.com"}, f.notifier.sent)
	code := f.otps.recs[0].OTP

	w = f.do(t, "POST", "/password/verify-otp", gin.H{"email": "pw@x.com", "otp": code})
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, "POST", "/password/verify-otp", gin.H{"email": "pw@x.com", "otp": "000000"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, "POST", "/password/reset", gin.H{"email": "pw@x.com", "new_password": "Bb2bbbbb"})
	require.Equal(t, http.StatusOK, w.Code)

	// consumed: the old code is gone
	w = f.do(t, "POST", "/password/verify-otp", gin.H{"email": "pw@x.com", "otp": code})
	require.Equal(t, http.StatusBadRequest, w.Code)

	// and the new password logs in
	w = f.do(t, "POST", "/login", gin.H{"email": "pw@x.com", "password": "Bb2bbbbb"})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestPasswordReset_UnknownEmail(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, "POST", "/password/forgot", gin.H{"email": "ghost@x.com"})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, "GET", "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

package httpauth_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	auth "github.com/goliatone/go-auth-jwt"
	"github.com/goliatone/go-auth-jwt/config"
	"github.com/goliatone/go-auth-jwt/httpauth"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type harness struct {
	app   *fiber.App
	mu    sync.Mutex
	ids   map[string]string
	opts  *config.Options
	store *auth.IdentityRepository
}

func (h *harness) idFor(email string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ids[email]
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db, err := auth.OpenDB(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, auth.Migrate(context.Background(), db))

	priv, pub, err := auth.GenerateKeyPair(auth.MethodEdDSA)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Method:     auth.MethodEdDSA,
		PrivateKey: priv,
		PublicKey:  pub,
		Issuer:     "test-issuer",
	})
	require.NoError(t, err)

	opts, err := config.Load("")
	require.NoError(t, err)
	opts.CookieSecure = true

	h := &harness{ids: map[string]string{}, opts: opts}
	h.store = auth.NewIdentityRepository(db)

	authenticator := auth.NewAuthenticator(h.store, tokens).
		WithHasher(auth.NewBcryptHasher(auth.WithHashCost(bcrypt.MinCost))).
		WithNotifier(auth.NotifierFunc(func(_ context.Context, email, id string) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.ids[email] = id
		}))

	h.app = mount(httpauth.NewController(authenticator, opts))
	return h
}

func mount(ctrl *httpauth.Controller) *fiber.App {
	adapter := router.NewFiberAdapter(func(app *fiber.App) *fiber.App { return app })
	httpauth.RegisterRoutes(adapter.Router(), ctrl)
	adapter.Init()
	return adapter.WrappedRouter()
}

func jsonRequest(method, target string, body any) *http.Request {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = strings.NewReader(string(raw))
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func doJSON(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp, out
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

var creds = map[string]string{"email": "ann@example.com", "password": "correct horse battery"}

func (h *harness) register(t *testing.T) {
	t.Helper()
	resp, body := doJSON(t, h.app, jsonRequest(http.MethodPost, "/auth/register", creds))
	require.Equal(t, router.StatusCreated, resp.StatusCode)
	assert.Equal(t, auth.RegisterMessage, body["detail"])
}

func (h *harness) login(t *testing.T) (*http.Cookie, *http.Cookie) {
	t.Helper()
	resp, _ := doJSON(t, h.app, jsonRequest(http.MethodPost, "/auth/login", creds))
	require.Equal(t, router.StatusOK, resp.StatusCode)
	access := findCookie(resp, "access_token_jwt")
	refresh := findCookie(resp, "refresh_token_jwt")
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	return access, refresh
}

func TestRegister(t *testing.T) {
	h := newHarness(t)
	h.register(t)
	assert.NotEmpty(t, h.idFor("ann@example.com"))

	resp, body := doJSON(t, h.app, jsonRequest(http.MethodPost, "/auth/register", creds))
	assert.Equal(t, router.StatusConflict, resp.StatusCode)
	assert.Equal(t, auth.TextCodeAlreadyExists, body["code"])
}

func TestRegister_Validation(t *testing.T) {
	h := newHarness(t)

	resp, body := doJSON(t, h.app, jsonRequest(http.MethodPost, "/auth/register", map[string]string{
		"email":    "not-an-email",
		"password": "short",
	}))
	assert.Equal(t, router.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, httpauth.TextCodeValidation, body["code"])

	fields, ok := body["fields"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
}

func TestLogin_InvalidCredentialsAreIndistinguishable(t *testing.T) {
	h := newHarness(t)
	h.register(t)

	wrongPass, wrongBody := doJSON(t, h.app, jsonRequest(http.MethodPost, "/auth/login", map[string]string{
		"email": "ann@example.com", "password": "not the password",
	}))
	unknown, unknownBody := doJSON(t, h.app, jsonRequest(http.MethodPost, "/auth/login", map[string]string{
		"email": "nobody@example.com", "password": "not the password",
	}))

	assert.Equal(t, router.StatusBadRequest, wrongPass.StatusCode)
	assert.Equal(t, wrongPass.StatusCode, unknown.StatusCode)
	assert.Equal(t, wrongBody, unknownBody)
	assert.Empty(t, wrongPass.Cookies())
}

func TestLogin_SetsCookies(t *testing.T) {
	h := newHarness(t)
	h.register(t)
	access, refresh := h.login(t)

	for _, c := range []*http.Cookie{access, refresh} {
		assert.True(t, c.HttpOnly)
		assert.True(t, c.Secure)
		assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
		assert.NotEmpty(t, c.Value)
	}
	assert.Greater(t, refresh.MaxAge, access.MaxAge)
	assert.InDelta(t, h.opts.AccessTokenTTL.Seconds(), access.MaxAge, 5)
}

func TestRefresh(t *testing.T) {
	h := newHarness(t)
	h.register(t)
	access, refresh := h.login(t)

	req := jsonRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(refresh)
	resp, _ := doJSON(t, h.app, req)
	require.Equal(t, router.StatusOK, resp.StatusCode)
	assert.NotNil(t, findCookie(resp, "access_token_jwt"))

	req = jsonRequest(http.MethodPost, "/auth/refresh", nil)
	resp, body := doJSON(t, h.app, req)
	assert.Equal(t, router.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, auth.TextCodeTokenMissing, body["code"])

	// an access token is not a refresh token
	req = jsonRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token_jwt", Value: access.Value})
	resp, body = doJSON(t, h.app, req)
	assert.Equal(t, router.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, auth.TextCodeInvalidToken, body["code"])
}

func TestActivate(t *testing.T) {
	h := newHarness(t)
	h.register(t)
	id := h.idFor("ann@example.com")

	resp, _ := doJSON(t, h.app, jsonRequest(http.MethodGet, "/auth/activate?id="+id, nil))
	assert.Equal(t, router.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, h.app, jsonRequest(http.MethodGet, "/auth/activate?id="+id, nil))
	assert.Equal(t, router.StatusNotFound, resp.StatusCode)
	assert.Equal(t, auth.TextCodeNotFound, body["code"])

	resp, _ = doJSON(t, h.app, jsonRequest(http.MethodGet, "/auth/activate", nil))
	assert.Equal(t, router.StatusNotFound, resp.StatusCode)
}

func TestMe(t *testing.T) {
	h := newHarness(t)
	h.register(t)
	access, _ := h.login(t)

	req := jsonRequest(http.MethodGet, "/me", nil)
	req.AddCookie(access)
	resp, body := doJSON(t, h.app, req)
	require.Equal(t, router.StatusOK, resp.StatusCode)
	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ann@example.com", user["email"])
	assert.NotContains(t, user, "password_hash")

	req = jsonRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+access.Value)
	resp, _ = doJSON(t, h.app, req)
	assert.Equal(t, router.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, h.app, jsonRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, router.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, auth.TextCodeTokenMissing, body["code"])
}

func TestUpdateMe(t *testing.T) {
	h := newHarness(t)
	h.register(t)
	access, _ := h.login(t)

	patch := func(body any) (*http.Response, map[string]any) {
		req := jsonRequest(http.MethodPatch, "/me", body)
		req.AddCookie(access)
		return doJSON(t, h.app, req)
	}

	resp, body := patch(map[string]any{"bio": "hello"})
	assert.Equal(t, router.StatusForbidden, resp.StatusCode)
	assert.Equal(t, auth.TextCodeNotActivated, body["code"])

	resp, _ = doJSON(t, h.app, jsonRequest(http.MethodGet, "/auth/activate?id="+h.idFor("ann@example.com"), nil))
	require.Equal(t, router.StatusOK, resp.StatusCode)

	resp, body = patch(map[string]any{"phone_number": "not a phone"})
	assert.Equal(t, router.StatusUnprocessableEntity, resp.StatusCode)

	resp, body = patch(map[string]any{
		"username":     "ann",
		"bio":          "hello",
		"birthday":     "1990-05-01",
		"phone_number": "+1 650-253-0000",
	})
	require.Equal(t, router.StatusOK, resp.StatusCode)
	assert.Equal(t, "ann", body["username"])
	assert.Equal(t, "hello", body["bio"])
	assert.Equal(t, "+16502530000", body["phone_number"])
}

func TestLogout_ClearsCookies(t *testing.T) {
	h := newHarness(t)

	resp, _ := doJSON(t, h.app, jsonRequest(http.MethodPost, "/auth/logout", nil))
	require.Equal(t, router.StatusOK, resp.StatusCode)

	for _, name := range []string{"access_token_jwt", "refresh_token_jwt"} {
		c := findCookie(resp, name)
		require.NotNil(t, c, name)
		assert.Empty(t, c.Value)
	}
}

type failingAuthenticator struct {
	auth.Authenticator
	err error
}

func (f failingAuthenticator) Register(context.Context, string, string) (*auth.RegisterResult, error) {
	return nil, f.err
}

func TestUnexpectedErrorsAreGeneric(t *testing.T) {
	app := mount(httpauth.NewController(failingAuthenticator{err: errors.New("connection to db refused")}, nil))

	resp, body := doJSON(t, app, jsonRequest(http.MethodPost, "/auth/register", creds))
	assert.Equal(t, router.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Internal server error", body["detail"])
	assert.NotContains(t, fmt.Sprint(body), "db")
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		auth.ErrAlreadyExists:      router.StatusConflict,
		auth.ErrInvalidCredentials: router.StatusBadRequest,
		auth.ErrNotFound:           router.StatusNotFound,
		auth.ErrSubjectMissing:     router.StatusNotFound,
		auth.ErrTokenExpired:       router.StatusUnauthorized,
		auth.ErrInvalidToken:       router.StatusUnauthorized,
		auth.ErrTokenMissing:       router.StatusBadRequest,
		auth.ErrNotActivated:       router.StatusForbidden,
		errors.New("boom"):         router.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, httpauth.StatusFor(err), err.Error())
	}
}

func TestNormalizePhone(t *testing.T) {
	got, err := httpauth.NormalizePhone("(650) 253-0000")
	require.NoError(t, err)
	assert.Equal(t, "+16502530000", got)

	got, err = httpauth.NormalizePhone("  ")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = httpauth.NormalizePhone("12")
	assert.Error(t, err)
}

package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"bsm-backend/internal/middleware"
	"bsm-backend/internal/models"
)

func setupAuthApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	cfg := middleware.SessionConfig{RedisURL: "redis://" + mr.Addr(), IsProduction: false}
	sessionHandler, rdb, err := middleware.Session(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { rdb.Close() })

	app := fiber.New()
	app.Use(sessionHandler)
	h := &Handlers{DB: db, Rdb: rdb, Config: cfg}
	app.Post("/login", h.Login)
	app.Delete("/logout", h.Logout)
	app.Get("/profile", middleware.RequireAuth(), h.Profile)
	return app, db
}

func loginRequest(t *testing.T, username, password string) *http.Request {
	t.Helper()
	body, err := json.Marshal(LoginInput{Username: username, Password: password})
	require.NoError(t, err)
	req := httptest.NewRequest("POST", "/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	return nil
}

func TestLogin_SetsSessionCookie(t *testing.T) {
	app, db := setupAuthApp(t)
	require.NoError(t, EnsureUser(db, "operator", "secret123"))

	resp, err := app.Test(loginRequest(t, "operator", "secret123"))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	cookie := sessionCookie(resp)
	require.NotNil(t, cookie)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)
}

func TestLogin_WrongPassword(t *testing.T) {
	app, db := setupAuthApp(t)
	require.NoError(t, EnsureUser(db, "operator", "secret123"))

	resp, err := app.Test(loginRequest(t, "operator", "wrong"))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Nil(t, sessionCookie(resp))
}

func TestLogin_UnknownUserSameError(t *testing.T) {
	app, db := setupAuthApp(t)
	require.NoError(t, EnsureUser(db, "operator", "secret123"))

	wrongPass, err := app.Test(loginRequest(t, "operator", "bad"))
	require.NoError(t, err)
	unknownUser, err := app.Test(loginRequest(t, "nobody", "bad"))
	require.NoError(t, err)

	// Same status either way, so responses do not reveal which usernames exist.
	assert.Equal(t, wrongPass.StatusCode, unknownUser.StatusCode)
}

func TestLogin_MissingCredentials(t *testing.T) {
	app, _ := setupAuthApp(t)
	resp, err := app.Test(loginRequest(t, "", ""))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestProfile_RequiresSession(t *testing.T) {
	app, _ := setupAuthApp(t)
	resp, err := app.Test(httptest.NewRequest("GET", "/profile", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestLoginProfileLogoutFlow(t *testing.T) {
	app, db := setupAuthApp(t)
	require.NoError(t, EnsureUser(db, "operator", "secret123"))

	loginResp, err := app.Test(loginRequest(t, "operator", "secret123"))
	require.NoError(t, err)
	cookie := sessionCookie(loginResp)
	require.NotNil(t, cookie)

	profileReq := httptest.NewRequest("GET", "/profile", nil)
	profileReq.AddCookie(cookie)
	profileResp, err := app.Test(profileReq)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, profileResp.StatusCode)

	var body struct {
		Data Profile `json:"data"`
	}
	require.NoError(t, json.NewDecoder(profileResp.Body).Decode(&body))
	assert.Equal(t, "operator", body.Data.Username)
	assert.NotEmpty(t, body.Data.UserID)

	logoutReq := httptest.NewRequest("DELETE", "/logout", nil)
	logoutReq.AddCookie(cookie)
	logoutResp, err := app.Test(logoutReq)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, logoutResp.StatusCode)

	// The old session no longer authenticates.
	retryReq := httptest.NewRequest("GET", "/profile", nil)
	retryReq.AddCookie(cookie)
	retryResp, err := app.Test(retryReq)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, retryResp.StatusCode)
}

func TestEnsureUser_Idempotent(t *testing.T) {
	_, db := setupAuthApp(t)
	require.NoError(t, EnsureUser(db, "operator", "secret123"))
	require.NoError(t, EnsureUser(db, "operator", "different"))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

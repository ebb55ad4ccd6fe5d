package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"bloom/internal/addressvalidator"
	"bloom/internal/database"
	"bloom/internal/handlers"
	"bloom/internal/middleware"
	"bloom/internal/repositories"
	"bloom/internal/services"
	"bloom/internal/siwe"
	"bloom/internal/siwe/siwetest"
	"bloom/pkg/mediastore"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func newTestApp(t *testing.T, csrf bool) *fiber.App {
	return newTestAppWithMedia(t, csrf, nil)
}

func newTestAppWithMedia(t *testing.T, csrf bool, media *services.MediaService) *fiber.App {
	t.Helper()
	db, err := database.Open(database.Config{
		Driver:       "sqlite",
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		MaxOpenConns: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })

	userRepo := repositories.NewGORMUserRepository(db)
	accountRepo := repositories.NewGORMWeb3AccountRepository(db)
	nonceRepo := repositories.NewGORMNonceRepository(db)
	followRepo := repositories.NewGORMFollowRepository(db)
	postRepo := repositories.NewGORMPostRepository(db)

	verifier := siwe.NewSignatureVerifier(2*time.Second, nil)
	gen, err := services.NewNonceGenerator("handler_secret")
	require.NoError(t, err)
	tokens, err := services.NewTokenIssuer("handler_secret", time.Hour)
	require.NoError(t, err)

	return handlers.NewApp(handlers.Options{
		Auth:   services.NewAuthService(accountRepo, nonceRepo, verifier, gen, tokens, true),
		Users:  services.NewUserService(userRepo, accountRepo, followRepo, addressvalidator.Local{}, verifier, nil, true),
		Social: services.NewSocialService(userRepo, followRepo, nil),
		Feed:   services.NewFeedService(userRepo, accountRepo, postRepo, nil),
		Media:  media,
		CSRF:   csrf,
	})
}

type response struct {
	status  int
	body    map[string]interface{}
	cookies []*http.Cookie
}

func do(t *testing.T, app *fiber.App, method, path string, body interface{}, cookies ...*http.Cookie) response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := response{status: resp.StatusCode, cookies: resp.Cookies()}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out.body), string(raw))
	}
	return out
}

func cookieNamed(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// signupAndLogin creates username through the API and returns its token cookie.
func signupAndLogin(t *testing.T, app *fiber.App, username string) (*http.Cookie, *siwetest.EVMWallet) {
	t.Helper()
	wallet := siwetest.NewEVMWallet(t)

	nonceResp := do(t, app, http.MethodGet, "/api/auth/nonce", nil)
	require.Equal(t, fiber.StatusOK, nonceResp.status)
	nonce := nonceResp.body["nonce"].(string)

	message := siwetest.Message(wallet.Address, 1, nonce)
	signature := wallet.Sign(t, message)
	created := do(t, app, http.MethodPost, "/api/users/create", map[string]interface{}{
		"type":     "third-party",
		"username": username,
		"account":  map[string]string{"address": wallet.Address, "nonce": nonce, "chainId": "ethereum"},
		"message":  message, "signature": signature,
	})
	require.Equal(t, fiber.StatusCreated, created.status, created.body)

	login := do(t, app, http.MethodPost, "/api/auth/login", map[string]string{
		"message": message, "signature": signature, "address": wallet.Address, "chain": "ethereum",
	})
	require.Equal(t, fiber.StatusOK, login.status, login.body)
	token := cookieNamed(login.cookies, middleware.TokenCookie)
	require.NotNil(t, token)
	return token, wallet
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, false)
	resp := do(t, app, http.MethodGet, "/health", nil)
	assert.Equal(t, fiber.StatusOK, resp.status)
	assert.Equal(t, "healthy", resp.body["status"])
}

func TestNonceEndpoint(t *testing.T) {
	app := newTestApp(t, false)
	first := do(t, app, http.MethodGet, "/api/auth/nonce", nil)
	second := do(t, app, http.MethodGet, "/api/auth/nonce", nil)
	assert.Equal(t, fiber.StatusOK, first.status)
	assert.Len(t, first.body["nonce"], 64)
	assert.NotEqual(t, first.body["nonce"], second.body["nonce"])
}

func TestCheckAddressEndpoint(t *testing.T) {
	app := newTestApp(t, false)

	missing := do(t, app, http.MethodGet, "/api/auth/check-address?chainId=ethereum", nil)
	assert.Equal(t, fiber.StatusBadRequest, missing.status)
	assert.Equal(t, "Invalid Account Address", missing.body["message"])
	assert.Equal(t, "Bad Request", missing.body["reason"])
	assert.Equal(t, "address", missing.body["cause"])

	wallet := siwetest.NewEVMWallet(t)
	unknown := do(t, app, http.MethodGet, "/api/auth/check-address?chainId=ethereum&address="+wallet.Address, nil)
	assert.Equal(t, fiber.StatusOK, unknown.status)
	assert.Equal(t, false, unknown.body["exists"])
	assert.Equal(t, false, unknown.body["ownedByUser"])
}

func TestSignupLoginAndProfile(t *testing.T) {
	app := newTestApp(t, false)
	token, wallet := signupAndLogin(t, app, "Alice")

	assert.True(t, token.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, token.SameSite)

	status := do(t, app, http.MethodGet, "/api/auth/check-address?chainId=ethereum&address="+wallet.Address, nil)
	assert.Equal(t, true, status.body["exists"])
	assert.Equal(t, true, status.body["ownedByUser"])

	profile := do(t, app, http.MethodGet, "/api/users/alice", nil, token)
	require.Equal(t, fiber.StatusOK, profile.status, profile.body)
	assert.Equal(t, "alice", profile.body["username"])
	assert.Equal(t, true, profile.body["isSelf"])
	assert.Len(t, profile.body["web3Accounts"], 1)

	anonymous := do(t, app, http.MethodGet, "/api/users/alice", nil)
	assert.Equal(t, fiber.StatusUnauthorized, anonymous.status)

	missing := do(t, app, http.MethodGet, "/api/users/nobody", nil, token)
	assert.Equal(t, fiber.StatusNotFound, missing.status)
}

func TestLoginSetsSessionCookie(t *testing.T) {
	app := newTestApp(t, false)
	wallet := siwetest.NewEVMWallet(t)
	nonce := do(t, app, http.MethodGet, "/api/auth/nonce", nil).body["nonce"].(string)
	message := siwetest.Message(wallet.Address, 1, nonce)
	signature := wallet.Sign(t, message)

	// no account yet
	login := do(t, app, http.MethodPost, "/api/auth/login", map[string]string{
		"message": message, "signature": signature, "address": wallet.Address, "chain": "ethereum",
	})
	assert.Equal(t, fiber.StatusNotFound, login.status)
	assert.Nil(t, cookieNamed(login.cookies, middleware.TokenCookie))

	created := do(t, app, http.MethodPost, "/api/users/create", map[string]interface{}{
		"type":     "third-party",
		"username": "bob",
		"account":  map[string]string{"address": wallet.Address, "nonce": nonce, "chainId": "ethereum"},
		"message":  message, "signature": signature,
	})
	require.Equal(t, fiber.StatusCreated, created.status, created.body)

	login = do(t, app, http.MethodPost, "/api/auth/login", map[string]string{
		"message": message, "signature": signature, "address": wallet.Address, "chain": "ethereum",
	})
	require.Equal(t, fiber.StatusOK, login.status, login.body)
	assert.Equal(t, "Login successful", login.body["message"])
	session := cookieNamed(login.cookies, handlers.SessionCookie)
	require.NotNil(t, session)
	assert.Contains(t, session.Value, "chainId")

	logout := do(t, app, http.MethodPost, "/api/auth/logout", nil)
	assert.Equal(t, fiber.StatusOK, logout.status)
	cleared := cookieNamed(logout.cookies, middleware.TokenCookie)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
}

func TestCreateUserErrors(t *testing.T) {
	app := newTestApp(t, false)

	noType := do(t, app, http.MethodPost, "/api/users/create", map[string]string{"username": "carol"})
	assert.Equal(t, fiber.StatusBadRequest, noType.status)
	assert.Equal(t, "type", noType.body["cause"])

	short := do(t, app, http.MethodPost, "/api/users/create", map[string]interface{}{
		"type":     "third-party",
		"username": "ab",
		"account":  map[string]string{"address": "0x0", "nonce": "n", "chainId": "ethereum"},
		"message":  "m", "signature": "s",
	})
	assert.Equal(t, fiber.StatusBadRequest, short.status)
	assert.Equal(t, "username", short.body["cause"])

	signupAndLogin(t, app, "carol")
	taken := do(t, app, http.MethodGet, "/api/users/validate-username/Carol", nil)
	assert.Equal(t, fiber.StatusOK, taken.status)
	assert.Equal(t, false, taken.body["valid"])

	free := do(t, app, http.MethodGet, "/api/users/validate-username/dave", nil)
	assert.Equal(t, true, free.body["valid"])
}

func TestFollowFlow(t *testing.T) {
	app := newTestApp(t, false)
	aliceToken, _ := signupAndLogin(t, app, "alice")
	signupAndLogin(t, app, "bob")

	suggestions := do(t, app, http.MethodGet, "/api/users/suggestions?count=5", nil, aliceToken)
	require.Equal(t, fiber.StatusOK, suggestions.status)
	assert.Len(t, suggestions.body["users"], 1)

	badCount := do(t, app, http.MethodGet, "/api/users/suggestions?count=51", nil, aliceToken)
	assert.Equal(t, fiber.StatusBadRequest, badCount.status)

	follow := do(t, app, http.MethodPost, "/api/users/follow/bob", nil, aliceToken)
	assert.Equal(t, fiber.StatusOK, follow.status)

	again := do(t, app, http.MethodPost, "/api/users/follow/bob", nil, aliceToken)
	assert.Equal(t, fiber.StatusConflict, again.status)

	self := do(t, app, http.MethodPost, "/api/users/follow/alice", nil, aliceToken)
	assert.Equal(t, fiber.StatusBadRequest, self.status)

	followStatus := do(t, app, http.MethodGet, "/api/users/follow-status/bob", nil, aliceToken)
	assert.Equal(t, true, followStatus.body["isFollowing"])

	profile := do(t, app, http.MethodGet, "/api/users/bob", nil, aliceToken)
	assert.Equal(t, true, profile.body["isFollowing"])
	assert.EqualValues(t, 1, profile.body["followersCount"])

	unfollow := do(t, app, http.MethodDelete, "/api/users/follow/bob", nil, aliceToken)
	assert.Equal(t, fiber.StatusOK, unfollow.status)
	unfollowAgain := do(t, app, http.MethodDelete, "/api/users/follow/bob", nil, aliceToken)
	assert.Equal(t, fiber.StatusNotFound, unfollowAgain.status)
}

func TestFeedFlow(t *testing.T) {
	app := newTestApp(t, false)
	token, _ := signupAndLogin(t, app, "minter")

	created := do(t, app, http.MethodPost, "/api/feed/posts/create", map[string]interface{}{
		"content": "gm",
		"onChainActivity": map[string]interface{}{
			"activityType": "mint",
			"txHash":       "0xabc",
			"chain":        "ethereum",
			"metadata":     map[string]string{"tokenId": "1", "contractAddress": "0xdef", "collection": "Blooms"},
		},
	}, token)
	require.Equal(t, fiber.StatusCreated, created.status, created.body)
	post := created.body["post"].(map[string]interface{})
	postID := post["id"].(string)

	list := do(t, app, http.MethodGet, "/api/feed/posts/minter", nil, token)
	assert.Equal(t, fiber.StatusOK, list.status)
	assert.Len(t, list.body["posts"], 1)

	one := do(t, app, http.MethodGet, "/api/feed/post/"+postID, nil, token)
	assert.Equal(t, fiber.StatusOK, one.status)

	missing := do(t, app, http.MethodGet, "/api/feed/post/"+uuid.NewString(), nil, token)
	assert.Equal(t, fiber.StatusNotFound, missing.status)

	anonymous := do(t, app, http.MethodGet, "/api/feed/posts/minter", nil)
	assert.Equal(t, fiber.StatusUnauthorized, anonymous.status)
}

func TestMediaRouteRequiresStorage(t *testing.T) {
	app := newTestApp(t, false)
	token, _ := signupAndLogin(t, app, "uploader")
	resp := do(t, app, http.MethodPost, "/api/media/upload-url", map[string]string{"contentType": "image/png"}, token)
	assert.Equal(t, fiber.StatusNotFound, resp.status)
}

func TestMediaUploadURL(t *testing.T) {
	store, err := mediastore.New(context.Background(), mediastore.Config{
		Region:    "us-east-1",
		Bucket:    "bloom-media",
		Endpoint:  "http://localhost:9000",
		AccessKey: "access",
		SecretKey: "secret",
	})
	require.NoError(t, err)
	app := newTestAppWithMedia(t, false, services.NewMediaService(store, time.Minute))
	token, _ := signupAndLogin(t, app, "uploader")

	ok := do(t, app, http.MethodPost, "/api/media/upload-url", map[string]string{"contentType": "image/png"}, token)
	require.Equal(t, fiber.StatusCreated, ok.status, ok.body)
	assert.Contains(t, ok.body["uploadUrl"], "http://localhost:9000/bloom-media/users/")
	assert.Contains(t, ok.body["mediaUrl"], ".png")

	bad := do(t, app, http.MethodPost, "/api/media/upload-url", map[string]string{"contentType": "text/html"}, token)
	assert.Equal(t, fiber.StatusBadRequest, bad.status)
}

func TestCSRFProtection(t *testing.T) {
	app := newTestApp(t, true)

	rejected := do(t, app, http.MethodPost, "/api/auth/logout", nil)
	assert.Equal(t, fiber.StatusForbidden, rejected.status)
	assert.Equal(t, "Forbidden", rejected.body["reason"])

	issued := do(t, app, http.MethodGet, "/api/security/csrf-token", nil)
	require.Equal(t, fiber.StatusOK, issued.status)
	token, _ := issued.body["csrfToken"].(string)
	require.NotEmpty(t, token)
	cookie := cookieNamed(issued.cookies, "csrf_")
	require.NotNil(t, cookie)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.Header.Set("X-Csrf-Token", token)
	req.AddCookie(cookie)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("database exploded") })
	app.Get("/teapot", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusTeapot, "short and stout") })

	boom := do(t, app, http.MethodGet, "/boom", nil)
	assert.Equal(t, fiber.StatusInternalServerError, boom.status)
	assert.Equal(t, "Something went wrong", boom.body["message"])
	assert.EqualValues(t, 500, boom.body["status"])
	assert.Nil(t, boom.body["cause"])

	teapot := do(t, app, http.MethodGet, "/teapot", nil)
	assert.Equal(t, fiber.StatusTeapot, teapot.status)
	assert.Equal(t, "short and stout", teapot.body["message"])

	notFound := do(t, app, http.MethodGet, "/nowhere", nil)
	assert.Equal(t, fiber.StatusNotFound, notFound.status)
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"bloom/internal/config"
	"bloom/internal/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(database.Config{
		Driver:       "sqlite",
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		MaxOpenConns: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		Env:              "development",
		Secret:           "main_test_secret",
		TokenTTL:         time.Hour,
		VerifyTimeout:    time.Second,
		AddressTimeout:   time.Second,
		AdamikBaseURL:    "http://127.0.0.1:1",
		NonceReplayGuard: true,
		RateLimitRPS:     100,
		RateLimitBurst:   100,
	}
}

func TestNewAppServesHealthAndNonce(t *testing.T) {
	app, err := newApp(testConfig(), testDB(t), nil, nil)
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var health map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "up", health["database"])
	assert.Equal(t, false, health["events"])

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/auth/nonce", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNewAppWithExternalServicesConfigured(t *testing.T) {
	cfg := testConfig()
	cfg.AdamikAPIKey = "key"
	cfg.ProjectID = "project"
	cfg.RPCURLTemplate = "http://127.0.0.1:1/?chainId=%d&projectId=%s"

	app, err := newApp(cfg, testDB(t), nil, nil)
	require.NoError(t, err)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/users/validate-username/somebody", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNewAppRequiresSecret(t *testing.T) {
	cfg := testConfig()
	cfg.Secret = ""
	_, err := newApp(cfg, testDB(t), nil, nil)
	assert.Error(t, err)
}

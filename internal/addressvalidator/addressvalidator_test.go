package addressvalidator_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bloom/internal/addressvalidator"
	"bloom/internal/models"
	"bloom/internal/siwe/siwetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal(t *testing.T) {
	v := addressvalidator.Local{}
	ok, err := v.Validate(context.Background(), models.ChainEthereum, siwetest.NewEVMWallet(t).Address)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = v.Validate(context.Background(), models.ChainSolana, "not-base58-0OIl")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAdamik(t *testing.T) {
	wallet := siwetest.NewEVMWallet(t)
	var gotPath, gotAuth, gotAddress string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		var body struct {
			Address string `json:"address"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotAddress = body.Address
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"valid":true}`))
	}))
	defer srv.Close()

	v := addressvalidator.NewAdamik(srv.URL+"/", "key-123", time.Second)
	ok, err := v.Validate(context.Background(), models.ChainEthereum, wallet.Address)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/api/ethereum/address/validate", gotPath)
	assert.Equal(t, "key-123", gotAuth)
	assert.Equal(t, wallet.Address, gotAddress)
}

func TestAdamikRejectsMalformedWithoutCalling(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	v := addressvalidator.NewAdamik(srv.URL, "key", time.Second)
	ok, err := v.Validate(context.Background(), models.ChainEthereum, "0x123")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, called)
}

func TestAdamikUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	v := addressvalidator.NewAdamik(srv.URL, "key", time.Second)
	_, err := v.Validate(context.Background(), models.ChainSolana, siwetest.NewSolanaWallet(t).Address)
	assert.ErrorIs(t, err, addressvalidator.ErrUnavailable)
}

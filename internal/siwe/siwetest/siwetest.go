// Package siwetest provides throwaway wallets and sign-in messages for tests.
package siwetest

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mr-tron/base58"
)

// Message renders a sign-in challenge in the format wallets produce.
func Message(address string, chainID int64, nonce string) string {
	return fmt.Sprintf("bloom.social wants you to sign in with your account:\n"+
		"%s\n\n"+
		"Sign in to Bloom.\n\n"+
		"URI: https://bloom.social\n"+
		"Version: 1\n"+
		"Chain ID: %d\n"+
		"Nonce: %s\n"+
		"Issued At: %s",
		address, chainID, nonce, time.Now().UTC().Format(time.RFC3339))
}

// EVMWallet is a throwaway secp256k1 key.
type EVMWallet struct {
	key     *ecdsa.PrivateKey
	Address string
}

func NewEVMWallet(t testing.TB) *EVMWallet {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate evm key: %v", err)
	}
	return &EVMWallet{key: key, Address: crypto.PubkeyToAddress(key.PublicKey).Hex()}
}

// Sign produces a personal_sign signature with v in {27, 28}.
func (w *EVMWallet) Sign(t testing.TB, message string) string {
	t.Helper()
	prefix := fmt.Sprintf("\x19Ethereum Signed Message:\n%d", len(message))
	hash := crypto.Keccak256([]byte(prefix + message))
	sig, err := crypto.Sign(hash, w.key)
	if err != nil {
		t.Fatalf("sign evm message: %v", err)
	}
	sig[64] += 27
	return hexutil.Encode(sig)
}

// SolanaWallet is a throwaway ed25519 key.
type SolanaWallet struct {
	priv    ed25519.PrivateKey
	Address string
}

func NewSolanaWallet(t testing.TB) *SolanaWallet {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate solana key: %v", err)
	}
	return &SolanaWallet{priv: priv, Address: base58.Encode(pub)}
}

// Sign returns a base58 encoded signature over the raw message bytes.
func (w *SolanaWallet) Sign(message string) string {
	return base58.Encode(ed25519.Sign(w.priv, []byte(message)))
}

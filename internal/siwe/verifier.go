package siwe

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"bloom/internal/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mr-tron/base58"
)

// DefaultTimeout bounds a single verification, including any RPC round trip.
const DefaultTimeout = 5 * time.Second

// Result is the outcome of a verification. Address, ChainID and Nonce are
// parsed from the message, never taken from the caller.
type Result struct {
	Valid   bool
	Address string
	ChainID int64
	Nonce   string
}

// Verifier checks that a message was signed by the address it names.
type Verifier interface {
	Verify(ctx context.Context, chain models.Chain, message, signature string) (*Result, error)
}

// ContractChecker validates signatures produced by smart-contract wallets.
type ContractChecker interface {
	IsValidSignature(ctx context.Context, chainID int64, account common.Address, hash common.Hash, signature []byte) (bool, error)
}

// SignatureVerifier implements Verifier for ethereum and solana.
type SignatureVerifier struct {
	timeout   time.Duration
	contracts ContractChecker
}

// NewSignatureVerifier creates a verifier. contracts may be nil, in which
// case only externally owned EVM accounts can sign in.
func NewSignatureVerifier(timeout time.Duration, contracts ContractChecker) *SignatureVerifier {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &SignatureVerifier{timeout: timeout, contracts: contracts}
}

// Verify parses message and checks signature against the address on its
// second line. Any parse or decode failure is returned as an error; a
// well-formed signature from another key yields Valid=false.
func (v *SignatureVerifier) Verify(ctx context.Context, chain models.Chain, message, signature string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	msg, err := ParseMessage(message)
	if err != nil {
		return nil, err
	}
	res := &Result{Address: msg.Address, ChainID: msg.ChainID, Nonce: msg.Nonce}

	switch chain {
	case models.ChainEthereum:
		res.Valid, err = v.verifyEVM(ctx, msg, message, signature)
	case models.ChainSolana:
		res.Valid, err = verifySolana(msg.Address, message, signature)
	default:
		return nil, ErrUnsupportedChain
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// personalHash is the EIP-191 digest wallets sign for personal_sign.
func personalHash(message string) common.Hash {
	prefix := fmt.Sprintf("\x19Ethereum Signed Message:\n%d", len(message))
	return crypto.Keccak256Hash([]byte(prefix + message))
}

func (v *SignatureVerifier) verifyEVM(ctx context.Context, msg *Message, message, signature string) (bool, error) {
	address, err := NormalizeAddress(models.ChainEthereum, msg.Address)
	if err != nil {
		return false, err
	}
	if !strings.HasPrefix(signature, "0x") {
		signature = "0x" + signature
	}
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return false, ErrInvalidSignature
	}

	hash := personalHash(message)

	if len(sig) == crypto.SignatureLength {
		rsv := make([]byte, len(sig))
		copy(rsv, sig)
		if rsv[64] >= 27 {
			rsv[64] -= 27
		}
		if pub, err := crypto.SigToPub(hash.Bytes(), rsv); err == nil {
			if crypto.PubkeyToAddress(*pub).Hex() == address {
				return true, nil
			}
		}
	}

	if v.contracts == nil {
		if len(sig) != crypto.SignatureLength {
			return false, ErrInvalidSignature
		}
		return false, nil
	}
	return v.contracts.IsValidSignature(ctx, msg.ChainID, common.HexToAddress(address), hash, sig)
}

func verifySolana(address, message, signature string) (bool, error) {
	pub, err := base58.Decode(address)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return false, ErrInvalidAddress
	}

	sig, err := base58.Decode(signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		// Some wallets hand back hex.
		if raw, hexErr := hex.DecodeString(strings.TrimPrefix(signature, "0x")); hexErr == nil {
			sig = raw
		} else if err != nil {
			return false, ErrInvalidSignature
		}
	}
	if len(sig) != ed25519.SignatureSize {
		return false, ErrInvalidSignature
	}

	return ed25519.Verify(ed25519.PublicKey(pub), []byte(message), sig), nil
}

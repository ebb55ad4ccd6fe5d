package siwe

import (
	"strings"

	"bloom/internal/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mr-tron/base58"
)

// NormalizeAddress validates address for chain and returns its canonical
// form: EIP-55 checksum for ethereum, the trimmed base58 key for solana.
func NormalizeAddress(chain models.Chain, address string) (string, error) {
	address = strings.TrimSpace(address)
	switch chain {
	case models.ChainEthereum:
		if !strings.HasPrefix(address, "0x") && !strings.HasPrefix(address, "0X") {
			address = "0x" + address
		}
		if !common.IsHexAddress(address) {
			return "", ErrInvalidAddress
		}
		return common.HexToAddress(address).Hex(), nil
	case models.ChainSolana:
		raw, err := base58.Decode(address)
		if err != nil || len(raw) != 32 {
			return "", ErrInvalidAddress
		}
		return address, nil
	default:
		return "", ErrUnsupportedChain
	}
}

// SameAddress reports whether a and b name the same account on chain.
func SameAddress(chain models.Chain, a, b string) bool {
	na, err := NormalizeAddress(chain, a)
	if err != nil {
		return false
	}
	nb, err := NormalizeAddress(chain, b)
	if err != nil {
		return false
	}
	return na == nb
}

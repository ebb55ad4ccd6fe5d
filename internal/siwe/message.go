// Package siwe verifies wallet-signed sign-in messages for EVM and Solana
// accounts.
package siwe

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrMalformedMessage = errors.New("malformed sign-in message")
	ErrInvalidAddress   = errors.New("invalid address")
	ErrInvalidSignature = errors.New("invalid signature encoding")
	ErrUnsupportedChain = errors.New("unsupported chain")
)

var (
	chainIDPattern = regexp.MustCompile(`Chain ID: ([0-9]+)`)
	noncePattern   = regexp.MustCompile(`Nonce: ([A-Za-z0-9]+)`)
)

// Message holds the fields extracted from a sign-in challenge. The address is
// the second line of the message as written by the wallet.
type Message struct {
	Address string
	ChainID int64
	Nonce   string
}

// ParseMessage extracts the address, chain id and (optional) nonce from raw.
func ParseMessage(raw string) (*Message, error) {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	if len(lines) < 2 {
		return nil, ErrMalformedMessage
	}
	address := strings.TrimSpace(lines[1])
	if address == "" {
		return nil, ErrMalformedMessage
	}

	m := chainIDPattern.FindStringSubmatch(raw)
	if m == nil {
		return nil, ErrMalformedMessage
	}
	chainID, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return nil, ErrMalformedMessage
	}

	msg := &Message{Address: address, ChainID: chainID}
	if n := noncePattern.FindStringSubmatch(raw); n != nil {
		msg.Nonce = n[1]
	}
	return msg, nil
}

package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"bloom/internal/apperrors"
	"bloom/internal/models"
	"bloom/internal/repositories"
	"bloom/internal/siwe"
)

// AccountStatus reports whether a wallet is known and linked to a user.
type AccountStatus struct {
	Exists      bool `json:"exists"`
	OwnedByUser bool `json:"ownedByUser"`
}

// LoginRequest is a signed sign-in attempt.
type LoginRequest struct {
	Message   string       `json:"message"`
	Signature string       `json:"signature"`
	Address   string       `json:"address"`
	Chain     models.Chain `json:"chain"`
}

// Session describes the wallet a token was issued for. Address and chain id
// come from the signed message.
type Session struct {
	Address string `json:"address"`
	ChainID int64  `json:"chainId"`
	IsValid bool   `json:"isValid"`
}

// PublicUser is the user projection returned on login.
type PublicUser struct {
	ID         string  `json:"id"`
	Username   string  `json:"username"`
	Email      *string `json:"email"`
	Bio        *string `json:"bio"`
	Avatar     *string `json:"avatar"`
	Address    string  `json:"address"`
	IsVerified bool    `json:"isVerified"`
}

// LoginResult is everything the transport needs to establish a session.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Session   Session
	User      PublicUser
}

// AuthService handles wallet sign-in.
type AuthService struct {
	accounts    repositories.Web3AccountRepository
	nonces      repositories.NonceRepository
	verifier    siwe.Verifier
	nonceGen    *NonceGenerator
	tokens      *TokenIssuer
	replayGuard bool
}

// NewAuthService creates a new AuthService. With replayGuard set, every
// login message must carry a nonce that has not been used to log in before.
func NewAuthService(
	accounts repositories.Web3AccountRepository,
	nonces repositories.NonceRepository,
	verifier siwe.Verifier,
	nonceGen *NonceGenerator,
	tokens *TokenIssuer,
	replayGuard bool,
) *AuthService {
	return &AuthService{
		accounts:    accounts,
		nonces:      nonces,
		verifier:    verifier,
		nonceGen:    nonceGen,
		tokens:      tokens,
		replayGuard: replayGuard,
	}
}

// CheckAccountAddress looks up a wallet without side effects.
func (s *AuthService) CheckAccountAddress(ctx context.Context, address string, chain models.Chain) (status *AccountStatus, err error) {
	ctx, span := startSpan(ctx, "AuthService.CheckAccountAddress")
	defer func() { endSpan(span, err) }()

	if strings.TrimSpace(address) == "" {
		return nil, apperrors.BadRequest("Invalid Account Address", "address")
	}
	if !chain.Valid() {
		return nil, apperrors.BadRequest("Invalid Chain ID", "chainId")
	}
	normalized, err := siwe.NormalizeAddress(chain, address)
	if err != nil {
		return nil, apperrors.BadRequest("Invalid Account Address", "address")
	}

	account, err := s.accounts.FindByAddressAndChain(ctx, normalized, chain)
	if errors.Is(err, repositories.ErrNotFound) {
		return &AccountStatus{}, nil
	}
	if err != nil {
		return nil, apperrors.Internal("Could not check account address", err)
	}
	return &AccountStatus{Exists: true, OwnedByUser: account.UserID != nil}, nil
}

// GenerateNonce issues a fresh nonce for the client to embed in its message.
func (s *AuthService) GenerateNonce() string {
	return s.nonceGen.Generate()
}

// VerifyAndLogin authenticates a signed message for an existing, linked
// wallet and issues a session token. It never creates accounts.
func (s *AuthService) VerifyAndLogin(ctx context.Context, req LoginRequest) (result *LoginResult, err error) {
	ctx, span := startSpan(ctx, "AuthService.VerifyAndLogin")
	defer func() { endSpan(span, err) }()

	switch {
	case strings.TrimSpace(req.Message) == "":
		return nil, apperrors.BadRequest("Message is required", "message")
	case strings.TrimSpace(req.Signature) == "":
		return nil, apperrors.BadRequest("Signature is required", "signature")
	case strings.TrimSpace(req.Address) == "":
		return nil, apperrors.BadRequest("Address is required", "address")
	case req.Chain == "":
		return nil, apperrors.BadRequest("Chain is required", "chain")
	case !req.Chain.Valid():
		return nil, apperrors.BadRequest("Invalid Chain ID", "chain")
	}

	address, err := siwe.NormalizeAddress(req.Chain, req.Address)
	if err != nil {
		return nil, apperrors.BadRequest("Invalid Account Address", "address")
	}

	account, err := s.accounts.FindByAddressAndChain(ctx, address, req.Chain)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperrors.NotFound("No account associated with this address")
	}
	if err != nil {
		return nil, apperrors.Internal("Could not look up account", err)
	}
	if account.UserID == nil || account.User == nil {
		return nil, apperrors.NotFound("No account associated with this address")
	}

	verified, err := s.verifier.Verify(ctx, req.Chain, req.Message, req.Signature)
	if err != nil {
		log.Printf("Signature verification error for %s: %v", address, err)
		return nil, apperrors.BadRequest("Invalid signature", "signature")
	}
	if !verified.Valid {
		return nil, apperrors.BadRequest("Invalid signature", "signature")
	}
	if !siwe.SameAddress(req.Chain, verified.Address, address) {
		return nil, apperrors.BadRequest("Signature does not match address", "address")
	}

	if s.replayGuard {
		if verified.Nonce == "" {
			return nil, apperrors.BadRequest("Message nonce is required", "message")
		}
		if err := s.nonces.Consume(ctx, verified.Nonce, models.NoncePurposeLogin); err != nil {
			if errors.Is(err, repositories.ErrNonceUsed) {
				return nil, apperrors.BadRequest("Nonce already used", "message")
			}
			return nil, apperrors.Internal("Could not record nonce", err)
		}
	}

	user := account.User
	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, apperrors.Internal("Could not issue token", err)
	}

	return &LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		Session: Session{
			Address: verified.Address,
			ChainID: verified.ChainID,
			IsValid: true,
		},
		User: PublicUser{
			ID:         user.ID,
			Username:   user.Username,
			Email:      user.Email,
			Bio:        user.Bio,
			Avatar:     user.Avatar,
			Address:    account.Address,
			IsVerified: account.IsVerified,
		},
	}, nil
}

// ValidateToken returns the claims of a valid session token.
func (s *AuthService) ValidateToken(token string) (*Claims, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, apperrors.Unauthorized("Invalid or expired token")
	}
	return claims, nil
}

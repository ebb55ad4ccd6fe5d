package services

import (
	"encoding/json"
	"fmt"

	"bloom/internal/apperrors"
	"bloom/internal/models"
)

// Signup types.
const (
	SignupTurnkey    = "turnkey"
	SignupThirdParty = "third-party"
)

// SignupAccount identifies the wallet being linked.
type SignupAccount struct {
	Address string       `json:"address" validate:"required"`
	Nonce   string       `json:"nonce" validate:"required"`
	ChainID models.Chain `json:"chainId" validate:"required,chain"`
}

// SignupFields are shared by every signup variant.
type SignupFields struct {
	Username  string        `json:"username" validate:"username"`
	Bio       *string       `json:"bio" validate:"omitempty,max=280"`
	Avatar    *string       `json:"avatar" validate:"omitempty,url"`
	Account   SignupAccount `json:"account"`
	Message   string        `json:"message" validate:"required"`
	Signature string        `json:"signature" validate:"required"`
}

// SignupInput is either a TurnkeySignup or a ThirdPartySignup.
type SignupInput interface {
	Type() string
	fields() *SignupFields
}

// TurnkeySignup registers a user with an embedded (Turnkey) wallet. These
// users always provide an email.
type TurnkeySignup struct {
	SignupFields
	Email string `json:"email" validate:"required,email"`
}

func (s *TurnkeySignup) Type() string          { return SignupTurnkey }
func (s *TurnkeySignup) fields() *SignupFields { return &s.SignupFields }

// ThirdPartySignup registers a user with an external wallet.
type ThirdPartySignup struct {
	SignupFields
}

func (s *ThirdPartySignup) Type() string          { return SignupThirdParty }
func (s *ThirdPartySignup) fields() *SignupFields { return &s.SignupFields }

// DecodeSignup reads a signup body, choosing the variant from its "type".
func DecodeSignup(body []byte) (SignupInput, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(body, &head); err != nil {
		return nil, apperrors.BadRequest("Invalid request body", "body")
	}

	var input SignupInput
	switch head.Type {
	case SignupTurnkey:
		input = &TurnkeySignup{}
	case SignupThirdParty:
		input = &ThirdPartySignup{}
	case "":
		return nil, apperrors.BadRequest("type is required", "type")
	default:
		return nil, apperrors.BadRequest(fmt.Sprintf("Unknown signup type %q", head.Type), "type")
	}
	if err := json.Unmarshal(body, input); err != nil {
		return nil, apperrors.BadRequest("Invalid request body", "body")
	}
	return input, nil
}

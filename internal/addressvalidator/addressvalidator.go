// Package addressvalidator checks that an address is well formed for its
// chain, optionally confirming with the Adamik API.
package addressvalidator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bloom/internal/models"
	"bloom/internal/siwe"

	"github.com/gofiber/fiber/v2"
)

// ErrUnavailable is returned when the remote validator could not answer.
var ErrUnavailable = errors.New("address validator unavailable")

// Validator reports whether address is valid on chain.
type Validator interface {
	Validate(ctx context.Context, chain models.Chain, address string) (bool, error)
}

// Local validates addresses by format only.
type Local struct{}

func (Local) Validate(_ context.Context, chain models.Chain, address string) (bool, error) {
	_, err := siwe.NormalizeAddress(chain, address)
	return err == nil, nil
}

// Adamik validates addresses against the Adamik API after a local format
// check.
type Adamik struct {
	baseURL string
	apiKey  string
	timeout time.Duration
}

type validateRequest struct {
	Address string `json:"address"`
}

type validateResponse struct {
	Valid bool `json:"valid"`
}

func NewAdamik(baseURL, apiKey string, timeout time.Duration) *Adamik {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adamik{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		timeout: timeout,
	}
}

func (a *Adamik) Validate(ctx context.Context, chain models.Chain, address string) (bool, error) {
	if ok, _ := (Local{}).Validate(ctx, chain, address); !ok {
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	timeout := a.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}

	agent := fiber.Post(fmt.Sprintf("%s/api/%s/address/validate", a.baseURL, chain))
	agent.Set("Authorization", a.apiKey)
	agent.JSON(validateRequest{Address: address})
	agent.Timeout(timeout)

	var resp validateResponse
	code, body, errs := agent.Struct(&resp)
	if len(errs) > 0 {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, errs[0])
	}
	if code != fiber.StatusOK {
		return false, fmt.Errorf("%w: status %d: %s", ErrUnavailable, code, body)
	}
	return resp.Valid, nil
}

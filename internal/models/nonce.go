package models

import "time"

// Purposes a signed nonce can be consumed for. A nonce may be used once per
// purpose, so the onboarding message can still be replayed into a login.
const (
	NoncePurposeLogin      = "login"
	NoncePurposeOnboarding = "onboarding"
)

// UsedNonce records a nonce that has already been spent.
type UsedNonce struct {
	Nonce     string    `gorm:"primaryKey;type:varchar(128)"`
	Purpose   string    `gorm:"primaryKey;type:varchar(16)"`
	CreatedAt time.Time
}

package repositories

import (
	"context"

	"bloom/internal/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	// FindByAddress returns the user owning any wallet with this address.
	FindByAddress(ctx context.Context, address string) (*models.User, error)
	// CreateWithWallet inserts the user and its first wallet atomically. When
	// claim is non-nil the nonce is consumed in the same transaction.
	CreateWithWallet(ctx context.Context, user *models.User, wallet *models.Web3Account, claim *models.UsedNonce) error
	Suggest(ctx context.Context, userID string, count int) ([]models.User, error)
}

// Web3AccountRepository defines the interface for wallet data access.
type Web3AccountRepository interface {
	// FindByAddressAndChain returns the account with its owning user loaded.
	FindByAddressAndChain(ctx context.Context, address string, chain models.Chain) (*models.Web3Account, error)
	ListByUserID(ctx context.Context, userID string) ([]models.Web3Account, error)
}

// NonceRepository records spent nonces.
type NonceRepository interface {
	Consume(ctx context.Context, nonce, purpose string) error
}

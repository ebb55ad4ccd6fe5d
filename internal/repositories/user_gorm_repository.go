package repositories

import (
	"context"
	"fmt"

	"bloom/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaxSuggestions bounds the number of users Suggest returns.
const MaxSuggestions = 50

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{db: db}
}

func (r *GORMUserRepository) findOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, query, arg).Error; err != nil {
		if notFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user (%s): %w", query, err)
	}
	return &user, nil
}

// FindByID retrieves a user by ID.
func (r *GORMUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByUsername retrieves a user by username.
func (r *GORMUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "username = ?", username)
}

// FindByEmail retrieves a user by email.
func (r *GORMUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

// FindByAddress retrieves the user linked to address on any chain.
func (r *GORMUserRepository) FindByAddress(ctx context.Context, address string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Joins("JOIN web3_accounts ON web3_accounts.user_id = users.id").
		Where("web3_accounts.address = ?", address).
		First(&user).Error
	if err != nil {
		if notFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by address %s: %w", address, err)
	}
	return &user, nil
}

// CreateWithWallet creates the user, its wallet and the optional nonce claim
// in one transaction. Any failure rolls back all three.
func (r *GORMUserRepository) CreateWithWallet(ctx context.Context, user *models.User, wallet *models.Web3Account, claim *models.UsedNonce) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if wallet.ID == "" {
		wallet.ID = uuid.New().String()
	}
	wallet.UserID = &user.ID

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if claim != nil {
			if err := tx.Create(claim).Error; err != nil {
				if isDuplicate(err) {
					return ErrNonceUsed
				}
				return fmt.Errorf("failed to consume nonce: %w", err)
			}
		}
		if err := tx.Omit(clause.Associations).Create(user).Error; err != nil {
			if isDuplicate(err) {
				return fmt.Errorf("user %s: %w", user.Username, ErrDuplicate)
			}
			return fmt.Errorf("failed to create user: %w", err)
		}
		if err := tx.Omit(clause.Associations).Create(wallet).Error; err != nil {
			if isDuplicate(err) {
				return fmt.Errorf("wallet %s: %w", wallet.Address, ErrDuplicate)
			}
			return fmt.Errorf("failed to create wallet: %w", err)
		}
		return nil
	})
}

// Suggest returns up to count random users that userID neither is nor follows.
func (r *GORMUserRepository) Suggest(ctx context.Context, userID string, count int) ([]models.User, error) {
	if count < 1 || count > MaxSuggestions {
		return nil, fmt.Errorf("count must be between 1 and %d, got %d", MaxSuggestions, count)
	}
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("users.id <> ?", userID).
		Where("NOT EXISTS (SELECT 1 FROM follows WHERE follows.follower_id = ? AND follows.following_id = users.id)", userID).
		Order("RANDOM()").
		Limit(count).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to suggest users: %w", err)
	}
	return users, nil
}

// GORMWeb3AccountRepository is a GORM implementation of Web3AccountRepository.
type GORMWeb3AccountRepository struct {
	db *gorm.DB
}

func NewGORMWeb3AccountRepository(db *gorm.DB) *GORMWeb3AccountRepository {
	return &GORMWeb3AccountRepository{db: db}
}

func (r *GORMWeb3AccountRepository) FindByAddressAndChain(ctx context.Context, address string, chain models.Chain) (*models.Web3Account, error) {
	var account models.Web3Account
	err := r.db.WithContext(ctx).
		Preload("User").
		First(&account, "address = ? AND chain = ?", address, chain).Error
	if err != nil {
		if notFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get web3 account %s on %s: %w", address, chain, err)
	}
	return &account, nil
}

func (r *GORMWeb3AccountRepository) ListByUserID(ctx context.Context, userID string) ([]models.Web3Account, error) {
	var accounts []models.Web3Account
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&accounts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list web3 accounts for user %s: %w", userID, err)
	}
	return accounts, nil
}

// GORMNonceRepository is a GORM implementation of NonceRepository.
type GORMNonceRepository struct {
	db *gorm.DB
}

func NewGORMNonceRepository(db *gorm.DB) *GORMNonceRepository {
	return &GORMNonceRepository{db: db}
}

// Consume marks the nonce as spent for purpose, failing with ErrNonceUsed if
// it already was.
func (r *GORMNonceRepository) Consume(ctx context.Context, nonce, purpose string) error {
	err := r.db.WithContext(ctx).Create(&models.UsedNonce{Nonce: nonce, Purpose: purpose}).Error
	if err != nil {
		if isDuplicate(err) {
			return ErrNonceUsed
		}
		return fmt.Errorf("failed to consume nonce: %w", err)
	}
	return nil
}

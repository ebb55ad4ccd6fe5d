package services_test

import (
	"context"
	"io"
	"log"
	"os"
	"testing"

	"bloom/internal/models"
	"bloom/internal/siwe"

	"github.com/stretchr/testify/mock"
)

// TestMain is used to setup test environment
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	code := m.Run()
	os.Exit(code)
}

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) user(args mock.Arguments) (*models.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return m.user(m.Called(id))
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.user(m.Called(username))
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.user(m.Called(email))
}

func (m *MockUserRepository) FindByAddress(ctx context.Context, address string) (*models.User, error) {
	return m.user(m.Called(address))
}

func (m *MockUserRepository) CreateWithWallet(ctx context.Context, user *models.User, wallet *models.Web3Account, claim *models.UsedNonce) error {
	args := m.Called(user, wallet, claim)
	return args.Error(0)
}

func (m *MockUserRepository) Suggest(ctx context.Context, userID string, count int) ([]models.User, error) {
	args := m.Called(userID, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

// MockWeb3AccountRepository is a mock implementation of repositories.Web3AccountRepository
type MockWeb3AccountRepository struct {
	mock.Mock
}

func (m *MockWeb3AccountRepository) FindByAddressAndChain(ctx context.Context, address string, chain models.Chain) (*models.Web3Account, error) {
	args := m.Called(address, chain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Web3Account), args.Error(1)
}

func (m *MockWeb3AccountRepository) ListByUserID(ctx context.Context, userID string) ([]models.Web3Account, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Web3Account), args.Error(1)
}

// MockNonceRepository is a mock implementation of repositories.NonceRepository
type MockNonceRepository struct {
	mock.Mock
}

func (m *MockNonceRepository) Consume(ctx context.Context, nonce, purpose string) error {
	return m.Called(nonce, purpose).Error(0)
}

// MockFollowRepository is a mock implementation of repositories.FollowRepository
type MockFollowRepository struct {
	mock.Mock
}

func (m *MockFollowRepository) Exists(ctx context.Context, followerID, followingID string) (bool, error) {
	args := m.Called(followerID, followingID)
	return args.Bool(0), args.Error(1)
}

func (m *MockFollowRepository) Create(ctx context.Context, follow *models.Follow) error {
	return m.Called(follow).Error(0)
}

func (m *MockFollowRepository) Delete(ctx context.Context, followerID, followingID string) error {
	return m.Called(followerID, followingID).Error(0)
}

func (m *MockFollowRepository) CountFollowers(ctx context.Context, userID string) (int64, error) {
	args := m.Called(userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFollowRepository) CountFollowing(ctx context.Context, userID string) (int64, error) {
	args := m.Called(userID)
	return args.Get(0).(int64), args.Error(1)
}

// MockVerifier is a mock implementation of siwe.Verifier
type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(ctx context.Context, chain models.Chain, message, signature string) (*siwe.Result, error) {
	args := m.Called(chain, message, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*siwe.Result), args.Error(1)
}

// MockPublisher records published events.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, payload interface{}) error {
	return m.Called(routingKey, payload).Error(0)
}

// MockAddressValidator is a mock implementation of addressvalidator.Validator
type MockAddressValidator struct {
	mock.Mock
}

func (m *MockAddressValidator) Validate(ctx context.Context, chain models.Chain, address string) (bool, error) {
	args := m.Called(chain, address)
	return args.Bool(0), args.Error(1)
}

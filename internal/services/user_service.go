package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"bloom/internal/addressvalidator"
	"bloom/internal/apperrors"
	"bloom/internal/models"
	"bloom/internal/repositories"
	"bloom/internal/siwe"

	"github.com/go-playground/validator/v10"
)

// ProfileView is the public shape of a newly created user.
type ProfileView struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Bio       *string   `json:"bio"`
	Avatar    *string   `json:"avatar"`
	Email     *string   `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// WalletView is the public shape of a linked wallet.
type WalletView struct {
	ID         string       `json:"id"`
	UserID     *string      `json:"userId,omitempty"`
	Address    string       `json:"address"`
	Chain      models.Chain `json:"chain"`
	IsVerified bool         `json:"isVerified"`
	CreatedAt  time.Time    `json:"createdAt"`
}

// CreateUserResult is returned by a successful signup.
type CreateUserResult struct {
	Profile ProfileView `json:"profile"`
	Wallet  WalletView  `json:"wallet"`
}

// UsernameCheck is the answer to a username availability query.
type UsernameCheck struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

// UserProfile is a user as seen by another signed-in user.
type UserProfile struct {
	ID             string       `json:"id"`
	Username       string       `json:"username"`
	Bio            *string      `json:"bio"`
	Avatar         *string      `json:"avatar"`
	Email          *string      `json:"email,omitempty"`
	Web3Accounts   []WalletView `json:"web3Accounts"`
	FollowersCount int64        `json:"followersCount"`
	FollowingCount int64        `json:"followingCount"`
	IsFollowing    bool         `json:"isFollowing"`
	IsSelf         bool         `json:"isSelf"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

// SuggestedUser is an entry in the "who to follow" list.
type SuggestedUser struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Bio      *string `json:"bio"`
	Avatar   *string `json:"avatar"`
}

// UserService handles onboarding and profile reads.
type UserService struct {
	users       repositories.UserRepository
	accounts    repositories.Web3AccountRepository
	follows     repositories.FollowRepository
	addresses   addressvalidator.Validator
	verifier    siwe.Verifier
	events      EventPublisher
	validate    *validator.Validate
	replayGuard bool
}

// NewUserService creates a new UserService. events may be nil.
func NewUserService(
	users repositories.UserRepository,
	accounts repositories.Web3AccountRepository,
	follows repositories.FollowRepository,
	addresses addressvalidator.Validator,
	verifier siwe.Verifier,
	events EventPublisher,
	replayGuard bool,
) *UserService {
	return &UserService{
		users:       users,
		accounts:    accounts,
		follows:     follows,
		addresses:   addresses,
		verifier:    verifier,
		events:      publisherOrNoop(events),
		validate:    newValidator(),
		replayGuard: replayGuard,
	}
}

func walletView(w *models.Web3Account) WalletView {
	return WalletView{
		ID:         w.ID,
		UserID:     w.UserID,
		Address:    w.Address,
		Chain:      w.Chain,
		IsVerified: w.IsVerified,
		CreatedAt:  w.CreatedAt,
	}
}

// CreateUser registers a user and links their first wallet. Checks run
// cheapest first and nothing is written until the signature is verified;
// the user and wallet rows are then created in a single transaction.
func (s *UserService) CreateUser(ctx context.Context, input SignupInput) (result *CreateUserResult, err error) {
	ctx, span := startSpan(ctx, "UserService.CreateUser")
	defer func() { endSpan(span, err) }()

	f := input.fields()
	f.Username = normalizeUsername(f.Username)
	f.Account.Address = strings.TrimSpace(f.Account.Address)
	var email *string
	if t, ok := input.(*TurnkeySignup); ok {
		t.Email = strings.ToLower(strings.TrimSpace(t.Email))
		email = &t.Email
	}

	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}
	chain := f.Account.ChainID

	if _, err := s.users.FindByUsername(ctx, f.Username); err == nil {
		return nil, apperrors.Conflict("Username is already taken", "username")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, apperrors.Internal("Could not check username", err)
	}

	if email != nil {
		if _, err := s.users.FindByEmail(ctx, *email); err == nil {
			return nil, apperrors.Conflict("Email is already registered", "email")
		} else if !errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.Internal("Could not check email", err)
		}
	}

	address, err := s.checkAddress(ctx, chain, f.Account.Address)
	if err != nil {
		return nil, err
	}

	verified, err := s.verifier.Verify(ctx, chain, f.Message, f.Signature)
	if err != nil {
		log.Printf("Signature verification error for %s: %v", address, err)
		return nil, apperrors.BadRequest("Invalid signature", "signature")
	}
	if !verified.Valid {
		return nil, apperrors.BadRequest("Invalid signature", "signature")
	}
	if !siwe.SameAddress(chain, verified.Address, address) {
		return nil, apperrors.BadRequest("Signature does not match address", "account.address")
	}
	if verified.Nonce != "" && verified.Nonce != f.Account.Nonce {
		return nil, apperrors.BadRequest("Nonce mismatch", "account.nonce")
	}

	user := &models.User{
		Username: f.Username,
		Email:    email,
		Bio:      f.Bio,
		Avatar:   f.Avatar,
		Nonce:    f.Account.Nonce,
	}
	if input.Type() == SignupTurnkey {
		user.TurnkeyWallet = &address
	}
	wallet := &models.Web3Account{Address: address, Chain: chain, IsVerified: true}
	var claim *models.UsedNonce
	if s.replayGuard {
		claim = &models.UsedNonce{Nonce: f.Account.Nonce, Purpose: models.NoncePurposeOnboarding}
	}

	if err := s.users.CreateWithWallet(ctx, user, wallet, claim); err != nil {
		switch {
		case errors.Is(err, repositories.ErrNonceUsed):
			return nil, apperrors.BadRequest("Nonce already used", "account.nonce")
		case errors.Is(err, repositories.ErrDuplicate):
			return nil, apperrors.Conflict("Username, email or address already registered", "")
		default:
			return nil, apperrors.Internal("Could not create user", err)
		}
	}

	result = &CreateUserResult{
		Profile: ProfileView{
			ID:        user.ID,
			Username:  user.Username,
			Bio:       user.Bio,
			Avatar:    user.Avatar,
			Email:     user.Email,
			CreatedAt: user.CreatedAt,
			UpdatedAt: user.UpdatedAt,
		},
		Wallet: walletView(wallet),
	}
	publish(ctx, s.events, EventUserCreated, map[string]interface{}{
		"userId":   user.ID,
		"username": user.Username,
		"address":  wallet.Address,
		"chain":    wallet.Chain,
	})
	return result, nil
}

// checkAddress normalizes the address, rejects it if another user already
// owns it, and asks the address validator whether it exists on chain.
func (s *UserService) checkAddress(ctx context.Context, chain models.Chain, raw string) (string, error) {
	address, err := siwe.NormalizeAddress(chain, raw)
	if err != nil {
		return "", apperrors.BadRequest("Invalid Address", "account.address")
	}

	if _, err := s.users.FindByAddress(ctx, address); err == nil {
		return "", apperrors.Conflict("Address already exists", "account.address")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return "", apperrors.Internal("Could not check address", err)
	}

	ok, err := s.addresses.Validate(ctx, chain, address)
	if err != nil {
		return "", apperrors.Internal("Error validating address", err)
	}
	if !ok {
		return "", apperrors.BadRequest("Invalid Address", "account.address")
	}
	return address, nil
}

// ValidateUsername reports whether username can be registered.
func (s *UserService) ValidateUsername(ctx context.Context, username string) (*UsernameCheck, error) {
	username = normalizeUsername(username)
	if problem := usernameProblem(username); problem != "" {
		return &UsernameCheck{Valid: false, Message: problem}, nil
	}

	_, err := s.users.FindByUsername(ctx, username)
	switch {
	case err == nil:
		return &UsernameCheck{Valid: false, Message: "Username is already taken"}, nil
	case errors.Is(err, repositories.ErrNotFound):
		return &UsernameCheck{Valid: true, Message: "Username is available"}, nil
	default:
		return nil, apperrors.Internal("Could not check username", err)
	}
}

// GetUserProfile returns the profile of username as seen by viewerID. The
// email is only included when users look at themselves.
func (s *UserService) GetUserProfile(ctx context.Context, viewerID, username string) (profile *UserProfile, err error) {
	ctx, span := startSpan(ctx, "UserService.GetUserProfile")
	defer func() { endSpan(span, err) }()

	user, err := s.users.FindByUsername(ctx, normalizeUsername(username))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperrors.NotFound("User not found")
	}
	if err != nil {
		return nil, apperrors.Internal("Could not load user", err)
	}

	accounts, err := s.accounts.ListByUserID(ctx, user.ID)
	if err != nil {
		return nil, apperrors.Internal("Could not load wallets", err)
	}
	followers, err := s.follows.CountFollowers(ctx, user.ID)
	if err != nil {
		return nil, apperrors.Internal("Could not count followers", err)
	}
	following, err := s.follows.CountFollowing(ctx, user.ID)
	if err != nil {
		return nil, apperrors.Internal("Could not count following", err)
	}

	profile = &UserProfile{
		ID:             user.ID,
		Username:       user.Username,
		Bio:            user.Bio,
		Avatar:         user.Avatar,
		Web3Accounts:   make([]WalletView, 0, len(accounts)),
		FollowersCount: followers,
		FollowingCount: following,
		IsSelf:         user.ID == viewerID,
		CreatedAt:      user.CreatedAt,
		UpdatedAt:      user.UpdatedAt,
	}
	for i := range accounts {
		w := walletView(&accounts[i])
		w.UserID = nil
		profile.Web3Accounts = append(profile.Web3Accounts, w)
	}
	if profile.IsSelf {
		profile.Email = user.Email
	} else if viewerID != "" {
		profile.IsFollowing, err = s.follows.Exists(ctx, viewerID, user.ID)
		if err != nil {
			return nil, apperrors.Internal("Could not check follow status", err)
		}
	}
	return profile, nil
}

// SuggestUsers returns up to count random users userID does not follow yet.
func (s *UserService) SuggestUsers(ctx context.Context, userID string, count int) ([]SuggestedUser, error) {
	if count < 1 || count > repositories.MaxSuggestions {
		return nil, apperrors.BadRequest("Count must be between 1 and 50", "count")
	}
	users, err := s.users.Suggest(ctx, userID, count)
	if err != nil {
		return nil, apperrors.Internal("Could not load suggestions", err)
	}
	out := make([]SuggestedUser, 0, len(users))
	for _, u := range users {
		out = append(out, SuggestedUser{ID: u.ID, Username: u.Username, Bio: u.Bio, Avatar: u.Avatar})
	}
	return out, nil
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"bloom/internal/apperrors"
	"bloom/internal/models"
	"bloom/internal/repositories"

	"github.com/go-playground/validator/v10"
)

// ActivityInput describes the transaction a new post is about.
type ActivityInput struct {
	ActivityType models.ActivityType `json:"activityType" validate:"required,activity"`
	TxHash       string              `json:"txHash" validate:"required"`
	Chain        models.Chain        `json:"chain" validate:"required,chain"`
	Metadata     json.RawMessage     `json:"metadata" validate:"required"`
}

// CreatePostInput is the body of a new post.
type CreatePostInput struct {
	Content         string        `json:"content" validate:"required,max=2000"`
	MediaURL        *string       `json:"mediaUrl" validate:"omitempty,url"`
	OnChainActivity ActivityInput `json:"onChainActivity"`
}

// MintMetadata describes an NFT mint.
type MintMetadata struct {
	ContractAddress string  `json:"contractAddress" validate:"required"`
	TokenID         string  `json:"tokenId" validate:"required"`
	Collection      string  `json:"collection" validate:"required"`
	FiatValue       *string `json:"fiatValue,omitempty"`
	MediaURL        *string `json:"mediaUrl,omitempty" validate:"omitempty,url"`
}

// SwapMetadata describes a token swap.
type SwapMetadata struct {
	FromToken string  `json:"fromToken" validate:"required"`
	ToToken   string  `json:"toToken" validate:"required"`
	AmountIn  string  `json:"amountIn" validate:"required"`
	AmountOut string  `json:"amountOut" validate:"required"`
	Exchange  string  `json:"exchange" validate:"required"`
	MarketCap *string `json:"marketCap,omitempty"`
	FiatValue *string `json:"fiatValue,omitempty"`
	PNL       *string `json:"pnl,omitempty"`
}

// DepositMetadata describes a deposit into a wallet.
type DepositMetadata struct {
	Amount        string  `json:"amount" validate:"required"`
	WalletAddress string  `json:"walletAddress" validate:"required"`
	Source        string  `json:"source" validate:"required"`
	FiatValue     *string `json:"fiatValue,omitempty"`
	MarketCap     *string `json:"marketCap,omitempty"`
}

// FeedService publishes and reads posts.
type FeedService struct {
	users    repositories.UserRepository
	accounts repositories.Web3AccountRepository
	posts    repositories.PostRepository
	events   EventPublisher
	validate *validator.Validate
}

// NewFeedService creates a new FeedService. events may be nil.
func NewFeedService(
	users repositories.UserRepository,
	accounts repositories.Web3AccountRepository,
	posts repositories.PostRepository,
	events EventPublisher,
) *FeedService {
	return &FeedService{
		users:    users,
		accounts: accounts,
		posts:    posts,
		events:   publisherOrNoop(events),
		validate: newValidator(),
	}
}

// metadataFor decodes and validates raw against the schema for t.
func (s *FeedService) metadataFor(t models.ActivityType, raw json.RawMessage) (models.Metadata, error) {
	var typed interface{}
	switch t {
	case models.ActivityMint:
		typed = &MintMetadata{}
	case models.ActivitySwap:
		typed = &SwapMetadata{}
	case models.ActivityDeposit:
		typed = &DepositMetadata{}
	default:
		return nil, apperrors.BadRequest("Invalid activity type", "onChainActivity.activityType")
	}

	if err := json.Unmarshal(raw, typed); err != nil {
		return nil, apperrors.BadRequest("Invalid metadata for activity type", "onChainActivity.metadata")
	}
	if err := s.validate.Struct(typed); err != nil {
		return nil, validationError(err)
	}

	// Re-encode so only known fields are persisted.
	clean, err := json.Marshal(typed)
	if err != nil {
		return nil, apperrors.Internal("Could not encode metadata", err)
	}
	out := models.Metadata{}
	if err := json.Unmarshal(clean, &out); err != nil {
		return nil, apperrors.Internal("Could not encode metadata", err)
	}
	return out, nil
}

// CreatePost publishes a post attached to an on-chain activity of one of the
// author's wallets.
func (s *FeedService) CreatePost(ctx context.Context, userID string, input CreatePostInput) (post *models.Post, err error) {
	ctx, span := startSpan(ctx, "FeedService.CreatePost")
	defer func() { endSpan(span, err) }()

	input.Content = strings.TrimSpace(input.Content)
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}
	activity := input.OnChainActivity
	metadata, err := s.metadataFor(activity.ActivityType, activity.Metadata)
	if err != nil {
		return nil, err
	}

	accounts, err := s.accounts.ListByUserID(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("Could not load wallets", err)
	}
	if len(accounts) == 0 {
		return nil, apperrors.BadRequest("User does not have a linked wallet", "onChainActivity.chain")
	}
	wallet := &accounts[0]
	for i := range accounts {
		if accounts[i].Chain == activity.Chain {
			wallet = &accounts[i]
			break
		}
	}

	post = &models.Post{
		UserID:   userID,
		Content:  input.Content,
		MediaURL: input.MediaURL,
	}
	record := &models.OnchainActivity{
		Web3AccountID: wallet.ID,
		ActivityType:  activity.ActivityType,
		TxHash:        strings.TrimSpace(activity.TxHash),
		Chain:         activity.Chain,
		Metadata:      metadata,
	}
	if err := s.posts.CreateWithActivity(ctx, post, record); err != nil {
		return nil, apperrors.Internal("Could not create post", err)
	}

	publish(ctx, s.events, EventPostCreated, map[string]string{
		"postId":       post.ID,
		"userId":       userID,
		"activityType": string(record.ActivityType),
		"txHash":       record.TxHash,
	})
	return post, nil
}

// GetPostsByUsername lists a user's posts, newest first.
func (s *FeedService) GetPostsByUsername(ctx context.Context, username string) ([]models.Post, error) {
	user, err := s.users.FindByUsername(ctx, normalizeUsername(username))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperrors.NotFound("User not found")
	}
	if err != nil {
		return nil, apperrors.Internal("Could not load user", err)
	}
	posts, err := s.posts.ListByUserID(ctx, user.ID)
	if err != nil {
		return nil, apperrors.Internal("Could not load posts", err)
	}
	return posts, nil
}

// GetPostByID returns a single post.
func (s *FeedService) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	post, err := s.posts.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperrors.NotFound("Post not found")
	}
	if err != nil {
		return nil, apperrors.Internal("Could not load post", err)
	}
	return post, nil
}

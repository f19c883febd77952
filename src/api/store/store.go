package store

import (
	"context"
	"errors"
	"time"

	"github.com/stake-plus/crowdfund/src/api/types"
)

var (
	ErrNotFound  = errors.New("store: not found")
	ErrConflict  = errors.New("store: conflict")
	ErrInvalidID = errors.New("store: invalid id")
)

type Accounts interface {
	// UpsertNonce creates the account on first use and always replaces its nonce.
	UpsertNonce(ctx context.Context, address, nonce string, now time.Time) error
	GetAccount(ctx context.Context, address string) (types.WalletAccount, error)
	// RotateNonce swaps the nonce only while it still equals expected; ErrConflict otherwise.
	RotateNonce(ctx context.Context, address, expected, next string, now time.Time) error
}

type Blogs interface {
	CreateBlog(ctx context.Context, b *types.BlogPost) error
	ListBlogs(ctx context.Context) ([]types.BlogPost, error)
	GetBlog(ctx context.Context, id string) (types.BlogPost, error)
	UpdateBlog(ctx context.Context, b *types.BlogPost) error
	DeleteBlog(ctx context.Context, id string) error
}

type Posts interface {
	CreatePost(ctx context.Context, p *types.CampaignPost) error
	// ListPosts returns newest first; an empty campaignID lists every campaign.
	ListPosts(ctx context.Context, campaignID string) ([]types.CampaignPost, error)
	GetPost(ctx context.Context, id string) (types.CampaignPost, error)
	// UpdatePost persists title, description and images when the stored version
	// matches p.Version, then bumps p.Version. ErrConflict on a version mismatch.
	UpdatePost(ctx context.Context, p *types.CampaignPost) error
	DeletePost(ctx context.Context, id string) error
	AddComment(ctx context.Context, postID string, c types.Comment) error
	RemoveComment(ctx context.Context, postID, commentID string) error
	// ToggleLike adds or removes userID from the like list and reports the new state.
	ToggleLike(ctx context.Context, postID, userID string, now time.Time) (bool, error)
}

// Store is everything the API needs from a persistence backend.
type Store interface {
	Accounts
	Blogs
	Posts
	Close(ctx context.Context) error
}

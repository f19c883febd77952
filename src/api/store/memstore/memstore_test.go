package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stake-plus/crowdfund/src/api/store"
	"github.com/stake-plus/crowdfund/src/api/types"
)

func TestNonceLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now()

	_, err := s.GetAccount(ctx, "0xabc")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.UpsertNonce(ctx, "0xabc", "111", now))
	require.NoError(t, s.UpsertNonce(ctx, "0xabc", "222", now.Add(time.Second)))

	acc, err := s.GetAccount(ctx, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, "222", acc.Nonce)
	assert.Equal(t, now, acc.CreatedAt)

	assert.ErrorIs(t, s.RotateNonce(ctx, "0xabc", "111", "333", now), store.ErrConflict)
	require.NoError(t, s.RotateNonce(ctx, "0xabc", "222", "333", now))
	assert.ErrorIs(t, s.RotateNonce(ctx, "0xdef", "1", "2", now), store.ErrNotFound)
}

func TestPostVersionCheck(t *testing.T) {
	ctx := context.Background()
	s := New()

	p := &types.CampaignPost{CampaignID: "7", Title: "Milestone"}
	require.NoError(t, s.CreatePost(ctx, p))
	assert.EqualValues(t, 1, p.Version)

	stale := *p
	p.Title = "Milestone reached"
	require.NoError(t, s.UpdatePost(ctx, p))
	assert.EqualValues(t, 2, p.Version)

	stale.Title = "lost update"
	assert.ErrorIs(t, s.UpdatePost(ctx, &stale), store.ErrConflict)

	got, err := s.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Milestone reached", got.Title)
}

func TestCommentsAndLikes(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now()

	p := &types.CampaignPost{CampaignID: "7", Title: "Update"}
	require.NoError(t, s.CreatePost(ctx, p))

	require.NoError(t, s.AddComment(ctx, p.ID, types.Comment{ID: "c1", UserID: "u1", Text: "nice"}))
	require.NoError(t, s.AddComment(ctx, p.ID, types.Comment{ID: "c2", UserID: "u2", Text: "go"}))
	require.NoError(t, s.RemoveComment(ctx, p.ID, "c1"))
	assert.ErrorIs(t, s.RemoveComment(ctx, p.ID, "c1"), store.ErrNotFound)

	liked, err := s.ToggleLike(ctx, p.ID, "u1", now)
	require.NoError(t, err)
	assert.True(t, liked)
	liked, err = s.ToggleLike(ctx, p.ID, "u1", now)
	require.NoError(t, err)
	assert.False(t, liked)

	got, err := s.GetPost(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, "c2", got.Comments[0].ID)
	assert.Empty(t, got.Likes)
}

func TestListPostsFiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Now()

	for i, cid := range []string{"1", "2", "1"} {
		p := &types.CampaignPost{CampaignID: cid, Title: "t", CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, s.CreatePost(ctx, p))
	}

	all, err := s.ListPosts(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.True(t, all[0].CreatedAt.After(all[1].CreatedAt))

	one, err := s.ListPosts(ctx, "1")
	require.NoError(t, err)
	assert.Len(t, one, 2)
}

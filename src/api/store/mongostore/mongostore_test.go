package mongostore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/stake-plus/crowdfund/src/api/store"
	"github.com/stake-plus/crowdfund/src/api/types"
)

func TestStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("malformed id is rejected before any round trip", func(mt *mtest.T) {
		_, err := New(mt.DB).GetBlog(ctx, "not-an-object-id")
		assert.ErrorIs(mt, err, store.ErrInvalidID)
	})

	mt.Run("missing account", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.accounts", mtest.FirstBatch))
		_, err := New(mt.DB).GetAccount(ctx, "0xabc")
		assert.ErrorIs(mt, err, store.ErrNotFound)
	})

	mt.Run("existing account", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.accounts", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "address", Value: "0xabc"},
			{Key: "nonce", Value: "123456"},
		}))
		acc, err := New(mt.DB).GetAccount(ctx, "0xabc")
		require.NoError(mt, err)
		assert.Equal(mt, "123456", acc.Nonce)
	})

	mt.Run("rotate against a stale nonce conflicts", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, "db.accounts", mtest.FirstBatch, bson.D{{Key: "n", Value: 1}}),
		)
		err := New(mt.DB).RotateNonce(ctx, "0xabc", "111111", "222222", time.Now())
		assert.ErrorIs(mt, err, store.ErrConflict)
	})

	mt.Run("post update bumps the version", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))
		p := types.CampaignPost{ID: primitive.NewObjectID().Hex(), Title: "t", Version: 3}
		require.NoError(mt, New(mt.DB).UpdatePost(ctx, &p))
		assert.EqualValues(mt, 4, p.Version)
	})

	mt.Run("removing an unknown comment", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))
		err := New(mt.DB).RemoveComment(ctx, primitive.NewObjectID().Hex(), "c1")
		assert.ErrorIs(mt, err, store.ErrNotFound)
	})

	mt.Run("like is added when absent", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
		)
		liked, err := New(mt.DB).ToggleLike(ctx, primitive.NewObjectID().Hex(), "0xabc", time.Now())
		require.NoError(mt, err)
		assert.True(mt, liked)
	})

	mt.Run("deleting a missing blog", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))
		err := New(mt.DB).DeleteBlog(ctx, primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, store.ErrNotFound)
	})
}

func TestPostDocRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	p := types.CampaignPost{
		CampaignID: "9",
		Title:      "Update",
		Images:     []string{"/uploads/a.png"},
		Comments:   []types.Comment{{ID: "c1", UserID: "u", Text: "hi", CreatedAt: now}},
		Likes:      []types.Like{{UserID: "u", CreatedAt: now}},
		Version:    2,
	}
	doc := toPostDoc(p)
	doc.ID = primitive.NewObjectID()
	back := doc.toType()

	assert.Equal(t, doc.ID.Hex(), back.ID)
	assert.Equal(t, p.Comments, back.Comments)
	assert.Equal(t, p.Likes, back.Likes)
	assert.Equal(t, p.Images, back.Images)
}

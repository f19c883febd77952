package updates

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stake-plus/crowdfund/src/api/apperr"
	"github.com/stake-plus/crowdfund/src/api/events"
	"github.com/stake-plus/crowdfund/src/api/store/memstore"
	"github.com/stake-plus/crowdfund/src/api/uploads"
)

type fakeImages struct {
	n       int
	removed []string
}

func (f *fakeImages) Save(_ context.Context, img uploads.Image) (string, error) {
	f.n++
	return fmt.Sprintf("%s%d-%s", uploads.PublicPrefix, f.n, img.Filename), nil
}

func (f *fakeImages) Remove(_ context.Context, ref string) error {
	f.removed = append(f.removed, ref)
	return nil
}

func (f *fakeImages) Handler() http.Handler { return http.NotFoundHandler() }

func images(n int) []uploads.Image {
	out := make([]uploads.Image, n)
	for i := range out {
		out[i] = uploads.Image{Filename: fmt.Sprintf("img%d.png", i), Size: 1, Body: strings.NewReader("x")}
	}
	return out
}

func newTestService() (*Service, *fakeImages) {
	imgs := &fakeImages{}
	return NewService(memstore.New(), imgs, events.Nop{}, zap.NewNop()), imgs
}

func validInput() CreateInput {
	return CreateInput{CampaignID: "3", Title: "First well dug", Description: "Village A has water."}
}

func TestCreateImageLimit(t *testing.T) {
	ctx := context.Background()
	svc, imgs := newTestService()

	p, err := svc.Create(ctx, validInput(), images(MaxImages))
	require.NoError(t, err)
	assert.Len(t, p.Images, MaxImages)
	assert.EqualValues(t, 1, p.Version)

	_, err = svc.Create(ctx, validInput(), images(MaxImages+1))
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
	assert.Equal(t, MaxImages, imgs.n)

	p, err = svc.Create(ctx, validInput(), nil)
	require.NoError(t, err)
	assert.Empty(t, p.Images)
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name string
		edit func(*CreateInput)
	}{
		{"campaign", func(in *CreateInput) { in.CampaignID = "" }},
		{"title", func(in *CreateInput) { in.Title = "" }},
		{"long title", func(in *CreateInput) { in.Title = strings.Repeat("t", MaxTitleLen+1) }},
		{"long description", func(in *CreateInput) { in.Description = strings.Repeat("d", MaxDescriptionLen+1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService()
			in := validInput()
			tt.edit(&in)
			_, err := svc.Create(context.Background(), in, nil)
			assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
		})
	}
}

func TestUpdateImageLimit(t *testing.T) {
	ctx := context.Background()
	svc, imgs := newTestService()
	p, err := svc.Create(ctx, validInput(), images(4))
	require.NoError(t, err)

	_, err = svc.Update(ctx, p.ID, Patch{}, images(3))
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))

	updated, err := svc.Update(ctx, p.ID, Patch{RemoveImages: []string{p.Images[0]}}, images(3))
	require.NoError(t, err)
	assert.Len(t, updated.Images, MaxImages)
	assert.NotContains(t, updated.Images, p.Images[0])
	assert.Equal(t, []string{p.Images[0]}, imgs.removed)
	assert.EqualValues(t, 2, updated.Version)
}

func TestUpdateMergesFields(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	p, err := svc.Create(ctx, validInput(), nil)
	require.NoError(t, err)

	desc := "Village A and B have water."
	updated, err := svc.Update(ctx, p.ID, Patch{Description: &desc}, nil)
	require.NoError(t, err)
	assert.Equal(t, p.Title, updated.Title)
	assert.Equal(t, desc, updated.Description)
}

func TestUpdateStaleVersionConflicts(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	p, err := svc.Create(ctx, validInput(), nil)
	require.NoError(t, err)

	title := "Second well dug"
	_, err = svc.Update(ctx, p.ID, Patch{Title: &title, Version: p.Version}, nil)
	require.NoError(t, err)

	_, err = svc.Update(ctx, p.ID, Patch{Title: &title, Version: p.Version}, nil)
	assert.Equal(t, apperr.CodeConflict, apperr.CodeOf(err))
}

func TestUpdateMissingPost(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Update(context.Background(), "nope", Patch{}, nil)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestComments(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	p, err := svc.Create(ctx, validInput(), nil)
	require.NoError(t, err)

	c, err := svc.AddComment(ctx, p.ID, "0xabc", "Great progress!")
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)

	_, err = svc.AddComment(ctx, p.ID, "0xabc", "   ")
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
	_, err = svc.AddComment(ctx, "missing", "0xabc", "hi")
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, "Great progress!", got.Comments[0].Text)

	require.NoError(t, svc.RemoveComment(ctx, p.ID, c.ID))
	err = svc.RemoveComment(ctx, p.ID, c.ID)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestToggleLike(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	p, err := svc.Create(ctx, validInput(), nil)
	require.NoError(t, err)

	got, liked, err := svc.ToggleLike(ctx, p.ID, "0xabc")
	require.NoError(t, err)
	assert.True(t, liked)
	assert.True(t, got.LikedBy("0xabc"))

	got, liked, err = svc.ToggleLike(ctx, p.ID, "0xabc")
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Empty(t, got.Likes)
}

func TestListByCampaign(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	_, err := svc.Create(ctx, validInput(), nil)
	require.NoError(t, err)
	other := validInput()
	other.CampaignID = "9"
	_, err = svc.Create(ctx, other, nil)
	require.NoError(t, err)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	nine, err := svc.List(ctx, "9")
	require.NoError(t, err)
	require.Len(t, nine, 1)
	assert.Equal(t, "9", nine[0].CampaignID)
}

package blogs

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stake-plus/crowdfund/src/api/apperr"
	"github.com/stake-plus/crowdfund/src/api/events"
	"github.com/stake-plus/crowdfund/src/api/store/memstore"
	"github.com/stake-plus/crowdfund/src/api/types"
	"github.com/stake-plus/crowdfund/src/api/uploads"
)

type fakeImages struct {
	saved   []string
	removed []string
	failErr error
}

func (f *fakeImages) Save(_ context.Context, img uploads.Image) (string, error) {
	if f.failErr != nil {
		return "", f.failErr
	}
	ref := uploads.PublicPrefix + img.Filename
	f.saved = append(f.saved, ref)
	return ref, nil
}

func (f *fakeImages) Remove(_ context.Context, ref string) error {
	f.removed = append(f.removed, ref)
	return nil
}

func (f *fakeImages) Handler() http.Handler { return http.NotFoundHandler() }

type recorder struct{ got []events.Event }

func (r *recorder) Publish(_ context.Context, ev events.Event) error {
	r.got = append(r.got, ev)
	return nil
}
func (r *recorder) Close() error { return nil }

func newTestService() (*Service, *memstore.Store, *fakeImages, *recorder) {
	st := memstore.New()
	imgs := &fakeImages{}
	pub := &recorder{}
	return NewService(st, imgs, pub, zap.NewNop()), st, imgs, pub
}

func image(name string) *uploads.Image {
	return &uploads.Image{Filename: name, Size: 4, Body: strings.NewReader("data")}
}

func validInput() CreateInput {
	return CreateInput{
		Title:       "Why we fund wells",
		Content:     "Clean water changes everything.",
		Author:      "Amara",
		Tags:        []string{"water", "impact"},
		UserAddress: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
	}
}

func TestCreateThenGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, _, imgs, pub := newTestService()

	created, err := svc.Create(ctx, validInput(), image("cover.png"))
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, []string{"/uploads/cover.png"}, imgs.saved)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Title, got.Title)
	assert.Equal(t, created.Content, got.Content)
	assert.Equal(t, created.Author, got.Author)
	assert.Equal(t, created.Tags, got.Tags)
	assert.Equal(t, "/uploads/cover.png", got.Image)

	require.Len(t, pub.got, 1)
	assert.Equal(t, events.BlogCreated, pub.got[0].Type)
}

func TestCreateRejectsAndPersistsNothing(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*CreateInput)
		image *uploads.Image
	}{
		{"no image", func(*CreateInput) {}, nil},
		{"empty title", func(in *CreateInput) { in.Title = "  " }, image("a.png")},
		{"empty content", func(in *CreateInput) { in.Content = "" }, image("a.png")},
		{"empty author", func(in *CreateInput) { in.Author = "" }, image("a.png")},
		{"no tags", func(in *CreateInput) { in.Tags = []string{" ", ""} }, image("a.png")},
		{"title too long", func(in *CreateInput) { in.Title = strings.Repeat("x", MaxTitleLen+1) }, image("a.png")},
		{"title only markup", func(in *CreateInput) { in.Title = "<script>alert(1)</script>" }, image("a.png")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc, st, imgs, _ := newTestService()
			in := validInput()
			tt.edit(&in)

			_, err := svc.Create(ctx, in, tt.image)
			require.Error(t, err)
			assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))

			all, err := st.ListBlogs(ctx)
			require.NoError(t, err)
			assert.Empty(t, all)
			assert.Empty(t, imgs.saved)
		})
	}
}

func TestCreateAcceptsMaxLengthTitle(t *testing.T) {
	svc, _, _, _ := newTestService()
	in := validInput()
	in.Title = strings.Repeat("é", MaxTitleLen)

	_, err := svc.Create(context.Background(), in, image("a.png"))
	assert.NoError(t, err)
}

func TestCreateSanitizesMarkup(t *testing.T) {
	svc, _, _, _ := newTestService()
	in := validInput()
	in.Title = "Let's <b>build</b>"
	in.Content = `<p onclick="steal()">Hello</p><script>bad()</script>`

	b, err := svc.Create(context.Background(), in, image("a.png"))
	require.NoError(t, err)
	assert.Equal(t, "Let's build", b.Title)
	assert.Equal(t, "<p>Hello</p>", b.Content)
}

func TestCreateSurfacesUploadFailure(t *testing.T) {
	svc, st, imgs, _ := newTestService()
	imgs.failErr = apperr.InvalidArg("only jpeg, jpg, png and gif images are allowed")

	_, err := svc.Create(context.Background(), validInput(), image("a.svg"))
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
	all, _ := st.ListBlogs(context.Background())
	assert.Empty(t, all)
}

func TestUpdateMergesAndRevalidates(t *testing.T) {
	ctx := context.Background()
	svc, _, imgs, _ := newTestService()
	created, err := svc.Create(ctx, validInput(), image("old.png"))
	require.NoError(t, err)

	title := "Wells, one year on"
	updated, err := svc.Update(ctx, created.ID, Patch{Title: &title, Tags: []string{"water"}}, image("new.png"))
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, created.Content, updated.Content)
	assert.Equal(t, []string{"water"}, updated.Tags)
	assert.Equal(t, "/uploads/new.png", updated.Image)
	assert.Equal(t, []string{"/uploads/old.png"}, imgs.removed)

	empty := ""
	_, err = svc.Update(ctx, created.ID, Patch{Content: &empty}, nil)
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))

	_, err = svc.Update(ctx, created.ID, Patch{Tags: []string{}}, nil)
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
}

func TestContentKeepsPlainTextAsWritten(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestService()

	in := validInput()
	in.Content = `Tom & Jerry raised 5 ETH, "goal" is < 10 and it's done`
	created, err := svc.Create(ctx, in, image("cover.png"))
	require.NoError(t, err)
	assert.Equal(t, in.Content, created.Content)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, in.Content, got.Content)

	edited := "<p>Fees & gas: what's next?</p>"
	updated, err := svc.Update(ctx, created.ID, Patch{Content: &edited}, nil)
	require.NoError(t, err)
	assert.Equal(t, edited, updated.Content)
}

func TestContentDropsScriptsHiddenInEntities(t *testing.T) {
	svc, _, _, _ := newTestService()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"raw script", "<p>hi</p><script>alert(1)</script>", "<p>hi</p>"},
		{"escaped script", "&lt;script&gt;alert(1)&lt;/script&gt;ok", "ok"},
		{"handler smuggled in an attribute", `<a href="https://x.io/&quot; onclick=&quot;alert(1)">x</a>`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := svc.cleanContent(tt.in)
			assert.NotContains(t, out, "<script")
			assert.NotContains(t, out, "onclick")
			if tt.want != "" {
				assert.Equal(t, tt.want, out)
			}
		})
	}
}

type failingBlogStore struct {
	*memstore.Store
}

func (failingBlogStore) UpdateBlog(context.Context, *types.BlogPost) error {
	return errors.New("write failed")
}

func TestFailedUpdateDiscardsNewImage(t *testing.T) {
	ctx := context.Background()
	st := failingBlogStore{memstore.New()}
	imgs := &fakeImages{}
	svc := NewService(st, imgs, events.Nop{}, zap.NewNop())

	created, err := svc.Create(ctx, validInput(), image("old.png"))
	require.NoError(t, err)

	_, err = svc.Update(ctx, created.ID, Patch{}, image("new.png"))
	require.Error(t, err)
	assert.Equal(t, []string{"/uploads/new.png"}, imgs.removed)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/old.png", got.Image)
}

func TestDeleteAndNotFound(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestService()
	created, err := svc.Create(ctx, validInput(), image("a.png"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))

	_, err = svc.Get(ctx, created.ID)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
	err = svc.Delete(ctx, created.ID)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
	err = svc.Delete(ctx, "")
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
}

func TestParseTags(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, ParseTags(`["a", " b ", "A"]`))
	assert.Equal(t, []string{"web3", "charity"}, ParseTags("web3, charity,,"))
	assert.Nil(t, ParseTags("  "))
	assert.Equal(t, []string{"[broken"}, ParseTags("[broken"))
}

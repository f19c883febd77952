package blogs

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/stake-plus/crowdfund/src/api/apperr"
	"github.com/stake-plus/crowdfund/src/api/events"
	"github.com/stake-plus/crowdfund/src/api/store"
	"github.com/stake-plus/crowdfund/src/api/types"
	"github.com/stake-plus/crowdfund/src/api/uploads"
)

const (
	MaxTitleLen = 150

	maxCleanPasses = 4
)

type CreateInput struct {
	Title       string
	Content     string
	Author      string
	Tags        []string
	UserAddress string
}

// Patch holds the fields of an update; nil means unchanged.
type Patch struct {
	Title   *string
	Content *string
	Author  *string
	Tags    []string
}

type Service struct {
	store   store.Blogs
	images  uploads.Store
	pub     events.Publisher
	log     *zap.Logger
	now     func() time.Time
	strict  *bluemonday.Policy
	content *bluemonday.Policy
}

func NewService(st store.Blogs, images uploads.Store, pub events.Publisher, log *zap.Logger) *Service {
	return &Service{
		store:   st,
		images:  images,
		pub:     pub,
		log:     log.Named("blogs"),
		now:     time.Now,
		strict:  bluemonday.StrictPolicy(),
		content: newContentPolicy(),
	}
}

// newContentPolicy allows the formatting the blog editor produces and nothing else.
func newContentPolicy() *bluemonday.Policy {
	p := bluemonday.StrictPolicy()
	p.AllowElements("p", "br", "strong", "em", "u", "s", "code", "pre", "blockquote")
	p.AllowElements("ul", "ol", "li")
	p.AllowElements("h1", "h2", "h3", "h4", "h5", "h6")
	p.AllowAttrs("href").OnElements("a")
	p.RequireParseableURLs(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoFollowOnLinks(true)
	return p
}

// Create validates the form, stores the image and then the document. A failed
// document write leaves the stored image behind.
func (s *Service) Create(ctx context.Context, in CreateInput, image *uploads.Image) (types.BlogPost, error) {
	now := s.now().UTC()
	b := types.BlogPost{
		Title:       s.cleanTitle(in.Title),
		Content:     s.cleanContent(in.Content),
		Author:      s.cleanTitle(in.Author),
		Tags:        normalizeTags(in.Tags),
		UserAddress: strings.TrimSpace(in.UserAddress),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := validate(b); err != nil {
		return types.BlogPost{}, err
	}
	if image == nil {
		return types.BlogPost{}, apperr.InvalidArg("an image is required")
	}

	ref, err := s.images.Save(ctx, *image)
	if err != nil {
		return types.BlogPost{}, err
	}
	b.Image = ref

	if err := s.store.CreateBlog(ctx, &b); err != nil {
		s.log.Warn("blog insert failed after image upload", zap.String("image", ref), zap.Error(err))
		return types.BlogPost{}, store.Translate(err, "blog")
	}
	events.Emit(ctx, s.pub, s.log, events.Event{Type: events.BlogCreated, EntityID: b.ID, Title: b.Title, Actor: b.UserAddress})
	return b, nil
}

func (s *Service) List(ctx context.Context) ([]types.BlogPost, error) {
	out, err := s.store.ListBlogs(ctx)
	if err != nil {
		return nil, store.Translate(err, "blog")
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (types.BlogPost, error) {
	if strings.TrimSpace(id) == "" {
		return types.BlogPost{}, apperr.InvalidArg("blog id is required")
	}
	b, err := s.store.GetBlog(ctx, id)
	if err != nil {
		return types.BlogPost{}, store.Translate(err, "blog")
	}
	return b, nil
}

// Update merges the patch into the stored post and revalidates the result.
// A new image replaces the old one.
func (s *Service) Update(ctx context.Context, id string, p Patch, image *uploads.Image) (types.BlogPost, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return types.BlogPost{}, err
	}
	if p.Title != nil {
		b.Title = s.cleanTitle(*p.Title)
	}
	if p.Content != nil {
		b.Content = s.cleanContent(*p.Content)
	}
	if p.Author != nil {
		b.Author = s.cleanTitle(*p.Author)
	}
	if p.Tags != nil {
		b.Tags = normalizeTags(p.Tags)
	}
	if err := validate(b); err != nil {
		return types.BlogPost{}, err
	}

	oldImage := b.Image
	if image != nil {
		ref, err := s.images.Save(ctx, *image)
		if err != nil {
			return types.BlogPost{}, err
		}
		b.Image = ref
	}
	b.UpdatedAt = s.now().UTC()

	if err := s.store.UpdateBlog(ctx, &b); err != nil {
		if b.Image != oldImage {
			if rmErr := s.images.Remove(ctx, b.Image); rmErr != nil {
				s.log.Warn("failed to remove image of failed update", zap.String("image", b.Image), zap.Error(rmErr))
			}
		}
		return types.BlogPost{}, store.Translate(err, "blog")
	}
	if b.Image != oldImage && oldImage != "" {
		if err := s.images.Remove(ctx, oldImage); err != nil {
			s.log.Warn("failed to remove replaced image", zap.String("image", oldImage), zap.Error(err))
		}
	}
	events.Emit(ctx, s.pub, s.log, events.Event{Type: events.BlogUpdated, EntityID: b.ID, Title: b.Title})
	return b, nil
}

// Delete removes the document only; its image file stays in storage.
func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperr.InvalidArg("blog id is required")
	}
	if err := s.store.DeleteBlog(ctx, id); err != nil {
		return store.Translate(err, "blog")
	}
	events.Emit(ctx, s.pub, s.log, events.Event{Type: events.BlogDeleted, EntityID: id})
	return nil
}

func (s *Service) cleanTitle(v string) string {
	return strings.TrimSpace(html.UnescapeString(s.strict.Sanitize(strings.TrimSpace(v))))
}

// cleanContent drops markup outside the content policy but keeps plain text
// as written. Unescaping can surface tags that were entities in the input, so
// the pass repeats until the text is stable; an input that never settles keeps
// its escaped form.
func (s *Service) cleanContent(v string) string {
	out := strings.TrimSpace(v)
	for i := 0; i < maxCleanPasses; i++ {
		next := strings.TrimSpace(html.UnescapeString(s.content.Sanitize(out)))
		if next == out {
			return out
		}
		out = next
	}
	return s.content.Sanitize(out)
}

func validate(b types.BlogPost) error {
	var missing []string
	if b.Title == "" {
		missing = append(missing, "title")
	}
	if b.Content == "" {
		missing = append(missing, "content")
	}
	if b.Author == "" {
		missing = append(missing, "author")
	}
	if len(b.Tags) == 0 {
		missing = append(missing, "tags")
	}
	if len(missing) > 0 {
		return apperr.InvalidArg(fmt.Sprintf("missing required fields: %s", strings.Join(missing, ", ")))
	}
	if utf8.RuneCountInString(b.Title) > MaxTitleLen {
		return apperr.InvalidArg(fmt.Sprintf("title must be at most %d characters", MaxTitleLen))
	}
	return nil
}

// ParseTags accepts either a JSON array or a comma separated list.
func ParseTags(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if strings.HasPrefix(raw, "[") {
		var tags []string
		if err := json.Unmarshal([]byte(raw), &tags); err == nil {
			return normalizeTags(tags)
		}
	}
	return normalizeTags(strings.Split(raw, ","))
}

func normalizeTags(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = strings.TrimSpace(t)
		if t == "" || seen[strings.ToLower(t)] {
			continue
		}
		seen[strings.ToLower(t)] = true
		out = append(out, t)
	}
	return out
}

package updates

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/stake-plus/crowdfund/src/api/apperr"
	"github.com/stake-plus/crowdfund/src/api/events"
	"github.com/stake-plus/crowdfund/src/api/store"
	"github.com/stake-plus/crowdfund/src/api/types"
	"github.com/stake-plus/crowdfund/src/api/uploads"
)

const (
	MaxTitleLen       = 100
	MaxDescriptionLen = 1000
	MaxImages         = 6
	MaxCommentLen     = 2000
)

type CreateInput struct {
	CampaignID  string
	Title       string
	Description string
}

// Patch holds the fields of an update; nil means unchanged. Version, when set,
// is the version the caller last read and must still be current.
type Patch struct {
	Title        *string
	Description  *string
	RemoveImages []string
	Version      int64
}

type Service struct {
	store  store.Posts
	images uploads.Store
	pub    events.Publisher
	log    *zap.Logger
	now    func() time.Time
	strict *bluemonday.Policy
}

func NewService(st store.Posts, images uploads.Store, pub events.Publisher, log *zap.Logger) *Service {
	return &Service{
		store:  st,
		images: images,
		pub:    pub,
		log:    log.Named("updates"),
		now:    time.Now,
		strict: bluemonday.StrictPolicy(),
	}
}

func (s *Service) Create(ctx context.Context, in CreateInput, images []uploads.Image) (types.CampaignPost, error) {
	now := s.now().UTC()
	p := types.CampaignPost{
		CampaignID:  strings.TrimSpace(in.CampaignID),
		Title:       s.clean(in.Title),
		Description: s.clean(in.Description),
		Comments:    []types.Comment{},
		Likes:       []types.Like{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if p.CampaignID == "" {
		return types.CampaignPost{}, apperr.InvalidArg("campaignId is required")
	}
	if err := validate(p.Title, p.Description, len(images)); err != nil {
		return types.CampaignPost{}, err
	}

	refs, err := s.saveAll(ctx, images)
	if err != nil {
		return types.CampaignPost{}, err
	}
	p.Images = refs

	if err := s.store.CreatePost(ctx, &p); err != nil {
		s.log.Warn("post insert failed after image upload", zap.Strings("images", refs), zap.Error(err))
		return types.CampaignPost{}, store.Translate(err, "post")
	}
	events.Emit(ctx, s.pub, s.log, events.Event{Type: events.PostCreated, EntityID: p.ID, CampaignID: p.CampaignID, Title: p.Title})
	return p, nil
}

func (s *Service) List(ctx context.Context, campaignID string) ([]types.CampaignPost, error) {
	out, err := s.store.ListPosts(ctx, strings.TrimSpace(campaignID))
	if err != nil {
		return nil, store.Translate(err, "post")
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (types.CampaignPost, error) {
	if strings.TrimSpace(id) == "" {
		return types.CampaignPost{}, apperr.InvalidArg("post id is required")
	}
	p, err := s.store.GetPost(ctx, id)
	if err != nil {
		return types.CampaignPost{}, store.Translate(err, "post")
	}
	return p, nil
}

// Update merges title and description, drops the listed images, appends the
// uploaded ones and rejects a result with more than MaxImages images. The write
// is conditional on the version read, so a concurrent edit yields a conflict
// instead of a lost update.
func (s *Service) Update(ctx context.Context, id string, patch Patch, newImages []uploads.Image) (types.CampaignPost, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return types.CampaignPost{}, err
	}
	if patch.Version != 0 && patch.Version != p.Version {
		return types.CampaignPost{}, store.Translate(store.ErrConflict, "post")
	}
	if patch.Title != nil {
		p.Title = s.clean(*patch.Title)
	}
	if patch.Description != nil {
		p.Description = s.clean(*patch.Description)
	}

	drop := make(map[string]bool, len(patch.RemoveImages))
	for _, ref := range patch.RemoveImages {
		drop[strings.TrimSpace(ref)] = true
	}
	kept := make([]string, 0, len(p.Images))
	var removed []string
	for _, ref := range p.Images {
		if drop[ref] {
			removed = append(removed, ref)
			continue
		}
		kept = append(kept, ref)
	}

	if err := validate(p.Title, p.Description, len(kept)+len(newImages)); err != nil {
		return types.CampaignPost{}, err
	}

	added, err := s.saveAll(ctx, newImages)
	if err != nil {
		return types.CampaignPost{}, err
	}
	p.Images = append(kept, added...)
	p.UpdatedAt = s.now().UTC()

	if err := s.store.UpdatePost(ctx, &p); err != nil {
		s.discard(ctx, added)
		return types.CampaignPost{}, store.Translate(err, "post")
	}
	s.discard(ctx, removed)
	events.Emit(ctx, s.pub, s.log, events.Event{Type: events.PostUpdated, EntityID: p.ID, CampaignID: p.CampaignID, Title: p.Title})
	return p, nil
}

// Delete removes the document only; its image files stay in storage.
func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperr.InvalidArg("post id is required")
	}
	if err := s.store.DeletePost(ctx, id); err != nil {
		return store.Translate(err, "post")
	}
	events.Emit(ctx, s.pub, s.log, events.Event{Type: events.PostDeleted, EntityID: id})
	return nil
}

func (s *Service) AddComment(ctx context.Context, postID, userID, text string) (types.Comment, error) {
	postID, userID = strings.TrimSpace(postID), strings.TrimSpace(userID)
	text = s.clean(text)
	if postID == "" || userID == "" || text == "" {
		return types.Comment{}, apperr.InvalidArg("postId, userId and text are required")
	}
	if utf8.RuneCountInString(text) > MaxCommentLen {
		return types.Comment{}, apperr.InvalidArg(fmt.Sprintf("comment must be at most %d characters", MaxCommentLen))
	}
	c := types.Comment{ID: uuid.NewString(), UserID: userID, Text: text, CreatedAt: s.now().UTC()}
	if err := s.store.AddComment(ctx, postID, c); err != nil {
		return types.Comment{}, store.Translate(err, "post")
	}
	events.Emit(ctx, s.pub, s.log, events.Event{Type: events.PostCommented, EntityID: postID, Actor: userID})
	return c, nil
}

func (s *Service) RemoveComment(ctx context.Context, postID, commentID string) error {
	postID, commentID = strings.TrimSpace(postID), strings.TrimSpace(commentID)
	if postID == "" || commentID == "" {
		return apperr.InvalidArg("postId and commentId are required")
	}
	if err := s.store.RemoveComment(ctx, postID, commentID); err != nil {
		return store.Translate(err, "comment")
	}
	return nil
}

// ToggleLike flips userID's like on the post and returns the refreshed post.
func (s *Service) ToggleLike(ctx context.Context, postID, userID string) (types.CampaignPost, bool, error) {
	postID, userID = strings.TrimSpace(postID), strings.TrimSpace(userID)
	if postID == "" || userID == "" {
		return types.CampaignPost{}, false, apperr.InvalidArg("postId and userId are required")
	}
	liked, err := s.store.ToggleLike(ctx, postID, userID, s.now().UTC())
	if err != nil {
		return types.CampaignPost{}, false, store.Translate(err, "post")
	}
	p, err := s.Get(ctx, postID)
	if err != nil {
		return types.CampaignPost{}, false, err
	}
	if liked {
		events.Emit(ctx, s.pub, s.log, events.Event{Type: events.PostLiked, EntityID: postID, Actor: userID})
	}
	return p, liked, nil
}

func (s *Service) saveAll(ctx context.Context, images []uploads.Image) ([]string, error) {
	refs := make([]string, 0, len(images))
	for _, img := range images {
		ref, err := s.images.Save(ctx, img)
		if err != nil {
			s.discard(ctx, refs)
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func (s *Service) discard(ctx context.Context, refs []string) {
	for _, ref := range refs {
		if err := s.images.Remove(ctx, ref); err != nil {
			s.log.Warn("failed to remove image", zap.String("image", ref), zap.Error(err))
		}
	}
}

func (s *Service) clean(v string) string {
	return strings.TrimSpace(html.UnescapeString(s.strict.Sanitize(strings.TrimSpace(v))))
}

func validate(title, description string, images int) error {
	if title == "" {
		return apperr.InvalidArg("title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLen {
		return apperr.InvalidArg(fmt.Sprintf("title must be at most %d characters", MaxTitleLen))
	}
	if utf8.RuneCountInString(description) > MaxDescriptionLen {
		return apperr.InvalidArg(fmt.Sprintf("description must be at most %d characters", MaxDescriptionLen))
	}
	if images > MaxImages {
		return apperr.InvalidArg(fmt.Sprintf("a post can have at most %d images", MaxImages))
	}
	return nil
}

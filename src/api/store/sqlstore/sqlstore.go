package sqlstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stake-plus/crowdfund/src/api/store"
	"github.com/stake-plus/crowdfund/src/api/types"
)

type accountRow struct {
	ID        uint   `gorm:"primaryKey"`
	Address   string `gorm:"size:42;uniqueIndex;not null"`
	Nonce     string `gorm:"size:16;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (accountRow) TableName() string { return "wallet_accounts" }

type blogRow struct {
	ID          string    `gorm:"primaryKey;size:36"`
	Title       string    `gorm:"size:255;not null"`
	Content     string    `gorm:"type:text;not null"`
	Author      string    `gorm:"size:255;not null"`
	Tags        []string  `gorm:"serializer:json;type:text"`
	Image       string    `gorm:"size:512"`
	UserAddress string    `gorm:"size:42"`
	CreatedAt   time.Time `gorm:"index"`
	UpdatedAt   time.Time
}

func (blogRow) TableName() string { return "blogs" }

type postRow struct {
	ID          string       `gorm:"primaryKey;size:36"`
	CampaignID  string       `gorm:"size:64;index;not null"`
	Title       string       `gorm:"size:255;not null"`
	Description string       `gorm:"type:text"`
	Images      []string     `gorm:"serializer:json;type:text"`
	Version     int64        `gorm:"not null;default:1"`
	Comments    []commentRow `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
	Likes       []likeRow    `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time    `gorm:"index"`
	UpdatedAt   time.Time
}

func (postRow) TableName() string { return "posts" }

type commentRow struct {
	ID        string `gorm:"primaryKey;size:36"`
	PostID    string `gorm:"size:36;index;not null"`
	UserID    string `gorm:"size:128;not null"`
	Text      string `gorm:"type:text;not null"`
	CreatedAt time.Time
}

func (commentRow) TableName() string { return "post_comments" }

type likeRow struct {
	PostID    string `gorm:"primaryKey;size:36"`
	UserID    string `gorm:"primaryKey;size:128"`
	CreatedAt time.Time
}

func (likeRow) TableName() string { return "post_likes" }

var allModels = []interface{}{
	&accountRow{}, &blogRow{}, &postRow{}, &commentRow{}, &likeRow{},
}

// Store is the gorm backend; it works against MySQL and Postgres alike.
type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(allModels...)
}

func (s *Store) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	return err
}

// missOrConflict explains an update that touched no row.
func missOrConflict(tx *gorm.DB, model any, where string, args ...any) error {
	var n int64
	if err := tx.Model(model).Where(where, args...).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return store.ErrConflict
}

func (s *Store) UpsertNonce(ctx context.Context, address, nonce string, now time.Time) error {
	row := accountRow{Address: address, Nonce: nonce, CreatedAt: now, UpdatedAt: now}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{"nonce", "updated_at"}),
	}).Create(&row).Error
}

func (s *Store) GetAccount(ctx context.Context, address string) (types.WalletAccount, error) {
	var row accountRow
	if err := s.db.WithContext(ctx).Where("address = ?", address).First(&row).Error; err != nil {
		return types.WalletAccount{}, notFound(err)
	}
	return types.WalletAccount{Address: row.Address, Nonce: row.Nonce, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt}, nil
}

func (s *Store) RotateNonce(ctx context.Context, address, expected, next string, now time.Time) error {
	db := s.db.WithContext(ctx)
	res := db.Model(&accountRow{}).
		Where("address = ? AND nonce = ?", address, expected).
		Updates(map[string]any{"nonce": next, "updated_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return missOrConflict(db, &accountRow{}, "address = ?", address)
	}
	return nil
}

func (s *Store) CreateBlog(ctx context.Context, b *types.BlogPost) error {
	row := toBlogRow(*b)
	row.ID = uuid.NewString()
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	b.ID = row.ID
	return nil
}

func (s *Store) ListBlogs(ctx context.Context) ([]types.BlogPost, error) {
	var rows []blogRow
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]types.BlogPost, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toType())
	}
	return out, nil
}

func (s *Store) GetBlog(ctx context.Context, id string) (types.BlogPost, error) {
	var row blogRow
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return types.BlogPost{}, notFound(err)
	}
	return row.toType(), nil
}

func (s *Store) UpdateBlog(ctx context.Context, b *types.BlogPost) error {
	row := toBlogRow(*b)
	res := s.db.WithContext(ctx).Model(&blogRow{}).
		Where("id = ?", b.ID).
		Select("title", "content", "author", "tags", "image", "updated_at").
		Updates(&row)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// MySQL reports matched-but-unchanged rows as unaffected.
		return s.blogExists(s.db.WithContext(ctx), b.ID)
	}
	return nil
}

func (s *Store) blogExists(tx *gorm.DB, id string) error {
	var n int64
	if err := tx.Model(&blogRow{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteBlog(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&blogRow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreatePost(ctx context.Context, p *types.CampaignPost) error {
	row := postRow{
		ID:          uuid.NewString(),
		CampaignID:  p.CampaignID,
		Title:       p.Title,
		Description: p.Description,
		Images:      append([]string{}, p.Images...),
		Version:     1,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&row).Error; err != nil {
		return err
	}
	p.ID = row.ID
	p.Version = row.Version
	return nil
}

func (s *Store) withChildren(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Likes", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") })
}

func (s *Store) ListPosts(ctx context.Context, campaignID string) ([]types.CampaignPost, error) {
	q := s.withChildren(ctx).Order("created_at DESC")
	if campaignID != "" {
		q = q.Where("campaign_id = ?", campaignID)
	}
	var rows []postRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]types.CampaignPost, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toType())
	}
	return out, nil
}

func (s *Store) GetPost(ctx context.Context, id string) (types.CampaignPost, error) {
	var row postRow
	if err := s.withChildren(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return types.CampaignPost{}, notFound(err)
	}
	return row.toType(), nil
}

func (s *Store) UpdatePost(ctx context.Context, p *types.CampaignPost) error {
	db := s.db.WithContext(ctx)
	row := postRow{
		Title:       p.Title,
		Description: p.Description,
		Images:      append([]string{}, p.Images...),
		Version:     p.Version + 1,
		UpdatedAt:   p.UpdatedAt,
	}
	res := db.Model(&postRow{}).
		Where("id = ? AND version = ?", p.ID, p.Version).
		Select("title", "description", "images", "version", "updated_at").
		Updates(&row)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return missOrConflict(db, &postRow{}, "id = ?", p.ID)
	}
	p.Version = row.Version
	return nil
}

// DeletePost removes the post together with its comments and likes.
func (s *Store) DeletePost(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&commentRow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&likeRow{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&postRow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}

func (s *Store) postExists(tx *gorm.DB, id string) error {
	var n int64
	if err := tx.Model(&postRow{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) AddComment(ctx context.Context, postID string, c types.Comment) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.postExists(tx, postID); err != nil {
			return err
		}
		row := commentRow{ID: c.ID, PostID: postID, UserID: c.UserID, Text: c.Text, CreatedAt: c.CreatedAt}
		return tx.Create(&row).Error
	})
}

func (s *Store) RemoveComment(ctx context.Context, postID, commentID string) error {
	res := s.db.WithContext(ctx).Where("id = ? AND post_id = ?", commentID, postID).Delete(&commentRow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ToggleLike(ctx context.Context, postID, userID string, now time.Time) (bool, error) {
	var liked bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&likeRow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			liked = false
			return nil
		}
		if err := s.postExists(tx, postID); err != nil {
			return err
		}
		liked = true
		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&likeRow{PostID: postID, UserID: userID, CreatedAt: now}).Error
	})
	return liked, err
}

func toBlogRow(b types.BlogPost) blogRow {
	return blogRow{
		ID:          b.ID,
		Title:       b.Title,
		Content:     b.Content,
		Author:      b.Author,
		Tags:        append([]string{}, b.Tags...),
		Image:       b.Image,
		UserAddress: b.UserAddress,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

func (r blogRow) toType() types.BlogPost {
	return types.BlogPost{
		ID:          r.ID,
		Title:       r.Title,
		Content:     r.Content,
		Author:      r.Author,
		Tags:        r.Tags,
		Image:       r.Image,
		UserAddress: r.UserAddress,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (r postRow) toType() types.CampaignPost {
	p := types.CampaignPost{
		ID:          r.ID,
		CampaignID:  r.CampaignID,
		Title:       r.Title,
		Description: r.Description,
		Images:      append([]string{}, r.Images...),
		Comments:    make([]types.Comment, 0, len(r.Comments)),
		Likes:       make([]types.Like, 0, len(r.Likes)),
		Version:     r.Version,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	for _, c := range r.Comments {
		p.Comments = append(p.Comments, types.Comment{ID: c.ID, UserID: c.UserID, Text: c.Text, CreatedAt: c.CreatedAt})
	}
	for _, l := range r.Likes {
		p.Likes = append(p.Likes, types.Like{UserID: l.UserID, CreatedAt: l.CreatedAt})
	}
	return p
}

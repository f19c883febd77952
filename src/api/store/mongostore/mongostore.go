package mongostore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stake-plus/crowdfund/src/api/store"
	"github.com/stake-plus/crowdfund/src/api/types"
)

const (
	accountsColl = "accounts"
	blogsColl    = "blogs"
	postsColl    = "posts"
)

type accountDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Address   string             `bson:"address"`
	Nonce     string             `bson:"nonce"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

type blogDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Content     string             `bson:"content"`
	Author      string             `bson:"author"`
	Tags        []string           `bson:"tags"`
	Image       string             `bson:"image"`
	UserAddress string             `bson:"userAddress,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

type commentDoc struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"userId"`
	Text      string    `bson:"text"`
	CreatedAt time.Time `bson:"createdAt"`
}

type likeDoc struct {
	UserID    string    `bson:"userId"`
	CreatedAt time.Time `bson:"createdAt"`
}

type postDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	CampaignID  string             `bson:"campaignId"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Images      []string           `bson:"images"`
	Comments    []commentDoc       `bson:"comments"`
	Likes       []likeDoc          `bson:"likes"`
	Version     int64              `bson:"version"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

// Store keeps accounts, blogs and posts in three collections of one database.
type Store struct {
	db       *mongo.Database
	accounts *mongo.Collection
	blogs    *mongo.Collection
	posts    *mongo.Collection
}

var _ store.Store = (*Store)(nil)

func New(db *mongo.Database) *Store {
	return &Store{
		db:       db,
		accounts: db.Collection(accountsColl),
		blogs:    db.Collection(blogsColl),
		posts:    db.Collection(postsColl),
	}
}

// EnsureIndexes creates the unique address index and the listing indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if _, err := s.accounts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "address", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return err
	}
	if _, err := s.blogs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	}); err != nil {
		return err
	}
	_, err := s.posts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "campaignId", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	return err
}

func (s *Store) Close(ctx context.Context) error {
	return s.db.Client().Disconnect(ctx)
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, store.ErrInvalidID
	}
	return oid, nil
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	return err
}

// missOrConflict explains an update that matched nothing: the document is gone
// or its guard field moved on.
func missOrConflict(ctx context.Context, coll *mongo.Collection, filter bson.M) error {
	n, err := coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return store.ErrConflict
}

func (s *Store) UpsertNonce(ctx context.Context, address, nonce string, now time.Time) error {
	_, err := s.accounts.UpdateOne(ctx,
		bson.M{"address": address},
		bson.M{
			"$set":         bson.M{"nonce": nonce, "updatedAt": now},
			"$setOnInsert": bson.M{"address": address, "createdAt": now},
		},
		options.Update().SetUpsert(true))
	return err
}

func (s *Store) GetAccount(ctx context.Context, address string) (types.WalletAccount, error) {
	var doc accountDoc
	if err := s.accounts.FindOne(ctx, bson.M{"address": address}).Decode(&doc); err != nil {
		return types.WalletAccount{}, notFound(err)
	}
	return types.WalletAccount{Address: doc.Address, Nonce: doc.Nonce, CreatedAt: doc.CreatedAt, UpdatedAt: doc.UpdatedAt}, nil
}

func (s *Store) RotateNonce(ctx context.Context, address, expected, next string, now time.Time) error {
	res, err := s.accounts.UpdateOne(ctx,
		bson.M{"address": address, "nonce": expected},
		bson.M{"$set": bson.M{"nonce": next, "updatedAt": now}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return missOrConflict(ctx, s.accounts, bson.M{"address": address})
	}
	return nil
}

func (s *Store) CreateBlog(ctx context.Context, b *types.BlogPost) error {
	doc := toBlogDoc(*b)
	doc.ID = primitive.NewObjectID()
	if _, err := s.blogs.InsertOne(ctx, doc); err != nil {
		return err
	}
	b.ID = doc.ID.Hex()
	return nil
}

func (s *Store) ListBlogs(ctx context.Context) ([]types.BlogPost, error) {
	cur, err := s.blogs.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	var docs []blogDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]types.BlogPost, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toType())
	}
	return out, nil
}

func (s *Store) GetBlog(ctx context.Context, id string) (types.BlogPost, error) {
	oid, err := objectID(id)
	if err != nil {
		return types.BlogPost{}, err
	}
	var doc blogDoc
	if err := s.blogs.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return types.BlogPost{}, notFound(err)
	}
	return doc.toType(), nil
}

func (s *Store) UpdateBlog(ctx context.Context, b *types.BlogPost) error {
	oid, err := objectID(b.ID)
	if err != nil {
		return err
	}
	res, err := s.blogs.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"title":     b.Title,
		"content":   b.Content,
		"author":    b.Author,
		"tags":      b.Tags,
		"image":     b.Image,
		"updatedAt": b.UpdatedAt,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteBlog(ctx context.Context, id string) error {
	return deleteByID(ctx, s.blogs, id)
}

func deleteByID(ctx context.Context, coll *mongo.Collection, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreatePost(ctx context.Context, p *types.CampaignPost) error {
	doc := toPostDoc(*p)
	doc.ID = primitive.NewObjectID()
	doc.Version = 1
	if _, err := s.posts.InsertOne(ctx, doc); err != nil {
		return err
	}
	p.ID = doc.ID.Hex()
	p.Version = doc.Version
	return nil
}

func (s *Store) ListPosts(ctx context.Context, campaignID string) ([]types.CampaignPost, error) {
	filter := bson.M{}
	if campaignID != "" {
		filter["campaignId"] = campaignID
	}
	cur, err := s.posts.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	var docs []postDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]types.CampaignPost, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toType())
	}
	return out, nil
}

func (s *Store) GetPost(ctx context.Context, id string) (types.CampaignPost, error) {
	oid, err := objectID(id)
	if err != nil {
		return types.CampaignPost{}, err
	}
	var doc postDoc
	if err := s.posts.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return types.CampaignPost{}, notFound(err)
	}
	return doc.toType(), nil
}

func (s *Store) UpdatePost(ctx context.Context, p *types.CampaignPost) error {
	oid, err := objectID(p.ID)
	if err != nil {
		return err
	}
	images := p.Images
	if images == nil {
		images = []string{}
	}
	res, err := s.posts.UpdateOne(ctx,
		bson.M{"_id": oid, "version": p.Version},
		bson.M{
			"$set": bson.M{
				"title":       p.Title,
				"description": p.Description,
				"images":      images,
				"updatedAt":   p.UpdatedAt,
			},
			"$inc": bson.M{"version": 1},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return missOrConflict(ctx, s.posts, bson.M{"_id": oid})
	}
	p.Version++
	return nil
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	return deleteByID(ctx, s.posts, id)
}

func (s *Store) AddComment(ctx context.Context, postID string, c types.Comment) error {
	oid, err := objectID(postID)
	if err != nil {
		return err
	}
	res, err := s.posts.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$push": bson.M{"comments": commentDoc(c)}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) RemoveComment(ctx context.Context, postID, commentID string) error {
	oid, err := objectID(postID)
	if err != nil {
		return err
	}
	res, err := s.posts.UpdateOne(ctx,
		bson.M{"_id": oid, "comments._id": commentID},
		bson.M{"$pull": bson.M{"comments": bson.M{"_id": commentID}}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ToggleLike pulls an existing like, otherwise pushes one. Both writes are
// guarded on the like's presence so concurrent toggles cannot double count.
func (s *Store) ToggleLike(ctx context.Context, postID, userID string, now time.Time) (bool, error) {
	oid, err := objectID(postID)
	if err != nil {
		return false, err
	}
	res, err := s.posts.UpdateOne(ctx,
		bson.M{"_id": oid, "likes.userId": userID},
		bson.M{"$pull": bson.M{"likes": bson.M{"userId": userID}}})
	if err != nil {
		return false, err
	}
	if res.MatchedCount > 0 {
		return false, nil
	}

	res, err = s.posts.UpdateOne(ctx,
		bson.M{"_id": oid, "likes.userId": bson.M{"$ne": userID}},
		bson.M{"$push": bson.M{"likes": likeDoc{UserID: userID, CreatedAt: now}}})
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 0 {
		return false, missOrConflict(ctx, s.posts, bson.M{"_id": oid})
	}
	return true, nil
}

func toBlogDoc(b types.BlogPost) blogDoc {
	tags := b.Tags
	if tags == nil {
		tags = []string{}
	}
	return blogDoc{
		Title:       b.Title,
		Content:     b.Content,
		Author:      b.Author,
		Tags:        tags,
		Image:       b.Image,
		UserAddress: b.UserAddress,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

func (d blogDoc) toType() types.BlogPost {
	return types.BlogPost{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Content:     d.Content,
		Author:      d.Author,
		Tags:        d.Tags,
		Image:       d.Image,
		UserAddress: d.UserAddress,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func toPostDoc(p types.CampaignPost) postDoc {
	doc := postDoc{
		CampaignID:  p.CampaignID,
		Title:       p.Title,
		Description: p.Description,
		Images:      append([]string{}, p.Images...),
		Comments:    make([]commentDoc, 0, len(p.Comments)),
		Likes:       make([]likeDoc, 0, len(p.Likes)),
		Version:     p.Version,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	for _, c := range p.Comments {
		doc.Comments = append(doc.Comments, commentDoc(c))
	}
	for _, l := range p.Likes {
		doc.Likes = append(doc.Likes, likeDoc(l))
	}
	return doc
}

func (d postDoc) toType() types.CampaignPost {
	p := types.CampaignPost{
		ID:          d.ID.Hex(),
		CampaignID:  d.CampaignID,
		Title:       d.Title,
		Description: d.Description,
		Images:      append([]string{}, d.Images...),
		Comments:    make([]types.Comment, 0, len(d.Comments)),
		Likes:       make([]types.Like, 0, len(d.Likes)),
		Version:     d.Version,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	for _, c := range d.Comments {
		p.Comments = append(p.Comments, types.Comment(c))
	}
	for _, l := range d.Likes {
		p.Likes = append(p.Likes, types.Like(l))
	}
	return p
}

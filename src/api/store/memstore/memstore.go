package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stake-plus/crowdfund/src/api/store"
	"github.com/stake-plus/crowdfund/src/api/types"
)

// Store keeps everything in process memory. Used for local development and tests.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]types.WalletAccount
	blogs    map[string]types.BlogPost
	posts    map[string]types.CampaignPost
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		accounts: make(map[string]types.WalletAccount),
		blogs:    make(map[string]types.BlogPost),
		posts:    make(map[string]types.CampaignPost),
	}
}

func (s *Store) Close(context.Context) error { return nil }

func (s *Store) UpsertNonce(_ context.Context, address, nonce string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[address]
	if !ok {
		acc = types.WalletAccount{Address: address, CreatedAt: now}
	}
	acc.Nonce = nonce
	acc.UpdatedAt = now
	s.accounts[address] = acc
	return nil
}

func (s *Store) GetAccount(_ context.Context, address string) (types.WalletAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[address]
	if !ok {
		return types.WalletAccount{}, store.ErrNotFound
	}
	return acc, nil
}

func (s *Store) RotateNonce(_ context.Context, address, expected, next string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[address]
	if !ok {
		return store.ErrNotFound
	}
	if acc.Nonce != expected {
		return store.ErrConflict
	}
	acc.Nonce = next
	acc.UpdatedAt = now
	s.accounts[address] = acc
	return nil
}

func (s *Store) CreateBlog(_ context.Context, b *types.BlogPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b.ID = uuid.NewString()
	s.blogs[b.ID] = cloneBlog(*b)
	return nil
}

func (s *Store) ListBlogs(context.Context) ([]types.BlogPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.BlogPost, 0, len(s.blogs))
	for _, b := range s.blogs {
		out = append(out, cloneBlog(b))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) GetBlog(_ context.Context, id string) (types.BlogPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.blogs[id]
	if !ok {
		return types.BlogPost{}, store.ErrNotFound
	}
	return cloneBlog(b), nil
}

func (s *Store) UpdateBlog(_ context.Context, b *types.BlogPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blogs[b.ID]; !ok {
		return store.ErrNotFound
	}
	s.blogs[b.ID] = cloneBlog(*b)
	return nil
}

func (s *Store) DeleteBlog(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blogs[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.blogs, id)
	return nil
}

func (s *Store) CreatePost(_ context.Context, p *types.CampaignPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = uuid.NewString()
	p.Version = 1
	s.posts[p.ID] = clonePost(*p)
	return nil
}

func (s *Store) ListPosts(_ context.Context, campaignID string) ([]types.CampaignPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.CampaignPost, 0, len(s.posts))
	for _, p := range s.posts {
		if campaignID != "" && p.CampaignID != campaignID {
			continue
		}
		out = append(out, clonePost(p))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) GetPost(_ context.Context, id string) (types.CampaignPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return types.CampaignPost{}, store.ErrNotFound
	}
	return clonePost(p), nil
}

func (s *Store) UpdatePost(_ context.Context, p *types.CampaignPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.posts[p.ID]
	if !ok {
		return store.ErrNotFound
	}
	if cur.Version != p.Version {
		return store.ErrConflict
	}
	cur.Title = p.Title
	cur.Description = p.Description
	cur.Images = append([]string(nil), p.Images...)
	cur.UpdatedAt = p.UpdatedAt
	cur.Version++
	s.posts[p.ID] = cur
	p.Version = cur.Version
	return nil
}

func (s *Store) DeletePost(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.posts, id)
	return nil
}

func (s *Store) AddComment(_ context.Context, postID string, c types.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok {
		return store.ErrNotFound
	}
	p.Comments = append(p.Comments, c)
	s.posts[postID] = p
	return nil
}

func (s *Store) RemoveComment(_ context.Context, postID, commentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok {
		return store.ErrNotFound
	}
	for i, c := range p.Comments {
		if c.ID == commentID {
			p.Comments = append(p.Comments[:i:i], p.Comments[i+1:]...)
			s.posts[postID] = p
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) ToggleLike(_ context.Context, postID, userID string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok {
		return false, store.ErrNotFound
	}
	for i, l := range p.Likes {
		if l.UserID == userID {
			p.Likes = append(p.Likes[:i:i], p.Likes[i+1:]...)
			s.posts[postID] = p
			return false, nil
		}
	}
	p.Likes = append(p.Likes, types.Like{UserID: userID, CreatedAt: now})
	s.posts[postID] = p
	return true, nil
}

func cloneBlog(b types.BlogPost) types.BlogPost {
	b.Tags = append([]string(nil), b.Tags...)
	return b
}

func clonePost(p types.CampaignPost) types.CampaignPost {
	p.Images = append([]string{}, p.Images...)
	p.Comments = append([]types.Comment{}, p.Comments...)
	p.Likes = append([]types.Like{}, p.Likes...)
	return p
}

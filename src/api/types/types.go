package types

import "time"

// WalletAccount is the login record for one checksummed wallet address.
type WalletAccount struct {
	Address   string    `json:"address"`
	Nonce     string    `json:"nonce"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type BlogPost struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Author      string    `json:"author"`
	Tags        []string  `json:"tags"`
	Image       string    `json:"image"`
	UserAddress string    `json:"userAddress,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CampaignPost is an off-chain progress update attached to an on-chain campaign id.
type CampaignPost struct {
	ID          string    `json:"_id"`
	CampaignID  string    `json:"campaignId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Images      []string  `json:"images"`
	Comments    []Comment `json:"comments"`
	Likes       []Like    `json:"likes"`
	Version     int64     `json:"version"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Comment struct {
	ID        string    `json:"_id"`
	UserID    string    `json:"userId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

type Like struct {
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// LikedBy reports whether userID already liked the post.
func (p CampaignPost) LikedBy(userID string) bool {
	for _, l := range p.Likes {
		if l.UserID == userID {
			return true
		}
	}
	return false
}

package events

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

const (
	BlogCreated   = "blog.created"
	BlogUpdated   = "blog.updated"
	BlogDeleted   = "blog.deleted"
	PostCreated   = "post.created"
	PostUpdated   = "post.updated"
	PostDeleted   = "post.deleted"
	PostCommented = "post.commented"
	PostLiked     = "post.liked"
)

// Event is a change notification for a blog or campaign update post.
type Event struct {
	Type       string    `json:"type"`
	EntityID   string    `json:"entityId"`
	CampaignID string    `json:"campaignId,omitempty"`
	Title      string    `json:"title,omitempty"`
	Actor      string    `json:"actor,omitempty"`
	At         time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Emit publishes ev and logs a failure instead of returning it; event delivery
// never fails the request that caused it.
func Emit(ctx context.Context, pub Publisher, log *zap.Logger, ev Event) {
	if pub == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	if err := pub.Publish(ctx, ev); err != nil {
		log.Warn("event publish failed",
			zap.String("type", ev.Type),
			zap.String("entity", ev.EntityID),
			zap.Error(err))
	}
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

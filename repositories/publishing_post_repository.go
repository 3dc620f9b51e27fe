package repositories

import (
	"context"
	"strconv"
	"time"

	"github.com/cppla/postapi/models"
	"github.com/cppla/postapi/utils"
)

// Post change event types.
const (
	EventPostCreated = "post.created"
	EventPostUpdated = "post.updated"
	EventPostDeleted = "post.deleted"
)

// PostEvent is the message published after a successful write.
type PostEvent struct {
	Type   string    `json:"type"`
	PostID uint      `json:"post_id"`
	Title  string    `json:"title,omitempty"`
	At     time.Time `json:"at"`
}

// PublishingPostRepository publishes a PostEvent after every successful write
// of the wrapped repository. Publish errors are logged and never returned
// since the write has already been committed.
type PublishingPostRepository struct {
	PostRepository
	writer utils.EventWriter
}

// NewPublishingPostRepository wraps inner so writes emit events through w.
func NewPublishingPostRepository(inner PostRepository, w utils.EventWriter) *PublishingPostRepository {
	return &PublishingPostRepository{PostRepository: inner, writer: w}
}

func (r *PublishingPostRepository) Create(ctx context.Context, post models.Post) (models.Post, error) {
	created, err := r.PostRepository.Create(ctx, post)
	if err != nil {
		return models.Post{}, err
	}
	r.publish(ctx, PostEvent{Type: EventPostCreated, PostID: created.ID, Title: created.Title})
	return created, nil
}

func (r *PublishingPostRepository) Update(ctx context.Context, id uint, post models.Post) (models.Post, error) {
	updated, err := r.PostRepository.Update(ctx, id, post)
	if err != nil {
		return models.Post{}, err
	}
	r.publish(ctx, PostEvent{Type: EventPostUpdated, PostID: updated.ID, Title: updated.Title})
	return updated, nil
}

func (r *PublishingPostRepository) Delete(ctx context.Context, id uint) error {
	if err := r.PostRepository.Delete(ctx, id); err != nil {
		return err
	}
	r.publish(ctx, PostEvent{Type: EventPostDeleted, PostID: id})
	return nil
}

func (r *PublishingPostRepository) publish(ctx context.Context, ev PostEvent) {
	ev.At = time.Now().UTC()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := r.writer.WriteJSON(ctx, strconv.FormatUint(uint64(ev.PostID), 10), ev); err != nil {
		utils.Sugar.Warnf("publish %s for post %d failed: %v", ev.Type, ev.PostID, err)
	}
}

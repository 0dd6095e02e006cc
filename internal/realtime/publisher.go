package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"ms-foodcourt/internal/models"
)

// Publisher is the server side of the event channel: it pushes named events
// into product rooms when review or like state changes. Clients joined to
// the room receive them live; nothing is persisted or replayed.
type Publisher struct {
	client *redis.Client
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

func (p *Publisher) PublishReviewUpdate(ctx context.Context, productID int64, update models.ReviewUpdate) error {
	return p.publish(ctx, productID, models.EventProductReviewUpdate, update)
}

func (p *Publisher) PublishRatingUpdate(ctx context.Context, productID int64, update models.RatingUpdate) error {
	return p.publish(ctx, productID, models.EventProductRatingUpdate, update)
}

func (p *Publisher) PublishLikeUpdate(ctx context.Context, productID int64, update models.LikeUpdate) error {
	return p.publish(ctx, productID, models.EventProductLikeUpdate, update)
}

func (p *Publisher) publish(ctx context.Context, productID int64, event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", event, err)
	}
	raw, err := json.Marshal(envelope{Event: event, Data: data})
	if err != nil {
		return fmt.Errorf("marshal %s envelope: %w", event, err)
	}
	return p.client.Publish(ctx, ProductRoom(productID), raw).Err()
}

package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Robertosoftware/rentify-nl/internal/contextkeys"
	"github.com/Robertosoftware/rentify-nl/internal/core/port"
	"github.com/Robertosoftware/rentify-nl/pkg/rabbitmq/rabbitmq_producer"
)

// MatchCreatedDTO is the payload of a match.created event.
type MatchCreatedDTO struct {
	MatchID   uuid.UUID `json:"match_id"`
	UserID    uuid.UUID `json:"user_id"`
	Score     float64   `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

// MatchEnqueueAdapter publishes match.created events for the downstream
// notification dispatcher.
type MatchEnqueueAdapter struct {
	producer   *rabbitmq_producer.Publisher
	routingKey string
}

func NewMatchEnqueueAdapter(producer *rabbitmq_producer.Publisher, routingKey string) (*MatchEnqueueAdapter, error) {
	if producer == nil {
		return nil, fmt.Errorf("rabbitmq adapter: producer cannot be nil")
	}
	if routingKey == "" {
		return nil, fmt.Errorf("rabbitmq adapter: routingKey cannot be empty")
	}
	return &MatchEnqueueAdapter{
		producer:   producer,
		routingKey: routingKey,
	}, nil
}

func (a *MatchEnqueueAdapter) PublishMatchCreated(ctx context.Context, matchID uuid.UUID, userID uuid.UUID, score float64) error {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component":   "MatchEnqueueAdapter",
		"routing_key": a.routingKey,
		"match_id":    matchID.String(),
	})

	dto := MatchCreatedDTO{
		MatchID:   matchID,
		UserID:    userID,
		Score:     score,
		CreatedAt: time.Now().UTC(),
	}

	body, _ := json.Marshal(dto)

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Headers:      make(amqp.Table),
	}

	traceID := contextkeys.TraceIDFromContext(ctx)
	if traceID != "" {
		msg.Headers["x-trace-id"] = traceID
	}

	publishCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := a.producer.Publish(publishCtx, a.routingKey, msg); err != nil {
		logger.Error("Failed to publish match.created event", err, nil)
		return fmt.Errorf("rabbitmq adapter: failed to publish match %s: %w", matchID, err)
	}

	logger.Debug("Published match.created event", nil)
	return nil
}

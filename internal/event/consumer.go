package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JohannsenLum/chow/internal/domain"
	pkgkafka "github.com/JohannsenLum/chow/pkg/kafka"
)

// idempotencyTTL bounds how long processed event IDs are remembered.
const idempotencyTTL = 24 * time.Hour

// SessionRevoker applies a remote session revocation to the local store.
type SessionRevoker interface {
	ApplyRevocation(ctx context.Context, userID string, revokedAt time.Time) error
}

// ProfilePusher replaces the cached profile with a pushed row.
type ProfilePusher interface {
	ApplyPush(ctx context.Context, profile *domain.UserProfile) error
}

// ConsumerHandler routes incoming Kafka events to the appropriate handler.
type ConsumerHandler struct {
	sessions SessionRevoker
	profiles ProfilePusher
	logger   *slog.Logger
}

// NewConsumerHandler creates a new event consumer handler.
func NewConsumerHandler(sessions SessionRevoker, profiles ProfilePusher, logger *slog.Logger) *ConsumerHandler {
	return &ConsumerHandler{
		sessions: sessions,
		profiles: profiles,
		logger:   logger,
	}
}

// Handle processes an incoming Kafka event based on its event type.
func (h *ConsumerHandler) Handle(ctx context.Context, event *pkgkafka.Event) error {
	switch event.EventType {
	case TopicSessionRevoked:
		return h.handleSessionRevoked(ctx, event)
	case TopicProfileUpdated:
		return h.handleProfileUpdated(ctx, event)
	default:
		h.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}

// handleSessionRevoked clears persisted sessions issued before the
// revocation. Sessions issued afterwards are untouched, so a replayed event
// cannot clear a session that was just established.
func (h *ConsumerHandler) handleSessionRevoked(ctx context.Context, event *pkgkafka.Event) error {
	var data SessionRevokedData
	if err := event.UnmarshalData(&data); err != nil {
		return fmt.Errorf("unmarshal session.revoked data: %w", err)
	}

	if err := h.sessions.ApplyRevocation(ctx, data.UserID, data.RevokedAt); err != nil {
		return fmt.Errorf("apply session revocation: %w", err)
	}

	h.logger.InfoContext(ctx, "applied session revocation",
		slog.String("event_id", event.EventID),
		slog.String("user_id", data.UserID),
	)

	return nil
}

// handleProfileUpdated replaces the cached profile row wholesale with the
// pushed one.
func (h *ConsumerHandler) handleProfileUpdated(ctx context.Context, event *pkgkafka.Event) error {
	var data ProfileUpdatedData
	if err := event.UnmarshalData(&data); err != nil {
		return fmt.Errorf("unmarshal profile.updated data: %w", err)
	}

	if err := h.profiles.ApplyPush(ctx, &data.Profile); err != nil {
		return fmt.Errorf("apply profile push: %w", err)
	}

	h.logger.DebugContext(ctx, "applied pushed profile",
		slog.String("event_id", event.EventID),
		slog.String("user_id", data.Profile.ID),
	)

	return nil
}

// NewConsumers creates Kafka consumers for every topic the server subscribes
// to, with the handler wrapped for event-ID deduplication.
func NewConsumers(brokers []string, groupID string, handler *ConsumerHandler, logger *slog.Logger) []*pkgkafka.Consumer {
	store := pkgkafka.NewMemoryIdempotencyStore(idempotencyTTL)
	wrapped := pkgkafka.IdempotentHandler(store, handler.Handle, logger)

	topics := []string{
		TopicSessionRevoked,
		TopicProfileUpdated,
	}

	consumers := make([]*pkgkafka.Consumer, 0, len(topics))

	for _, topic := range topics {
		cfg := pkgkafka.ConsumerConfig{
			Brokers:  brokers,
			GroupID:  groupID,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 10e6,
		}

		consumers = append(consumers, pkgkafka.NewConsumer(cfg, wrapped, logger))
	}

	return consumers
}

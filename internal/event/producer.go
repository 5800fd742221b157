package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JohannsenLum/chow/internal/domain"
	pkgkafka "github.com/JohannsenLum/chow/pkg/kafka"
)

// Kafka topics for chow domain events.
const (
	TopicUserRegistered = "chow.user.registered"
	TopicProfileUpdated = "chow.profile.updated"
	TopicSessionRevoked = "chow.session.revoked"
	TopicQuestStarted   = "chow.quest.started"
	TopicQuestCompleted = "chow.quest.completed"
	TopicQuestClaimed   = "chow.quest.claimed"
)

// Aggregate type constant.
const AggregateTypeUser = "user"

// Source identifier for events originating from this server.
const SourceChowServer = "chow-server"

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// ProfileUpdatedData is the payload for a profile.updated event. It carries
// the full profile row so consumers can replace their copy wholesale.
type ProfileUpdatedData struct {
	Profile domain.UserProfile `json:"profile"`
}

// SessionRevokedData is the payload for a session.revoked event. RevokedAt
// lets consumers ignore events older than a session they just persisted.
type SessionRevokedData struct {
	UserID    string    `json:"user_id"`
	RevokedAt time.Time `json:"revoked_at"`
}

// QuestStatusData is the payload for quest.started and quest.completed events.
type QuestStatusData struct {
	UserID  string `json:"user_id"`
	QuestID string `json:"quest_id"`
	Status  string `json:"status"`
}

// QuestClaimedData is the payload for a quest.claimed event.
type QuestClaimedData struct {
	UserID          string `json:"user_id"`
	QuestID         string `json:"quest_id"`
	RewardExp       int    `json:"reward_exp"`
	RewardPawPoints int    `json:"reward_paw_points"`
}

// Producer publishes chow domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.UserProfile) error {
	data := UserRegisteredData{
		ID:          user.ID,
		Email:       user.Email,
		Username:    user.Username,
		DisplayName: user.DisplayName,
	}
	return p.publish(ctx, TopicUserRegistered, user.ID, data)
}

// PublishProfileUpdated publishes a profile.updated event carrying the full row.
func (p *Producer) PublishProfileUpdated(ctx context.Context, profile *domain.UserProfile) error {
	// Strip the hash before the row leaves the service.
	clean := *profile
	clean.PasswordHash = ""
	return p.publish(ctx, TopicProfileUpdated, profile.ID, ProfileUpdatedData{Profile: clean})
}

// PublishSessionRevoked publishes a session.revoked event.
func (p *Producer) PublishSessionRevoked(ctx context.Context, userID string, revokedAt time.Time) error {
	return p.publish(ctx, TopicSessionRevoked, userID, SessionRevokedData{UserID: userID, RevokedAt: revokedAt})
}

// PublishQuestStarted publishes a quest.started event.
func (p *Producer) PublishQuestStarted(ctx context.Context, userID, questID string) error {
	return p.publish(ctx, TopicQuestStarted, userID, QuestStatusData{
		UserID: userID, QuestID: questID, Status: domain.QuestStatusActive,
	})
}

// PublishQuestCompleted publishes a quest.completed event.
func (p *Producer) PublishQuestCompleted(ctx context.Context, userID, questID string) error {
	return p.publish(ctx, TopicQuestCompleted, userID, QuestStatusData{
		UserID: userID, QuestID: questID, Status: domain.QuestStatusCompleted,
	})
}

// PublishQuestClaimed publishes a quest.claimed event.
func (p *Producer) PublishQuestClaimed(ctx context.Context, userID, questID string, rewardExp, rewardPaw int) error {
	return p.publish(ctx, TopicQuestClaimed, userID, QuestClaimedData{
		UserID:          userID,
		QuestID:         questID,
		RewardExp:       rewardExp,
		RewardPawPoints: rewardPaw,
	})
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, AggregateTypeUser, SourceChowServer, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)

	return nil
}

package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JohannsenLum/chow/internal/domain"
	"github.com/JohannsenLum/chow/internal/repository"
	apperrors "github.com/JohannsenLum/chow/pkg/errors"
)

// QuestService drives the quest lifecycle: catalog listing, start, complete,
// claim, and the daily reset. Status only ever moves forward
// (available < active < completed < claimed); the guarded repository writes
// enforce that, and reset_daily_quests is the single backward path.
type QuestService struct {
	questRepo repository.QuestRepository
	profiles  *ProfileService
	producer  EventPublisher
	logger    *slog.Logger
}

// NewQuestService creates a new quest service.
func NewQuestService(
	questRepo repository.QuestRepository,
	profiles *ProfileService,
	producer EventPublisher,
	logger *slog.Logger,
) *QuestService {
	return &QuestService{
		questRepo: questRepo,
		profiles:  profiles,
		producer:  producer,
		logger:    logger,
	}
}

// ClaimResult is the outcome of a successful reward claim: the claimed quest
// row and the profile re-read after the transaction committed.
type ClaimResult struct {
	UserQuest *domain.UserQuest   `json:"user_quest"`
	Profile   *domain.UserProfile `json:"profile"`
}

// ListQuests returns the active quest catalog ordered by difficulty. A load
// failure is logged and yields the empty list so the caller can render an
// empty screen instead of an error.
func (s *QuestService) ListQuests(ctx context.Context) []domain.Quest {
	quests, err := s.questRepo.ListActive(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load quest catalog",
			slog.String("error", err.Error()),
		)
		return []domain.Quest{}
	}

	return quests
}

// ListUserQuests returns the user's quest rows with the catalog quest joined.
func (s *QuestService) ListUserQuests(ctx context.Context, userID string) ([]domain.UserQuest, error) {
	userQuests, err := s.questRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user quests: %w", err)
	}

	return userQuests, nil
}

// AvailableQuests returns the catalog quests the user has not progressed: no
// row at all, or a row still in the available status.
func (s *QuestService) AvailableQuests(ctx context.Context, userID string) ([]domain.Quest, error) {
	userQuests, err := s.questRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user quests: %w", err)
	}

	taken := make(map[string]bool, len(userQuests))
	for _, uq := range userQuests {
		if uq.Status != domain.QuestStatusAvailable {
			taken[uq.QuestID] = true
		}
	}

	available := []domain.Quest{}
	for _, q := range s.ListQuests(ctx) {
		if !taken[q.ID] {
			available = append(available, q)
		}
	}

	return available, nil
}

// ActiveQuests returns the user's quest rows in the active status.
func (s *QuestService) ActiveQuests(ctx context.Context, userID string) ([]domain.UserQuest, error) {
	return s.listByStatus(ctx, userID, domain.QuestStatusActive)
}

// CompletedQuests returns the user's completed and claimed quest rows. The
// two stay distinguishable on the row's status field.
func (s *QuestService) CompletedQuests(ctx context.Context, userID string) ([]domain.UserQuest, error) {
	return s.listByStatus(ctx, userID, domain.QuestStatusCompleted, domain.QuestStatusClaimed)
}

// ClaimedQuests returns only the rows whose reward was already claimed.
func (s *QuestService) ClaimedQuests(ctx context.Context, userID string) ([]domain.UserQuest, error) {
	return s.listByStatus(ctx, userID, domain.QuestStatusClaimed)
}

func (s *QuestService) listByStatus(ctx context.Context, userID string, statuses ...string) ([]domain.UserQuest, error) {
	userQuests, err := s.questRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user quests: %w", err)
	}

	filtered := []domain.UserQuest{}
	for _, uq := range userQuests {
		for _, status := range statuses {
			if uq.Status == status {
				filtered = append(filtered, uq)
				break
			}
		}
	}

	return filtered, nil
}

// StartQuest records that the user started a quest. Starting an
// already-active quest succeeds without changing the row; a completed or
// claimed quest is a conflict. An unknown or deactivated quest is NotFound.
func (s *QuestService) StartQuest(ctx context.Context, userID, questID string) (*domain.UserQuest, error) {
	quest, err := s.questRepo.GetByID(ctx, questID)
	if err != nil {
		return nil, fmt.Errorf("get quest: %w", err)
	}
	if !quest.IsActive {
		return nil, apperrors.NotFound("quest", questID)
	}

	userQuest, err := s.questRepo.Start(ctx, userID, questID)
	if err != nil {
		return nil, fmt.Errorf("start quest: %w", err)
	}
	userQuest.Quest = quest

	if err := s.producer.PublishQuestStarted(ctx, userID, questID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish quest.started event",
			slog.String("user_id", userID),
			slog.String("quest_id", questID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "quest started",
		slog.String("user_id", userID),
		slog.String("quest_id", questID),
	)

	return userQuest, nil
}

// CompleteQuest transitions the user's quest row from active to completed.
// Any other current status is a conflict, never a silent no-op.
func (s *QuestService) CompleteQuest(ctx context.Context, userID, questID string) (*domain.UserQuest, error) {
	userQuest, err := s.questRepo.Complete(ctx, userID, questID)
	if err != nil {
		return nil, fmt.Errorf("complete quest: %w", err)
	}

	if err := s.producer.PublishQuestCompleted(ctx, userID, questID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish quest.completed event",
			slog.String("user_id", userID),
			slog.String("quest_id", questID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "quest completed",
		slog.String("user_id", userID),
		slog.String("quest_id", questID),
	)

	return userQuest, nil
}

// ClaimReward marks a completed quest claimed and applies its reward to the
// user's point totals in a single transaction. The reward amounts come from
// the catalog row. A second claim conflicts and leaves the totals untouched.
// The returned profile is re-read from the database after commit.
func (s *QuestService) ClaimReward(ctx context.Context, userID, questID string) (*ClaimResult, error) {
	quest, err := s.questRepo.GetByID(ctx, questID)
	if err != nil {
		return nil, fmt.Errorf("get quest: %w", err)
	}

	updated, err := s.questRepo.Claim(ctx, userID, questID, quest.RewardExp, quest.RewardPawPoints)
	if err != nil {
		return nil, fmt.Errorf("claim reward: %w", err)
	}

	// Confirmed re-read through the profile service so the cache picks up
	// the committed totals.
	profile, err := s.profiles.Refresh(ctx, userID)
	if err != nil || profile == nil {
		// The claim itself committed; fall back to the row returned by the
		// transaction.
		profile = updated
	}

	userQuests, err := s.questRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user quests after claim: %w", err)
	}
	var claimed *domain.UserQuest
	for i := range userQuests {
		if userQuests[i].QuestID == questID {
			claimed = &userQuests[i]
			break
		}
	}

	if err := s.producer.PublishQuestClaimed(ctx, userID, questID, quest.RewardExp, quest.RewardPawPoints); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish quest.claimed event",
			slog.String("user_id", userID),
			slog.String("quest_id", questID),
			slog.String("error", err.Error()),
		)
	}
	if err := s.producer.PublishProfileUpdated(ctx, profile); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish profile.updated event",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "quest reward claimed",
		slog.String("user_id", userID),
		slog.String("quest_id", questID),
		slog.Int("reward_exp", quest.RewardExp),
		slog.Int("reward_paw_points", quest.RewardPawPoints),
	)

	return &ClaimResult{UserQuest: claimed, Profile: profile}, nil
}

// ResetDailyQuests invokes the server-side reset routine and returns the
// user's remaining quest rows. Eligibility lives entirely in the database
// function; nothing is validated here.
func (s *QuestService) ResetDailyQuests(ctx context.Context, userID string) ([]domain.UserQuest, error) {
	if err := s.questRepo.ResetDaily(ctx, userID); err != nil {
		return nil, fmt.Errorf("reset daily quests: %w", err)
	}

	s.logger.InfoContext(ctx, "daily quests reset", slog.String("user_id", userID))

	return s.ListUserQuests(ctx, userID)
}

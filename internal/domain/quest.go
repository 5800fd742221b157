package domain

import (
	"encoding/json"
	"time"
)

// Quest difficulty tiers.
const (
	DifficultyBasic    = "Basic"
	DifficultyAdvanced = "Advanced"
	DifficultyExpert   = "Expert"
)

// Quest categories.
const (
	CategoryWalk        = "walk"
	CategorySocial      = "social"
	CategoryHealth      = "health"
	CategoryDiscovery   = "discovery"
	CategoryMarketplace = "marketplace"
)

// Quest is an entry in the read-only quest catalog.
type Quest struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	RewardExp       int             `json:"reward_exp"`
	RewardPawPoints int             `json:"reward_paw_points"`
	Difficulty      string          `json:"difficulty"`
	Category        string          `json:"category"`
	Requirements    json.RawMessage `json:"requirements,omitempty"`
	IsActive        bool            `json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
}

// UserQuest statuses. A user with no row for a quest is implicitly
// "available". Statuses only move forward; reset_daily_quests is the single
// path back to available (by deleting the row).
const (
	QuestStatusAvailable = "available"
	QuestStatusActive    = "active"
	QuestStatusCompleted = "completed"
	QuestStatusClaimed   = "claimed"
)

// IsValidQuestStatus reports whether s is a recognized user-quest status.
func IsValidQuestStatus(s string) bool {
	switch s {
	case QuestStatusAvailable, QuestStatusActive, QuestStatusCompleted, QuestStatusClaimed:
		return true
	}
	return false
}

// UserQuest is a user's progress row for a catalog quest.
type UserQuest struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	QuestID     string          `json:"quest_id"`
	Status      string          `json:"status"`
	Progress    json.RawMessage `json:"progress,omitempty"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	ClaimedAt   *time.Time      `json:"claimed_at,omitempty"`

	// Quest is the joined catalog row, populated on list queries.
	Quest *Quest `json:"quest,omitempty"`
}

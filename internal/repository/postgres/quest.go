package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/JohannsenLum/chow/internal/domain"
	"github.com/JohannsenLum/chow/pkg/database"
	apperrors "github.com/JohannsenLum/chow/pkg/errors"
)

// QuestRepository implements repository.QuestRepository using PostgreSQL.
type QuestRepository struct {
	db database.DBTX
}

// NewQuestRepository creates a new PostgreSQL-backed quest repository.
func NewQuestRepository(db database.DBTX) *QuestRepository {
	return &QuestRepository{db: db}
}

const questColumns = `id, title, description, reward_exp, reward_paw_points, difficulty, category, requirements, is_active, created_at`

const userQuestColumns = `id, user_id, quest_id, status, progress, started_at, completed_at, claimed_at`

// ListActive returns the active quest catalog ordered by difficulty tier then title.
func (r *QuestRepository) ListActive(ctx context.Context) ([]domain.Quest, error) {
	query := `
		SELECT ` + questColumns + `
		FROM quests
		WHERE is_active = true
		ORDER BY CASE difficulty WHEN 'Basic' THEN 0 WHEN 'Advanced' THEN 1 ELSE 2 END, title`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list quests: %w", err)
	}
	defer rows.Close()

	var quests []domain.Quest
	for rows.Next() {
		var q domain.Quest
		if err := scanQuest(rows, &q); err != nil {
			return nil, fmt.Errorf("scan quest row: %w", err)
		}
		quests = append(quests, q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quest rows: %w", err)
	}

	if quests == nil {
		quests = []domain.Quest{}
	}

	return quests, nil
}

// GetByID retrieves a catalog quest by its ID.
func (r *QuestRepository) GetByID(ctx context.Context, id string) (*domain.Quest, error) {
	query := `SELECT ` + questColumns + ` FROM quests WHERE id = $1`

	var q domain.Quest
	err := r.db.QueryRow(ctx, query, id).Scan(
		&q.ID,
		&q.Title,
		&q.Description,
		&q.RewardExp,
		&q.RewardPawPoints,
		&q.Difficulty,
		&q.Category,
		&q.Requirements,
		&q.IsActive,
		&q.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan quest: %w", err)
	}

	return &q, nil
}

// ListByUserID returns all of a user's quest rows with the catalog quest joined.
func (r *QuestRepository) ListByUserID(ctx context.Context, userID string) ([]domain.UserQuest, error) {
	query := `
		SELECT uq.id, uq.user_id, uq.quest_id, uq.status, uq.progress, uq.started_at, uq.completed_at, uq.claimed_at,
		       q.id, q.title, q.description, q.reward_exp, q.reward_paw_points, q.difficulty, q.category, q.requirements, q.is_active, q.created_at
		FROM user_quests uq
		JOIN quests q ON q.id = uq.quest_id
		WHERE uq.user_id = $1
		ORDER BY uq.started_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list user quests: %w", err)
	}
	defer rows.Close()

	var userQuests []domain.UserQuest
	for rows.Next() {
		var uq domain.UserQuest
		var q domain.Quest
		if err := rows.Scan(
			&uq.ID,
			&uq.UserID,
			&uq.QuestID,
			&uq.Status,
			&uq.Progress,
			&uq.StartedAt,
			&uq.CompletedAt,
			&uq.ClaimedAt,
			&q.ID,
			&q.Title,
			&q.Description,
			&q.RewardExp,
			&q.RewardPawPoints,
			&q.Difficulty,
			&q.Category,
			&q.Requirements,
			&q.IsActive,
			&q.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan user quest row: %w", err)
		}
		uq.Quest = &q
		userQuests = append(userQuests, uq)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user quest rows: %w", err)
	}

	if userQuests == nil {
		userQuests = []domain.UserQuest{}
	}

	return userQuests, nil
}

// Start records that the user started a quest with a single idempotent upsert
// keyed on (user_id, quest_id). A leftover 'available' row is restarted in
// place; an existing 'active' row is reported as started; a completed or
// claimed row is a conflict.
func (r *QuestRepository) Start(ctx context.Context, userID, questID string) (*domain.UserQuest, error) {
	query := `
		INSERT INTO user_quests (id, user_id, quest_id, status, started_at)
		VALUES ($1, $2, $3, 'active', $4)
		ON CONFLICT (user_id, quest_id) DO UPDATE
		SET status = 'active', started_at = EXCLUDED.started_at, progress = NULL, completed_at = NULL, claimed_at = NULL
		WHERE user_quests.status = 'available'
		RETURNING ` + userQuestColumns

	var uq domain.UserQuest
	err := r.db.QueryRow(ctx, query, uuid.New().String(), userID, questID, time.Now().UTC()).Scan(
		&uq.ID,
		&uq.UserID,
		&uq.QuestID,
		&uq.Status,
		&uq.Progress,
		&uq.StartedAt,
		&uq.CompletedAt,
		&uq.ClaimedAt,
	)
	if err == nil {
		return &uq, nil
	}
	if isForeignKeyViolation(err) {
		return nil, apperrors.NotFound("quest", questID)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("start quest: %w", err)
	}

	// The upsert matched an existing row it was not allowed to touch. An
	// active row makes the call an idempotent success; anything further along
	// is a state conflict.
	existing, err := r.getUserQuest(ctx, userID, questID)
	if err != nil {
		return nil, fmt.Errorf("start quest: inspect existing row: %w", err)
	}
	if existing.Status == domain.QuestStatusActive {
		return existing, nil
	}
	return nil, apperrors.QuestState(fmt.Sprintf("quest %s is already %s", questID, existing.Status))
}

// Complete transitions an active quest row to completed. The status guard is
// in the WHERE clause so a stale client can never regress or re-complete a row.
func (r *QuestRepository) Complete(ctx context.Context, userID, questID string) (*domain.UserQuest, error) {
	query := `
		UPDATE user_quests
		SET status = 'completed', completed_at = $3
		WHERE user_id = $1 AND quest_id = $2 AND status = 'active'
		RETURNING ` + userQuestColumns

	var uq domain.UserQuest
	err := r.db.QueryRow(ctx, query, userID, questID, time.Now().UTC()).Scan(
		&uq.ID,
		&uq.UserID,
		&uq.QuestID,
		&uq.Status,
		&uq.Progress,
		&uq.StartedAt,
		&uq.CompletedAt,
		&uq.ClaimedAt,
	)
	if err == nil {
		return &uq, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("complete quest: %w", err)
	}

	existing, getErr := r.getUserQuest(ctx, userID, questID)
	if getErr != nil {
		if errors.Is(getErr, apperrors.ErrNotFound) {
			return nil, apperrors.QuestState(fmt.Sprintf("quest %s has not been started", questID))
		}
		return nil, fmt.Errorf("complete quest: inspect existing row: %w", getErr)
	}
	return nil, apperrors.QuestState(fmt.Sprintf("quest %s is %s, not active", questID, existing.Status))
}

// Claim marks a completed quest row claimed and applies the reward to the
// user's point totals in one transaction. The zero-row guard on the status
// update aborts a second claim before any totals are touched, and the row
// lock on users serializes concurrent claims from multiple devices.
func (r *QuestRepository) Claim(ctx context.Context, userID, questID string, rewardExp, rewardPaw int) (*domain.UserProfile, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin claim transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx,
		`UPDATE user_quests SET status = 'claimed', claimed_at = $3 WHERE user_id = $1 AND quest_id = $2 AND status = 'completed'`,
		userID, questID, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("mark quest claimed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return nil, apperrors.QuestState(fmt.Sprintf("quest %s is not completed or its reward was already claimed", questID))
	}

	// Current totals, read under lock: never a cached or stale value.
	var u domain.UserProfile
	err = tx.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`,
		userID,
	).Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.PasswordHash,
		&u.DisplayName,
		&u.Bio,
		&u.AvatarURL,
		&u.ExpPoints,
		&u.PawPoints,
		&u.Level,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("user", userID)
		}
		return nil, fmt.Errorf("lock user row for claim: %w", err)
	}

	u.ExpPoints += rewardExp
	u.PawPoints += rewardPaw
	u.Level = domain.LevelForExp(u.ExpPoints)
	u.UpdatedAt = time.Now().UTC()

	_, err = tx.Exec(ctx,
		`UPDATE users SET exp_points = $1, paw_points = $2, level = $3, updated_at = $4 WHERE id = $5`,
		u.ExpPoints, u.PawPoints, u.Level, u.UpdatedAt, u.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("apply reward to user: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit claim transaction: %w", err)
	}

	return &u, nil
}

// ResetDaily invokes the server-side reset_daily_quests routine. Eligibility
// rules live entirely in the database function.
func (r *QuestRepository) ResetDaily(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `SELECT reset_daily_quests($1)`, userID)
	if err != nil {
		return fmt.Errorf("reset daily quests: %w", err)
	}
	return nil
}

// getUserQuest fetches a single user quest row without the catalog join.
func (r *QuestRepository) getUserQuest(ctx context.Context, userID, questID string) (*domain.UserQuest, error) {
	query := `SELECT ` + userQuestColumns + ` FROM user_quests WHERE user_id = $1 AND quest_id = $2`

	var uq domain.UserQuest
	err := r.db.QueryRow(ctx, query, userID, questID).Scan(
		&uq.ID,
		&uq.UserID,
		&uq.QuestID,
		&uq.Status,
		&uq.Progress,
		&uq.StartedAt,
		&uq.CompletedAt,
		&uq.ClaimedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan user quest: %w", err)
	}

	return &uq, nil
}

// scanQuest scans a quest catalog row from a pgx.Rows cursor.
func scanQuest(rows pgx.Rows, q *domain.Quest) error {
	return rows.Scan(
		&q.ID,
		&q.Title,
		&q.Description,
		&q.RewardExp,
		&q.RewardPawPoints,
		&q.Difficulty,
		&q.Category,
		&q.Requirements,
		&q.IsActive,
		&q.CreatedAt,
	)
}

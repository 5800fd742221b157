package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/JohannsenLum/chow/internal/domain"
	"github.com/JohannsenLum/chow/pkg/database"
	apperrors "github.com/JohannsenLum/chow/pkg/errors"
)

// PetRepository implements repository.PetRepository using PostgreSQL.
type PetRepository struct {
	db database.DBTX
}

// NewPetRepository creates a new PostgreSQL-backed pet repository.
func NewPetRepository(db database.DBTX) *PetRepository {
	return &PetRepository{db: db}
}

const petColumns = `id, owner_id, name, species, breed, age, gender, avatar_emoji, bio, is_public, created_at, updated_at`

// Create inserts a new pet into the database.
func (r *PetRepository) Create(ctx context.Context, p *domain.Pet) error {
	query := `
		INSERT INTO pets (id, owner_id, name, species, breed, age, gender, avatar_emoji, bio, is_public, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.Exec(ctx, query,
		p.ID,
		p.OwnerID,
		p.Name,
		p.Species,
		p.Breed,
		p.Age,
		p.Gender,
		p.AvatarEmoji,
		p.Bio,
		p.IsPublic,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.NotFound("user", p.OwnerID)
		}
		return fmt.Errorf("insert pet: %w", err)
	}

	return nil
}

// GetByID retrieves a pet by its ID.
func (r *PetRepository) GetByID(ctx context.Context, id string) (*domain.Pet, error) {
	query := `SELECT ` + petColumns + ` FROM pets WHERE id = $1`

	var p domain.Pet
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.OwnerID,
		&p.Name,
		&p.Species,
		&p.Breed,
		&p.Age,
		&p.Gender,
		&p.AvatarEmoji,
		&p.Bio,
		&p.IsPublic,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan pet: %w", err)
	}

	return &p, nil
}

// ListByOwnerID returns all pets for the given owner.
func (r *PetRepository) ListByOwnerID(ctx context.Context, ownerID string) ([]domain.Pet, error) {
	query := `SELECT ` + petColumns + ` FROM pets WHERE owner_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list pets: %w", err)
	}
	defer rows.Close()

	var pets []domain.Pet
	for rows.Next() {
		var p domain.Pet
		if err := rows.Scan(
			&p.ID,
			&p.OwnerID,
			&p.Name,
			&p.Species,
			&p.Breed,
			&p.Age,
			&p.Gender,
			&p.AvatarEmoji,
			&p.Bio,
			&p.IsPublic,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan pet row: %w", err)
		}
		pets = append(pets, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pet rows: %w", err)
	}

	if pets == nil {
		pets = []domain.Pet{}
	}

	return pets, nil
}

// Update modifies an existing pet in the database.
func (r *PetRepository) Update(ctx context.Context, p *domain.Pet) error {
	p.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE pets
		SET name = $1, species = $2, breed = $3, age = $4, gender = $5,
		    avatar_emoji = $6, bio = $7, is_public = $8, updated_at = $9
		WHERE id = $10`

	ct, err := r.db.Exec(ctx, query,
		p.Name,
		p.Species,
		p.Breed,
		p.Age,
		p.Gender,
		p.AvatarEmoji,
		p.Bio,
		p.IsPublic,
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("update pet: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("pet", p.ID)
	}

	return nil
}

// Delete removes a pet from the database by its ID.
func (r *PetRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM pets WHERE id = $1`

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete pet: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("pet", id)
	}

	return nil
}

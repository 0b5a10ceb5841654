package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"bloodlink/internal/domain"
)

type ActorRepository interface {
	// Upsert inserts the actor or refreshes name, email and role. Location and blood group are kept.
	Upsert(ctx context.Context, actor *domain.Actor) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Actor, error)
	UpdateProfile(ctx context.Context, actor *domain.Actor) error
	UpdateLocation(ctx context.Context, id uuid.UUID, location *domain.Point) error
	ListLocated(ctx context.Context) ([]domain.Actor, error)
}

type actorRepository struct {
	db *sqlx.DB
}

func NewActorRepository(db *sqlx.DB) ActorRepository {
	return &actorRepository{db: db}
}

func (r *actorRepository) Upsert(ctx context.Context, actor *domain.Actor) error {
	query := `
		INSERT INTO actors (id, name, email, role, blood_group)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, email = EXCLUDED.email, role = EXCLUDED.role, updated_at = NOW()
		RETURNING blood_group, latitude, longitude, created_at, updated_at`

	return r.db.QueryRowxContext(ctx, query,
		actor.ID, actor.Name, actor.Email, actor.Role, actor.BloodGroup,
	).Scan(&actor.BloodGroup, &actor.Latitude, &actor.Longitude, &actor.CreatedAt, &actor.UpdatedAt)
}

func (r *actorRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Actor, error) {
	var actor domain.Actor
	err := r.db.GetContext(ctx, &actor, `SELECT * FROM actors WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("actor %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &actor, nil
}

func (r *actorRepository) UpdateProfile(ctx context.Context, actor *domain.Actor) error {
	query := `
		UPDATE actors
		SET name = :name, email = :email, blood_group = :blood_group, updated_at = NOW()
		WHERE id = :id`

	_, err := r.db.NamedExecContext(ctx, query, actor)
	return err
}

func (r *actorRepository) UpdateLocation(ctx context.Context, id uuid.UUID, location *domain.Point) error {
	var lat, lng *float64
	if location != nil {
		lat, lng = &location.Latitude, &location.Longitude
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE actors SET latitude = $2, longitude = $3, updated_at = NOW() WHERE id = $1`,
		id, lat, lng,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("actor %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *actorRepository) ListLocated(ctx context.Context) ([]domain.Actor, error) {
	var actors []domain.Actor
	query := `SELECT * FROM actors WHERE latitude IS NOT NULL AND longitude IS NOT NULL AND role <> 'admin'`
	err := r.db.SelectContext(ctx, &actors, query)
	return actors, err
}

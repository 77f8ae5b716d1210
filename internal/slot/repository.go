package slot

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	// ListByArea returns every slot of the named area ordered by start time.
	// An unknown area yields ErrAreaNotFound; an area without slots yields an empty list.
	ListByArea(ctx context.Context, areaName string) ([]*Slot, error)
	GetByID(ctx context.Context, id string) (*Slot, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) ListByArea(ctx context.Context, areaName string) ([]*Slot, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	areaQuery, areaArgs, err := psql.Select("id").
		From("public.areas").
		Where(squirrel.Expr("lower(name) = lower(?)", areaName)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get area query failed: %w", err)
	}

	var areaID string
	if err := r.pool.QueryRow(ctx, areaQuery, areaArgs...).Scan(&areaID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAreaNotFound
		}
		return nil, fmt.Errorf("get area failed: %w", err)
	}

	query, args, err := psql.Select(
		"s.id", "s.area_id", "a.name", "s.start_time", "s.end_time", "s.price",
	).
		From("public.slots s").
		Join("public.areas a ON s.area_id = a.id").
		Where(squirrel.Eq{"s.area_id": areaID}).
		OrderBy("s.start_time ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list slots query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list slots failed: %w", err)
	}
	defer rows.Close()

	slots := make([]*Slot, 0)
	for rows.Next() {
		var s Slot
		if err := rows.Scan(&s.ID, &s.AreaID, &s.AreaName, &s.StartTime, &s.EndTime, &s.Price); err != nil {
			return nil, fmt.Errorf("scan slot failed: %w", err)
		}
		slots = append(slots, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slots failed: %w", err)
	}

	return slots, nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Slot, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(
		"s.id", "s.area_id", "a.name", "s.start_time", "s.end_time", "s.price",
	).
		From("public.slots s").
		Join("public.areas a ON s.area_id = a.id").
		Where(squirrel.Eq{"s.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get slot query failed: %w", err)
	}

	var s Slot
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&s.ID, &s.AreaID, &s.AreaName, &s.StartTime, &s.EndTime, &s.Price,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get slot failed: %w", err)
	}
	return &s, nil
}

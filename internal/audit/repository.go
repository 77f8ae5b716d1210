package audit

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Append(ctx context.Context, e *Entry) error
	ListByUser(ctx context.Context, userID string, limit int) ([]*Entry, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) Append(ctx context.Context, e *Entry) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.booking_events").
		Columns(
			"kind", "user_id", "slot_id", "area_id", "date",
			"price", "advance_payment", "due_payment", "session_id", "client", "detail",
		).
		Values(
			e.Kind, e.UserID, e.SlotID, e.AreaID, e.Date,
			e.Price, e.AdvancePayment, e.DuePayment, e.SessionID, e.Client, e.Detail,
		).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build append audit query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&e.ID, &e.CreatedAt); err != nil {
		return fmt.Errorf("append audit entry failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*Entry, error) {
	if limit < 1 {
		limit = 50
	}

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(
		"id", "kind", "user_id", "slot_id", "area_id", "date",
		"price", "advance_payment", "due_payment", "session_id", "client", "detail", "created_at",
	).
		From("public.booking_events").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list audit query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit entries failed: %w", err)
	}
	defer rows.Close()

	entries := make([]*Entry, 0)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.ID, &e.Kind, &e.UserID, &e.SlotID, &e.AreaID, &e.Date,
			&e.Price, &e.AdvancePayment, &e.DuePayment, &e.SessionID, &e.Client, &e.Detail, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry failed: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries failed: %w", err)
	}
	return entries, nil
}

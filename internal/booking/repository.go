package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Names of the unique indexes guarding finalize, see internal/db/schema.sql.
const (
	paidSlotConstraint = "bookings_slot_date_paid_key"
	sessionConstraint  = "bookings_session_id_key"
)

var bookingColumns = []string{
	"b.id", "b.user_id", "b.user_email", "b.slot_id", "b.area_id", "to_char(b.date, 'YYYY-MM-DD')",
	"b.price", "b.advance_payment", "b.due_payment", "b.payment_status", "coalesce(b.session_id, '')", "b.created_at",
}

type Repository interface {
	GetByID(ctx context.Context, id string) (*Booking, error)
	GetBySession(ctx context.Context, sessionID string) (*Booking, error)
	ListByDate(ctx context.Context, date string) ([]*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)

	// ExistsPaid reports whether the slot already has a paid booking on date.
	ExistsPaid(ctx context.Context, slotID, date string) (bool, error)

	// Finalize creates a paid booking unless one exists for the same session,
	// in which case that record is returned with created=false. A paid booking for
	// the same slot and date under another session yields ErrSlotTaken.
	Finalize(ctx context.Context, req FinalizeRequest) (*Booking, bool, error)

	// Cancel deletes the user's booking and records the cancellation in one transaction.
	Cancel(ctx context.Context, id, userID string, refundDueBy time.Time) (*Cancellation, error)

	// MarkOverdueRefunds flags pending refunds whose due date has passed.
	MarkOverdueRefunds(ctx context.Context, now time.Time) (int64, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func scanBooking(row pgx.Row, extra ...any) (*Booking, error) {
	var b Booking
	dst := []any{
		&b.ID, &b.UserID, &b.UserEmail, &b.SlotID, &b.AreaID, &b.Date,
		&b.Price, &b.AdvancePayment, &b.DuePayment, &b.PaymentStatus, &b.SessionID, &b.CreatedAt,
	}
	if err := row.Scan(append(dst, extra...)...); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *pgxRepository) getOne(ctx context.Context, where squirrel.Eq) (*Booking, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(bookingColumns...).
		From("public.bookings b").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	b, err := scanBooking(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking failed: %w", err)
	}
	return b, nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	return r.getOne(ctx, squirrel.Eq{"b.id": id})
}

func (r *pgxRepository) GetBySession(ctx context.Context, sessionID string) (*Booking, error) {
	return r.getOne(ctx, squirrel.Eq{"b.session_id": sessionID})
}

func (r *pgxRepository) ListByDate(ctx context.Context, date string) ([]*Booking, error) {
	day, err := ParseDate(date)
	if err != nil {
		return nil, err
	}

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(bookingColumns...).
		From("public.bookings b").
		Where(squirrel.Eq{"b.date": day}).
		OrderBy("b.created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	bookings := make([]*Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings failed: %w", err)
	}
	return bookings, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(append(bookingColumns, "count(*) OVER() as total_count")...).
		From("public.bookings b")

	if filter.UserID != "" {
		query = query.Where(squirrel.Eq{"b.user_id": filter.UserID})
	}

	// Pagination
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	query = query.OrderBy("b.date DESC", "b.created_at DESC").
		Limit(uint64(filter.PageSize)).
		Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	var total int
	for rows.Next() {
		b, err := scanBooking(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate bookings failed: %w", err)
	}

	return bookings, total, nil
}

func (r *pgxRepository) ExistsPaid(ctx context.Context, slotID, date string) (bool, error) {
	day, err := ParseDate(date)
	if err != nil {
		return false, err
	}

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("1").
		From("public.bookings").
		Where(squirrel.Eq{"slot_id": slotID, "date": day, "payment_status": PaymentPaid}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists paid query failed: %w", err)
	}

	var one int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check paid booking failed: %w", err)
	}
	return true, nil
}

func (r *pgxRepository) Finalize(ctx context.Context, req FinalizeRequest) (*Booking, bool, error) {
	// Repeat verifies of the same session resolve here without touching the index.
	existing, err := r.GetBySession(ctx, req.SessionID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	day, err := ParseDate(req.Date)
	if err != nil {
		return nil, false, err
	}

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	// A session whose booking was cancelled never produces a booking again.
	row := squirrel.Select().
		Column(squirrel.Expr("?::text", req.UserID)).
		Column(squirrel.Expr("?::text", req.UserEmail)).
		Column(squirrel.Expr("?::uuid", req.SlotID)).
		Column(squirrel.Expr("?::uuid", req.AreaID)).
		Column(squirrel.Expr("?::date", day)).
		Column(squirrel.Expr("?::bigint", req.Price)).
		Column(squirrel.Expr("?::bigint", req.AdvancePayment)).
		Column(squirrel.Expr("?::bigint", req.DuePayment)).
		Column(squirrel.Expr("?::text", string(PaymentPaid))).
		Column(squirrel.Expr("?::text", req.SessionID)).
		Where(squirrel.Expr("NOT EXISTS (SELECT 1 FROM public.booking_cancellations c WHERE c.session_id = ?)", req.SessionID))

	query, args, err := psql.Insert("public.bookings AS b").
		Columns(
			"user_id", "user_email", "slot_id", "area_id", "date",
			"price", "advance_payment", "due_payment", "payment_status", "session_id",
		).
		Select(row).
		Suffix("RETURNING " + strings.Join(bookingColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("build finalize booking query failed: %w", err)
	}

	b, err := scanBooking(r.pool.QueryRow(ctx, query, args...))
	if err == nil {
		return b, true, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, ErrSessionCancelled
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == sessionConstraint:
			// A concurrent verify of the same session won the insert.
			existing, getErr := r.GetBySession(ctx, req.SessionID)
			if getErr != nil {
				return nil, false, getErr
			}
			return existing, false, nil
		case pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == paidSlotConstraint:
			return nil, false, ErrSlotTaken
		case pgErr.Code == pgerrcode.ForeignKeyViolation:
			return nil, false, ErrUnknownSlot
		}
	}
	return nil, false, fmt.Errorf("finalize booking failed: %w", err)
}

func (r *pgxRepository) Cancel(ctx context.Context, id, userID string, refundDueBy time.Time) (*Cancellation, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin cancel tx failed: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	delQuery, delArgs, err := psql.Delete("public.bookings AS b").
		Where(squirrel.Eq{"b.id": id, "b.user_id": userID}).
		Suffix("RETURNING " + strings.Join(bookingColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build delete booking query failed: %w", err)
	}

	b, err := scanBooking(tx.QueryRow(ctx, delQuery, delArgs...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("delete booking failed: %w", err)
	}
	day, err := ParseDate(b.Date)
	if err != nil {
		return nil, err
	}

	c := &Cancellation{
		BookingID:      b.ID,
		UserID:         b.UserID,
		SlotID:         b.SlotID,
		AreaID:         b.AreaID,
		Date:           b.Date,
		Price:          b.Price,
		AdvancePayment: b.AdvancePayment,
		RefundAmount:   b.AdvancePayment,
		RefundDueBy:    refundDueBy.UTC(),
		RefundStatus:   RefundPending,
		SessionID:      b.SessionID,
	}

	insQuery, insArgs, err := psql.Insert("public.booking_cancellations").
		Columns(
			"booking_id", "user_id", "slot_id", "area_id", "date", "price", "advance_payment",
			"refund_amount", "refund_due_by", "refund_status", "session_id",
		).
		Values(
			c.BookingID, c.UserID, c.SlotID, c.AreaID, day, c.Price, c.AdvancePayment,
			c.RefundAmount, c.RefundDueBy, c.RefundStatus, c.SessionID,
		).
		Suffix("RETURNING id, cancelled_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert cancellation query failed: %w", err)
	}
	if err := tx.QueryRow(ctx, insQuery, insArgs...).Scan(&c.ID, &c.CancelledAt); err != nil {
		return nil, fmt.Errorf("insert cancellation failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit cancel tx failed: %w", err)
	}
	return c, nil
}

func (r *pgxRepository) MarkOverdueRefunds(ctx context.Context, now time.Time) (int64, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.booking_cancellations").
		Set("refund_status", RefundOverdue).
		Where(squirrel.Eq{"refund_status": RefundPending}).
		Where(squirrel.Lt{"refund_due_by": now.UTC()}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build mark overdue query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("mark overdue refunds failed: %w", err)
	}
	return ct.RowsAffected(), nil
}

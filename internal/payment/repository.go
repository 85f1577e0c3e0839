package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/partypallet/decor-booking-backend/internal/db"
)

type Repository interface {
	// WithTx returns a repository bound to the given transaction.
	WithTx(tx pgx.Tx) Repository

	Create(ctx context.Context, p *Payment) error
	Update(ctx context.Context, p *Payment) error
	GetByReference(ctx context.Context, reference string) (*Payment, error)
	ListByBooking(ctx context.Context, bookingID string) ([]*Payment, error)
	// LatestByBooking returns the most recently created payment for the
	// booking, or ErrNotFound.
	LatestByBooking(ctx context.Context, bookingID string) (*Payment, error)
	// SumSuccessful totals successful payment amounts (minor units) for the
	// booking.
	SumSuccessful(ctx context.Context, bookingID string) (int64, error)
}

type pgxRepository struct {
	db db.Querier
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{db: pool}
}

func (r *pgxRepository) WithTx(tx pgx.Tx) Repository {
	return &pgxRepository{db: tx}
}

var paymentColumns = []string{
	"id", "booking_id", "provider", "reference", "amount", "currency",
	"status", "payment_date", "channel", "failure_reason", "raw",
	"created_at", "updated_at",
}

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	err := row.Scan(
		&p.ID, &p.BookingID, &p.Provider, &p.Reference, &p.Amount, &p.Currency,
		&p.Status, &p.PaymentDate, &p.Channel, &p.FailureReason, &p.Raw,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *pgxRepository) Create(ctx context.Context, p *Payment) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.payments").
		Columns("booking_id", "provider", "reference", "amount", "currency", "status", "raw").
		Values(p.BookingID, p.Provider, p.Reference, p.Amount, p.Currency, p.Status, p.Raw).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create payment query failed: %w", err)
	}

	row := r.db.QueryRow(ctx, query, args...)
	if err := row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if db.IsUniqueViolation(err) {
			return ErrDuplicateReference
		}
		return fmt.Errorf("create payment failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) Update(ctx context.Context, p *Payment) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.payments").
		SetMap(map[string]any{
			"status":         p.Status,
			"payment_date":   p.PaymentDate,
			"channel":        p.Channel,
			"failure_reason": p.FailureReason,
			"raw":            p.Raw,
			"updated_at":     squirrel.Expr("now()"),
		}).
		Where(squirrel.Eq{"id": p.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update payment query failed: %w", err)
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update payment failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) GetByReference(ctx context.Context, reference string) (*Payment, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(paymentColumns...).
		From("public.payments").
		Where(squirrel.Eq{"reference": reference}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get payment query failed: %w", err)
	}

	p, err := scanPayment(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get payment failed: %w", err)
	}
	return p, nil
}

func (r *pgxRepository) ListByBooking(ctx context.Context, bookingID string) ([]*Payment, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(paymentColumns...).
		From("public.payments").
		Where(squirrel.Eq{"booking_id": bookingID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list payments query failed: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list payments failed: %w", err)
	}
	defer rows.Close()

	var payments []*Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment failed: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, nil
}

func (r *pgxRepository) LatestByBooking(ctx context.Context, bookingID string) (*Payment, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(paymentColumns...).
		From("public.payments").
		Where(squirrel.Eq{"booking_id": bookingID}).
		OrderBy("created_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build latest payment query failed: %w", err)
	}

	p, err := scanPayment(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get latest payment failed: %w", err)
	}
	return p, nil
}

func (r *pgxRepository) SumSuccessful(ctx context.Context, bookingID string) (int64, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("COALESCE(SUM(amount), 0)").
		From("public.payments").
		Where(squirrel.Eq{"booking_id": bookingID, "status": StatusSuccess}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build sum payments query failed: %w", err)
	}

	var total int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum payments failed: %w", err)
	}
	return total, nil
}

package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/partypallet/decor-booking-backend/internal/db"
)

type Repository interface {
	// WithTx returns a repository bound to the given transaction.
	WithTx(tx pgx.Tx) Repository

	// Create inserts the booking and its initial history entry.
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)
	Update(ctx context.Context, b *Booking) error

	// HasOverlap reports whether any non-cancelled booking other than
	// excludeID occupies a window overlapping [start, end) on date.
	HasOverlap(ctx context.Context, date time.Time, start, end, excludeID string) (bool, error)
	// AppendHistory records a status change without touching the booking row.
	AppendHistory(ctx context.Context, bookingID string, entry HistoryEntry) error
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

var bookingColumns = []string{
	"id", "client_name", "client_email", "client_phone",
	"event_type", "event_title", "event_location", "event_date",
	"event_start_time", "event_end_time", "consultation_mode", "event_notes",
	"price_estimate", "overnight_surcharge", "deposit_required", "currency", "final_agreed_price",
	"notes", "is_overnight", "status",
	"cancellation_reason", "cancellation_date", "created_at", "updated_at",
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	err := row.Scan(
		&b.ID, &b.Client.FullName, &b.Client.Email, &b.Client.Phone,
		&b.Event.Type, &b.Event.Title, &b.Event.Location, &b.Event.Date,
		&b.Event.StartTime, &b.Event.EndTime, &b.Event.ConsultationMode, &b.Event.Notes,
		&b.Pricing.Estimate, &b.Pricing.OvernightSurcharge, &b.Pricing.DepositRequired,
		&b.Pricing.Currency, &b.Pricing.FinalAgreed,
		&b.Notes, &b.IsOvernight, &b.Status,
		&b.CancellationReason, &b.CancellationDate, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *pgxRepository) Create(ctx context.Context, b *Booking) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.bookings").
		Columns(
			"client_name", "client_email", "client_phone",
			"event_type", "event_title", "event_location", "event_date",
			"event_start_time", "event_end_time", "consultation_mode", "event_notes",
			"price_estimate", "overnight_surcharge", "deposit_required", "currency", "final_agreed_price",
			"notes", "is_overnight", "status",
		).
		Values(
			b.Client.FullName, b.Client.Email, b.Client.Phone,
			b.Event.Type, b.Event.Title, b.Event.Location, b.Event.Date,
			b.Event.StartTime, b.Event.EndTime, b.Event.ConsultationMode, b.Event.Notes,
			b.Pricing.Estimate, b.Pricing.OvernightSurcharge, b.Pricing.DepositRequired,
			b.Pricing.Currency, b.Pricing.FinalAgreed,
			b.Notes, b.IsOvernight, b.Status,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create booking query failed: %w", err)
	}

	row := r.db.QueryRow(ctx, query, args...)
	if err := row.Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return fmt.Errorf("create booking failed: %w", err)
	}

	for _, entry := range b.StatusHistory {
		if err := r.AppendHistory(ctx, b.ID, entry); err != nil {
			return err
		}
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(bookingColumns...).
		From("public.bookings").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	b, err := scanBooking(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking failed: %w", err)
	}

	if b.StatusHistory, err = r.history(ctx, b.ID); err != nil {
		return nil, err
	}
	if b.PaymentIDs, err = r.paymentIDs(ctx, b.ID); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	pred := squirrel.And{}
	if filter.Status != "" {
		pred = append(pred, squirrel.Eq{"status": filter.Status})
	}
	if filter.Email != "" {
		pred = append(pred, squirrel.Eq{"client_email": filter.Email})
	}
	if filter.Date != nil {
		pred = append(pred, squirrel.Eq{"event_date": *filter.Date})
	}

	countBuilder := psql.Select("COUNT(*)").From("public.bookings")
	if len(pred) > 0 {
		countBuilder = countBuilder.Where(pred)
	}
	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count bookings query failed: %w", err)
	}
	var total int
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count bookings failed: %w", err)
	}

	builder := psql.Select(bookingColumns...).
		From("public.bookings").
		OrderBy("event_date ASC", "event_start_time ASC").
		Limit(uint64(filter.PageSize)).
		Offset(uint64((filter.Page - 1) * filter.PageSize))
	if len(pred) > 0 {
		builder = builder.Where(pred)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, total, nil
}

func (r *pgxRepository) Update(ctx context.Context, b *Booking) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.bookings").
		SetMap(map[string]any{
			"client_name":         b.Client.FullName,
			"client_email":        b.Client.Email,
			"client_phone":        b.Client.Phone,
			"event_type":          b.Event.Type,
			"event_title":         b.Event.Title,
			"event_location":      b.Event.Location,
			"event_date":          b.Event.Date,
			"event_start_time":    b.Event.StartTime,
			"event_end_time":      b.Event.EndTime,
			"consultation_mode":   b.Event.ConsultationMode,
			"event_notes":         b.Event.Notes,
			"price_estimate":      b.Pricing.Estimate,
			"overnight_surcharge": b.Pricing.OvernightSurcharge,
			"deposit_required":    b.Pricing.DepositRequired,
			"currency":            b.Pricing.Currency,
			"final_agreed_price":  b.Pricing.FinalAgreed,
			"notes":               b.Notes,
			"is_overnight":        b.IsOvernight,
			"status":              b.Status,
			"cancellation_reason": b.CancellationReason,
			"cancellation_date":   b.CancellationDate,
			"updated_at":          squirrel.Expr("now()"),
		}).
		Where(squirrel.Eq{"id": b.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update booking query failed: %w", err)
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update booking failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) HasOverlap(ctx context.Context, date time.Time, start, end, excludeID string) (bool, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	pred := squirrel.And{
		squirrel.Eq{"event_date": date},
		squirrel.NotEq{"status": StatusCancelled},
		squirrel.Lt{"event_start_time": end},
		squirrel.Gt{"event_end_time": start},
	}
	if excludeID != "" {
		pred = append(pred, squirrel.NotEq{"id": excludeID})
	}

	query, args, err := psql.Select("COUNT(*)").
		From("public.bookings").
		Where(pred).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build overlap query failed: %w", err)
	}

	var n int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("check booking overlap failed: %w", err)
	}
	return n > 0, nil
}

func (r *pgxRepository) AppendHistory(ctx context.Context, bookingID string, entry HistoryEntry) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.booking_status_history").
		Columns("booking_id", "status", "changed_at", "changed_by", "note").
		Values(bookingID, entry.Status, entry.ChangedAt, entry.ChangedBy, entry.Note).
		ToSql()
	if err != nil {
		return fmt.Errorf("build append history query failed: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("append booking history failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) history(ctx context.Context, bookingID string) ([]HistoryEntry, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("status", "changed_at", "changed_by", "note").
		From("public.booking_status_history").
		Where(squirrel.Eq{"booking_id": bookingID}).
		OrderBy("changed_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build history query failed: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list booking history failed: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.Status, &e.ChangedAt, &e.ChangedBy, &e.Note); err != nil {
			return nil, fmt.Errorf("scan history entry failed: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (r *pgxRepository) paymentIDs(ctx context.Context, bookingID string) ([]string, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("id").
		From("public.payments").
		Where(squirrel.Eq{"booking_id": bookingID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build payment ids query failed: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list booking payments failed: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan payment id failed: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

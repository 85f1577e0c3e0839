package availability

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

	GetByDate(ctx context.Context, date time.Time) (*Availability, error)
	GetRange(ctx context.Context, start, end time.Time) ([]*Availability, error)
	GetAll(ctx context.Context) ([]*Availability, error)

	// UpsertDay creates the day record if absent, otherwise updates its flag.
	UpsertDay(ctx context.Context, date time.Time, isAvailable bool) error
	// ReplaceSlots swaps the day's slot list wholesale. Callers must have
	// validated the disjointness invariant first.
	ReplaceSlots(ctx context.Context, date time.Time, slots []Slot) error
	// SetSlotStatus updates the status of the slot with exactly the given
	// bounds. It reports whether a slot matched.
	SetSlotStatus(ctx context.Context, date time.Time, start, end string, status SlotStatus) (bool, error)
	// AddSlot appends a single slot entry to the day.
	AddSlot(ctx context.Context, date time.Time, slot Slot) error

	DeleteDay(ctx context.Context, date time.Time) error
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

func (r *pgxRepository) GetByDate(ctx context.Context, date time.Time) (*Availability, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("date", "is_available", "created_at", "updated_at").
		From("public.availability_days").
		Where(squirrel.Eq{"date": date}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get availability query failed: %w", err)
	}

	var a Availability
	row := r.db.QueryRow(ctx, query, args...)
	if err := row.Scan(&a.Date, &a.IsAvailable, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get availability failed: %w", err)
	}

	slots, err := r.slotsForDates(ctx, []time.Time{a.Date})
	if err != nil {
		return nil, err
	}
	a.Slots = slots[dateKey(a.Date)]
	return &a, nil
}

func (r *pgxRepository) GetRange(ctx context.Context, start, end time.Time) ([]*Availability, error) {
	return r.list(ctx, squirrel.And{
		squirrel.GtOrEq{"date": start},
		squirrel.LtOrEq{"date": end},
	})
}

func (r *pgxRepository) GetAll(ctx context.Context) ([]*Availability, error) {
	return r.list(ctx, nil)
}

func (r *pgxRepository) list(ctx context.Context, pred any) ([]*Availability, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	builder := psql.Select("date", "is_available", "created_at", "updated_at").
		From("public.availability_days").
		OrderBy("date ASC")
	if pred != nil {
		builder = builder.Where(pred)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list availability query failed: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list availability failed: %w", err)
	}
	defer rows.Close()

	var days []*Availability
	var dates []time.Time
	for rows.Next() {
		var a Availability
		if err := rows.Scan(&a.Date, &a.IsAvailable, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan availability failed: %w", err)
		}
		days = append(days, &a)
		dates = append(dates, a.Date)
	}
	if len(days) == 0 {
		return days, nil
	}

	slots, err := r.slotsForDates(ctx, dates)
	if err != nil {
		return nil, err
	}
	for _, d := range days {
		d.Slots = slots[dateKey(d.Date)]
	}
	return days, nil
}

func (r *pgxRepository) slotsForDates(ctx context.Context, dates []time.Time) (map[string][]Slot, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("date", "start_time", "end_time", "status", "note").
		From("public.availability_slots").
		Where(squirrel.Eq{"date": dates}).
		OrderBy("date ASC", "start_time ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list slots query failed: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list slots failed: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]Slot)
	for rows.Next() {
		var date time.Time
		var s Slot
		if err := rows.Scan(&date, &s.Start, &s.End, &s.Status, &s.Note); err != nil {
			return nil, fmt.Errorf("scan slot failed: %w", err)
		}
		key := dateKey(date)
		out[key] = append(out[key], s)
	}
	return out, nil
}

func (r *pgxRepository) UpsertDay(ctx context.Context, date time.Time, isAvailable bool) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.availability_days").
		Columns("date", "is_available").
		Values(date, isAvailable).
		Suffix("ON CONFLICT (date) DO UPDATE SET is_available = EXCLUDED.is_available, updated_at = now()").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert day query failed: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert day failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) ReplaceSlots(ctx context.Context, date time.Time, slots []Slot) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	delQuery, delArgs, err := psql.Delete("public.availability_slots").
		Where(squirrel.Eq{"date": date}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete slots query failed: %w", err)
	}
	if _, err := r.db.Exec(ctx, delQuery, delArgs...); err != nil {
		return fmt.Errorf("delete slots failed: %w", err)
	}

	if len(slots) == 0 {
		return nil
	}

	builder := psql.Insert("public.availability_slots").
		Columns("date", "start_time", "end_time", "status", "note")
	for _, s := range slots {
		builder = builder.Values(date, s.Start, s.End, s.Status, s.Note)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build insert slots query failed: %w", err)
	}
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert slots failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) SetSlotStatus(ctx context.Context, date time.Time, start, end string, status SlotStatus) (bool, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.availability_slots").
		Set("status", status).
		Where(squirrel.Eq{"date": date, "start_time": start, "end_time": end}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build set slot status query failed: %w", err)
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("set slot status failed: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

func (r *pgxRepository) AddSlot(ctx context.Context, date time.Time, slot Slot) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.availability_slots").
		Columns("date", "start_time", "end_time", "status", "note").
		Values(date, slot.Start, slot.End, slot.Status, slot.Note).
		ToSql()
	if err != nil {
		return fmt.Errorf("build add slot query failed: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("add slot failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) DeleteDay(ctx context.Context, date time.Time) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Delete("public.availability_days").
		Where(squirrel.Eq{"date": date}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete day query failed: %w", err)
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete day failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

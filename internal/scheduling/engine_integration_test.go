package scheduling

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/partypallet/decor-booking-backend/internal/availability"
	"github.com/partypallet/decor-booking-backend/internal/booking"
	"github.com/partypallet/decor-booking-backend/internal/db"
)

// These tests need a migrated Postgres database. Set TEST_DB_DSN to run them.
func newTestEngine(t *testing.T) (*Engine, booking.Repository, availability.Repository, *pgxpool.Pool) {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	pool, err := db.NewPool(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	bookings := booking.NewPgxRepository(pool)
	days := availability.NewPgxRepository(pool)
	engine := NewEngine(db.NewPoolRunner(pool), bookings, days, zap.NewNop())
	return engine, bookings, days, pool
}

func testBooking(date time.Time, start, end string) *booking.Booking {
	return &booking.Booking{
		Client: booking.Client{
			FullName: "Ada Obi",
			Email:    fmt.Sprintf("ada+%d@example.com", time.Now().UnixNano()),
			Phone:    "+2348000000000",
		},
		Event: booking.Event{
			Type:             "Birthday",
			Location:         "Lekki, Lagos",
			Date:             date,
			StartTime:        start,
			EndTime:          end,
			ConsultationMode: "whatsapp",
		},
		Pricing: booking.Pricing{
			Estimate:        150000,
			DepositRequired: 50000,
			Currency:        "NGN",
		},
		Status: booking.StatusPending,
		StatusHistory: []booking.HistoryEntry{{
			Status:    booking.StatusPending,
			ChangedAt: time.Now().UTC(),
			Note:      "booking created",
		}},
	}
}

// uniqueDate spreads tests across far-future dates so runs do not collide.
func uniqueDate() time.Time {
	base := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, int(time.Now().UnixNano()%20000))
}

func TestReserveConcurrentSameWindow(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)
	date := uniqueDate()

	const racers = 8
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b := testBooking(date, "10:00", "14:00")
			errs[i] = engine.Reserve(context.Background(), b)
		}(i)
	}
	wg.Wait()

	var created, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			created++
		case errors.Is(err, booking.ErrSlotConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, created, "exactly one racer must win the window")
	assert.Equal(t, racers-1, conflicts)
}

func TestCancelReleasesSlotForRebooking(t *testing.T) {
	engine, bookings, days, _ := newTestEngine(t)
	ctx := context.Background()
	date := uniqueDate()

	first := testBooking(date, "09:00", "12:00")
	require.NoError(t, engine.Reserve(ctx, first))

	// Second booking for the same window must be rejected.
	err := engine.Reserve(ctx, testBooking(date, "09:00", "12:00"))
	require.ErrorIs(t, err, booking.ErrSlotConflict)

	// Cancel the first: booking row flips and the slot frees up.
	require.NoError(t, engine.InTx(ctx, func(tx pgx.Tx) error {
		repo := bookings.WithTx(tx)
		b, err := repo.GetByID(ctx, first.ID)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		reason := "client postponed"
		b.Status = booking.StatusCancelled
		b.CancellationReason = &reason
		b.CancellationDate = &now
		if err := repo.Update(ctx, b); err != nil {
			return err
		}
		return engine.ReleaseInTx(ctx, tx, date, "09:00", "12:00")
	}))

	day, err := days.GetByDate(ctx, date)
	require.NoError(t, err)
	var found bool
	for _, s := range day.Slots {
		if s.Start == "09:00" && s.End == "12:00" {
			found = true
			assert.Equal(t, availability.SlotAvailable, s.Status)
		}
	}
	assert.True(t, found, "released slot should remain on the day")

	// The window is bookable again.
	require.NoError(t, engine.Reserve(ctx, testBooking(date, "09:00", "12:00")))
}

func TestRereserveConflictLeavesOriginalWindow(t *testing.T) {
	engine, bookings, _, _ := newTestEngine(t)
	ctx := context.Background()
	date := uniqueDate()

	a := testBooking(date, "09:00", "11:00")
	require.NoError(t, engine.Reserve(ctx, a))
	b := testBooking(date, "13:00", "15:00")
	require.NoError(t, engine.Reserve(ctx, b))

	// Moving b onto a's window must fail and roll everything back,
	// including the history entry.
	moved := *b
	moved.Event.StartTime = "09:00"
	moved.Event.EndTime = "11:00"
	entry := booking.HistoryEntry{
		Status:    moved.Status,
		ChangedAt: time.Now().UTC(),
		Note:      "booking details updated",
	}
	err := engine.Rereserve(ctx, &moved, date, "13:00", "15:00", entry)
	require.ErrorIs(t, err, booking.ErrSlotConflict)

	got, err := bookings.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "13:00", got.Event.StartTime)
	assert.Equal(t, "15:00", got.Event.EndTime)
	assert.Len(t, got.StatusHistory, 1, "failed move must not leave an audit entry")

	// b still holds its original slot: a third booking cannot take it.
	err = engine.Reserve(ctx, testBooking(date, "13:00", "15:00"))
	require.ErrorIs(t, err, booking.ErrSlotConflict)
}

func TestReserveOnUnavailableDay(t *testing.T) {
	engine, _, days, _ := newTestEngine(t)
	ctx := context.Background()
	date := uniqueDate()

	require.NoError(t, days.UpsertDay(ctx, date, false))

	err := engine.Reserve(ctx, testBooking(date, "10:00", "12:00"))
	require.ErrorIs(t, err, booking.ErrDayUnavailable)
}

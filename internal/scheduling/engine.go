// Package scheduling ties the availability calendar to the booking store.
// The engine is the only component that claims and releases slots, and it
// does both inside a single serializable transaction so two clients racing
// for the same window can never both win.
package scheduling

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/partypallet/decor-booking-backend/internal/availability"
	"github.com/partypallet/decor-booking-backend/internal/booking"
	"github.com/partypallet/decor-booking-backend/internal/db"
	"github.com/partypallet/decor-booking-backend/internal/pkg/clock"
)

// Engine implements booking.Scheduler on top of the availability and booking
// repositories.
type Engine struct {
	runner   db.TxRunner
	bookings booking.Repository
	days     availability.Repository
	logger   *zap.Logger
}

func NewEngine(runner db.TxRunner, bookings booking.Repository, days availability.Repository, logger *zap.Logger) *Engine {
	return &Engine{
		runner:   runner,
		bookings: bookings,
		days:     days,
		logger:   logger,
	}
}

func (e *Engine) InTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return e.runner.InTx(ctx, fn)
}

// Reserve claims the booking's window and persists the booking atomically.
// The day record is created lazily when absent; an explicitly unavailable day
// rejects the reservation outright.
func (e *Engine) Reserve(ctx context.Context, b *booking.Booking) error {
	err := e.runner.InTx(ctx, func(tx pgx.Tx) error {
		if err := e.claimSlot(ctx, tx, b, ""); err != nil {
			return err
		}
		return e.bookings.WithTx(tx).Create(ctx, b)
	})
	if err != nil {
		err = asConflict(err)
		observeReservation(err)
		return err
	}

	observeReservation(nil)
	return nil
}

// Rereserve moves a booking to a new window: release the old slot, check the
// new one, claim it, and persist the updated booking with its history entry,
// all in one transaction.
func (e *Engine) Rereserve(ctx context.Context, b *booking.Booking, oldDate time.Time, oldStart, oldEnd string, entry booking.HistoryEntry) error {
	err := e.runner.InTx(ctx, func(tx pgx.Tx) error {
		if err := e.ReleaseInTx(ctx, tx, oldDate, oldStart, oldEnd); err != nil {
			return err
		}
		if err := e.claimSlot(ctx, tx, b, b.ID); err != nil {
			return err
		}
		repo := e.bookings.WithTx(tx)
		if err := repo.Update(ctx, b); err != nil {
			return err
		}
		return repo.AppendHistory(ctx, b.ID, entry)
	})
	if err != nil {
		return asConflict(err)
	}

	e.logger.Info("booking window moved",
		zap.String("booking_id", b.ID),
		zap.String("from", oldDate.Format(clock.DateLayout)+" "+oldStart+"-"+oldEnd),
		zap.String("to", b.Event.Date.Format(clock.DateLayout)+" "+b.Event.StartTime+"-"+b.Event.EndTime),
	)
	return nil
}

// ReleaseInTx flips a booked slot back to available. A missing slot record is
// not an error: the admin may have rebuilt the day's slots since the booking
// was made.
func (e *Engine) ReleaseInTx(ctx context.Context, tx pgx.Tx, date time.Time, start, end string) error {
	matched, err := e.days.WithTx(tx).SetSlotStatus(ctx, date, start, end, availability.SlotAvailable)
	if err != nil {
		return err
	}
	if matched {
		releasesTotal.Inc()
	}
	return nil
}

// claimSlot performs the in-transaction reservation checks and claims the
// window. excludeID skips the booking's own row during the overlap check when
// rescheduling.
func (e *Engine) claimSlot(ctx context.Context, tx pgx.Tx, b *booking.Booking, excludeID string) error {
	days := e.days.WithTx(tx)
	date := b.Event.Date

	day, err := days.GetByDate(ctx, date)
	if err != nil && !errors.Is(err, availability.ErrNotFound) {
		return err
	}
	if day != nil && !day.IsAvailable {
		return booking.ErrDayUnavailable
	}
	if day == nil {
		if err := days.UpsertDay(ctx, date, true); err != nil {
			return err
		}
	}

	overlap, err := e.bookings.WithTx(tx).HasOverlap(ctx, date, b.Event.StartTime, b.Event.EndTime, excludeID)
	if err != nil {
		return err
	}
	if overlap {
		return booking.ErrSlotConflict
	}

	var slots []availability.Slot
	if day != nil {
		slots = day.Slots
	}

	plan := PlanClaim(slots, b.Event.StartTime, b.Event.EndTime)
	switch plan {
	case ClaimFlip:
		matched, err := days.SetSlotStatus(ctx, date, b.Event.StartTime, b.Event.EndTime, availability.SlotBooked)
		if err != nil {
			return err
		}
		if !matched {
			return booking.ErrSlotConflict
		}
		return nil
	case ClaimInsert:
		return days.AddSlot(ctx, date, availability.Slot{
			Start:  b.Event.StartTime,
			End:    b.Event.EndTime,
			Status: availability.SlotBooked,
		})
	case ClaimBlocked:
		return booking.ErrSlotBlocked
	default:
		return booking.ErrSlotConflict
	}
}

// Claim is the outcome of matching a requested window against a day's slots.
type Claim int

const (
	// ClaimInsert: no slot entry touches the window; insert a booked slot.
	ClaimInsert Claim = iota
	// ClaimFlip: an available slot matches the window exactly; mark it booked.
	ClaimFlip
	// ClaimBlocked: the window hits a blocked slot.
	ClaimBlocked
	// ClaimConflict: the window hits a booked slot or partially overlaps
	// another entry.
	ClaimConflict
)

// PlanClaim decides how a requested window interacts with the day's slot
// list. An exact match on an available slot flips it; any overlap with a
// booked or blocked slot, or a partial overlap with any slot, is a conflict.
func PlanClaim(slots []availability.Slot, start, end string) Claim {
	for _, s := range slots {
		if s.Start == start && s.End == end {
			switch s.Status {
			case availability.SlotAvailable:
				return ClaimFlip
			case availability.SlotBlocked:
				return ClaimBlocked
			default:
				return ClaimConflict
			}
		}
	}
	// Times are normalized "HH:mm", so string comparison is chronological.
	for _, s := range slots {
		if s.Start < end && start < s.End {
			if s.Status == availability.SlotBlocked {
				return ClaimBlocked
			}
			return ClaimConflict
		}
	}
	return ClaimInsert
}

// asConflict maps an exhausted serializable-retry failure to a slot conflict:
// if the database kept aborting us, someone else won the window.
func asConflict(err error) error {
	if strings.Contains(err.Error(), "transaction retries exhausted") && db.IsSerializationFailure(errors.Unwrap(err)) {
		return booking.ErrSlotConflict
	}
	return err
}

package availability

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/partypallet/decor-booking-backend/internal/db"
	"github.com/partypallet/decor-booking-backend/internal/pkg/clock"
)

// SetRequest upserts a day record. Nil fields keep the stored values.
type SetRequest struct {
	Date        time.Time
	IsAvailable *bool
	Slots       []Slot // nil means "leave slots untouched"
	HasSlots    bool
}

type Service interface {
	// Get returns day records for a single date, a date range, or everything.
	Get(ctx context.Context, date *time.Time, start, end *time.Time) ([]*Availability, error)
	// Set upserts the day record, preserving booked slots on bulk slot edits.
	Set(ctx context.Context, req SetRequest) (*Availability, error)
	// Block marks a slot blocked, creating the day record if absent.
	Block(ctx context.Context, date time.Time, start, end, note string) (*Availability, error)
	// Delete removes the day record entirely.
	Delete(ctx context.Context, date time.Time) error
}

type service struct {
	repo   Repository
	runner db.TxRunner
}

func NewService(repo Repository, runner db.TxRunner) Service {
	return &service{repo: repo, runner: runner}
}

func (s *service) Get(ctx context.Context, date *time.Time, start, end *time.Time) ([]*Availability, error) {
	if date != nil {
		a, err := s.repo.GetByDate(ctx, clock.Midnight(*date))
		if err == ErrNotFound {
			// A day nobody has touched has no record; readers see it as
			// having no slots rather than as an error.
			return []*Availability{}, nil
		}
		if err != nil {
			return nil, err
		}
		return []*Availability{a}, nil
	}
	if start != nil && end != nil {
		return s.repo.GetRange(ctx, clock.Midnight(*start), clock.Midnight(*end))
	}
	return s.repo.GetAll(ctx)
}

func (s *service) Set(ctx context.Context, req SetRequest) (*Availability, error) {
	date := clock.Midnight(req.Date)
	if date.Before(clock.Today()) {
		return nil, ErrPastDate
	}

	var out *Availability
	err := s.runner.InTx(ctx, func(tx pgx.Tx) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.GetByDate(ctx, date)
		if err != nil && err != ErrNotFound {
			return err
		}

		isAvailable := true
		var current []Slot
		if existing != nil {
			isAvailable = existing.IsAvailable
			current = existing.Slots
		}
		if req.IsAvailable != nil {
			isAvailable = *req.IsAvailable
		}

		slots := current
		if req.HasSlots {
			slots, err = MergeKeepingBooked(current, req.Slots)
			if err != nil {
				return err
			}
		}

		if err := repo.UpsertDay(ctx, date, isAvailable); err != nil {
			return err
		}
		if req.HasSlots {
			if err := repo.ReplaceSlots(ctx, date, slots); err != nil {
				return err
			}
		}

		out = &Availability{Date: date, IsAvailable: isAvailable, Slots: slots}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) Block(ctx context.Context, date time.Time, start, end, note string) (*Availability, error) {
	day := clock.Midnight(date)
	if day.Before(clock.Today()) {
		return nil, ErrPastDate
	}

	slot, err := NormalizeSlot(Slot{Start: start, End: end, Status: SlotBlocked, Note: note})
	if err != nil {
		return nil, err
	}

	var out *Availability
	err = s.runner.InTx(ctx, func(tx pgx.Tx) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.GetByDate(ctx, day)
		if err != nil && err != ErrNotFound {
			return err
		}

		isAvailable := true
		var slots []Slot
		if existing != nil {
			isAvailable = existing.IsAvailable
			slots = existing.Slots
		}

		if i := findSlot(slots, slot.Start, slot.End); i != -1 {
			if slots[i].Status == SlotBooked {
				return ErrSlotBooked
			}
			slots[i].Status = SlotBlocked
			if note != "" {
				slots[i].Note = note
			}
		} else {
			for _, ex := range slots {
				if ex.Status == SlotBooked && ex.Start < slot.End && slot.Start < ex.End {
					return ErrSlotConflict
				}
			}
			slots = append(slots, slot)
			if err := ValidateDisjoint(slots); err != nil {
				return err
			}
			SortSlots(slots)
		}

		if err := repo.UpsertDay(ctx, day, isAvailable); err != nil {
			return err
		}
		if err := repo.ReplaceSlots(ctx, day, slots); err != nil {
			return err
		}

		out = &Availability{Date: day, IsAvailable: isAvailable, Slots: slots}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) Delete(ctx context.Context, date time.Time) error {
	day := clock.Midnight(date)
	if day.Before(clock.Today()) {
		return ErrPastDate
	}
	return s.repo.DeleteDay(ctx, day)
}

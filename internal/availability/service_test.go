package availability

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partypallet/decor-booking-backend/internal/pkg/clock"
)

type fakeRunner struct{}

func (fakeRunner) InTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

type fakeRepo struct {
	days map[string]*Availability
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{days: make(map[string]*Availability)}
}

func (r *fakeRepo) WithTx(tx pgx.Tx) Repository { return r }

func (r *fakeRepo) GetByDate(ctx context.Context, date time.Time) (*Availability, error) {
	d, ok := r.days[dateKey(date)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	cp.Slots = append([]Slot(nil), d.Slots...)
	return &cp, nil
}

func (r *fakeRepo) GetRange(ctx context.Context, start, end time.Time) ([]*Availability, error) {
	var out []*Availability
	for _, d := range r.days {
		if !d.Date.Before(start) && !d.Date.After(end) {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetAll(ctx context.Context) ([]*Availability, error) {
	var out []*Availability
	for _, d := range r.days {
		cp := *d
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeRepo) UpsertDay(ctx context.Context, date time.Time, isAvailable bool) error {
	key := dateKey(date)
	if d, ok := r.days[key]; ok {
		d.IsAvailable = isAvailable
		return nil
	}
	r.days[key] = &Availability{Date: date, IsAvailable: isAvailable}
	return nil
}

func (r *fakeRepo) ReplaceSlots(ctx context.Context, date time.Time, slots []Slot) error {
	r.days[dateKey(date)].Slots = append([]Slot(nil), slots...)
	return nil
}

func (r *fakeRepo) SetSlotStatus(ctx context.Context, date time.Time, start, end string, status SlotStatus) (bool, error) {
	d, ok := r.days[dateKey(date)]
	if !ok {
		return false, nil
	}
	for i := range d.Slots {
		if d.Slots[i].Start == start && d.Slots[i].End == end {
			d.Slots[i].Status = status
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepo) AddSlot(ctx context.Context, date time.Time, slot Slot) error {
	d := r.days[dateKey(date)]
	d.Slots = append(d.Slots, slot)
	return nil
}

func (r *fakeRepo) DeleteDay(ctx context.Context, date time.Time) error {
	key := dateKey(date)
	if _, ok := r.days[key]; !ok {
		return ErrNotFound
	}
	delete(r.days, key)
	return nil
}

func futureDate() time.Time {
	return clock.Today().AddDate(0, 1, 0)
}

func TestGetUnseededDateReturnsEmpty(t *testing.T) {
	svc := NewService(newFakeRepo(), fakeRunner{})

	date := futureDate()
	got, err := svc.Get(context.Background(), &date, nil, nil)
	require.NoError(t, err, "a day nobody has touched is not an error")
	assert.Empty(t, got)
}

func TestSetRejectsPastDate(t *testing.T) {
	svc := NewService(newFakeRepo(), fakeRunner{})

	_, err := svc.Set(context.Background(), SetRequest{Date: clock.Today().AddDate(0, 0, -1)})
	assert.ErrorIs(t, err, ErrPastDate)
}

func TestSetCreatesDayWithSlots(t *testing.T) {
	svc := NewService(newFakeRepo(), fakeRunner{})

	a, err := svc.Set(context.Background(), SetRequest{
		Date:     futureDate(),
		HasSlots: true,
		Slots: []Slot{
			{Start: "9:00", End: "12:00"},
			{Start: "14:00", End: "18:00", Status: SlotBlocked},
		},
	})
	require.NoError(t, err)
	assert.True(t, a.IsAvailable)
	require.Len(t, a.Slots, 2)
	assert.Equal(t, "09:00", a.Slots[0].Start, "times are zero-padded")
	assert.Equal(t, SlotAvailable, a.Slots[0].Status)
	assert.Equal(t, SlotBlocked, a.Slots[1].Status)
}

func TestSetPreservesBookedSlots(t *testing.T) {
	repo := newFakeRepo()
	date := futureDate()
	repo.days[dateKey(date)] = &Availability{
		Date:        date,
		IsAvailable: true,
		Slots: []Slot{
			{Start: "10:00", End: "14:00", Status: SlotBooked},
		},
	}
	svc := NewService(repo, fakeRunner{})

	// A bulk replacement that omits the booked slot must keep it.
	a, err := svc.Set(context.Background(), SetRequest{
		Date:     date,
		HasSlots: true,
		Slots: []Slot{
			{Start: "16:00", End: "20:00"},
		},
	})
	require.NoError(t, err)
	require.Len(t, a.Slots, 2)
	assert.Equal(t, SlotBooked, a.Slots[0].Status)
	assert.Equal(t, "16:00", a.Slots[1].Start)
}

func TestSetRejectsOverlapWithBookedSlot(t *testing.T) {
	repo := newFakeRepo()
	date := futureDate()
	repo.days[dateKey(date)] = &Availability{
		Date:        date,
		IsAvailable: true,
		Slots: []Slot{
			{Start: "10:00", End: "14:00", Status: SlotBooked},
		},
	}
	svc := NewService(repo, fakeRunner{})

	_, err := svc.Set(context.Background(), SetRequest{
		Date:     date,
		HasSlots: true,
		Slots: []Slot{
			{Start: "12:00", End: "16:00"},
		},
	})
	assert.ErrorIs(t, err, ErrSlotOverlap)
}

func TestSetFlagOnlyLeavesSlotsAlone(t *testing.T) {
	repo := newFakeRepo()
	date := futureDate()
	repo.days[dateKey(date)] = &Availability{
		Date:        date,
		IsAvailable: true,
		Slots:       []Slot{{Start: "10:00", End: "14:00", Status: SlotAvailable}},
	}
	svc := NewService(repo, fakeRunner{})

	off := false
	a, err := svc.Set(context.Background(), SetRequest{Date: date, IsAvailable: &off})
	require.NoError(t, err)
	assert.False(t, a.IsAvailable)

	stored, err := repo.GetByDate(context.Background(), date)
	require.NoError(t, err)
	assert.Len(t, stored.Slots, 1)
}

func TestBlockFlipsExistingSlot(t *testing.T) {
	repo := newFakeRepo()
	date := futureDate()
	repo.days[dateKey(date)] = &Availability{
		Date:        date,
		IsAvailable: true,
		Slots:       []Slot{{Start: "10:00", End: "14:00", Status: SlotAvailable}},
	}
	svc := NewService(repo, fakeRunner{})

	a, err := svc.Block(context.Background(), date, "10:00", "14:00", "venue maintenance")
	require.NoError(t, err)
	require.Len(t, a.Slots, 1)
	assert.Equal(t, SlotBlocked, a.Slots[0].Status)
	assert.Equal(t, "venue maintenance", a.Slots[0].Note)
}

func TestBlockRejectsBookedSlot(t *testing.T) {
	repo := newFakeRepo()
	date := futureDate()
	repo.days[dateKey(date)] = &Availability{
		Date:        date,
		IsAvailable: true,
		Slots:       []Slot{{Start: "10:00", End: "14:00", Status: SlotBooked}},
	}
	svc := NewService(repo, fakeRunner{})

	_, err := svc.Block(context.Background(), date, "10:00", "14:00", "")
	assert.ErrorIs(t, err, ErrSlotBooked)
}

func TestBlockOverlappingBookedSlotIsConflict(t *testing.T) {
	repo := newFakeRepo()
	date := futureDate()
	repo.days[dateKey(date)] = &Availability{
		Date:        date,
		IsAvailable: true,
		Slots:       []Slot{{Start: "10:00", End: "14:00", Status: SlotBooked}},
	}
	svc := NewService(repo, fakeRunner{})

	_, err := svc.Block(context.Background(), date, "12:00", "16:00", "")
	assert.ErrorIs(t, err, ErrSlotConflict)
}

func TestBlockCreatesDayLazily(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, fakeRunner{})
	date := futureDate()

	a, err := svc.Block(context.Background(), date, "10:00", "12:00", "")
	require.NoError(t, err)
	assert.True(t, a.IsAvailable)
	require.Len(t, a.Slots, 1)
	assert.Equal(t, SlotBlocked, a.Slots[0].Status)
}

func TestDeleteDay(t *testing.T) {
	repo := newFakeRepo()
	date := futureDate()
	repo.days[dateKey(date)] = &Availability{Date: date, IsAvailable: true}
	svc := NewService(repo, fakeRunner{})

	require.NoError(t, svc.Delete(context.Background(), date))
	assert.ErrorIs(t, svc.Delete(context.Background(), date), ErrNotFound)
}

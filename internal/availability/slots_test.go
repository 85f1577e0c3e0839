package availability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSlot(t *testing.T) {
	s, err := NormalizeSlot(Slot{Start: "9:00", End: "12:30"})
	require.NoError(t, err)
	assert.Equal(t, "09:00", s.Start)
	assert.Equal(t, "12:30", s.End)
	assert.Equal(t, SlotAvailable, s.Status)

	_, err = NormalizeSlot(Slot{Start: "12:00", End: "12:00"})
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = NormalizeSlot(Slot{Start: "14:00", End: "10:00"})
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = NormalizeSlot(Slot{Start: "25:00", End: "26:00"})
	assert.ErrorIs(t, err, ErrInvalidTime)
}

func TestValidateDisjoint(t *testing.T) {
	tests := []struct {
		name    string
		slots   []Slot
		wantErr bool
	}{
		{
			name: "disjoint sorted",
			slots: []Slot{
				{Start: "09:00", End: "11:00"},
				{Start: "12:00", End: "14:00"},
			},
		},
		{
			name: "adjacent endpoints allowed",
			slots: []Slot{
				{Start: "09:00", End: "11:00"},
				{Start: "11:00", End: "13:00"},
			},
		},
		{
			name: "unsorted input still validated",
			slots: []Slot{
				{Start: "15:00", End: "17:00"},
				{Start: "09:00", End: "11:00"},
			},
		},
		{
			name: "overlap rejected",
			slots: []Slot{
				{Start: "09:00", End: "12:00"},
				{Start: "11:00", End: "13:00"},
			},
			wantErr: true,
		},
		{
			name: "contained slot rejected",
			slots: []Slot{
				{Start: "09:00", End: "18:00"},
				{Start: "10:00", End: "11:00"},
			},
			wantErr: true,
		},
		{
			name:  "empty list",
			slots: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDisjoint(tt.slots)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrSlotOverlap)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMergeKeepingBooked(t *testing.T) {
	current := []Slot{
		{Start: "09:00", End: "11:00", Status: SlotBooked},
		{Start: "12:00", End: "13:00", Status: SlotAvailable},
		{Start: "14:00", End: "15:00", Status: SlotBlocked},
	}

	t.Run("booked slots survive a bulk replace", func(t *testing.T) {
		merged, err := MergeKeepingBooked(current, []Slot{
			{Start: "16:00", End: "18:00"},
		})
		require.NoError(t, err)
		require.Len(t, merged, 2)
		assert.Equal(t, SlotBooked, merged[0].Status)
		assert.Equal(t, "09:00", merged[0].Start)
		assert.Equal(t, "16:00", merged[1].Start)
	})

	t.Run("incoming slot matching booked bounds is dropped", func(t *testing.T) {
		merged, err := MergeKeepingBooked(current, []Slot{
			{Start: "09:00", End: "11:00", Status: SlotAvailable},
		})
		require.NoError(t, err)
		require.Len(t, merged, 1)
		assert.Equal(t, SlotBooked, merged[0].Status)
	})

	t.Run("incoming slot overlapping booked slot fails", func(t *testing.T) {
		_, err := MergeKeepingBooked(current, []Slot{
			{Start: "10:00", End: "12:00"},
		})
		assert.ErrorIs(t, err, ErrSlotOverlap)
	})

	t.Run("overlapping incoming slots fail", func(t *testing.T) {
		_, err := MergeKeepingBooked(nil, []Slot{
			{Start: "12:00", End: "14:00"},
			{Start: "13:00", End: "15:00"},
		})
		assert.ErrorIs(t, err, ErrSlotOverlap)
	})

	t.Run("result is sorted by start", func(t *testing.T) {
		merged, err := MergeKeepingBooked(current, []Slot{
			{Start: "06:00", End: "07:00"},
		})
		require.NoError(t, err)
		require.Len(t, merged, 2)
		assert.Equal(t, "06:00", merged[0].Start)
		assert.Equal(t, "09:00", merged[1].Start)
	})
}

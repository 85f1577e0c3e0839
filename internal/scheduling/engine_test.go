package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/partypallet/decor-booking-backend/internal/availability"
)

func TestPlanClaim(t *testing.T) {
	slots := []availability.Slot{
		{Start: "09:00", End: "11:00", Status: availability.SlotAvailable},
		{Start: "12:00", End: "14:00", Status: availability.SlotBooked},
		{Start: "15:00", End: "17:00", Status: availability.SlotBlocked},
	}

	tests := []struct {
		name  string
		start string
		end   string
		want  Claim
	}{
		{"exact match on available slot flips it", "09:00", "11:00", ClaimFlip},
		{"exact match on booked slot conflicts", "12:00", "14:00", ClaimConflict},
		{"exact match on blocked slot is blocked", "15:00", "17:00", ClaimBlocked},
		{"partial overlap with available slot conflicts", "10:00", "12:00", ClaimConflict},
		{"overlap with booked slot conflicts", "13:00", "15:00", ClaimConflict},
		{"overlap with blocked slot is blocked", "16:00", "18:00", ClaimBlocked},
		{"window inside available slot conflicts", "09:30", "10:30", ClaimConflict},
		{"untouched window inserts", "17:00", "19:00", ClaimInsert},
		{"adjacent window inserts", "11:00", "12:00", ClaimInsert},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlanClaim(slots, tt.start, tt.end))
		})
	}
}

func TestPlanClaimEmptyDay(t *testing.T) {
	assert.Equal(t, ClaimInsert, PlanClaim(nil, "09:00", "11:00"))
}

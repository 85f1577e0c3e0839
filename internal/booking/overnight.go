package booking

import "github.com/partypallet/decor-booking-backend/internal/pkg/clock"

// Surcharge rate applied to the estimate when an event qualifies as overnight.
const overnightRate = 0.2

// IsOvernightWindow reports whether an event window counts as overnight:
// it ends before 06:00, or it runs longer than twelve hours.
func IsOvernightWindow(start, end string) bool {
	s, err := clock.Parse(start)
	if err != nil {
		return false
	}
	e, err := clock.Parse(end)
	if err != nil {
		return false
	}
	if int(e)/60 < 6 {
		return true
	}
	d := int(e - s)
	if d <= 0 {
		d += 24 * 60
	}
	return d > 12*60
}

// ApplyOvernight recomputes the overnight flag from the event window and
// adjusts the surcharge only when the flag actually changes. A surcharge the
// admin set by hand is left alone while the booking stays overnight; it is
// zeroed when the window no longer qualifies.
func ApplyOvernight(b *Booking) {
	overnight := IsOvernightWindow(b.Event.StartTime, b.Event.EndTime)
	if overnight == b.IsOvernight {
		return
	}
	b.IsOvernight = overnight
	if overnight {
		if b.Pricing.OvernightSurcharge == 0 {
			b.Pricing.OvernightSurcharge = b.Pricing.Estimate * overnightRate
		}
	} else {
		b.Pricing.OvernightSurcharge = 0
	}
}

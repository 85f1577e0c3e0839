package scheduling

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/partypallet/decor-booking-backend/internal/booking"
)

var (
	reservationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "decor_booking",
		Subsystem: "scheduling",
		Name:      "reservations_total",
		Help:      "Slot reservation attempts by outcome.",
	}, []string{"result"})

	releasesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "decor_booking",
		Subsystem: "scheduling",
		Name:      "releases_total",
		Help:      "Slots released back to available after cancellation or reschedule.",
	})
)

func observeReservation(err error) {
	switch {
	case err == nil:
		reservationsTotal.WithLabelValues("created").Inc()
	case errors.Is(err, booking.ErrSlotConflict), errors.Is(err, booking.ErrSlotBlocked):
		reservationsTotal.WithLabelValues("conflict").Inc()
	case errors.Is(err, booking.ErrDayUnavailable):
		reservationsTotal.WithLabelValues("unavailable").Inc()
	default:
		reservationsTotal.WithLabelValues("error").Inc()
	}
}

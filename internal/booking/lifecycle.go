package booking

import (
	"fmt"
	"net/http"

	"github.com/partypallet/decor-booking-backend/internal/pkg/apperror"
)

// transitions maps each status to the set of statuses it may move to.
// Cancellation is reachable from every non-terminal state; completed and
// cancelled are terminal.
var transitions = map[Status][]Status{
	StatusPending:     {StatusDepositPaid, StatusCancelled},
	StatusDepositPaid: {StatusConfirmed, StatusCancelled},
	StatusConfirmed:   {StatusCompleted, StatusCancelled},
	StatusCompleted:   {},
	StatusCancelled:   {},
}

// CanTransition reports whether a booking in from may move to to.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible from s.
func IsTerminal(s Status) bool {
	return len(transitions[s]) == 0
}

// ValidStatus reports whether s is a known lifecycle status.
func ValidStatus(s Status) bool {
	_, ok := transitions[s]
	return ok
}

// ErrTransition builds the rejection for an attempted from→to move.
func ErrTransition(from, to Status) *apperror.AppError {
	return apperror.New(http.StatusBadRequest, apperror.KindInvalidTransition,
		fmt.Sprintf("cannot transition booking from %s to %s", from, to))
}

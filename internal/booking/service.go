package booking

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/partypallet/decor-booking-backend/internal/pkg/clock"
)

// Scheduler reserves and releases availability slots for bookings. The
// scheduling engine implements it; the booking service only sees this
// interface so slot mechanics stay out of lifecycle logic.
type Scheduler interface {
	// Reserve atomically checks the date, claims the slot, and creates the
	// booking. On success b carries the persisted ID and timestamps.
	Reserve(ctx context.Context, b *Booking) error
	// Rereserve moves an existing booking to a new window, releasing the old
	// slot, claiming the new one, and recording the history entry in a single
	// transaction.
	Rereserve(ctx context.Context, b *Booking, oldDate time.Time, oldStart, oldEnd string, entry HistoryEntry) error
	// ReleaseInTx frees the slot a cancelled booking held. It is a no-op when
	// the slot record no longer exists.
	ReleaseInTx(ctx context.Context, tx pgx.Tx, date time.Time, start, end string) error
	// InTx exposes the engine's transaction runner for lifecycle operations
	// that must pair booking updates with slot changes.
	InTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// PaymentSummarizer reports how much has been successfully paid toward a
// booking, in the booking's currency.
type PaymentSummarizer interface {
	TotalPaid(ctx context.Context, bookingID string) (float64, error)
}

// Notifier receives lifecycle events for out-of-band delivery (email).
// Implementations must not block.
type Notifier interface {
	BookingCreated(b *Booking)
	StatusChanged(b *Booking, from Status)
	BookingCancelled(b *Booking)
}

// CreateRequest carries a validated, normalized booking submission.
type CreateRequest struct {
	Client           Client
	EventType        string
	EventTitle       string
	EventLocation    string
	EventDate        time.Time
	StartTime        string
	EndTime          string
	ConsultationMode string
	EventNotes       string
	Estimate         float64
	// OvernightSurcharge, when non-zero, overrides the derived 20% surcharge.
	OvernightSurcharge float64
	DepositRequired    float64
	Currency           string
	Notes              string
}

// UpdateRequest patches a booking. Nil fields keep stored values.
type UpdateRequest struct {
	ClientName       *string
	ClientEmail      *string
	ClientPhone      *string
	EventType        *string
	EventTitle       *string
	EventLocation    *string
	EventDate        *time.Time
	StartTime        *string
	EndTime          *string
	ConsultationMode *string
	EventNotes         *string
	Estimate           *float64
	OvernightSurcharge *float64
	DepositRequired    *float64
	FinalAgreed        *float64
	Notes              *string
}

// PaymentDetails summarizes money in against money owed for one booking.
type PaymentDetails struct {
	TotalAmount      float64
	DepositRequired  float64
	TotalPaid        float64
	RemainingBalance float64
	Currency         string
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Booking, error)
	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)
	// UpdateStatus moves the booking along the lifecycle. Cancellation has
	// its own operation and is rejected here.
	UpdateStatus(ctx context.Context, id string, to Status, actorID *string, note string) (*Booking, error)
	// Cancel terminates the booking and releases its slot atomically.
	Cancel(ctx context.Context, id, reason string, actorID *string) (*Booking, error)
	Update(ctx context.Context, id string, req UpdateRequest, actorID *string) (*Booking, error)
	PaymentDetails(ctx context.Context, id string) (*PaymentDetails, error)
}

type service struct {
	repo      Repository
	scheduler Scheduler
	payments  PaymentSummarizer
	notifier  Notifier
	logger    *zap.Logger
}

func NewService(repo Repository, scheduler Scheduler, payments PaymentSummarizer, notifier Notifier, logger *zap.Logger) Service {
	return &service{
		repo:      repo,
		scheduler: scheduler,
		payments:  payments,
		notifier:  notifier,
		logger:    logger,
	}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Booking, error) {
	date := clock.Midnight(req.EventDate)
	if date.Before(clock.Today()) {
		return nil, ErrPastEventDate
	}

	mode := req.ConsultationMode
	if mode == "" {
		mode = DefaultConsultationMode
	}

	b := &Booking{
		Client: req.Client,
		Event: Event{
			Type:             req.EventType,
			Title:            req.EventTitle,
			Location:         req.EventLocation,
			Date:             date,
			StartTime:        req.StartTime,
			EndTime:          req.EndTime,
			ConsultationMode: mode,
			Notes:            req.EventNotes,
		},
		Pricing: Pricing{
			Estimate:           req.Estimate,
			OvernightSurcharge: req.OvernightSurcharge,
			DepositRequired:    req.DepositRequired,
			Currency:           req.Currency,
		},
		Notes:  req.Notes,
		Status: StatusPending,
	}
	ApplyOvernight(b)
	b.StatusHistory = []HistoryEntry{{
		Status:    StatusPending,
		ChangedAt: time.Now().UTC(),
		Note:      "booking created",
	}}

	if err := s.scheduler.Reserve(ctx, b); err != nil {
		return nil, err
	}

	s.logger.Info("booking created",
		zap.String("booking_id", b.ID),
		zap.String("event_date", b.Event.Date.Format(clock.DateLayout)),
		zap.String("window", b.Event.StartTime+"-"+b.Event.EndTime),
	)
	s.notifier.BookingCreated(b)
	return b, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Booking, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	if filter.Status != "" && !ValidStatus(Status(filter.Status)) {
		return nil, 0, ErrInvalidStatus
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	return s.repo.List(ctx, filter)
}

func (s *service) UpdateStatus(ctx context.Context, id string, to Status, actorID *string, note string) (*Booking, error) {
	if !ValidStatus(to) {
		return nil, ErrInvalidStatus
	}
	if to == StatusCancelled {
		// Cancellation needs a reason and releases the slot; force callers
		// through Cancel.
		return nil, ErrTransition(StatusPending, StatusCancelled)
	}

	var out *Booking
	err := s.scheduler.InTx(ctx, func(tx pgx.Tx) error {
		repo := s.repo.WithTx(tx)
		b, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !CanTransition(b.Status, to) {
			return ErrTransition(b.Status, to)
		}

		from := b.Status
		b.Status = to
		if err := repo.Update(ctx, b); err != nil {
			return err
		}
		entry := HistoryEntry{
			Status:    to,
			ChangedAt: time.Now().UTC(),
			ChangedBy: actorID,
			Note:      note,
		}
		if err := repo.AppendHistory(ctx, b.ID, entry); err != nil {
			return err
		}
		b.StatusHistory = append(b.StatusHistory, entry)

		out = b
		s.logger.Info("booking status changed",
			zap.String("booking_id", b.ID),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(out.StatusHistory) > 1 {
		s.notifier.StatusChanged(out, out.StatusHistory[len(out.StatusHistory)-2].Status)
	}
	return out, nil
}

func (s *service) Cancel(ctx context.Context, id, reason string, actorID *string) (*Booking, error) {
	if reason == "" {
		return nil, ErrReasonRequired
	}

	var out *Booking
	err := s.scheduler.InTx(ctx, func(tx pgx.Tx) error {
		repo := s.repo.WithTx(tx)
		b, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if b.Status == StatusCancelled {
			return ErrAlreadyCancelled
		}
		if !CanTransition(b.Status, StatusCancelled) {
			return ErrTransition(b.Status, StatusCancelled)
		}

		now := time.Now().UTC()
		b.Status = StatusCancelled
		b.CancellationReason = &reason
		b.CancellationDate = &now
		if err := repo.Update(ctx, b); err != nil {
			return err
		}
		entry := HistoryEntry{
			Status:    StatusCancelled,
			ChangedAt: now,
			ChangedBy: actorID,
			Note:      reason,
		}
		if err := repo.AppendHistory(ctx, b.ID, entry); err != nil {
			return err
		}
		b.StatusHistory = append(b.StatusHistory, entry)

		if err := s.scheduler.ReleaseInTx(ctx, tx, b.Event.Date, b.Event.StartTime, b.Event.EndTime); err != nil {
			return err
		}

		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking cancelled",
		zap.String("booking_id", out.ID),
		zap.String("reason", reason),
	)
	s.notifier.BookingCancelled(out)
	return out, nil
}

func (s *service) Update(ctx context.Context, id string, req UpdateRequest, actorID *string) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if IsTerminal(b.Status) {
		return nil, ErrTransition(b.Status, b.Status)
	}

	oldDate := b.Event.Date
	oldStart := b.Event.StartTime
	oldEnd := b.Event.EndTime

	applyPatch(b, req)
	ApplyOvernight(b)

	entry := HistoryEntry{
		Status:    b.Status,
		ChangedAt: time.Now().UTC(),
		ChangedBy: actorID,
		Note:      "booking details updated",
	}

	windowChanged := !b.Event.Date.Equal(oldDate) || b.Event.StartTime != oldStart || b.Event.EndTime != oldEnd
	if windowChanged {
		if b.Event.Date.Before(clock.Today()) {
			return nil, ErrPastEventDate
		}
		if err := s.scheduler.Rereserve(ctx, b, oldDate, oldStart, oldEnd, entry); err != nil {
			return nil, err
		}
	} else {
		err = s.scheduler.InTx(ctx, func(tx pgx.Tx) error {
			repo := s.repo.WithTx(tx)
			if err := repo.Update(ctx, b); err != nil {
				return err
			}
			return repo.AppendHistory(ctx, b.ID, entry)
		})
		if err != nil {
			return nil, err
		}
	}
	b.StatusHistory = append(b.StatusHistory, entry)

	s.logger.Info("booking updated",
		zap.String("booking_id", b.ID),
		zap.Bool("window_changed", windowChanged),
	)
	return b, nil
}

func applyPatch(b *Booking, req UpdateRequest) {
	if req.ClientName != nil {
		b.Client.FullName = *req.ClientName
	}
	if req.ClientEmail != nil {
		b.Client.Email = *req.ClientEmail
	}
	if req.ClientPhone != nil {
		b.Client.Phone = *req.ClientPhone
	}
	if req.EventType != nil {
		b.Event.Type = *req.EventType
	}
	if req.EventTitle != nil {
		b.Event.Title = *req.EventTitle
	}
	if req.EventLocation != nil {
		b.Event.Location = *req.EventLocation
	}
	if req.EventDate != nil {
		b.Event.Date = clock.Midnight(*req.EventDate)
	}
	if req.StartTime != nil {
		b.Event.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		b.Event.EndTime = *req.EndTime
	}
	if req.ConsultationMode != nil {
		b.Event.ConsultationMode = *req.ConsultationMode
	}
	if req.EventNotes != nil {
		b.Event.Notes = *req.EventNotes
	}
	if req.Estimate != nil {
		b.Pricing.Estimate = *req.Estimate
	}
	if req.OvernightSurcharge != nil {
		b.Pricing.OvernightSurcharge = *req.OvernightSurcharge
	}
	if req.DepositRequired != nil {
		b.Pricing.DepositRequired = *req.DepositRequired
	}
	if req.FinalAgreed != nil {
		b.Pricing.FinalAgreed = req.FinalAgreed
	}
	if req.Notes != nil {
		b.Notes = *req.Notes
	}
}

func (s *service) PaymentDetails(ctx context.Context, id string) (*PaymentDetails, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	paid, err := s.payments.TotalPaid(ctx, b.ID)
	if err != nil {
		return nil, err
	}

	total := b.TotalAmount()
	if b.Pricing.FinalAgreed != nil {
		total = *b.Pricing.FinalAgreed
	}
	remaining := total - paid
	if remaining < 0 {
		remaining = 0
	}
	return &PaymentDetails{
		TotalAmount:      total,
		DepositRequired:  b.Pricing.DepositRequired,
		TotalPaid:        paid,
		RemainingBalance: remaining,
		Currency:         b.Pricing.Currency,
	}, nil
}

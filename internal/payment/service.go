package payment

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/partypallet/decor-booking-backend/internal/booking"
	"github.com/partypallet/decor-booking-backend/internal/db"
)

const referencePrefix = "party_pallet"

// Notifier receives payment outcomes for out-of-band delivery.
// Implementations must not block.
type Notifier interface {
	PaymentSucceeded(b *booking.Booking, p *Payment)
	PaymentFailed(b *booking.Booking, p *Payment)
}

type Service interface {
	// Initialize starts a checkout for the booking's deposit (or more).
	// Amount is in major currency units.
	Initialize(ctx context.Context, bookingID string, amount float64) (*Payment, *InitResult, error)
	// Retry starts a fresh checkout after a failed attempt.
	Retry(ctx context.Context, bookingID string) (*Payment, *InitResult, error)
	// HandleWebhook authenticates and applies a provider event delivery.
	// Every authentic delivery is acknowledged, including redeliveries and
	// events that cannot be applied; only a bad signature is an error.
	HandleWebhook(ctx context.Context, body []byte, signature string) error
	// Verify reconciles a payment against the provider and returns its
	// up-to-date state.
	Verify(ctx context.Context, reference string) (*Payment, error)
	GetByBooking(ctx context.Context, bookingID string) ([]*Payment, error)

	// TotalPaid implements booking.PaymentSummarizer, in major units.
	TotalPaid(ctx context.Context, bookingID string) (float64, error)
}

type service struct {
	repo        Repository
	bookings    booking.Repository
	runner      db.TxRunner
	provider    Provider
	secretKey   string
	callbackURL string
	notifier    Notifier
	logger      *zap.Logger
}

func NewService(repo Repository, bookings booking.Repository, runner db.TxRunner, provider Provider, secretKey, callbackURL string, notifier Notifier, logger *zap.Logger) Service {
	return &service{
		repo:        repo,
		bookings:    bookings,
		runner:      runner,
		provider:    provider,
		secretKey:   secretKey,
		callbackURL: callbackURL,
		notifier:    notifier,
		logger:      logger,
	}
}

// NewReference builds a provider reference unique to this attempt.
func NewReference() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("%s_%d_%s", referencePrefix, time.Now().UnixMilli(), hex.EncodeToString(buf))
}

func (s *service) Initialize(ctx context.Context, bookingID string, amount float64) (*Payment, *InitResult, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	if b.Status == booking.StatusCancelled {
		return nil, nil, booking.ErrAlreadyCancelled
	}
	if amount < b.Pricing.DepositRequired {
		return nil, nil, ErrBelowDeposit
	}
	if err := s.ensureNoSuccess(ctx, bookingID); err != nil {
		return nil, nil, err
	}
	return s.startCheckout(ctx, b, amount)
}

func (s *service) Retry(ctx context.Context, bookingID string) (*Payment, *InitResult, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	if b.Status == booking.StatusCancelled {
		return nil, nil, booking.ErrAlreadyCancelled
	}
	if err := s.ensureNoSuccess(ctx, bookingID); err != nil {
		return nil, nil, err
	}

	last, err := s.repo.LatestByBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, ErrNoFailedPayment
		}
		return nil, nil, err
	}
	if last.Status != StatusFailed {
		return nil, nil, ErrNoFailedPayment
	}

	amount := float64(last.Amount) / 100
	return s.startCheckout(ctx, b, amount)
}

func (s *service) startCheckout(ctx context.Context, b *booking.Booking, amount float64) (*Payment, *InitResult, error) {
	reference := NewReference()
	minor := int64(amount*100 + 0.5)

	result, err := s.provider.Initialize(ctx, b.Client.Email, reference, minor, b.Pricing.Currency, s.callbackURL)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize payment failed: %w", err)
	}

	p := &Payment{
		BookingID: b.ID,
		Provider:  ProviderPaystack,
		Reference: reference,
		Amount:    minor,
		Currency:  b.Pricing.Currency,
		Status:    StatusInitialized,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, nil, err
	}

	s.logger.Info("payment initialized",
		zap.String("booking_id", b.ID),
		zap.String("reference", reference),
		zap.Int64("amount", minor),
	)
	return p, result, nil
}

func (s *service) ensureNoSuccess(ctx context.Context, bookingID string) error {
	payments, err := s.repo.ListByBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	for _, p := range payments {
		if p.Status == StatusSuccess {
			return ErrAlreadyPaid
		}
	}
	return nil
}

func (s *service) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if !VerifySignature(s.secretKey, body, signature) {
		return ErrInvalidSignature
	}

	// The delivery is authentic past this point. Acknowledge it no matter
	// what happens while applying, otherwise the provider keeps redelivering
	// an event we will never be able to process.
	event, err := ParseWebhook(body)
	if err != nil {
		s.logger.Error("webhook payload rejected", zap.Error(err))
		return nil
	}

	switch event.Event {
	case "charge.success", "charge.failed":
		if err := s.apply(ctx, event); err != nil {
			if errors.Is(err, ErrNotFound) {
				// Not ours (or a stale sandbox event): leave a trace.
				s.logger.Warn("webhook for unknown payment reference",
					zap.String("reference", event.Reference),
					zap.String("event", event.Event),
				)
				return nil
			}
			s.logger.Error("webhook apply failed",
				zap.String("reference", event.Reference),
				zap.String("event", event.Event),
				zap.Error(err),
			)
		}
		return nil
	default:
		s.logger.Debug("ignoring webhook event", zap.String("event", event.Event))
		return nil
	}
}

// apply records a provider outcome exactly once. A success additionally moves
// the booking from pending to deposit-paid; redeliveries and out-of-order
// events find the payment already in its final status and do nothing.
func (s *service) apply(ctx context.Context, event *ProviderEvent) error {
	var (
		payment      *Payment
		paidBooking  *booking.Booking
		failedNotice *booking.Booking
	)

	err := s.runner.InTx(ctx, func(tx pgx.Tx) error {
		repo := s.repo.WithTx(tx)
		p, err := repo.GetByReference(ctx, event.Reference)
		if err != nil {
			return err
		}

		target := StatusFailed
		if event.Event == "charge.success" {
			target = StatusSuccess
		}
		if p.Status == target {
			payment = p
			return nil
		}
		// A settled payment never moves again.
		if p.Status == StatusSuccess || p.Status == StatusFailed {
			payment = p
			return nil
		}

		p.Status = target
		p.Raw = event.Raw
		if event.Channel != "" {
			channel := event.Channel
			p.Channel = &channel
		}
		if target == StatusSuccess {
			paidAt := time.Now().UTC()
			if event.PaidAt != nil {
				paidAt = *event.PaidAt
			}
			p.PaymentDate = &paidAt
		} else if event.GatewayResponse != "" {
			reason := event.GatewayResponse
			p.FailureReason = &reason
		}
		if err := repo.Update(ctx, p); err != nil {
			return err
		}
		payment = p

		bookings := s.bookings.WithTx(tx)
		b, err := bookings.GetByID(ctx, p.BookingID)
		if err != nil {
			return err
		}

		if target == StatusSuccess {
			if booking.CanTransition(b.Status, booking.StatusDepositPaid) {
				b.Status = booking.StatusDepositPaid
				if err := bookings.Update(ctx, b); err != nil {
					return err
				}
				if err := bookings.AppendHistory(ctx, b.ID, booking.HistoryEntry{
					Status:    booking.StatusDepositPaid,
					ChangedAt: time.Now().UTC(),
					Note:      "deposit payment received",
				}); err != nil {
					return err
				}
			}
			paidBooking = b
		} else {
			failedNotice = b
		}
		return nil
	})
	if err != nil {
		return err
	}

	if paidBooking != nil {
		s.logger.Info("payment succeeded",
			zap.String("booking_id", paidBooking.ID),
			zap.String("reference", payment.Reference),
		)
		s.notifier.PaymentSucceeded(paidBooking, payment)
	}
	if failedNotice != nil {
		s.logger.Info("payment failed",
			zap.String("booking_id", failedNotice.ID),
			zap.String("reference", payment.Reference),
		)
		s.notifier.PaymentFailed(failedNotice, payment)
	}
	return nil
}

func (s *service) Verify(ctx context.Context, reference string) (*Payment, error) {
	p, err := s.repo.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if p.Status == StatusSuccess || p.Status == StatusFailed {
		return p, nil
	}

	event, err := s.provider.Verify(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("verify payment failed: %w", err)
	}
	if event.Event != "charge.success" && event.Event != "charge.failed" {
		// The provider has not settled the transaction yet. Record nothing;
		// the webhook (or a later verify) will carry the outcome.
		return p, nil
	}
	if err := s.apply(ctx, event); err != nil {
		return nil, err
	}
	return s.repo.GetByReference(ctx, reference)
}

func (s *service) GetByBooking(ctx context.Context, bookingID string) ([]*Payment, error) {
	return s.repo.ListByBooking(ctx, bookingID)
}

func (s *service) TotalPaid(ctx context.Context, bookingID string) (float64, error) {
	minor, err := s.repo.SumSuccessful(ctx, bookingID)
	if err != nil {
		return 0, err
	}
	return float64(minor) / 100, nil
}

package notify

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/partypallet/decor-booking-backend/internal/booking"
	"github.com/partypallet/decor-booking-backend/internal/payment"
	"github.com/partypallet/decor-booking-backend/internal/pkg/clock"
)

// Service turns domain events into queued emails. It implements
// booking.Notifier and payment.Notifier.
type Service struct {
	dispatcher *Dispatcher
	baseURL    string
	adminEmail string
	logger     *zap.Logger
}

func NewService(dispatcher *Dispatcher, baseURL, adminEmail string, logger *zap.Logger) *Service {
	return &Service{
		dispatcher: dispatcher,
		baseURL:    baseURL,
		adminEmail: adminEmail,
		logger:     logger,
	}
}

func (s *Service) data(b *booking.Booking) templateData {
	return templateData{
		ClientName:  b.Client.FullName,
		EventType:   b.Event.Type,
		EventDate:   b.Event.Date.Format(clock.DateLayout),
		EventWindow: b.Event.StartTime + "-" + b.Event.EndTime,
		Location:    b.Event.Location,
		Status:      string(b.Status),
		TrackingURL: fmt.Sprintf("%s/bookings/%s", s.baseURL, b.ID),
	}
}

func (s *Service) send(templateName, subject string, to []string, data templateData) {
	html, err := render(templateName, data)
	if err != nil {
		s.logger.Error("render notification failed",
			zap.String("template", templateName),
			zap.Error(err),
		)
		return
	}
	s.dispatcher.Enqueue(Message{To: to, Subject: subject, HTML: html})
}

func (s *Service) BookingCreated(b *booking.Booking) {
	s.send("booking_created", "We received your booking", []string{b.Client.Email}, s.data(b))
	if s.adminEmail != "" {
		s.send("admin_new_booking", "New booking: "+b.Event.Type+" on "+b.Event.Date.Format(clock.DateLayout),
			[]string{s.adminEmail}, s.data(b))
	}
}

func (s *Service) StatusChanged(b *booking.Booking, from booking.Status) {
	s.send("status_changed", "Your booking is now "+string(b.Status), []string{b.Client.Email}, s.data(b))
}

func (s *Service) BookingCancelled(b *booking.Booking) {
	data := s.data(b)
	if b.CancellationReason != nil {
		data.Reason = *b.CancellationReason
	}
	s.send("booking_cancelled", "Your booking was cancelled", []string{b.Client.Email}, data)
}

func (s *Service) PaymentSucceeded(b *booking.Booking, p *payment.Payment) {
	data := s.data(b)
	data.Amount = fmt.Sprintf("%.2f", float64(p.Amount)/100)
	data.Currency = p.Currency
	data.Reference = p.Reference
	s.send("payment_succeeded", "Payment confirmed", []string{b.Client.Email}, data)
}

func (s *Service) PaymentFailed(b *booking.Booking, p *payment.Payment) {
	data := s.data(b)
	data.Reference = p.Reference
	s.send("payment_failed", "Payment failed", []string{b.Client.Email}, data)
}

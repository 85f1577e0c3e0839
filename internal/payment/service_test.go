package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/partypallet/decor-booking-backend/internal/booking"
)

const testSecret = "sk_test_secret"

// fakeRunner satisfies db.TxRunner without a database; the fakes below ignore
// the tx handle.
type fakeRunner struct{}

func (fakeRunner) InTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

type fakeRepo struct {
	byRef map[string]*Payment
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byRef: make(map[string]*Payment)}
}

func (r *fakeRepo) WithTx(tx pgx.Tx) Repository { return r }

func (r *fakeRepo) Create(ctx context.Context, p *Payment) error {
	if _, ok := r.byRef[p.Reference]; ok {
		return ErrDuplicateReference
	}
	p.ID = fmt.Sprintf("pay-%d", len(r.byRef)+1)
	p.CreatedAt = time.Now().UTC()
	cp := *p
	r.byRef[p.Reference] = &cp
	return nil
}

func (r *fakeRepo) Update(ctx context.Context, p *Payment) error {
	if _, ok := r.byRef[p.Reference]; !ok {
		return ErrNotFound
	}
	cp := *p
	r.byRef[p.Reference] = &cp
	return nil
}

func (r *fakeRepo) GetByReference(ctx context.Context, reference string) (*Payment, error) {
	p, ok := r.byRef[reference]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeRepo) ListByBooking(ctx context.Context, bookingID string) ([]*Payment, error) {
	var out []*Payment
	for _, p := range r.byRef {
		if p.BookingID == bookingID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeRepo) LatestByBooking(ctx context.Context, bookingID string) (*Payment, error) {
	var latest *Payment
	for _, p := range r.byRef {
		if p.BookingID != bookingID {
			continue
		}
		if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
			latest = p
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (r *fakeRepo) SumSuccessful(ctx context.Context, bookingID string) (int64, error) {
	var total int64
	for _, p := range r.byRef {
		if p.BookingID == bookingID && p.Status == StatusSuccess {
			total += p.Amount
		}
	}
	return total, nil
}

type fakeBookings struct {
	byID    map[string]*booking.Booking
	history []booking.HistoryEntry
}

func newFakeBookings(bs ...*booking.Booking) *fakeBookings {
	m := make(map[string]*booking.Booking)
	for _, b := range bs {
		m[b.ID] = b
	}
	return &fakeBookings{byID: m}
}

func (r *fakeBookings) WithTx(tx pgx.Tx) booking.Repository { return r }

func (r *fakeBookings) Create(ctx context.Context, b *booking.Booking) error {
	r.byID[b.ID] = b
	return nil
}

func (r *fakeBookings) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	b, ok := r.byID[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBookings) List(ctx context.Context, filter booking.Filter) ([]*booking.Booking, int, error) {
	return nil, 0, nil
}

func (r *fakeBookings) Update(ctx context.Context, b *booking.Booking) error {
	cp := *b
	r.byID[b.ID] = &cp
	return nil
}

func (r *fakeBookings) HasOverlap(ctx context.Context, date time.Time, start, end, excludeID string) (bool, error) {
	return false, nil
}

func (r *fakeBookings) AppendHistory(ctx context.Context, bookingID string, entry booking.HistoryEntry) error {
	r.history = append(r.history, entry)
	return nil
}

type fakeProvider struct {
	verifyEvent *ProviderEvent
	initCalls   int
}

func (p *fakeProvider) Initialize(ctx context.Context, email, reference string, amount int64, currency, callbackURL string) (*InitResult, error) {
	p.initCalls++
	return &InitResult{
		AuthorizationURL: "https://checkout.paystack.com/" + reference,
		AccessCode:       "ac_" + reference,
		Reference:        reference,
	}, nil
}

func (p *fakeProvider) Verify(ctx context.Context, reference string) (*ProviderEvent, error) {
	return p.verifyEvent, nil
}

type fakeNotifier struct {
	succeeded int
	failed    int
}

func (n *fakeNotifier) PaymentSucceeded(b *booking.Booking, p *Payment) { n.succeeded++ }
func (n *fakeNotifier) PaymentFailed(b *booking.Booking, p *Payment)   { n.failed++ }

func pendingBooking(id string) *booking.Booking {
	return &booking.Booking{
		ID:     id,
		Client: booking.Client{FullName: "Ada Obi", Email: "ada@example.com", Phone: "+2348000000000"},
		Event: booking.Event{
			Type:      "Birthday",
			Location:  "Lekki, Lagos",
			Date:      time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC),
			StartTime: "10:00",
			EndTime:   "14:00",
		},
		Pricing: booking.Pricing{Estimate: 1500, DepositRequired: 500, Currency: "NGN"},
		Status:  booking.StatusPending,
	}
}

func newTestService(bookings *fakeBookings) (Service, *fakeRepo, *fakeProvider, *fakeNotifier) {
	repo := newFakeRepo()
	provider := &fakeProvider{}
	notifier := &fakeNotifier{}
	svc := NewService(repo, bookings, fakeRunner{}, provider, testSecret, "", notifier, zap.NewNop())
	return svc, repo, provider, notifier
}

func sign(body []byte) string {
	mac := hmac.New(sha512.New, []byte(testSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func chargeEvent(event, reference string, amount int64) []byte {
	body, _ := json.Marshal(map[string]any{
		"event": event,
		"data": map[string]any{
			"reference":        reference,
			"amount":           amount,
			"currency":         "NGN",
			"paid_at":          time.Now().UTC().Format(time.RFC3339),
			"channel":          "card",
			"gateway_response": "Approved",
		},
	})
	return body
}

func TestNewReferenceFormat(t *testing.T) {
	ref := NewReference()
	parts := strings.Split(ref, "_")
	require.Len(t, parts, 4)
	assert.Equal(t, "party", parts[0])
	assert.Equal(t, "pallet", parts[1])
	assert.Len(t, parts[3], 16)

	assert.NotEqual(t, ref, NewReference())
}

func TestInitializeBelowDeposit(t *testing.T) {
	svc, _, _, _ := newTestService(newFakeBookings(pendingBooking("bk-1")))

	_, _, err := svc.Initialize(context.Background(), "bk-1", 100)
	assert.ErrorIs(t, err, ErrBelowDeposit)
}

func TestInitializeCreatesPayment(t *testing.T) {
	bookings := newFakeBookings(pendingBooking("bk-1"))
	svc, _, provider, _ := newTestService(bookings)

	p, result, err := svc.Initialize(context.Background(), "bk-1", 500)
	require.NoError(t, err)
	assert.Equal(t, StatusInitialized, p.Status)
	assert.Equal(t, int64(50000), p.Amount)
	assert.Equal(t, 1, provider.initCalls)
	assert.Contains(t, result.AuthorizationURL, p.Reference)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	svc, _, _, _ := newTestService(newFakeBookings(pendingBooking("bk-1")))
	body := chargeEvent("charge.success", "ref-1", 50000)

	err := svc.HandleWebhook(context.Background(), body, "deadbeef")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestWebhookSuccessMovesBookingToDepositPaid(t *testing.T) {
	bookings := newFakeBookings(pendingBooking("bk-1"))
	svc, _, _, notifier := newTestService(bookings)

	p, _, err := svc.Initialize(context.Background(), "bk-1", 500)
	require.NoError(t, err)

	body := chargeEvent("charge.success", p.Reference, p.Amount)
	require.NoError(t, svc.HandleWebhook(context.Background(), body, sign(body)))

	b, err := bookings.GetByID(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, booking.StatusDepositPaid, b.Status)
	require.Len(t, bookings.history, 1)
	assert.Equal(t, "deposit payment received", bookings.history[0].Note)
	assert.Equal(t, 1, notifier.succeeded)

	paid, err := svc.TotalPaid(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.InDelta(t, 500.0, paid, 0.001)
}

func TestWebhookRedeliveryIsIdempotent(t *testing.T) {
	bookings := newFakeBookings(pendingBooking("bk-1"))
	svc, _, _, notifier := newTestService(bookings)

	p, _, err := svc.Initialize(context.Background(), "bk-1", 500)
	require.NoError(t, err)

	body := chargeEvent("charge.success", p.Reference, p.Amount)
	require.NoError(t, svc.HandleWebhook(context.Background(), body, sign(body)))
	require.NoError(t, svc.HandleWebhook(context.Background(), body, sign(body)))
	require.NoError(t, svc.HandleWebhook(context.Background(), body, sign(body)))

	assert.Len(t, bookings.history, 1, "redeliveries must not append history")
	assert.Equal(t, 1, notifier.succeeded, "redeliveries must not renotify")

	paid, err := svc.TotalPaid(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.InDelta(t, 500.0, paid, 0.001)
}

func TestWebhookFailedRecordsReasonOnly(t *testing.T) {
	bookings := newFakeBookings(pendingBooking("bk-1"))
	svc, repo, _, notifier := newTestService(bookings)

	p, _, err := svc.Initialize(context.Background(), "bk-1", 500)
	require.NoError(t, err)

	body, _ := json.Marshal(map[string]any{
		"event": "charge.failed",
		"data": map[string]any{
			"reference":        p.Reference,
			"amount":           p.Amount,
			"currency":         "NGN",
			"channel":          "card",
			"gateway_response": "Insufficient funds",
		},
	})
	require.NoError(t, svc.HandleWebhook(context.Background(), body, sign(body)))

	got, err := repo.GetByReference(context.Background(), p.Reference)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	require.NotNil(t, got.FailureReason)
	assert.Equal(t, "Insufficient funds", *got.FailureReason)

	b, err := bookings.GetByID(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, booking.StatusPending, b.Status, "failed charge must not move the booking")
	assert.Equal(t, 1, notifier.failed)
}

func TestWebhookFailedAfterSuccessIsIgnored(t *testing.T) {
	bookings := newFakeBookings(pendingBooking("bk-1"))
	svc, repo, _, _ := newTestService(bookings)

	p, _, err := svc.Initialize(context.Background(), "bk-1", 500)
	require.NoError(t, err)

	success := chargeEvent("charge.success", p.Reference, p.Amount)
	require.NoError(t, svc.HandleWebhook(context.Background(), success, sign(success)))

	failed := chargeEvent("charge.failed", p.Reference, p.Amount)
	require.NoError(t, svc.HandleWebhook(context.Background(), failed, sign(failed)))

	got, err := repo.GetByReference(context.Background(), p.Reference)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, got.Status, "settled payments never move again")
}

func TestWebhookUnknownReferenceIsAcknowledged(t *testing.T) {
	svc, _, _, _ := newTestService(newFakeBookings(pendingBooking("bk-1")))

	body := chargeEvent("charge.success", "party_pallet_0_ffffffffffffffff", 50000)
	assert.NoError(t, svc.HandleWebhook(context.Background(), body, sign(body)))
}

func TestVerifyFunnelsThroughApply(t *testing.T) {
	bookings := newFakeBookings(pendingBooking("bk-1"))
	svc, _, provider, notifier := newTestService(bookings)

	p, _, err := svc.Initialize(context.Background(), "bk-1", 500)
	require.NoError(t, err)

	paidAt := time.Now().UTC()
	provider.verifyEvent = &ProviderEvent{
		Event:     "charge.success",
		Reference: p.Reference,
		Amount:    p.Amount,
		Currency:  "NGN",
		PaidAt:    &paidAt,
		Channel:   "card",
		Raw:       json.RawMessage(`{"status":"success"}`),
	}

	got, err := svc.Verify(context.Background(), p.Reference)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, got.Status)

	b, err := bookings.GetByID(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, booking.StatusDepositPaid, b.Status)
	assert.Equal(t, 1, notifier.succeeded)

	// A second verify sees the settled payment and skips the provider.
	provider.verifyEvent = nil
	again, err := svc.Verify(context.Background(), p.Reference)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, again.Status)
}

func TestVerifyPendingLeavesPaymentOpen(t *testing.T) {
	bookings := newFakeBookings(pendingBooking("bk-1"))
	svc, repo, provider, notifier := newTestService(bookings)

	p, _, err := svc.Initialize(context.Background(), "bk-1", 500)
	require.NoError(t, err)

	// The provider has not settled the transaction: verify reports it as-is
	// and must not record an outcome.
	provider.verifyEvent = &ProviderEvent{
		Event:     "",
		Reference: p.Reference,
		Amount:    p.Amount,
		Currency:  "NGN",
		Raw:       json.RawMessage(`{"status":"pending"}`),
	}

	got, err := svc.Verify(context.Background(), p.Reference)
	require.NoError(t, err)
	assert.Equal(t, StatusInitialized, got.Status, "pending verify must not settle the payment")

	stored, err := repo.GetByReference(context.Background(), p.Reference)
	require.NoError(t, err)
	assert.Equal(t, StatusInitialized, stored.Status)
	assert.Equal(t, 0, notifier.failed)

	// The real outcome arrives later by webhook and must still land.
	body := chargeEvent("charge.success", p.Reference, p.Amount)
	require.NoError(t, svc.HandleWebhook(context.Background(), body, sign(body)))

	b, err := bookings.GetByID(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, booking.StatusDepositPaid, b.Status)
	assert.Equal(t, 1, notifier.succeeded)
}

func TestWebhookMalformedBodyIsAcknowledged(t *testing.T) {
	svc, _, _, _ := newTestService(newFakeBookings(pendingBooking("bk-1")))

	body := []byte(`{"event": "charge.success", "data": `)
	assert.NoError(t, svc.HandleWebhook(context.Background(), body, sign(body)),
		"an authentic delivery is acknowledged even when it cannot be applied")
}

func TestRetryRequiresFailedPayment(t *testing.T) {
	bookings := newFakeBookings(pendingBooking("bk-1"))
	svc, repo, _, _ := newTestService(bookings)

	_, _, err := svc.Retry(context.Background(), "bk-1")
	assert.ErrorIs(t, err, ErrNoFailedPayment)

	p, _, err := svc.Initialize(context.Background(), "bk-1", 500)
	require.NoError(t, err)

	_, _, err = svc.Retry(context.Background(), "bk-1")
	assert.ErrorIs(t, err, ErrNoFailedPayment, "initialized payment is not retryable")

	p.Status = StatusFailed
	require.NoError(t, repo.Update(context.Background(), p))

	retry, result, err := svc.Retry(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, p.Amount, retry.Amount)
	assert.NotEqual(t, p.Reference, retry.Reference)
	assert.NotEmpty(t, result.AuthorizationURL)
}

func TestInitializeRejectsWhenAlreadyPaid(t *testing.T) {
	bookings := newFakeBookings(pendingBooking("bk-1"))
	svc, _, _, _ := newTestService(bookings)

	p, _, err := svc.Initialize(context.Background(), "bk-1", 500)
	require.NoError(t, err)

	body := chargeEvent("charge.success", p.Reference, p.Amount)
	require.NoError(t, svc.HandleWebhook(context.Background(), body, sign(body)))

	_, _, err = svc.Initialize(context.Background(), "bk-1", 500)
	assert.ErrorIs(t, err, ErrAlreadyPaid)
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"event":"charge.success"}`)
	assert.True(t, VerifySignature(testSecret, body, sign(body)))
	assert.False(t, VerifySignature(testSecret, body, sign([]byte("tampered"))))
	assert.False(t, VerifySignature("wrong_secret", body, sign(body)))
}

package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const ProviderPaystack = "paystack"

// InitResult is what the provider returns when a transaction is initialized:
// a hosted checkout URL the client is redirected to.
type InitResult struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

// ProviderEvent is the normalized view of a provider callback or verify
// response. Raw keeps the original payload for auditing.
type ProviderEvent struct {
	Event           string
	Reference       string
	Amount          int64
	Currency        string
	PaidAt          *time.Time
	Channel         string
	GatewayResponse string
	Raw             json.RawMessage
}

// Provider is the payment gateway boundary.
type Provider interface {
	// Initialize starts a hosted checkout for amount minor units.
	Initialize(ctx context.Context, email, reference string, amount int64, currency, callbackURL string) (*InitResult, error)
	// Verify fetches the transaction's current state by reference.
	Verify(ctx context.Context, reference string) (*ProviderEvent, error)
}

type paystackClient struct {
	baseURL   string
	secretKey string
	http      *http.Client
}

func NewPaystackClient(baseURL, secretKey string) Provider {
	return &paystackClient{
		baseURL:   baseURL,
		secretKey: secretKey,
		http:      &http.Client{Timeout: 15 * time.Second},
	}
}

type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type paystackTransaction struct {
	Reference       string  `json:"reference"`
	Amount          int64   `json:"amount"`
	Currency        string  `json:"currency"`
	Status          string  `json:"status"`
	PaidAt          *string `json:"paid_at"`
	Channel         string  `json:"channel"`
	GatewayResponse string  `json:"gateway_response"`
}

func (c *paystackClient) Initialize(ctx context.Context, email, reference string, amount int64, currency, callbackURL string) (*InitResult, error) {
	body := map[string]any{
		"email":     email,
		"amount":    amount,
		"reference": reference,
		"currency":  currency,
	}
	if callbackURL != "" {
		body["callback_url"] = callbackURL
	}

	var data struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	}
	if err := c.do(ctx, http.MethodPost, "/transaction/initialize", body, &data); err != nil {
		return nil, err
	}
	return &InitResult{
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
		Reference:        data.Reference,
	}, nil
}

func (c *paystackClient) Verify(ctx context.Context, reference string) (*ProviderEvent, error) {
	var tx paystackTransaction
	raw, err := c.doRaw(ctx, http.MethodGet, "/transaction/verify/"+reference, nil, &tx)
	if err != nil {
		return nil, err
	}

	// Only success and failed are terminal. A pending or abandoned
	// transaction yields no charge event; callers must leave local state
	// alone until the provider settles it.
	var event string
	switch tx.Status {
	case "success":
		event = "charge.success"
	case "failed":
		event = "charge.failed"
	}
	out := &ProviderEvent{
		Event:           event,
		Reference:       tx.Reference,
		Amount:          tx.Amount,
		Currency:        tx.Currency,
		Channel:         tx.Channel,
		GatewayResponse: tx.GatewayResponse,
		Raw:             raw,
	}
	if tx.PaidAt != nil && *tx.PaidAt != "" {
		if t, err := time.Parse(time.RFC3339, *tx.PaidAt); err == nil {
			utc := t.UTC()
			out.PaidAt = &utc
		}
	}
	return out, nil
}

func (c *paystackClient) do(ctx context.Context, method, path string, body, out any) error {
	_, err := c.doRaw(ctx, method, path, body, out)
	return err
}

func (c *paystackClient) doRaw(ctx context.Context, method, path string, body, out any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal paystack request failed: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build paystack request failed: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("paystack request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read paystack response failed: %w", err)
	}

	var envelope paystackEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("decode paystack response failed: %w", err)
	}
	if resp.StatusCode >= 400 || !envelope.Status {
		return nil, fmt.Errorf("paystack error (%d): %s", resp.StatusCode, envelope.Message)
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return nil, fmt.Errorf("decode paystack data failed: %w", err)
		}
	}
	return envelope.Data, nil
}

// VerifySignature checks the webhook HMAC: SHA-512 of the raw body keyed with
// the secret, hex-encoded, against the x-paystack-signature header.
func VerifySignature(secretKey string, body []byte, signature string) bool {
	mac := hmac.New(sha512.New, []byte(secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// webhookPayload is the shape of a Paystack charge event delivery.
type webhookPayload struct {
	Event string `json:"event"`
	Data  struct {
		Reference       string  `json:"reference"`
		Amount          int64   `json:"amount"`
		Currency        string  `json:"currency"`
		PaidAt          *string `json:"paid_at"`
		Channel         string  `json:"channel"`
		GatewayResponse string  `json:"gateway_response"`
	} `json:"data"`
}

// ParseWebhook decodes a raw webhook body into a normalized event.
func ParseWebhook(body []byte) (*ProviderEvent, error) {
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode webhook payload failed: %w", err)
	}

	out := &ProviderEvent{
		Event:           payload.Event,
		Reference:       payload.Data.Reference,
		Amount:          payload.Data.Amount,
		Currency:        payload.Data.Currency,
		Channel:         payload.Data.Channel,
		GatewayResponse: payload.Data.GatewayResponse,
		Raw:             json.RawMessage(body),
	}
	if payload.Data.PaidAt != nil && *payload.Data.PaidAt != "" {
		if t, err := time.Parse(time.RFC3339, *payload.Data.PaidAt); err == nil {
			utc := t.UTC()
			out.PaidAt = &utc
		}
	}
	return out, nil
}

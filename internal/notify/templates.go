package notify

import (
	"fmt"
	"html/template"
	"strings"
)

// templateData is the common payload for every email template.
type templateData struct {
	ClientName  string
	EventType   string
	EventDate   string
	EventWindow string
	Location    string
	Status      string
	Reason      string
	Amount      string
	Currency    string
	Reference   string
	TrackingURL string
}

var templates = template.Must(template.New("emails").Parse(`
{{define "booking_created"}}
<h2>Booking Received</h2>
<p>Hi {{.ClientName}},</p>
<p>We received your {{.EventType}} booking for {{.EventDate}}, {{.EventWindow}} at {{.Location}}.</p>
<p>Your booking is pending until the deposit is paid. You can follow its progress here:
<a href="{{.TrackingURL}}">{{.TrackingURL}}</a></p>
{{end}}

{{define "admin_new_booking"}}
<h2>New Booking</h2>
<p>{{.ClientName}} requested a {{.EventType}} on {{.EventDate}}, {{.EventWindow}} at {{.Location}}.</p>
<p><a href="{{.TrackingURL}}">Open booking</a></p>
{{end}}

{{define "status_changed"}}
<h2>Booking Update</h2>
<p>Hi {{.ClientName}},</p>
<p>Your {{.EventType}} booking for {{.EventDate}} is now <strong>{{.Status}}</strong>.</p>
<p><a href="{{.TrackingURL}}">View booking</a></p>
{{end}}

{{define "booking_cancelled"}}
<h2>Booking Cancelled</h2>
<p>Hi {{.ClientName}},</p>
<p>Your {{.EventType}} booking for {{.EventDate}} has been cancelled.</p>
<p>Reason: {{.Reason}}</p>
{{end}}

{{define "payment_succeeded"}}
<h2>Payment Confirmed</h2>
<p>Hi {{.ClientName}},</p>
<p>We received your payment of {{.Currency}} {{.Amount}} (ref {{.Reference}}) for the {{.EventType}} on {{.EventDate}}.</p>
<p><a href="{{.TrackingURL}}">View booking</a></p>
{{end}}

{{define "payment_failed"}}
<h2>Payment Failed</h2>
<p>Hi {{.ClientName}},</p>
<p>Your payment (ref {{.Reference}}) for the {{.EventType}} on {{.EventDate}} did not go through.</p>
<p>You can retry the payment from your booking page: <a href="{{.TrackingURL}}">{{.TrackingURL}}</a></p>
{{end}}
`))

func render(name string, data templateData) (string, error) {
	var b strings.Builder
	if err := templates.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("render template %s failed: %w", name, err)
	}
	return b.String(), nil
}

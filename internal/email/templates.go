package email

import (
	"bytes"
	"fmt"
	"html/template"
)

// ConfirmationData fills the booking confirmation email.
type ConfirmationData struct {
	BookingNumber   string
	DestinationName string
	StartDate       string
	EndDate         string
	TotalFormatted  string
}

// ReceiptData fills the payment receipt email.
type ReceiptData struct {
	BookingNumber   string
	AmountFormatted string
	PaymentMethod   string
}

const layoutOpen = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">`
const boxOpen = `<div style="background: #f5f5f5; padding: 20px; border-radius: 8px; margin: 20px 0;">`

var (
	confirmationTmpl = template.Must(template.New("confirmation").Parse(layoutOpen + `
<h1>Booking Confirmed!</h1>
<p>Your trip to <strong>{{.DestinationName}}</strong> has been confirmed.</p>
` + boxOpen + `
<p><strong>Booking Number:</strong> {{.BookingNumber}}</p>
<p><strong>Dates:</strong> {{.StartDate}} - {{.EndDate}}</p>
<p><strong>Total:</strong> {{.TotalFormatted}}</p>
</div>
<p>We'll send you more details closer to your departure date.</p>
<p>Safe travels!</p>
</div>`))

	receiptTmpl = template.Must(template.New("receipt").Parse(layoutOpen + `
<h1>Payment Received</h1>
<p>Thank you for your payment.</p>
` + boxOpen + `
<p><strong>Booking Number:</strong> {{.BookingNumber}}</p>
<p><strong>Amount:</strong> {{.AmountFormatted}}</p>
<p><strong>Payment Method:</strong> {{.PaymentMethod}}</p>
</div>
</div>`))
)

func RenderConfirmation(to string, data ConfirmationData) (Message, error) {
	var buf bytes.Buffer
	if err := confirmationTmpl.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("render confirmation email: %w", err)
	}
	return Message{
		Kind:    KindBookingConfirmation,
		To:      to,
		Subject: "Booking Confirmed - " + data.BookingNumber,
		HTML:    buf.String(),
	}, nil
}

func RenderReceipt(to string, data ReceiptData) (Message, error) {
	var buf bytes.Buffer
	if err := receiptTmpl.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("render receipt email: %w", err)
	}
	return Message{
		Kind:    KindPaymentReceipt,
		To:      to,
		Subject: "Payment Receipt - " + data.BookingNumber,
		HTML:    buf.String(),
	}, nil
}

package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridSink sends notifications through the SendGrid API.
type SendGridSink struct {
	client   *sendgrid.Client
	fromName string
	fromAddr string
}

// NewSendGridSink creates a Sink backed by SendGrid.
func NewSendGridSink(apiKey, fromName, fromAddr string) *SendGridSink {
	return &SendGridSink{
		client:   sendgrid.NewSendClient(apiKey),
		fromName: fromName,
		fromAddr: fromAddr,
	}
}

// SendBookingCompleted emails the customer a summary of their finished rental.
func (s *SendGridSink) SendBookingCompleted(ctx context.Context, msg BookingCompleted) error {
	from := mail.NewEmail(s.fromName, s.fromAddr)
	to := mail.NewEmail(msg.ToName, msg.ToEmail)

	subject := fmt.Sprintf("Your rental %s is complete", msg.OrderSummary)

	plain := fmt.Sprintf(
		"Hi %s,\n\nYour rental of %s is complete as of %s.\n\nOrder: %s\nTotal: %.2f\n\nThank you for riding with us.",
		msg.ToName,
		msg.CarLabel,
		msg.CompletedAt.Format("02.01.2006"),
		msg.OrderSummary,
		msg.TotalPrice,
	)

	html := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your rental of <strong>%s</strong> is complete as of %s.</p><p>Order: %s<br>Total: %.2f</p><p>Thank you for riding with us.</p>",
		msg.ToName,
		msg.CarLabel,
		msg.CompletedAt.Format("02.01.2006"),
		msg.OrderSummary,
		msg.TotalPrice,
	)

	message := mail.NewSingleEmail(from, subject, to, plain, html)

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send failed: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid rejected message: status %d", resp.StatusCode)
	}
	return nil
}

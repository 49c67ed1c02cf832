package notifications

import (
	"log"

	"github.com/prismlearn/mentor_platform/models"
)

// Mailer is the outbound email collaborator. Delivery itself lives outside
// this service; callers only depend on the interface and treat every send as
// best-effort.
type Mailer interface {
	SendBookingEmail(toEmail, subject string, booking *models.Booking) error
}

// NoopMailer satisfies Mailer without sending anything. It is the default
// wiring when no email provider is configured.
type NoopMailer struct{}

func (NoopMailer) SendBookingEmail(toEmail, subject string, booking *models.Booking) error {
	log.Printf("Email delivery not configured; skipping %q to %s for booking %s", subject, toEmail, booking.ID)
	return nil
}

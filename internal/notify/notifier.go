// Package notify is the seam to the outbound notification transport.
// Delivery (email/SMS/WhatsApp) lives outside this system; the engine only
// decides that and when a reminder is due.
package notify

import (
	"context"

	"parishcore/pkg/types"

	"github.com/sirupsen/logrus"
)

type Notifier interface {
	SendReminder(ctx context.Context, c *types.SponsorshipCase, channel types.ReminderChannel) error
}

// LogNotifier records the send without transmitting anything. It stands in
// until a real transport is wired up by the hosting platform.
type LogNotifier struct {
	logger *logrus.Logger
}

func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendReminder(_ context.Context, c *types.SponsorshipCase, channel types.ReminderChannel) error {
	n.logger.WithFields(logrus.Fields{
		"case_id":     c.ID,
		"sponsor_id":  c.SponsorID,
		"beneficiary": c.Beneficiary(),
		"channel":     channel,
	}).Info("reminder dispatched")

	return nil
}

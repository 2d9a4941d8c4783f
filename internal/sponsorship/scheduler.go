package sponsorship

import (
	"context"
	"errors"
	"fmt"
	"time"

	"parishcore/internal/notify"
	"parishcore/pkg/types"

	"github.com/sirupsen/logrus"
)

// Scheduler computes reminder cadences and runs the due-case sweep. It is
// the only mutator of reminder timestamps.
type Scheduler struct {
	logger   *logrus.Logger
	cases    CaseStore
	timeline TimelineStore
	notifier notify.Notifier

	batchSize uint64
}

func NewScheduler(logger *logrus.Logger, cases CaseStore, timeline TimelineStore, notifier notify.Notifier, batchSize uint64) *Scheduler {
	return &Scheduler{
		logger:    logger,
		cases:     cases,
		timeline:  timeline,
		notifier:  notifier,
		batchSize: batchSize,
	}
}

// NextDue adds one period to the later of lastSent and startDate. OneTime
// pledges are due once at startDate and never recur after the first send.
func NextDue(frequency types.Frequency, startDate time.Time, lastSent *time.Time) *time.Time {
	if frequency == types.FrequencyOneTime {
		if lastSent != nil {
			return nil
		}
		due := startDate
		return &due
	}

	base := startDate
	if lastSent != nil && lastSent.After(base) {
		base = *lastSent
	}

	var due time.Time
	switch frequency {
	case types.FrequencyMonthly:
		due = base.AddDate(0, 1, 0)
	case types.FrequencyQuarterly:
		due = base.AddDate(0, 3, 0)
	case types.FrequencyYearly:
		due = base.AddDate(1, 0, 0)
	default:
		return nil
	}

	return &due
}

// DueCases lists Active cases due at asOf, most overdue first with a stable
// id tie-break.
func (s *Scheduler) DueCases(ctx context.Context, asOf time.Time) ([]*types.SponsorshipCase, error) {
	return s.cases.DueCases(ctx, asOf, s.batchSize)
}

// MarkSent advances the reminder state for one case. The due-check and the
// timestamp write are a single conditional update, so overlapping sweeps
// cannot both fire for the same due date. Transport failures are logged and
// never roll the timestamps back.
func (s *Scheduler) MarkSent(ctx context.Context, caseID int64, channel types.ReminderChannel, asOf time.Time) (*types.SponsorshipCase, error) {
	c, err := s.cases.Case(ctx, caseID)
	if err != nil {
		return nil, err
	}

	nextDue := NextDue(c.Frequency, c.StartDate, &asOf)

	if err := s.cases.MarkReminderSent(ctx, caseID, channel, asOf, nextDue); err != nil {
		return nil, err
	}

	c.ReminderChannel = channel
	c.ReminderLastSent = &asOf
	c.ReminderNextDue = nextDue

	event := &types.TimelineEvent{
		CaseID:     caseID,
		EventType:  types.EventReminderSent,
		Channel:    channel,
		Actor:      "scheduler",
		OccurredAt: asOf,
	}
	if err := s.timeline.Append(ctx, event); err != nil {
		return nil, fmt.Errorf("append reminder event for case %d: %w", caseID, err)
	}

	if err := s.notifier.SendReminder(ctx, c, channel); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"case_id": caseID,
			"channel": channel,
		}).Warn("reminder transport failed, scheduling state kept")
	}

	return c, nil
}

// Sweep runs one due-check/mark-sent cycle and returns how many reminders
// fired. Per-case failures are logged and skipped so one bad record cannot
// stall the batch.
func (s *Scheduler) Sweep(ctx context.Context, asOf time.Time) (int, error) {
	due, err := s.DueCases(ctx, asOf)
	if err != nil {
		return 0, fmt.Errorf("list due cases: %w", err)
	}

	sent := 0
	for _, c := range due {
		if _, err := s.MarkSent(ctx, c.ID, c.ReminderChannel, asOf); err != nil {
			if errors.Is(err, types.ErrReminderNotDue) {
				// another sweep got there first
				continue
			}
			s.logger.WithError(err).WithField("case_id", c.ID).Error("failed to send reminder")
			continue
		}
		sent++
	}

	if sent > 0 {
		s.logger.WithFields(logrus.Fields{
			"due":  len(due),
			"sent": sent,
		}).Info("reminder sweep complete")
	}

	return sent, nil
}

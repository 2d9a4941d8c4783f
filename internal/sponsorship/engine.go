package sponsorship

import (
	"context"
	"fmt"
	"strings"
	"time"

	"parishcore/pkg/types"

	"github.com/sirupsen/logrus"
)

// Store seams. The pgx-backed repositories in internal/store satisfy these;
// engine tests run against in-memory fakes.

type CaseStore interface {
	Case(ctx context.Context, caseID int64) (*types.SponsorshipCase, error)
	CasesByStatus(ctx context.Context, status types.CaseStatus) ([]*types.SponsorshipCase, error)
	CasesBySponsor(ctx context.Context, sponsorID int64) ([]*types.SponsorshipCase, error)
	CasesByRound(ctx context.Context, roundID int64) ([]*types.SponsorshipCase, error)
	CreateCase(ctx context.Context, c *types.SponsorshipCase) error
	ApplyTransition(ctx context.Context, c *types.SponsorshipCase, event *types.TimelineEvent) error
	DueCases(ctx context.Context, asOf time.Time, limit uint64) ([]*types.SponsorshipCase, error)
	MarkReminderSent(ctx context.Context, caseID int64, channel types.ReminderChannel, sentAt time.Time, nextDue *time.Time) error
	UsedSlots(ctx context.Context, roundID int64) (int, error)
	CountByStatus(ctx context.Context) (map[types.CaseStatus]int, error)
	ActivatedInMonth(ctx context.Context, asOf time.Time) (int, error)
	UnassignedActive(ctx context.Context) ([]*types.SponsorshipCase, error)
}

type RoundStore interface {
	Round(ctx context.Context, roundID int64) (*types.BudgetRound, error)
	RoundForPeriod(ctx context.Context, month, year int) (*types.BudgetRound, error)
	CurrentRound(ctx context.Context, asOf time.Time) (*types.BudgetRound, error)
	CreateRound(ctx context.Context, round *types.BudgetRound) error
	UpdateRound(ctx context.Context, roundID int64, round *types.BudgetRound) error
	AllRounds(ctx context.Context) ([]*types.BudgetRound, error)
}

type TimelineStore interface {
	Append(ctx context.Context, event *types.TimelineEvent) error
	Timeline(ctx context.Context, caseID int64) ([]*types.TimelineEvent, error)
}

type NoteStore interface {
	CreateNote(ctx context.Context, note *types.Note, event *types.TimelineEvent) error
	NotesByCase(ctx context.Context, caseID int64, includeRestricted bool) ([]*types.Note, error)
}

type MemberDirectory interface {
	Member(ctx context.Context, memberID int64) (*types.Member, error)
}

type NewcomerDirectory interface {
	Newcomer(ctx context.Context, newcomerID int64) (*types.Newcomer, error)
}

// Engine owns every mutation of case status, budget linkage and reminder
// timestamps. Nothing else in the codebase writes those fields.
type Engine struct {
	logger    *logrus.Logger
	cases     CaseStore
	rounds    RoundStore
	timeline  TimelineStore
	notes     NoteStore
	members   MemberDirectory
	newcomers NewcomerDirectory

	allocator *Allocator
	now       func() time.Time
}

func NewEngine(
	logger *logrus.Logger,
	cases CaseStore,
	rounds RoundStore,
	timeline TimelineStore,
	notes NoteStore,
	members MemberDirectory,
	newcomers NewcomerDirectory,
) *Engine {
	return &Engine{
		logger:    logger,
		cases:     cases,
		rounds:    rounds,
		timeline:  timeline,
		notes:     notes,
		members:   members,
		newcomers: newcomers,
		allocator: NewAllocator(cases, rounds),
		now:       time.Now,
	}
}

func (e *Engine) Allocator() *Allocator {
	return e.allocator
}

// CreateCase validates the pledge terms and persists a Draft case.
func (e *Engine) CreateCase(ctx context.Context, input types.NewCaseInput) (*types.SponsorshipCase, error) {
	if input.MonthlyAmountCents <= 0 {
		return nil, fmt.Errorf("monthly amount must be positive")
	}

	switch input.Frequency {
	case types.FrequencyOneTime, types.FrequencyMonthly, types.FrequencyQuarterly, types.FrequencyYearly:
	default:
		return nil, fmt.Errorf("unknown frequency %q", input.Frequency)
	}

	if input.StartDate.IsZero() {
		return nil, fmt.Errorf("start date is required")
	}

	if err := validateBeneficiary(input); err != nil {
		return nil, err
	}

	if _, err := e.members.Member(ctx, input.SponsorID); err != nil {
		return nil, fmt.Errorf("resolve sponsor %d: %w", input.SponsorID, err)
	}

	if input.BeneficiaryMemberID != nil {
		if _, err := e.members.Member(ctx, *input.BeneficiaryMemberID); err != nil {
			return nil, fmt.Errorf("resolve beneficiary member %d: %w", *input.BeneficiaryMemberID, err)
		}
	}

	if input.BeneficiaryNewcomerID != nil {
		if _, err := e.newcomers.Newcomer(ctx, *input.BeneficiaryNewcomerID); err != nil {
			return nil, fmt.Errorf("resolve beneficiary newcomer %d: %w", *input.BeneficiaryNewcomerID, err)
		}
	}

	slots := input.BudgetSlots
	if slots <= 0 {
		slots = 1
	}

	channel := input.ReminderChannel
	if channel == "" {
		channel = types.ChannelEmail
	}

	c := &types.SponsorshipCase{
		SponsorID:             input.SponsorID,
		BeneficiaryMemberID:   input.BeneficiaryMemberID,
		BeneficiaryNewcomerID: input.BeneficiaryNewcomerID,
		BeneficiaryName:       input.BeneficiaryName,
		MonthlyAmountCents:    input.MonthlyAmountCents,
		Frequency:             input.Frequency,
		StartDate:             input.StartDate,
		EndDate:               input.EndDate,
		BudgetMonth:           input.BudgetMonth,
		BudgetYear:            input.BudgetYear,
		BudgetSlots:           slots,
		ReminderChannel:       channel,
		NotesTemplate:         input.NotesTemplate,
		CreatedBy:             input.Actor,
		UpdatedBy:             input.Actor,
	}

	if err := e.cases.CreateCase(ctx, c); err != nil {
		return nil, err
	}

	e.logger.WithFields(logrus.Fields{
		"case_id":    c.ID,
		"sponsor_id": c.SponsorID,
	}).Info("sponsorship case created")

	return c, nil
}

func validateBeneficiary(input types.NewCaseInput) error {
	set := 0
	if input.BeneficiaryMemberID != nil {
		set++
	}
	if input.BeneficiaryNewcomerID != nil {
		set++
	}
	if input.BeneficiaryName != nil && strings.TrimSpace(*input.BeneficiaryName) != "" {
		set++
	}

	if set != 1 {
		return fmt.Errorf("exactly one beneficiary target must be set, got %d", set)
	}

	return nil
}

// Transition moves a case to target after checking the workflow table, the
// reason policy, and the sponsor precondition. Failed calls leave the case
// untouched; successful calls persist exactly one status write and append
// exactly one timeline event.
func (e *Engine) Transition(ctx context.Context, caseID int64, target types.CaseStatus, reason, actor string) (*types.SponsorshipCase, error) {
	c, err := e.cases.Case(ctx, caseID)
	if err != nil {
		return nil, err
	}

	from := c.Status

	if !CanTransition(from, target) {
		return nil, fmt.Errorf("case %d: %s -> %s: %w", caseID, from, target, types.ErrInvalidTransition)
	}

	reason = strings.TrimSpace(reason)
	if requiresReason(target) && reason == "" {
		return nil, fmt.Errorf("case %d: %s -> %s: %w", caseID, from, target, types.ErrReasonRequired)
	}

	if target.CountsAgainstBudget() {
		sponsor, err := e.members.Member(ctx, c.SponsorID)
		if err != nil {
			return nil, fmt.Errorf("resolve sponsor %d: %w", c.SponsorID, err)
		}
		if sponsor.Status != types.MembershipActive {
			return nil, fmt.Errorf("sponsor %d (%s) has status %s: %w",
				sponsor.ID, sponsor.FullName(), sponsor.Status, types.ErrSponsorNotActive)
		}
	}

	c.Status = target
	c.UpdatedBy = actor

	switch target {
	case types.CaseStatusApproved:
		c.LastStatus = types.LastStatusApproved
		c.LastStatusReason = &reason
	case types.CaseStatusRejected:
		c.LastStatus = types.LastStatusRejected
		c.LastStatusReason = &reason
	}

	if target == types.CaseStatusActive {
		if c.BudgetRoundID == nil {
			if _, err := e.allocator.AssignRound(ctx, c, e.now()); err != nil {
				return nil, fmt.Errorf("assign budget round for case %d: %w", caseID, err)
			}
		}
		if c.ActivatedAt == nil {
			now := e.now()
			c.ActivatedAt = &now
		}
		if c.ReminderNextDue == nil {
			c.ReminderNextDue = NextDue(c.Frequency, c.StartDate, c.ReminderLastSent)
		}
	}

	event := &types.TimelineEvent{
		CaseID:     c.ID,
		EventType:  eventForTransition(from, target),
		FromStatus: &from,
		ToStatus:   &target,
		Actor:      actor,
		OccurredAt: e.now(),
	}
	if reason != "" {
		event.Reason = &reason
	}

	// One transaction: the status write and its audit event commit together
	// or not at all.
	if err := e.cases.ApplyTransition(ctx, c, event); err != nil {
		return nil, err
	}

	e.logger.WithFields(logrus.Fields{
		"case_id": c.ID,
		"from":    from,
		"to":      target,
		"actor":   actor,
	}).Info("case transitioned")

	return c, nil
}

// AddNote attaches a free-text annotation and records a NoteAdded event.
func (e *Engine) AddNote(ctx context.Context, caseID int64, body string, restricted bool, actor string) (*types.Note, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("note body is required")
	}

	if _, err := e.cases.Case(ctx, caseID); err != nil {
		return nil, err
	}

	note := &types.Note{
		CaseID:     caseID,
		Body:       body,
		Restricted: restricted,
		Actor:      actor,
	}

	event := &types.TimelineEvent{
		CaseID:     caseID,
		EventType:  types.EventNoteAdded,
		Actor:      actor,
		OccurredAt: e.now(),
	}

	if err := e.notes.CreateNote(ctx, note, event); err != nil {
		return nil, err
	}

	return note, nil
}

func (e *Engine) Timeline(ctx context.Context, caseID int64) ([]*types.TimelineEvent, error) {
	if _, err := e.cases.Case(ctx, caseID); err != nil {
		return nil, err
	}
	return e.timeline.Timeline(ctx, caseID)
}

func (e *Engine) Notes(ctx context.Context, caseID int64, includeRestricted bool) ([]*types.Note, error) {
	if _, err := e.cases.Case(ctx, caseID); err != nil {
		return nil, err
	}
	return e.notes.NotesByCase(ctx, caseID, includeRestricted)
}

func (e *Engine) Case(ctx context.Context, caseID int64) (*types.SponsorshipCase, error) {
	return e.cases.Case(ctx, caseID)
}

func (e *Engine) CasesByStatus(ctx context.Context, status types.CaseStatus) ([]*types.SponsorshipCase, error) {
	return e.cases.CasesByStatus(ctx, status)
}

func (e *Engine) CasesBySponsor(ctx context.Context, sponsorID int64) ([]*types.SponsorshipCase, error) {
	return e.cases.CasesBySponsor(ctx, sponsorID)
}

func (e *Engine) CasesByRound(ctx context.Context, roundID int64) ([]*types.SponsorshipCase, error) {
	if _, err := e.rounds.Round(ctx, roundID); err != nil {
		return nil, err
	}
	return e.cases.CasesByRound(ctx, roundID)
}

// CreateRound registers a new budget round ahead of a period.
func (e *Engine) CreateRound(ctx context.Context, round *types.BudgetRound) (*types.BudgetRound, error) {
	if round.SlotBudget < 0 {
		return nil, fmt.Errorf("slot budget must not be negative")
	}
	if round.Year <= 0 || round.RoundNumber <= 0 {
		return nil, fmt.Errorf("year and round number are required")
	}

	if err := e.rounds.CreateRound(ctx, round); err != nil {
		return nil, err
	}

	e.logger.WithFields(logrus.Fields{
		"round_id":     round.ID,
		"year":         round.Year,
		"round_number": round.RoundNumber,
		"slot_budget":  round.SlotBudget,
	}).Info("budget round created")

	return round, nil
}

// UpdateRound applies partial updates. Shrinking slot_budget never blocks:
// over-capacity simply shows up on the next utilization read.
func (e *Engine) UpdateRound(ctx context.Context, roundID int64, input types.UpdateRoundInput) (*types.BudgetRound, error) {
	round, err := e.rounds.Round(ctx, roundID)
	if err != nil {
		return nil, err
	}

	if input.SlotBudget != nil {
		if *input.SlotBudget < 0 {
			return nil, fmt.Errorf("slot budget must not be negative")
		}
		round.SlotBudget = *input.SlotBudget
	}
	if input.RoundNumber != nil {
		round.RoundNumber = *input.RoundNumber
	}
	if input.StartDate != nil {
		round.StartDate = input.StartDate
	}
	if input.EndDate != nil {
		round.EndDate = input.EndDate
	}

	if err := e.rounds.UpdateRound(ctx, roundID, round); err != nil {
		return nil, err
	}

	return round, nil
}

func (e *Engine) RoundUsage(ctx context.Context, roundID int64) (*types.RoundUsage, error) {
	return e.allocator.Usage(ctx, roundID)
}

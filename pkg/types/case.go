package types

import (
	"time"
)

type CaseStatus string

const (
	CaseStatusDraft     CaseStatus = "DRAFT"
	CaseStatusSubmitted CaseStatus = "SUBMITTED"
	CaseStatusApproved  CaseStatus = "APPROVED"
	CaseStatusRejected  CaseStatus = "REJECTED"
	CaseStatusActive    CaseStatus = "ACTIVE"
	CaseStatusSuspended CaseStatus = "SUSPENDED"
	CaseStatusCompleted CaseStatus = "COMPLETED"
	CaseStatusClosed    CaseStatus = "CLOSED"
)

// CountsAgainstBudget reports whether a case in this status occupies
// budget capacity. Draft/Submitted/Rejected/Completed/Closed never do.
func (s CaseStatus) CountsAgainstBudget() bool {
	switch s {
	case CaseStatusApproved, CaseStatusActive, CaseStatusSuspended:
		return true
	}
	return false
}

func (s CaseStatus) Terminal() bool {
	switch s {
	case CaseStatusRejected, CaseStatusCompleted, CaseStatusClosed:
		return true
	}
	return false
}

type Frequency string

const (
	FrequencyOneTime   Frequency = "ONE_TIME"
	FrequencyMonthly   Frequency = "MONTHLY"
	FrequencyQuarterly Frequency = "QUARTERLY"
	FrequencyYearly    Frequency = "YEARLY"
)

type ReminderChannel string

const (
	ChannelEmail    ReminderChannel = "email"
	ChannelSMS      ReminderChannel = "sms"
	ChannelWhatsApp ReminderChannel = "whatsapp"
)

// LastStatus records the most recent terminal decision on a case.
type LastStatus string

const (
	LastStatusPending  LastStatus = "PENDING"
	LastStatusApproved LastStatus = "APPROVED"
	LastStatusRejected LastStatus = "REJECTED"
)

type SponsorshipCase struct {
	ID        int64 `db:"id"`
	SponsorID int64 `db:"sponsor_id"`

	// Beneficiary: exactly one of the three is set.
	BeneficiaryMemberID   *int64  `db:"beneficiary_member_id"`
	BeneficiaryNewcomerID *int64  `db:"beneficiary_newcomer_id"`
	BeneficiaryName       *string `db:"beneficiary_name"`

	MonthlyAmountCents int        `db:"monthly_amount_cents"`
	Frequency          Frequency  `db:"frequency"`
	StartDate          time.Time  `db:"start_date"`
	EndDate            *time.Time `db:"end_date"`

	Status           CaseStatus `db:"status"`
	LastStatus       LastStatus `db:"last_status"`
	LastStatusReason *string    `db:"last_status_reason"`

	BudgetRoundID *int64 `db:"budget_round_id"`
	BudgetMonth   *int   `db:"budget_month"`
	BudgetYear    *int   `db:"budget_year"`
	BudgetSlots   int    `db:"budget_slots"`

	ReminderChannel  ReminderChannel `db:"reminder_channel"`
	ReminderLastSent *time.Time      `db:"reminder_last_sent"`
	ReminderNextDue  *time.Time      `db:"reminder_next_due"`

	ActivatedAt   *time.Time `db:"activated_at"`
	NotesTemplate *string    `db:"notes_template"`

	// Version guards concurrent status writes (optimistic lock).
	Version int `db:"version"`

	CreatedBy string    `db:"created_by"`
	UpdatedBy string    `db:"updated_by"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Beneficiary returns a display label for whichever target is set.
func (c *SponsorshipCase) Beneficiary() string {
	switch {
	case c.BeneficiaryName != nil:
		return *c.BeneficiaryName
	case c.BeneficiaryMemberID != nil:
		return "member"
	case c.BeneficiaryNewcomerID != nil:
		return "newcomer"
	}
	return ""
}

// NewCaseInput is the caller-supplied payload for creating a Draft case.
type NewCaseInput struct {
	SponsorID             int64           `form:"sponsor_id"`
	BeneficiaryMemberID   *int64          `form:"beneficiary_member_id"`
	BeneficiaryNewcomerID *int64          `form:"beneficiary_newcomer_id"`
	BeneficiaryName       *string         `form:"beneficiary_name"`
	MonthlyAmountCents    int             `form:"monthly_amount_cents"`
	Frequency             Frequency       `form:"frequency"`
	StartDate             time.Time       `form:"start_date"`
	EndDate               *time.Time      `form:"end_date"`
	BudgetMonth           *int            `form:"budget_month"`
	BudgetYear            *int            `form:"budget_year"`
	BudgetSlots           int             `form:"budget_slots"`
	ReminderChannel       ReminderChannel `form:"reminder_channel"`
	NotesTemplate         *string         `form:"notes_template"`
	Actor                 string          `form:"-"`
}

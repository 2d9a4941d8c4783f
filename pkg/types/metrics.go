package types

import "time"

type AlertKind string

const (
	AlertHighUtilization AlertKind = "HIGH_UTILIZATION"
	AlertOverCapacity    AlertKind = "OVER_CAPACITY"
	AlertUnassignedCase  AlertKind = "UNASSIGNED_ACTIVE_CASE"
)

type Alert struct {
	Kind    AlertKind `json:"kind"`
	Message string    `json:"message"`
	RoundID *int64    `json:"round_id,omitempty"`
	CaseID  *int64    `json:"case_id,omitempty"`
}

// MetricsFilter narrows the report: RoundID pins the utilization section to
// a specific round, To pins the snapshot time (month counts follow it).
type MetricsFilter struct {
	RoundID *int64     `form:"round_id"`
	To      *time.Time `form:"to"`
}

type MetricsReport struct {
	StatusCounts             map[CaseStatus]int `json:"status_counts"`
	MonthExecuted            int                `json:"month_executed"`
	BudgetUtilizationPercent float64            `json:"budget_utilization_percent"`
	UsedSlots                int                `json:"used_slots"`
	SlotBudget               int                `json:"slot_budget"`
	Alerts                   []Alert            `json:"alerts"`
	GeneratedAt              time.Time          `json:"generated_at"`
}

package models

import (
	"time"
)

// ReportKind distinguishes the one-off onboarding diagnosis from the
// recurring monthly report.
type ReportKind string

const (
	ReportInitial ReportKind = "V0"
	ReportMonthly ReportKind = "MONTHLY"
)

// PeriodicReport is one generated report per tenant, period and kind. The
// unique index doubles as the idempotency guard: a second trigger for the
// same period fails the insert instead of racing past an existence check.
type PeriodicReport struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	TenantID uint `gorm:"not null;uniqueIndex:idx_report_period" json:"tenant_id"`

	PeriodYear  int        `gorm:"not null;uniqueIndex:idx_report_period" json:"period_year"`
	PeriodMonth int        `gorm:"not null;uniqueIndex:idx_report_period" json:"period_month"`
	Kind        ReportKind `gorm:"size:20;not null;uniqueIndex:idx_report_period" json:"kind"`

	ReportPath string `gorm:"size:500" json:"report_path"`

	SovPct         float64  `json:"sov_pct"`
	PrevSovPct     *float64 `json:"prev_sov_pct"`
	ChangePct      *float64 `json:"change_pct"`
	PublishedCount int      `json:"published_count"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	Tenant Tenant `gorm:"foreignKey:TenantID" json:"-"`
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// ContentType tags one produced article.
type ContentType string

const (
	ContentFAQ       ContentType = "FAQ"
	ContentDisease   ContentType = "DISEASE"
	ContentTreatment ContentType = "TREATMENT"
	ContentColumn    ContentType = "COLUMN"
	ContentHealth    ContentType = "HEALTH"
	ContentLocal     ContentType = "LOCAL"
	ContentNotice    ContentType = "NOTICE"
)

// ContentStatus is the slot lifecycle.
type ContentStatus string

const (
	StatusDraft     ContentStatus = "DRAFT"
	StatusReady     ContentStatus = "READY"
	StatusPublished ContentStatus = "PUBLISHED"
	StatusRejected  ContentStatus = "REJECTED"
)

// TypeCount is one entry of a plan's distribution table. Order matters: the
// allocator expands entries in the declared order.
type TypeCount struct {
	Type  ContentType
	Count int
}

// PlanDistribution maps each subscription tier to its monthly
// content-type distribution, in fixed declaration order.
var PlanDistribution = map[Plan][]TypeCount{
	Plan16: {
		{ContentFAQ, 4},
		{ContentDisease, 3},
		{ContentTreatment, 3},
		{ContentColumn, 2},
		{ContentHealth, 2},
		{ContentLocal, 1},
		{ContentNotice, 1},
	},
	Plan12: {
		{ContentFAQ, 3},
		{ContentDisease, 3},
		{ContentTreatment, 2},
		{ContentColumn, 2},
		{ContentHealth, 1},
		{ContentLocal, 1},
	},
	Plan8: {
		{ContentFAQ, 2},
		{ContentDisease, 2},
		{ContentTreatment, 2},
		{ContentColumn, 1},
		{ContentHealth, 1},
	},
}

// PublishSchedule is a tenant's recurring publication setup. At most one
// schedule per tenant is active; activating a new one deactivates the rest.
type PublishSchedule struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	TenantID uint `gorm:"not null;index" json:"tenant_id"`

	Plan Plan `gorm:"size:20;not null" json:"plan"`
	// Weekdays on which content goes out, 0=Monday .. 6=Sunday
	PublishDays IntArray `gorm:"type:integer[];not null" json:"publish_days"`

	ActiveFrom time.Time `gorm:"type:date;not null" json:"active_from"`
	IsActive   bool      `gorm:"default:true;index" json:"is_active"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`

	Tenant Tenant `gorm:"foreignKey:TenantID" json:"-"`
}

// ContentSlot is one scheduled production unit. Sequence numbers are
// contiguous 1..TotalCount within a generation batch, ordered by ascending
// scheduled date, and never re-sequenced after creation.
type ContentSlot struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	TenantID   uint `gorm:"not null;index" json:"tenant_id"`
	ScheduleID uint `gorm:"not null;index" json:"schedule_id"`

	ContentType ContentType `gorm:"size:20;not null" json:"content_type"`
	SequenceNo  int         `gorm:"not null" json:"sequence_no"`
	TotalCount  int         `gorm:"not null" json:"total_count"`

	Title           string `gorm:"size:300" json:"title"`
	Body            string `gorm:"type:text" json:"body"`
	MetaDescription string `gorm:"size:300" json:"meta_description"`

	ImageURL    string `gorm:"size:500" json:"image_url"`
	ImagePrompt string `gorm:"type:text" json:"image_prompt"`

	ScheduledDate time.Time     `gorm:"type:date;not null;index" json:"scheduled_date"`
	Status        ContentStatus `gorm:"size:20;default:'DRAFT';index" json:"status"`

	GeneratedAt *time.Time `json:"generated_at"`
	PublishedAt *time.Time `json:"published_at"`
	PublishedBy string     `gorm:"size:100" json:"published_by"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`

	Tenant   Tenant          `gorm:"foreignKey:TenantID" json:"-"`
	Schedule PublishSchedule `gorm:"foreignKey:ScheduleID" json:"-"`
}

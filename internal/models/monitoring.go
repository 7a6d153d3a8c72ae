package models

import (
	"time"
)

// ErrorLog keeps operator-visible failures from background cadences. Cadence
// errors never reach a request path, so this table is how they are found.
type ErrorLog struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Level    string `gorm:"size:20;not null;index" json:"level"` // ERROR, WARN, INFO
	Source   string `gorm:"size:100;not null;index" json:"source"`
	Platform string `gorm:"size:50;index" json:"platform"`
	TenantID *uint  `gorm:"index" json:"tenant_id"`
	SlotID   *uint  `gorm:"index" json:"slot_id"`
	Title    string `gorm:"size:500;not null" json:"title"`
	Message  string `gorm:"type:text;not null" json:"message"`
	Context  string `gorm:"type:jsonb" json:"context"`

	Resolved   bool       `gorm:"default:false;index" json:"resolved"`
	ResolvedAt *time.Time `json:"resolved_at"`
	CreatedAt  time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// PipelineStats is a per-day snapshot of pipeline throughput, refreshed by
// the stats updater for the admin dashboard.
type PipelineStats struct {
	ID   uint      `gorm:"primaryKey" json:"id"`
	Date time.Time `gorm:"uniqueIndex;not null" json:"date"`

	TotalTenants  int `gorm:"default:0" json:"total_tenants"`
	ActiveTenants int `gorm:"default:0" json:"active_tenants"`

	SlotsScheduled int `gorm:"default:0" json:"slots_scheduled"`
	SlotsGenerated int `gorm:"default:0" json:"slots_generated"`
	SlotsPublished int `gorm:"default:0" json:"slots_published"`

	OutcomesToday  int `gorm:"default:0" json:"outcomes_today"`
	MentionsToday  int `gorm:"default:0" json:"mentions_today"`
	ReportsCreated int `gorm:"default:0" json:"reports_created"`

	UnresolvedErrors int `gorm:"default:0" json:"unresolved_errors"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

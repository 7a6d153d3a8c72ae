package models

import (
	"time"

	"gorm.io/gorm"
)

// Plan is the subscription tier, named by monthly content volume.
type Plan string

const (
	Plan16 Plan = "PLAN_16"
	Plan12 Plan = "PLAN_12"
	Plan8  Plan = "PLAN_8"
)

// TenantStatus is the onboarding/operations lifecycle of a tenant.
type TenantStatus string

const (
	TenantOnboarding    TenantStatus = "ONBOARDING"
	TenantAnalyzing     TenantStatus = "ANALYZING"
	TenantBuilding      TenantStatus = "BUILDING"
	TenantPendingDomain TenantStatus = "PENDING_DOMAIN"
	TenantActive        TenantStatus = "ACTIVE"
	TenantPaused        TenantStatus = "PAUSED"
)

// Tenant is one subscribing clinic. The admin surface owns the profile
// fields; the measurement and content pipelines only read them.
type Tenant struct {
	ID     uint         `gorm:"primaryKey" json:"id"`
	Name   string       `gorm:"not null;size:200" json:"name"`
	Slug   string       `gorm:"uniqueIndex;not null;size:200" json:"slug"`
	Status TenantStatus `gorm:"size:30;default:'ONBOARDING'" json:"status"`
	Plan   Plan         `gorm:"size:20" json:"plan"`

	// Targeting parameters driving the query matrix
	Regions     StringArray `gorm:"type:text[]" json:"regions"`
	Specialties StringArray `gorm:"type:text[]" json:"specialties"`
	Keywords    StringArray `gorm:"type:text[]" json:"keywords"`
	Competitors StringArray `gorm:"type:text[]" json:"competitors"`

	// Director profile, used by the content collaborator
	DirectorName       string `gorm:"size:100" json:"director_name"`
	DirectorPhilosophy string `gorm:"type:text" json:"director_philosophy"`

	// Site assets
	SiteDomain string `gorm:"size:200" json:"site_domain"`
	SitePath   string `gorm:"size:500" json:"site_path"`

	// Progress flags
	ProfileComplete   bool `gorm:"default:false" json:"profile_complete"`
	InitialReportDone bool `gorm:"default:false" json:"initial_report_done"`
	SiteBuilt         bool `gorm:"default:false" json:"site_built"`
	SiteLive          bool `gorm:"default:false" json:"site_live"`
	ScheduleSet       bool `gorm:"default:false" json:"schedule_set"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}

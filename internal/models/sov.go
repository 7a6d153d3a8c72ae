package models

import (
	"time"

	"gorm.io/gorm"
)

// Query is one natural-language probe of a tenant's query matrix.
// Queries are deduplicated per tenant; order carries no meaning.
type Query struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	TenantID  uint   `gorm:"not null;index" json:"tenant_id"`
	QueryText string `gorm:"size:500;not null" json:"query_text"`
	IsActive  bool   `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`

	Tenant Tenant `gorm:"foreignKey:TenantID" json:"-"`
}

// MeasurementOutcome records one probe of one query against one platform.
// The raw response is always retained for audit, including negatives.
// Rows are immutable once created.
type MeasurementOutcome struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	TenantID uint   `gorm:"not null;index" json:"tenant_id"`
	QueryID  uint   `gorm:"not null;index" json:"query_id"`
	BatchID  string `gorm:"size:36;index" json:"batch_id"`

	Platform   string    `gorm:"size:50;not null" json:"platform"`
	MeasuredAt time.Time `gorm:"autoCreateTime;index" json:"measured_at"`

	IsMentioned    bool    `gorm:"not null" json:"is_mentioned"`
	MentionRank    *int    `json:"mention_rank"`
	Sentiment      *string `gorm:"size:20" json:"sentiment"`
	MentionContext *string `gorm:"type:text" json:"mention_context"`
	RawResponse    string  `gorm:"type:text;not null" json:"raw_response"`

	Tenant Tenant `gorm:"foreignKey:TenantID" json:"-"`
	Query  Query  `gorm:"foreignKey:QueryID" json:"-"`
}

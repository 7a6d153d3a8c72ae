package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/echomed/resonance/internal/config"
	"github.com/echomed/resonance/internal/models"
	"github.com/echomed/resonance/pkg/util"
)

// nightlyBatchLimit caps one generation run so a backlog drains over several
// nights instead of blowing the model budget in one.
const nightlyBatchLimit = 50

// ContentService drives the content slot lifecycle: nightly draft
// generation, morning notifications, publication and rejection.
type ContentService struct {
	db         *gorm.DB
	generator  ContentGenerator
	images     ImageGenerator
	sites      SiteBuilder
	notifier   *Notifier
	monitoring *MonitoringService
	admin      *config.AdminConfig
	site       *config.SiteConfig
	logger     *zap.Logger
}

func NewContentService(
	db *gorm.DB,
	generator ContentGenerator,
	images ImageGenerator,
	sites SiteBuilder,
	notifier *Notifier,
	monitoring *MonitoringService,
	admin *config.AdminConfig,
	site *config.SiteConfig,
	logger *zap.Logger,
) *ContentService {
	return &ContentService{
		db:         db,
		generator:  generator,
		images:     images,
		sites:      sites,
		notifier:   notifier,
		monitoring: monitoring,
		admin:      admin,
		site:       site,
		logger:     logger,
	}
}

// NightlyGeneration drafts every slot scheduled for tomorrow that has no body
// yet. Rejected slots re-enter here because rejection clears the body. One
// failing slot is recorded and skipped; the rest of the batch continues.
func (c *ContentService) NightlyGeneration(ctx context.Context, now time.Time) error {
	tomorrow := dateOnly(now.AddDate(0, 0, 1))

	var slots []models.ContentSlot
	err := c.db.WithContext(ctx).
		Preload("Tenant").
		Where("scheduled_date = ? AND status IN ? AND body = ''",
			tomorrow, []models.ContentStatus{models.StatusDraft, models.StatusRejected}).
		Limit(nightlyBatchLimit).
		Find(&slots).Error
	if err != nil {
		return fmt.Errorf("failed to load slots: %w", err)
	}

	if len(slots) == 0 {
		c.logger.Info("No content to generate", zap.String("date", tomorrow.Format("2006-01-02")))
		return nil
	}

	for i := range slots {
		slot := &slots[i]
		if err := c.generateSlot(ctx, slot); err != nil {
			c.logger.Error("Content generation failed",
				zap.Uint("slot_id", slot.ID),
				zap.Uint("tenant_id", slot.TenantID),
				zap.Error(err))
			if recErr := c.monitoring.RecordError("ERROR", "content_generation",
				"Draft generation failed", err.Error(),
				WithTenant(slot.TenantID), WithSlot(slot.ID)); recErr != nil {
				c.logger.Error("Failed to record error", zap.Error(recErr))
			}
			continue
		}
		c.logger.Info("Content generated",
			zap.String("tenant", slot.Tenant.Name),
			zap.String("title", slot.Title))
	}
	return nil
}

func (c *ContentService) generateSlot(ctx context.Context, slot *models.ContentSlot) error {
	var existingTitles []string
	if err := c.db.WithContext(ctx).Model(&models.ContentSlot{}).
		Where("tenant_id = ? AND title <> ''", slot.TenantID).
		Pluck("title", &existingTitles).Error; err != nil {
		return fmt.Errorf("failed to load existing titles: %w", err)
	}

	content, err := c.generator.Generate(ctx, &slot.Tenant, slot.ContentType, existingTitles)
	if err != nil {
		return err
	}

	imageURL, imagePrompt, err := c.images.Generate(ctx, slot.ContentType, slot.Tenant.Slug)
	if err != nil {
		return err
	}

	now := time.Now()
	return c.db.WithContext(ctx).Model(slot).Updates(map[string]interface{}{
		"title":            content.Title,
		"body":             content.Body,
		"meta_description": content.MetaDescription,
		"image_url":        imageURL,
		"image_prompt":     imagePrompt,
		"generated_at":     now,
		"status":           models.StatusDraft,
	}).Error
}

// MorningNotification tells the account manager which of today's drafts are
// ready for review.
func (c *ContentService) MorningNotification(ctx context.Context, now time.Time) error {
	today := dateOnly(now)

	var slots []models.ContentSlot
	err := c.db.WithContext(ctx).
		Preload("Tenant").
		Where("scheduled_date = ? AND status = ? AND body <> ''", today, models.StatusDraft).
		Find(&slots).Error
	if err != nil {
		return fmt.Errorf("failed to load today's drafts: %w", err)
	}

	for i := range slots {
		slot := &slots[i]
		adminURL := fmt.Sprintf("%s/tenants/%d/content/%d", c.admin.BaseURL, slot.TenantID, slot.ID)
		c.notifier.ContentDraftReady(ctx, slot.Tenant.Name, slot, adminURL)
	}
	return nil
}

// Publish marks a reviewed draft as published and pushes it onto the
// tenant's site. A page-build failure is recorded but does not undo the
// publication.
func (c *ContentService) Publish(ctx context.Context, tenantID, slotID uint, publishedBy string) (*models.ContentSlot, error) {
	slot, err := c.getSlot(ctx, tenantID, slotID)
	if err != nil {
		return nil, err
	}
	if slot.Status == models.StatusPublished {
		return nil, fmt.Errorf("slot %d is already published", slotID)
	}
	if slot.Body == "" {
		return nil, fmt.Errorf("slot %d has no generated content", slotID)
	}

	now := time.Now()
	err = c.db.WithContext(ctx).Model(slot).Updates(map[string]interface{}{
		"status":       models.StatusPublished,
		"published_at": now,
		"published_by": publishedBy,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to publish: %w", err)
	}
	slot.Status = models.StatusPublished
	slot.PublishedAt = &now
	slot.PublishedBy = publishedBy

	if err := c.sites.BuildContentPage(&slot.Tenant, slot); err != nil {
		c.logger.Error("Site page build failed", zap.Uint("slot_id", slot.ID), zap.Error(err))
		if recErr := c.monitoring.RecordError("ERROR", "site_build",
			"Content page build failed", err.Error(),
			WithTenant(tenantID), WithSlot(slot.ID)); recErr != nil {
			c.logger.Error("Failed to record error", zap.Error(recErr))
		}
	}

	c.notifier.ContentPublished(ctx, slot.Tenant.Name, slot.Title)
	return slot, nil
}

// Reject sends a draft back for regeneration: clearing the body is what
// re-queues it for the next nightly run.
func (c *ContentService) Reject(ctx context.Context, tenantID, slotID uint) error {
	slot, err := c.getSlot(ctx, tenantID, slotID)
	if err != nil {
		return err
	}
	if slot.Status == models.StatusPublished {
		return fmt.Errorf("slot %d is already published", slotID)
	}

	return c.db.WithContext(ctx).Model(slot).Updates(map[string]interface{}{
		"status":    models.StatusRejected,
		"title":     "",
		"body":      "",
		"image_url": "",
	}).Error
}

// ListMonth returns the tenant's slots for one month, ascending by date.
func (c *ContentService) ListMonth(ctx context.Context, tenantID uint, year int, month time.Month, status models.ContentStatus) ([]models.ContentSlot, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	q := c.db.WithContext(ctx).
		Where("tenant_id = ? AND scheduled_date >= ? AND scheduled_date < ?", tenantID, start, end).
		Order("scheduled_date")
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var slots []models.ContentSlot
	if err := q.Find(&slots).Error; err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	return slots, nil
}

// GetSlot returns one slot with its tenant, scoped to the tenant ID.
func (c *ContentService) GetSlot(ctx context.Context, tenantID, slotID uint) (*models.ContentSlot, error) {
	return c.getSlot(ctx, tenantID, slotID)
}

// BuildSite renders the tenant's landing site and advances the onboarding
// state to PENDING_DOMAIN.
func (c *ContentService) BuildSite(ctx context.Context, tenantID uint) error {
	var tenant models.Tenant
	if err := c.db.WithContext(ctx).First(&tenant, tenantID).Error; err != nil {
		return fmt.Errorf("tenant %d not found: %w", tenantID, err)
	}

	if tenant.Slug == "" {
		tenant.Slug = util.GenerateSlug(tenant.Name)
		if err := c.db.WithContext(ctx).Model(&tenant).Update("slug", tenant.Slug).Error; err != nil {
			return fmt.Errorf("failed to store slug: %w", err)
		}
	}

	domain := tenant.SiteDomain
	if domain == "" {
		domain = fmt.Sprintf("%s.%s", tenant.Slug, c.site.DomainSuffix)
	}

	path, err := c.sites.BuildSite(&tenant, domain)
	if err != nil {
		return fmt.Errorf("site build failed: %w", err)
	}

	err = c.db.WithContext(ctx).Model(&tenant).Updates(map[string]interface{}{
		"site_built": true,
		"site_path":  path,
		"status":     models.TenantPendingDomain,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to update tenant: %w", err)
	}

	previewURL := fmt.Sprintf("%s/%s/", c.site.PreviewBaseURL, tenant.Slug)
	c.notifier.SiteBuilt(ctx, tenant.Name, previewURL)
	return nil
}

func (c *ContentService) getSlot(ctx context.Context, tenantID, slotID uint) (*models.ContentSlot, error) {
	var slot models.ContentSlot
	err := c.db.WithContext(ctx).
		Preload("Tenant").
		Where("id = ? AND tenant_id = ?", slotID, tenantID).
		First(&slot).Error
	if err != nil {
		return nil, fmt.Errorf("slot %d not found for tenant %d: %w", slotID, tenantID, err)
	}
	return &slot, nil
}

// dateOnly truncates to midnight in the instant's own location, matching the
// date column semantics.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

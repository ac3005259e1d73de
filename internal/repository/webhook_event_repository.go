package repository

import (
	"errors"
	"strings"

	"github.com/tienda-next/internal/models"

	"gorm.io/gorm"
)

// WebhookEventRepository 回调审计数据访问接口
type WebhookEventRepository interface {
	Create(event *models.WebhookEvent) error
	List(filter WebhookEventListFilter) ([]models.WebhookEvent, int64, error)
	WithTx(tx *gorm.DB) WebhookEventRepository
}

// GormWebhookEventRepository GORM 实现
type GormWebhookEventRepository struct {
	db *gorm.DB
}

// NewWebhookEventRepository 创建回调审计仓库
func NewWebhookEventRepository(db *gorm.DB) *GormWebhookEventRepository {
	return &GormWebhookEventRepository{db: db}
}

// WithTx 绑定事务
func (r *GormWebhookEventRepository) WithTx(tx *gorm.DB) WebhookEventRepository {
	if tx == nil {
		return r
	}
	return &GormWebhookEventRepository{db: tx}
}

// Create 落库一条回调记录
func (r *GormWebhookEventRepository) Create(event *models.WebhookEvent) error {
	if event == nil {
		return errors.New("webhook event is nil")
	}
	return r.db.Create(event).Error
}

// List 分页查询回调审计记录
func (r *GormWebhookEventRepository) List(filter WebhookEventListFilter) ([]models.WebhookEvent, int64, error) {
	query := r.db.Model(&models.WebhookEvent{})

	if filter.Provider != "" {
		query = query.Where("provider = ?", filter.Provider)
	}
	if filter.Classification != "" {
		query = query.Where("classification = ?", filter.Classification)
	}
	if resourceID := strings.TrimSpace(filter.ResourceID); resourceID != "" {
		query = query.Where("resource_id = ?", resourceID)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("id DESC")
	query = applyPagination(query, filter.Page, filter.PageSize)

	var events []models.WebhookEvent
	if err := query.Find(&events).Error; err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

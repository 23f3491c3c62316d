package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/promptcoach-api/internal/models"
)

// ModelUsage aggregates token consumption for a single model.
type ModelUsage struct {
	Model       string
	Evaluations int64
	TokensUsed  int64
}

// UsageRepository records and aggregates model token usage.
type UsageRepository interface {
	Create(ctx context.Context, entry *models.UsageLog) error
	TotalTokens(ctx context.Context, userID uint, since time.Time) (int64, error)
	SummaryByModel(ctx context.Context, userID uint, since time.Time) ([]ModelUsage, error)
}

type usageRepository struct {
	db *gorm.DB
}

// NewUsageRepository constructs the repository implementation.
func NewUsageRepository(db *gorm.DB) UsageRepository {
	return &usageRepository{db: db}
}

func (r *usageRepository) Create(ctx context.Context, entry *models.UsageLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *usageRepository) TotalTokens(ctx context.Context, userID uint, since time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.UsageLog{}).
		Where("user_id = ? AND created_at >= ?", userID, since.UTC()).
		Select("COALESCE(SUM(tokens_used), 0)").
		Scan(&total).Error
	return total, err
}

func (r *usageRepository) SummaryByModel(ctx context.Context, userID uint, since time.Time) ([]ModelUsage, error) {
	var rows []ModelUsage
	err := r.db.WithContext(ctx).
		Model(&models.UsageLog{}).
		Select("model, COUNT(*) AS evaluations, COALESCE(SUM(tokens_used), 0) AS tokens_used").
		Where("user_id = ? AND created_at >= ?", userID, since.UTC()).
		Group("model").
		Order("tokens_used DESC, model ASC").
		Scan(&rows).Error
	return rows, err
}

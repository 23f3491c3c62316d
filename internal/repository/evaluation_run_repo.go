package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/promptcoach-api/internal/models"
)

// ErrEvaluationRunNotFound is returned when no run matches the lookup.
var ErrEvaluationRunNotFound = errors.New("evaluation run not found")

// EvaluationRunFilter narrows a user's run history.
type EvaluationRunFilter struct {
	Stage    string
	Page     int
	PageSize int
}

// EvaluationRunRepository exposes persistence helpers for evaluation runs.
type EvaluationRunRepository interface {
	Create(ctx context.Context, run *models.EvaluationRun) error
	GetByPublicID(ctx context.Context, publicID string) (models.EvaluationRun, error)
	ListByUser(ctx context.Context, userID uint, filter EvaluationRunFilter) ([]models.EvaluationRun, int64, error)
}

type evaluationRunRepository struct {
	db *gorm.DB
}

// NewEvaluationRunRepository constructs the repository implementation.
func NewEvaluationRunRepository(db *gorm.DB) EvaluationRunRepository {
	return &evaluationRunRepository{db: db}
}

func (r *evaluationRunRepository) Create(ctx context.Context, run *models.EvaluationRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *evaluationRunRepository) GetByPublicID(ctx context.Context, publicID string) (models.EvaluationRun, error) {
	var run models.EvaluationRun
	err := r.db.WithContext(ctx).Where("public_id = ?", publicID).First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.EvaluationRun{}, ErrEvaluationRunNotFound
	}
	return run, err
}

func (r *evaluationRunRepository) ListByUser(ctx context.Context, userID uint, filter EvaluationRunFilter) ([]models.EvaluationRun, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.EvaluationRun{}).Where("user_id = ?", userID)
	if filter.Stage != "" {
		query = query.Where("stage = ?", filter.Stage)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var runs []models.EvaluationRun
	if err := query.Order("created_at DESC, id DESC").Find(&runs).Error; err != nil {
		return nil, 0, err
	}

	return runs, total, nil
}

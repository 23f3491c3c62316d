package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/promptcoach-api/internal/dto"
	"github.com/noah-isme/promptcoach-api/internal/repository"
)

// UsageService reports token consumption.
type UsageService interface {
	Today(ctx context.Context, userID uint) (dto.UsageResponse, error)
}

type usageService struct {
	repo   repository.UsageRepository
	limit  int
	logger zerolog.Logger
	now    func() time.Time
}

// NewUsageService constructs the usage reporter. dailyLimit <= 0 means no quota applies.
func NewUsageService(repo repository.UsageRepository, dailyLimit int, logger zerolog.Logger) UsageService {
	return &usageService{
		repo:   repo,
		limit:  dailyLimit,
		logger: logger.With().Str("component", "usage_service").Logger(),
		now:    time.Now,
	}
}

func (s *usageService) Today(ctx context.Context, userID uint) (dto.UsageResponse, error) {
	now := s.now().UTC()
	since := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	total, err := s.repo.TotalTokens(ctx, userID, since)
	if err != nil {
		return dto.UsageResponse{}, fmt.Errorf("total tokens: %w", err)
	}

	rows, err := s.repo.SummaryByModel(ctx, userID, since)
	if err != nil {
		return dto.UsageResponse{}, fmt.Errorf("usage by model: %w", err)
	}

	byModel := make([]dto.ModelUsageResponse, 0, len(rows))
	for _, row := range rows {
		byModel = append(byModel, dto.ModelUsageResponse{
			Model:       row.Model,
			Evaluations: row.Evaluations,
			TokensUsed:  row.TokensUsed,
		})
	}

	response := dto.UsageResponse{
		Date:            since.Format("2006-01-02"),
		TokensUsed:      total,
		DailyTokenQuota: s.limit,
		ByModel:         byModel,
	}
	if s.limit > 0 {
		remaining := int64(s.limit) - total
		if remaining < 0 {
			remaining = 0
		}
		response.RemainingTokens = &remaining
	}

	return response, nil
}

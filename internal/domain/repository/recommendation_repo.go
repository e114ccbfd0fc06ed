package repository

import (
	"github.com/yourusername/diagnostic-api/internal/domain/entity"
)

// RecommendationRepository определяет методы для работы с рекомендациями
// и детерминированными шаблонами действий
type RecommendationRepository interface {
	GetByArea(runAreaID string) ([]entity.Recommendation, error)
	GetTemplatesByTags(systemTags []string) ([]entity.ActionTemplate, error)
}

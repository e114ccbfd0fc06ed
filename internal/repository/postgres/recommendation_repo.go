package postgres

import (
	"gorm.io/gorm"

	"github.com/yourusername/diagnostic-api/internal/domain/entity"
)

// RecommendationRepo реализует repository.RecommendationRepository
type RecommendationRepo struct {
	db *gorm.DB
}

// NewRecommendationRepo создает новый репозиторий рекомендаций
func NewRecommendationRepo(db *gorm.DB) *RecommendationRepo {
	return &RecommendationRepo{db: db}
}

// GetByArea возвращает рекомендации области, сначала высокий приоритет
func (r *RecommendationRepo) GetByArea(runAreaID string) ([]entity.Recommendation, error) {
	var recommendations []entity.Recommendation
	err := r.db.Where("run_area_id = ?", runAreaID).
		Order("severity DESC, created_at").
		Find(&recommendations).Error
	return recommendations, err
}

// GetTemplatesByTags возвращает шаблоны действий для набора системных тегов
func (r *RecommendationRepo) GetTemplatesByTags(systemTags []string) ([]entity.ActionTemplate, error) {
	if len(systemTags) == 0 {
		return nil, nil
	}
	var templates []entity.ActionTemplate
	err := r.db.Where("system_tag IN ?", systemTags).
		Order("system_tag, action_id").
		Find(&templates).Error
	return templates, err
}

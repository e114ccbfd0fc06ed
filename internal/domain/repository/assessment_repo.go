package repository

import (
	"time"

	"github.com/yourusername/diagnostic-api/internal/domain/entity"
)

// AssessmentRepository определяет методы для работы с оценками областей
type AssessmentRepository interface {
	// Replace атомарно заменяет оценку области и её рекомендации:
	// удаляет прежние, вставляет новые и переводит область
	// in_progress → completed условным UPDATE. Условие включает
	// seenUpdatedAt — версию строки, прочитанную при проверке гарда:
	// каскад инвалидации возвращает статус обратно в in_progress, и
	// одной проверки статуса мало. Несовпадение версии или статуса —
	// ErrConflict и полный откат, частичная оценка не видна никому.
	Replace(assessment *entity.AreaAssessment, recommendations []entity.Recommendation, seenUpdatedAt time.Time) error

	GetByArea(runAreaID string) (*entity.AreaAssessment, error)
	GetByRunID(runID string) ([]entity.AreaAssessment, error)
}

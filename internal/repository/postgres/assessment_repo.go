package postgres

import (
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/diagnostic-api/internal/domain/entity"
	apperrors "github.com/yourusername/diagnostic-api/internal/pkg/errors"
)

// AssessmentRepo реализует repository.AssessmentRepository
type AssessmentRepo struct {
	db *gorm.DB
}

// NewAssessmentRepo создает новый репозиторий оценок
func NewAssessmentRepo(db *gorm.DB) *AssessmentRepo {
	return &AssessmentRepo{db: db}
}

// Replace атомарно заменяет оценку области и её рекомендации.
// Первым шагом идёт условный перевод in_progress → completed: он же
// перепроверка гарда перед терминальной записью. Статуса одного мало:
// каскад инвалидации во время вызова оценщика возвращает область в тот
// же in_progress, поэтому условие сверяет и updated_at, прочитанный при
// проверке гарда. RowsAffected == 0 означает гонку — откат, никаких
// частичных оценок, is_dirty остаётся как выставил каскад.
func (r *AssessmentRepo) Replace(assessment *entity.AreaAssessment, recommendations []entity.Recommendation, seenUpdatedAt time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entity.RunArea{}).
			Where("id = ? AND status = ? AND updated_at = ?",
				assessment.RunAreaID, entity.AreaStatusInProgress, seenUpdatedAt).
			Updates(map[string]interface{}{
				"status":   entity.AreaStatusCompleted,
				"is_dirty": false,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrConflict
		}

		// Оценка заменяется целиком, никогда не правится по полям
		if err := tx.Where("run_area_id = ?", assessment.RunAreaID).
			Delete(&entity.AreaAssessment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("run_area_id = ?", assessment.RunAreaID).
			Delete(&entity.Recommendation{}).Error; err != nil {
			return err
		}

		if err := tx.Create(assessment).Error; err != nil {
			log.Printf("[AssessmentRepo] Error persisting assessment for area %s: %v",
				assessment.RunAreaID, err)
			return err
		}
		if len(recommendations) > 0 {
			if err := tx.Create(&recommendations).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByArea возвращает актуальную оценку области
func (r *AssessmentRepo) GetByArea(runAreaID string) (*entity.AreaAssessment, error) {
	var assessment entity.AreaAssessment
	err := r.db.First(&assessment, "run_area_id = ?", runAreaID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &assessment, nil
}

// GetByRunID возвращает оценки всех областей прогона
func (r *AssessmentRepo) GetByRunID(runID string) ([]entity.AreaAssessment, error) {
	var assessments []entity.AreaAssessment
	err := r.db.
		Joins("JOIN run_areas a ON a.id = run_assessments.run_area_id").
		Where("a.run_id = ?", runID).
		Order("a.code").
		Find(&assessments).Error
	return assessments, err
}

package postgres

import (
	"log"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/diagnostic-api/internal/domain/entity"
	apperrors "github.com/yourusername/diagnostic-api/internal/pkg/errors"
)

// MCQRepo реализует repository.MCQRepository
type MCQRepo struct {
	db *gorm.DB
}

// NewMCQRepo создает новый репозиторий банка вопросов и MCQ-ответов
func NewMCQRepo(db *gorm.DB) *MCQRepo {
	return &MCQRepo{db: db}
}

// GetQuestionsByAreaCode возвращает вопросы банка для кода области
func (r *MCQRepo) GetQuestionsByAreaCode(areaCode string) ([]entity.MCQQuestion, error) {
	var questions []entity.MCQQuestion
	err := r.db.Where("area_code = ?", areaCode).Order("position").Find(&questions).Error
	return questions, err
}

// GetAnswersByArea возвращает все MCQ-ответы области
func (r *MCQRepo) GetAnswersByArea(runAreaID string) ([]entity.MCQAnswer, error) {
	var answers []entity.MCQAnswer
	err := r.db.Where("run_area_id = ?", runAreaID).Find(&answers).Error
	return answers, err
}

// SaveAnswers сохраняет ответы upsert-ом по ключу (run_area_id, question_id)
// и, если invalidate=true, выполняет каскад инвалидации В ТОЙ ЖЕ транзакции:
//  1. удаление ответов на уточняющие вопросы области (обоих шагов)
//  2. удаление самих уточняющих вопросов
//  3. удаление оценки области
//  4. удаление рекомендаций (производны от оценки, не переживают её)
//  5. is_dirty = true и принудительный статус in_progress
//
// Пятый шаг — условный UPDATE от prevStatus: если статус успел измениться,
// транзакция откатывается с ErrConflict и вызывающий видит состояние до
// каскада целиком. Повторный каскад без производных данных — безвредный no-op.
func (r *MCQRepo) SaveAnswers(runAreaID string, answers []entity.MCQAnswer, prevStatus string, invalidate bool) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if len(answers) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "run_area_id"}, {Name: "question_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"answer_value", "updated_at"}),
			}).Create(&answers).Error; err != nil {
				log.Printf("[MCQRepo] Error upserting answers for area %s: %v", runAreaID, err)
				return err
			}
		}

		if !invalidate {
			return nil
		}

		// Ответы удаляем раньше вопросов, пока подзапрос ещё их видит
		if err := tx.Exec(
			`DELETE FROM run_clarifier_answers
			 WHERE clarifier_question_id IN (
			     SELECT id FROM run_clarifier_questions WHERE run_area_id = ?
			 )`, runAreaID).Error; err != nil {
			return err
		}

		if err := tx.Where("run_area_id = ?", runAreaID).
			Delete(&entity.ClarifierQuestion{}).Error; err != nil {
			return err
		}

		if err := tx.Where("run_area_id = ?", runAreaID).
			Delete(&entity.AreaAssessment{}).Error; err != nil {
			return err
		}

		if err := tx.Where("run_area_id = ?", runAreaID).
			Delete(&entity.Recommendation{}).Error; err != nil {
			return err
		}

		res := tx.Model(&entity.RunArea{}).
			Where("id = ? AND status = ?", runAreaID, prevStatus).
			Updates(map[string]interface{}{
				"status":   entity.AreaStatusInProgress,
				"is_dirty": true,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Статус изменился под ногами — откатываем весь каскад
			return apperrors.ErrConflict
		}

		log.Printf("[MCQRepo] Downstream invalidation applied for area %s (prev status %s)",
			runAreaID, prevStatus)
		return nil
	})
}

package repository

import (
	"github.com/yourusername/diagnostic-api/internal/domain/entity"
)

// MCQRepository определяет методы для работы с банком вопросов и MCQ-ответами
type MCQRepository interface {
	GetQuestionsByAreaCode(areaCode string) ([]entity.MCQQuestion, error)
	GetAnswersByArea(runAreaID string) ([]entity.MCQAnswer, error)

	// SaveAnswers делает upsert ответов по ключу (run_area_id, question_id).
	// При invalidate=true в той же транзакции выполняется каскад
	// инвалидации: удаление уточняющих вопросов и ответов, оценки и
	// рекомендаций области, установка is_dirty и принудительный перевод
	// статуса в in_progress условным UPDATE от prevStatus. Если статус
	// изменился между проверкой гарда и фиксацией — ErrConflict, и
	// вызывающий видит состояние до каскада целиком.
	SaveAnswers(runAreaID string, answers []entity.MCQAnswer, prevStatus string, invalidate bool) error
}

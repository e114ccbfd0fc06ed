package repository

import (
	"time"

	"github.com/yourusername/diagnostic-api/internal/domain/entity"
)

// ClarifierRepository определяет методы для работы с уточняющими вопросами
type ClarifierRepository interface {
	// CreateQuestions сохраняет пачку сгенерированных вопросов одного
	// шага. Вставка идёт в одной транзакции с условной проверкой версии
	// области (status=in_progress и updated_at=seenUpdatedAt на момент
	// сборки доказательств): если за время генерации прошёл каскад
	// инвалидации, вопросы устарели вместе с доказательствами —
	// ErrConflict вместо вставки.
	CreateQuestions(runAreaID string, seenUpdatedAt time.Time, questions []entity.ClarifierQuestion) error
	GetQuestionByID(id string) (*entity.ClarifierQuestion, error)
	GetQuestionsByArea(runAreaID string) ([]entity.ClarifierQuestion, error)
	GetQuestionsByAreaAndStep(runAreaID string, step int) ([]entity.ClarifierQuestion, error)

	// SaveAnswer сохраняет ответ (upsert по clarifier_question_id:
	// повторная отправка перезаписывает предыдущий ответ)
	SaveAnswer(answer *entity.ClarifierAnswer) error
	GetAnswersByArea(runAreaID string) ([]entity.ClarifierAnswer, error)
	CountAnswersByArea(runAreaID string) (int64, error)
	CountAnswersByAreaAndStep(runAreaID string, step int) (int64, error)
}

package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/diagnostic-api/internal/domain/entity"
	apperrors "github.com/yourusername/diagnostic-api/internal/pkg/errors"
)

// ClarifierRepo реализует repository.ClarifierRepository
type ClarifierRepo struct {
	db *gorm.DB
}

// NewClarifierRepo создает новый репозиторий уточняющих вопросов
func NewClarifierRepo(db *gorm.DB) *ClarifierRepo {
	return &ClarifierRepo{db: db}
}

// CreateQuestions сохраняет пачку сгенерированных вопросов одного шага.
// Вставка идёт в одной транзакции с условной проверкой версии области:
// генерация блокируется на внешнем оценщике, и за это время каскад
// инвалидации мог удалить доказательства, вернув статус в тот же
// in_progress. Условный UPDATE по updated_at ловит эту гонку — вопросы,
// собранные по устаревшим доказательствам, не вставляются.
func (r *ClarifierRepo) CreateQuestions(runAreaID string, seenUpdatedAt time.Time, questions []entity.ClarifierQuestion) error {
	if len(questions) == 0 {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entity.RunArea{}).
			Where("id = ? AND status = ? AND updated_at = ?",
				runAreaID, entity.AreaStatusInProgress, seenUpdatedAt).
			Update("updated_at", time.Now())
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrConflict
		}
		return tx.Create(&questions).Error
	})
}

// GetQuestionByID возвращает уточняющий вопрос по идентификатору
func (r *ClarifierRepo) GetQuestionByID(id string) (*entity.ClarifierQuestion, error) {
	var question entity.ClarifierQuestion
	err := r.db.First(&question, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &question, nil
}

// GetQuestionsByArea возвращает все уточняющие вопросы области
func (r *ClarifierRepo) GetQuestionsByArea(runAreaID string) ([]entity.ClarifierQuestion, error) {
	var questions []entity.ClarifierQuestion
	err := r.db.Where("run_area_id = ?", runAreaID).
		Order("step, created_at").
		Find(&questions).Error
	return questions, err
}

// GetQuestionsByAreaAndStep возвращает вопросы области одного шага
func (r *ClarifierRepo) GetQuestionsByAreaAndStep(runAreaID string, step int) ([]entity.ClarifierQuestion, error) {
	var questions []entity.ClarifierQuestion
	err := r.db.Where("run_area_id = ? AND step = ?", runAreaID, step).
		Order("created_at").
		Find(&questions).Error
	return questions, err
}

// SaveAnswer сохраняет ответ upsert-ом: повторная отправка по тому же
// вопросу перезаписывает предыдущий ответ
func (r *ClarifierRepo) SaveAnswer(answer *entity.ClarifierAnswer) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "clarifier_question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"answer_text", "audio_ref", "transcription_status",
		}),
	}).Create(answer).Error
}

// GetAnswersByArea возвращает все ответы на уточняющие вопросы области
func (r *ClarifierRepo) GetAnswersByArea(runAreaID string) ([]entity.ClarifierAnswer, error) {
	var answers []entity.ClarifierAnswer
	err := r.db.
		Joins("JOIN run_clarifier_questions q ON q.id = run_clarifier_answers.clarifier_question_id").
		Where("q.run_area_id = ?", runAreaID).
		Order("q.step, q.created_at").
		Find(&answers).Error
	return answers, err
}

// CountAnswersByArea возвращает число ответов на уточняющие вопросы области
func (r *ClarifierRepo) CountAnswersByArea(runAreaID string) (int64, error) {
	var count int64
	err := r.db.Model(&entity.ClarifierAnswer{}).
		Joins("JOIN run_clarifier_questions q ON q.id = run_clarifier_answers.clarifier_question_id").
		Where("q.run_area_id = ?", runAreaID).
		Count(&count).Error
	return count, err
}

// CountAnswersByAreaAndStep возвращает число ответов на вопросы одного шага
func (r *ClarifierRepo) CountAnswersByAreaAndStep(runAreaID string, step int) (int64, error) {
	var count int64
	err := r.db.Model(&entity.ClarifierAnswer{}).
		Joins("JOIN run_clarifier_questions q ON q.id = run_clarifier_answers.clarifier_question_id").
		Where("q.run_area_id = ? AND q.step = ?", runAreaID, step).
		Count(&count).Error
	return count, err
}

package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Границы шкалы MCQ-ответа
const (
	MCQAnswerMin = 1
	MCQAnswerMax = 5
)

// MCQQuestion представляет вопрос банка с фиксированными вариантами.
// Контент банка — внешняя забота; движку нужны только вес и привязка
// к коду области, чтобы посчитать взвешенный балл и полноту ответов.
type MCQQuestion struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	AreaCode  string    `gorm:"size:50;not null;index" json:"area_code"`
	Text      string    `gorm:"size:500;not null" json:"text"`
	Weight    float64   `gorm:"not null;default:1.0" json:"weight"`
	Position  int       `gorm:"not null;default:0" json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (MCQQuestion) TableName() string {
	return "mcq_questions"
}

// BeforeCreate генерирует UUID, если он не задан
func (q *MCQQuestion) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return nil
}

// MCQAnswer представляет ответ на вопрос банка в рамках области.
// Уникален по паре (run_area_id, question_id), перезаписывается upsert-ом.
type MCQAnswer struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	RunAreaID   string    `gorm:"type:uuid;not null;index;uniqueIndex:idx_area_question" json:"run_area_id"`
	QuestionID  string    `gorm:"type:uuid;not null;uniqueIndex:idx_area_question" json:"question_id"`
	AnswerValue int       `gorm:"not null" json:"answer_value"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (MCQAnswer) TableName() string {
	return "run_mcq_answers"
}

// BeforeCreate генерирует UUID, если он не задан
func (a *MCQAnswer) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// IsValidValue проверяет, что значение ответа в шкале 1–5
func (a *MCQAnswer) IsValidValue() bool {
	return a.AnswerValue >= MCQAnswerMin && a.AnswerValue <= MCQAnswerMax
}

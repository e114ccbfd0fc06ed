package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Шаги генерации уточняющих вопросов
const (
	ClarifierStepCore     = 1 // 3 базовых вопроса
	ClarifierStepFollowup = 2 // 2 дополнительных вопроса
)

// Кардинальности шагов. Оценка области требует ровно
// CoreClarifierCount + FollowupClarifierCount ответов.
const (
	CoreClarifierCount     = 3
	FollowupClarifierCount = 2
	TotalClarifierAnswers  = CoreClarifierCount + FollowupClarifierCount
)

// Статусы транскрипции аудио-ответа
const (
	TranscriptionOK     = "ok"
	TranscriptionFailed = "failed"
)

// ClarifierQuestion представляет сгенерированный уточняющий вопрос.
// Создаётся только конвейером оценки, никогда пользователем.
type ClarifierQuestion struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	RunAreaID    string    `gorm:"type:uuid;not null;index" json:"run_area_id"`
	Step         int       `gorm:"not null" json:"step"`
	QuestionText string    `gorm:"size:1000;not null" json:"question_text"`
	Topic        *string   `gorm:"size:100" json:"topic,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (ClarifierQuestion) TableName() string {
	return "run_clarifier_questions"
}

// BeforeCreate генерирует UUID, если он не задан
func (q *ClarifierQuestion) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return nil
}

// ClarifierAnswer представляет ответ пользователя на уточняющий вопрос:
// текст либо ссылка на расшифрованное аудио. Неудачная транскрипция не
// отменяет отправку, но понижает надёжность итоговой оценки.
type ClarifierAnswer struct {
	ID                  string    `gorm:"type:uuid;primaryKey" json:"id"`
	ClarifierQuestionID string    `gorm:"type:uuid;not null;uniqueIndex" json:"clarifier_question_id"`
	AnswerText          *string   `gorm:"size:4000" json:"answer_text,omitempty"`
	AudioRef            *string   `gorm:"size:500" json:"audio_ref,omitempty"`
	TranscriptionStatus string    `gorm:"size:10;not null;default:'ok'" json:"transcription_status"`
	CreatedAt           time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (ClarifierAnswer) TableName() string {
	return "run_clarifier_answers"
}

// BeforeCreate генерирует UUID и статус транскрипции по умолчанию
func (a *ClarifierAnswer) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.TranscriptionStatus == "" {
		a.TranscriptionStatus = TranscriptionOK
	}
	return nil
}

// HasFailedTranscription проверяет, провалилась ли транскрипция
func (a *ClarifierAnswer) HasFailedTranscription() bool {
	return a.TranscriptionStatus == TranscriptionFailed
}

// Text возвращает текст ответа (пустая строка, если ответ только аудио)
func (a *ClarifierAnswer) Text() string {
	if a.AnswerText == nil {
		return ""
	}
	return *a.AnswerText
}

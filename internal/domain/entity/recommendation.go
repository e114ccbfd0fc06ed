package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Источники рекомендаций
const (
	RecommendationSourceDeterministic = "deterministic"
	RecommendationSourceLLMExtra      = "llm_extra"
)

// Приоритеты рекомендаций
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// ActionTemplate — детерминированный шаблон действия, привязанный
// к системному тегу. Таблица заполняется сидом, не пользователем.
type ActionTemplate struct {
	ID             string    `gorm:"type:uuid;primaryKey" json:"id"`
	ActionID       string    `gorm:"size:100;not null;uniqueIndex" json:"action_id"`
	SystemTag      string    `gorm:"size:50;not null;index" json:"system_tag"`
	Title          string    `gorm:"size:200;not null" json:"title"`
	Description    string    `gorm:"size:1000" json:"description,omitempty"`
	Dimension      string    `gorm:"size:30" json:"dimension,omitempty"`
	UpliftEstimate *float64  `json:"uplift_estimate,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (ActionTemplate) TableName() string {
	return "action_templates"
}

// BeforeCreate генерирует UUID, если он не задан
func (t *ActionTemplate) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// Recommendation — рекомендация, выведенная из тегов оценки области.
// Удаляется каскадом инвалидации вместе с оценкой.
type Recommendation struct {
	ID             string    `gorm:"type:uuid;primaryKey" json:"id"`
	RunAreaID      string    `gorm:"type:uuid;not null;index" json:"run_area_id"`
	ActionID       string    `gorm:"size:100;not null" json:"action_id"`
	Source         string    `gorm:"size:20;not null" json:"source"`
	Severity       float64   `gorm:"not null;default:0" json:"severity"`
	Priority       string    `gorm:"size:10;not null" json:"priority"`
	UpliftEstimate *float64  `json:"uplift_estimate,omitempty"`
	Payload        JSONMap   `gorm:"type:jsonb" json:"payload,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (Recommendation) TableName() string {
	return "run_recommendations"
}

// BeforeCreate генерирует UUID, если он не задан
func (r *Recommendation) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

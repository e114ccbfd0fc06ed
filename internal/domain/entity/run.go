package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JSONMap - пользовательский тип для произвольных JSONB-объектов
type JSONMap map[string]interface{}

// Scan реализует интерфейс sql.Scanner для JSONMap
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}

	if len(bytes) == 0 {
		*m = JSONMap{}
		return nil
	}

	return json.Unmarshal(bytes, m)
}

// Value реализует интерфейс driver.Valuer для JSONMap
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil || len(m) == 0 {
		return []byte("{}"), nil // Пустой объект вместо null
	}
	return json.Marshal(m)
}

// Run представляет один прогон диагностики финансовой функции
type Run struct {
	ID        string      `gorm:"type:uuid;primaryKey" json:"id"`
	Title     string      `gorm:"size:200;not null" json:"title"`
	Context   *RunContext `gorm:"foreignKey:RunID" json:"context,omitempty"`
	Areas     []RunArea   `gorm:"foreignKey:RunID" json:"areas,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Run) TableName() string {
	return "runs"
}

// BeforeCreate генерирует UUID, если он не задан
func (r *Run) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// RunContext хранит контекст прогона: сведения о компании и роли
// респондента. Входит в Evidence Pack каждой генерации и оценки.
type RunContext struct {
	ID             string    `gorm:"type:uuid;primaryKey" json:"id"`
	RunID          string    `gorm:"type:uuid;not null;uniqueIndex" json:"run_id"`
	CompanyContext JSONMap   `gorm:"type:jsonb" json:"company_context"`
	PillarContext  JSONMap   `gorm:"type:jsonb" json:"pillar_context"`
	PainPoints     JSONMap   `gorm:"type:jsonb" json:"pain_points"`
	Ambition       string    `gorm:"size:1000" json:"ambition,omitempty"`
	Role           string    `gorm:"size:100" json:"role,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (RunContext) TableName() string {
	return "run_contexts"
}

// BeforeCreate генерирует UUID, если он не задан
func (c *RunContext) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

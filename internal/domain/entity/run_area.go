package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Коды пяти диагностических областей по умолчанию
const (
	AreaCodeRecordToReport     = "record_to_report"
	AreaCodePlanningBudgeting  = "planning_budgeting"
	AreaCodeTreasuryCash       = "treasury_cash"
	AreaCodeComplianceControls = "compliance_controls"
	AreaCodeSystemsData        = "systems_data"
)

// DefaultAreas возвращает набор областей, создаваемых для нового прогона
func DefaultAreas() []RunArea {
	return []RunArea{
		{Code: AreaCodeRecordToReport, Name: "Record to Report"},
		{Code: AreaCodePlanningBudgeting, Name: "Planning & Budgeting"},
		{Code: AreaCodeTreasuryCash, Name: "Treasury & Cash"},
		{Code: AreaCodeComplianceControls, Name: "Compliance & Controls"},
		{Code: AreaCodeSystemsData, Name: "Systems & Data"},
	}
}

// RunArea представляет одну диагностическую область внутри прогона.
// Статус меняется только через операции движка; IsDirty означает,
// что производные артефакты не отражают актуальные MCQ-ответы.
type RunArea struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	RunID     string    `gorm:"type:uuid;not null;index;uniqueIndex:idx_run_area_code" json:"run_id"`
	Code      string    `gorm:"size:50;not null;uniqueIndex:idx_run_area_code" json:"code"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Status    string    `gorm:"size:20;not null;default:'not_started';index" json:"status"`
	IsDirty   bool      `gorm:"not null;default:false" json:"is_dirty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (RunArea) TableName() string {
	return "run_areas"
}

// BeforeCreate генерирует UUID и статус по умолчанию
func (a *RunArea) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = AreaStatusNotStarted
	}
	return nil
}

// IsInProgress проверяет, находится ли область в работе
func (a *RunArea) IsInProgress() bool {
	return a.Status == AreaStatusInProgress
}

// IsCompleted проверяет, завершена ли оценка области
func (a *RunArea) IsCompleted() bool {
	return a.Status == AreaStatusCompleted
}

// IsLocked проверяет, заморожена ли область
func (a *RunArea) IsLocked() bool {
	return a.Status == AreaStatusLocked
}

package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Уровни надёжности оценки
const (
	ReliabilityLow    = "low"
	ReliabilityMedium = "medium"
	ReliabilityHigh   = "high"
)

// StringArray - пользовательский тип для JSONB-массивов строк
type StringArray []string

// Scan реализует интерфейс sql.Scanner для StringArray
func (o *StringArray) Scan(value interface{}) error {
	if value == nil {
		*o = StringArray{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}

	if len(bytes) == 0 {
		*o = StringArray{}
		return nil
	}

	return json.Unmarshal(bytes, o)
}

// Value реализует интерфейс driver.Valuer для StringArray
func (o StringArray) Value() (driver.Value, error) {
	if o == nil || len(o) == 0 {
		return []byte("[]"), nil // Пустой JSON массив вместо null
	}
	return json.Marshal(o)
}

// Subscores - баллы по пяти измерениям, хранятся как JSONB
type Subscores map[string]float64

// Scan реализует интерфейс sql.Scanner для Subscores
func (s *Subscores) Scan(value interface{}) error {
	if value == nil {
		*s = Subscores{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}

	if len(bytes) == 0 {
		*s = Subscores{}
		return nil
	}

	return json.Unmarshal(bytes, s)
}

// Value реализует интерфейс driver.Valuer для Subscores
func (s Subscores) Value() (driver.Value, error) {
	if s == nil || len(s) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(s)
}

// ContradictionFlags отмечает оси, по которым MCQ-сигнал и сигнал
// оценщика расходятся сильнее порога. Хранится как JSONB.
type ContradictionFlags struct {
	Automation bool `json:"automation"`
	Governance bool `json:"governance"`
	People     bool `json:"people"`
}

// Scan реализует интерфейс sql.Scanner для ContradictionFlags
func (f *ContradictionFlags) Scan(value interface{}) error {
	if value == nil {
		*f = ContradictionFlags{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}

	if len(bytes) == 0 {
		*f = ContradictionFlags{}
		return nil
	}

	return json.Unmarshal(bytes, f)
}

// Value реализует интерфейс driver.Valuer для ContradictionFlags
func (f ContradictionFlags) Value() (driver.Value, error) {
	return json.Marshal(f)
}

// AreaAssessment — итоговый артефакт одного прохода оценки области.
// Ровно одна живая запись на область; заменяется целиком при каждой
// оценке и никогда не правится по отдельным полям.
type AreaAssessment struct {
	ID                string             `gorm:"type:uuid;primaryKey" json:"id"`
	RunAreaID         string             `gorm:"type:uuid;not null;uniqueIndex" json:"run_area_id"`
	AreaMCQScore      float64            `gorm:"not null" json:"area_mcq_score"`
	ClarifierScoreRaw float64            `gorm:"not null" json:"clarifier_score_raw"`
	ReportedScore     float64            `gorm:"not null" json:"reported_score"`
	Subscores         Subscores          `gorm:"type:jsonb;not null" json:"subscores"`
	SystemTags        StringArray        `gorm:"type:jsonb;not null" json:"system_tags"`
	NarrativeTags     StringArray        `gorm:"type:jsonb;not null" json:"narrative_tags"`
	Contradictions    ContradictionFlags `gorm:"type:jsonb;not null;column:contradiction_flags" json:"contradiction_flags"`
	Reliability       string             `gorm:"size:10;not null" json:"reliability"`
	CreatedAt         time.Time          `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (AreaAssessment) TableName() string {
	return "run_assessments"
}

// BeforeCreate генерирует UUID, если он не задан
func (a *AreaAssessment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// HasTag проверяет наличие системного тега в оценке
func (a *AreaAssessment) HasTag(tag string) bool {
	for _, t := range a.SystemTags {
		if t == tag {
			return true
		}
	}
	return false
}

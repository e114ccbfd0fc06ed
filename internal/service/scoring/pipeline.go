package scoring

import (
	"fmt"

	"github.com/yourusername/diagnostic-api/internal/domain/entity"
)

// Значения tag_quality, которые может вернуть оценщик
const (
	TagQualityHigh   = "high"
	TagQualityMedium = "medium"
	TagQualityLow    = "low"
)

// EvaluationResult — структурированный результат внешнего оценщика.
// Проверяется ValidateEvaluation на границе ответа: дальше конвейера
// невалидный результат не проходит.
type EvaluationResult struct {
	Subscores     map[string]float64 `json:"subscores"`
	SystemTags    []string           `json:"system_tags"`
	NarrativeTags []string           `json:"narrative_tags"`
	TagQuality    string             `json:"tag_quality"`
	ExtraActions  []ExtraAction      `json:"extra_actions,omitempty"`
}

// ExtraAction — действие, предложенное оценщиком сверх
// детерминированных шаблонов
type ExtraAction struct {
	ActionID       string   `json:"action_id"`
	Title          string   `json:"title"`
	Dimension      string   `json:"dimension,omitempty"`
	UpliftEstimate *float64 `json:"uplift_estimate,omitempty"`
}

// ValidateEvaluation проверяет структурную корректность результата
// оценщика: ровно пять суб-баллов (по одному на каждое измерение) в
// шкале 1–5, системные теги из закрытого словаря, известный tag_quality.
func ValidateEvaluation(res *EvaluationResult) error {
	if res == nil {
		return fmt.Errorf("empty evaluation result")
	}
	if len(res.Subscores) != len(entity.Dimensions) {
		return fmt.Errorf("expected %d subscores, got %d", len(entity.Dimensions), len(res.Subscores))
	}
	for _, dim := range entity.Dimensions {
		score, ok := res.Subscores[dim]
		if !ok {
			return fmt.Errorf("missing subscore for dimension %q", dim)
		}
		if score < 1 || score > 5 {
			return fmt.Errorf("subscore for %q out of range: %v", dim, score)
		}
	}
	for _, tag := range res.SystemTags {
		if !entity.IsValidSystemTag(tag) {
			return fmt.Errorf("unknown system tag %q", tag)
		}
	}
	switch res.TagQuality {
	case TagQualityHigh, TagQualityMedium, TagQualityLow:
	default:
		return fmt.Errorf("unknown tag quality %q", res.TagQuality)
	}
	return nil
}

// ClarifierScoreRaw — среднее суб-баллов оценщика по пяти измерениям
func ClarifierScoreRaw(subscores map[string]float64) float64 {
	if len(subscores) == 0 {
		return 0
	}
	var sum float64
	for _, dim := range entity.Dimensions {
		sum += subscores[dim]
	}
	return sum / float64(len(entity.Dimensions))
}

// ReportedScore смешивает MCQ-балл и балл оценщика по настроенным
// весам. Веса нормируются, чтобы конфигурация с суммой != 1 не
// выносила балл за шкалу.
func ReportedScore(cfg *Config, mcqScore, clarifierScore float64) float64 {
	total := cfg.MCQWeight + cfg.ClarifierWeight
	if total == 0 {
		return clarifierScore
	}
	return (cfg.MCQWeight*mcqScore + cfg.ClarifierWeight*clarifierScore) / total
}

// Оси противоречий и их теги слабости. Ось считается противоречивой,
// когда MCQ-самооценка «сильная», а оценщик при этом повесил на ось
// тег известной структурной слабости.
var axisWeaknessTags = map[string][]string{
	"automation": {
		entity.TagLimitedAutomation,
		entity.TagCoreProcessExcel,
		entity.TagNoWorkflowSupport,
		entity.TagMultiSystemFragmentation,
	},
	"governance": {
		entity.TagNoDocumentation,
		entity.TagMissingOwnership,
		entity.TagLateAdjustments,
		entity.TagPoorHandoffs,
	},
	"people": {
		entity.TagCapacityConstraint,
		entity.TagReworkHeavy,
	},
}

// ContradictionFlagsFor вычисляет флаги противоречий по трём осям
func ContradictionFlagsFor(cfg *Config, mcqScore float64, res *EvaluationResult) entity.ContradictionFlags {
	strong := mcqScore >= cfg.MCQStrengthThreshold
	if !strong {
		return entity.ContradictionFlags{}
	}

	tagged := func(axis string) bool {
		for _, weakness := range axisWeaknessTags[axis] {
			for _, tag := range res.SystemTags {
				if tag == weakness {
					return true
				}
			}
		}
		return false
	}

	return entity.ContradictionFlags{
		Automation: tagged("automation"),
		Governance: tagged("governance"),
		People:     tagged("people"),
	}
}

// ReliabilityFor вычисляет надёжность оценки: tag_quality=low опускает
// её до low, любая провалившаяся транскрипция ограничивает medium,
// иначе high. tag_quality=medium сам по себе надёжность не снижает.
func ReliabilityFor(tagQuality string, hasFailedTranscription bool) string {
	if tagQuality == TagQualityLow {
		return entity.ReliabilityLow
	}
	if hasFailedTranscription {
		return entity.ReliabilityMedium
	}
	return entity.ReliabilityHigh
}

// SeverityFor — насколько суб-балл измерения ниже порога зрелости.
// Для рекомендаций без измерения берётся итоговый балл оценки.
func SeverityFor(cfg *Config, assessment *entity.AreaAssessment, dimension string) float64 {
	score := assessment.ReportedScore
	if dimension != "" {
		if sub, ok := assessment.Subscores[dimension]; ok {
			score = sub
		}
	}
	severity := cfg.MaturityThreshold - score
	if severity < 0 {
		return 0
	}
	return severity
}

// PriorityFor переводит severity в приоритет по настроенным порогам
func PriorityFor(cfg *Config, severity float64) string {
	switch {
	case severity >= cfg.HighPriorityCutoff:
		return entity.PriorityHigh
	case severity >= cfg.MediumPriorityCutoff:
		return entity.PriorityMedium
	default:
		return entity.PriorityLow
	}
}

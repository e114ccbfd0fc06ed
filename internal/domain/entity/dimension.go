package entity

// Пять фиксированных измерений зрелости финансовой функции
const (
	DimensionProcess      = "process"
	DimensionAutomation   = "automation"
	DimensionDataQuality  = "data_quality"
	DimensionControls     = "controls"
	DimensionPeopleSkills = "people_skills"
)

// Dimensions — полный список измерений в каноническом порядке
var Dimensions = []string{
	DimensionProcess,
	DimensionAutomation,
	DimensionDataQuality,
	DimensionControls,
	DimensionPeopleSkills,
}

// IsValidDimension проверяет, входит ли измерение в фиксированный список
func IsValidDimension(d string) bool {
	for _, dim := range Dimensions {
		if dim == d {
			return true
		}
	}
	return false
}

// Системные теги — закрытый словарь структурных слабостей.
// Должен совпадать со словарём в промптах оценщика: неизвестные теги
// отклоняются на границе ответа оценщика, а не пропускаются дальше.
const (
	TagCoreProcessExcel         = "CORE_PROCESS_EXCEL"
	TagNoWorkflowSupport        = "NO_WORKFLOW_SUPPORT"
	TagNoDocumentation          = "NO_DOCUMENTATION"
	TagLateAdjustments          = "LATE_ADJUSTMENTS"
	TagUpstreamDataIssues       = "UPSTREAM_DATA_ISSUES"
	TagReworkHeavy              = "REWORK_HEAVY"
	TagMissingOwnership         = "MISSING_OWNERSHIP"
	TagPoorHandoffs             = "POOR_HANDOFFS"
	TagCapacityConstraint       = "CAPACITY_CONSTRAINT"
	TagLimitedAutomation        = "LIMITED_AUTOMATION"
	TagMultiSystemFragmentation = "MULTI_SYSTEM_FRAGMENTATION"
	TagDataQualityGaps          = "DATA_QUALITY_GAPS"
)

// SystemTags — полный закрытый словарь системных тегов
var SystemTags = []string{
	TagCoreProcessExcel,
	TagNoWorkflowSupport,
	TagNoDocumentation,
	TagLateAdjustments,
	TagUpstreamDataIssues,
	TagReworkHeavy,
	TagMissingOwnership,
	TagPoorHandoffs,
	TagCapacityConstraint,
	TagLimitedAutomation,
	TagMultiSystemFragmentation,
	TagDataQualityGaps,
}

// IsValidSystemTag проверяет тег по закрытому словарю
func IsValidSystemTag(tag string) bool {
	for _, t := range SystemTags {
		if t == tag {
			return true
		}
	}
	return false
}

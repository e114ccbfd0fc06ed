package scoring

// Config содержит настройки конвейера оценки. Все численные константы
// смешивания и порогов живут здесь как именованные параметры, а не
// литералы в коде конвейера.
type Config struct {
	// MCQWeight — вес MCQ-балла в итоговом reported_score
	MCQWeight float64

	// ClarifierWeight — вес балла оценщика в итоговом reported_score
	ClarifierWeight float64

	// MCQStrengthThreshold — MCQ-балл, начиная с которого самооценка
	// считается «сильной» при поиске противоречий с тегами оценщика
	MCQStrengthThreshold float64

	// MaturityThreshold — уровень зрелости, от которого отсчитывается
	// severity рекомендаций (насколько суб-балл ниже порога)
	MaturityThreshold float64

	// HighPriorityCutoff — severity, с которой приоритет high
	HighPriorityCutoff float64

	// MediumPriorityCutoff — severity, с которой приоритет medium
	MediumPriorityCutoff float64
}

// DefaultConfig возвращает настройки конвейера по умолчанию
func DefaultConfig() *Config {
	return &Config{
		MCQWeight:            0.4,
		ClarifierWeight:      0.6,
		MCQStrengthThreshold: 3.5,
		MaturityThreshold:    3.0,
		HighPriorityCutoff:   1.5,
		MediumPriorityCutoff: 0.5,
	}
}

package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrConflict используется, когда статус области изменился между
	// проверкой гарда и фиксацией записи (optimistic check не прошёл).
	ErrConflict = errors.New("resource state conflict")

	// ErrMissingEvidence используется, когда для операции не хватает
	// собранных данных (неполные MCQ-ответы, меньше 5 ответов на
	// уточняющие вопросы и т.п.).
	ErrMissingEvidence = errors.New("missing evidence")

	// ErrEvaluator используется, когда внешний оценщик недоступен или
	// вернул структурно некорректный результат (неверная кардинальность,
	// теги вне словаря). Частичные результаты при этом не сохраняются.
	ErrEvaluator = errors.New("evaluator call failed")
)

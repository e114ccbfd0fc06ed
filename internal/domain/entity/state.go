package entity

import "fmt"

// Константы статусов диагностической области
const (
	AreaStatusNotStarted = "not_started"
	AreaStatusInProgress = "in_progress"
	AreaStatusCompleted  = "completed"
	AreaStatusLocked     = "locked"
)

// AreaFlow описывает разрешённые прямые переходы статусов:
// not_started → in_progress → completed → locked.
// Обратного пути нет — единственное движение назад выполняет
// каскад инвалидации (привилегированный системный переход,
// он идёт мимо AssertTransition через guarded UPDATE в репозитории).
var AreaFlow = map[string][]string{
	AreaStatusNotStarted: {AreaStatusInProgress},
	AreaStatusInProgress: {AreaStatusCompleted},
	AreaStatusCompleted:  {AreaStatusLocked},
	AreaStatusLocked:     {}, // заморожена до админского unlock
}

// StateTransitionError возвращается, когда операция недопустима
// в текущем статусе области или запрошен переход вне графа.
type StateTransitionError struct {
	Method  string // имя операции, которая была отклонена
	Status  string // статус области на момент проверки
	Message string
}

func (e *StateTransitionError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("invalid state transition in %s for status %s", e.Method, e.Status)
}

// NewStateTransitionError создает ошибку нарушения состояния
func NewStateTransitionError(method, status, message string) *StateTransitionError {
	return &StateTransitionError{Method: method, Status: status, Message: message}
}

// CanTransition возвращает true, если переход from → to разрешён графом.
// Петель нет: CanTransition(s, s) == false для любого статуса.
func CanTransition(from, to string) bool {
	for _, next := range AreaFlow[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AssertTransition возвращает ошибку при попытке перехода вне графа
func AssertTransition(from, to string) error {
	if !CanTransition(from, to) {
		return NewStateTransitionError(
			"transition",
			from,
			fmt.Sprintf("invalid transition: %s -> %s", from, to),
		)
	}
	return nil
}

// -------------------------------------------------------
// Гарды операций. Гарды проверяют ДОПУСТИМОСТЬ операции в текущем
// статусе, а не сам переход статуса — это разные проверки.
// -------------------------------------------------------

// AssertCanWriteMCQ проверяет, можно ли записывать MCQ-ответы.
// Разрешено в not_started, in_progress и completed: перезапись из
// completed — легальный способ запустить каскад инвалидации.
// Запрещено только в locked.
func AssertCanWriteMCQ(status string) error {
	if status == AreaStatusLocked {
		return NewStateTransitionError(
			"save_mcq_answers",
			status,
			fmt.Sprintf("cannot modify MCQs when area is %s", status),
		)
	}
	return nil
}

// AssertCanGenerateCoreClarifiers проверяет генерацию базовых
// уточняющих вопросов (шаг 1): только in_progress.
// Полнота MCQ-ответов проверяется сервисом отдельно.
func AssertCanGenerateCoreClarifiers(status string) error {
	if status != AreaStatusInProgress {
		return NewStateTransitionError(
			"generate_core_clarifiers",
			status,
			"core clarifiers can only be generated when area is in_progress",
		)
	}
	return nil
}

// AssertCanGenerateFollowups проверяет генерацию follow-up вопросов
// (шаг 2): только in_progress. Наличие вопросов и ответов шага 1
// проверяется сервисом.
func AssertCanGenerateFollowups(status string) error {
	if status != AreaStatusInProgress {
		return NewStateTransitionError(
			"generate_followup_clarifiers",
			status,
			"follow-up clarifiers can only be generated when area is in_progress",
		)
	}
	return nil
}

// AssertCanScoreArea проверяет запуск оценки области: только in_progress.
// Наличие всех 5 ответов на уточняющие вопросы проверяется сервисом.
func AssertCanScoreArea(status string) error {
	if status != AreaStatusInProgress {
		return NewStateTransitionError(
			"evaluate_area",
			status,
			"area can only be evaluated when status is in_progress",
		)
	}
	return nil
}

// AssertWritable запрещает любые записи в completed/locked областях.
// Используется для операций без собственного специального гарда
// (например, сохранение ответа на уточняющий вопрос).
func AssertWritable(status, method string) error {
	if status == AreaStatusCompleted || status == AreaStatusLocked {
		return NewStateTransitionError(
			method,
			status,
			fmt.Sprintf("%s is not allowed when area is %s", method, status),
		)
	}
	return nil
}

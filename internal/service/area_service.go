package service

import (
	"fmt"
	"log"
	"time"

	"github.com/yourusername/diagnostic-api/internal/domain/entity"
	"github.com/yourusername/diagnostic-api/internal/domain/repository"
	apperrors "github.com/yourusername/diagnostic-api/internal/pkg/errors"
	ws "github.com/yourusername/diagnostic-api/internal/websocket"
)

// Ключи и время жизни в Redis
const (
	areaLockTTL     = 10 * time.Second
	questionBankTTL = 10 * time.Minute
	areaLockKeyFmt  = "area:lock:%s"
	questionBankFmt = "mcq:bank:%s"
)

// AreaService предоставляет методы жизненного цикла области:
// запись MCQ-ответов с каскадом инвалидации и блокировку области
type AreaService struct {
	areaRepo  repository.RunAreaRepository
	mcqRepo   repository.MCQRepository
	cacheRepo repository.CacheRepository
	events    EventPublisher
}

// NewAreaService создает новый сервис областей
func NewAreaService(
	areaRepo repository.RunAreaRepository,
	mcqRepo repository.MCQRepository,
	cacheRepo repository.CacheRepository,
	events EventPublisher,
) *AreaService {
	return &AreaService{
		areaRepo:  areaRepo,
		mcqRepo:   mcqRepo,
		cacheRepo: cacheRepo,
		events:    events,
	}
}

// MCQAnswerInput — один MCQ-ответ из запроса
type MCQAnswerInput struct {
	QuestionID  string `json:"question_id"`
	AnswerValue int    `json:"answer_value"`
}

// GetArea возвращает область по идентификатору
func (s *AreaService) GetArea(areaID string) (*entity.RunArea, error) {
	return s.areaRepo.GetByID(areaID)
}

// WriteMCQAnswers записывает MCQ-ответы области. Возвращает признак
// того, что хотя бы одно существующее значение изменилось — в этом
// случае одной транзакцией с upsert-ом выполнен каскад инвалидации.
// Upsert без изменения значений каскада не запускает, но сохраняется.
func (s *AreaService) WriteMCQAnswers(areaID string, inputs []MCQAnswerInput) (bool, error) {
	area, err := s.areaRepo.GetByID(areaID)
	if err != nil {
		return false, err
	}

	if err := entity.AssertCanWriteMCQ(area.Status); err != nil {
		return false, err
	}

	if len(inputs) == 0 {
		return false, fmt.Errorf("%w: answers are required", apperrors.ErrValidation)
	}

	questions, err := s.loadQuestionBank(area.Code)
	if err != nil {
		return false, err
	}
	known := make(map[string]bool, len(questions))
	for _, q := range questions {
		known[q.ID] = true
	}

	answers := make([]entity.MCQAnswer, 0, len(inputs))
	for _, in := range inputs {
		a := entity.MCQAnswer{
			RunAreaID:   areaID,
			QuestionID:  in.QuestionID,
			AnswerValue: in.AnswerValue,
		}
		if !a.IsValidValue() {
			return false, fmt.Errorf("%w: answer value %d out of range 1-5", apperrors.ErrValidation, in.AnswerValue)
		}
		if !known[in.QuestionID] {
			return false, fmt.Errorf("%w: unknown question %s for area %s", apperrors.ErrValidation, in.QuestionID, area.Code)
		}
		answers = append(answers, a)
	}

	unlock, err := s.lockArea(areaID)
	if err != nil {
		return false, err
	}
	defer unlock()

	// Сравниваем с существующими значениями: каскад запускает только
	// изменение уже записанного ответа, не первая запись
	existing, err := s.mcqRepo.GetAnswersByArea(areaID)
	if err != nil {
		return false, err
	}
	existingMap := make(map[string]int, len(existing))
	for _, a := range existing {
		existingMap[a.QuestionID] = a.AnswerValue
	}

	changed := false
	for _, a := range answers {
		if prev, ok := existingMap[a.QuestionID]; ok && prev != a.AnswerValue {
			changed = true
			break
		}
	}

	if err := s.mcqRepo.SaveAnswers(areaID, answers, area.Status, changed); err != nil {
		return false, err
	}

	if changed {
		log.Printf("[AreaService] MCQ change detected for area %s, downstream invalidated", areaID)
		s.publish(ws.AreaEvent{
			Type:    ws.EventAreaInvalidated,
			RunID:   area.RunID,
			AreaID:  areaID,
			Status:  entity.AreaStatusInProgress,
			IsDirty: true,
		})
		return true, nil
	}

	// Первая запись ответов выводит область из not_started
	if area.Status == entity.AreaStatusNotStarted {
		if err := entity.AssertTransition(entity.AreaStatusNotStarted, entity.AreaStatusInProgress); err != nil {
			return false, err
		}
		if err := s.areaRepo.UpdateStatusGuarded(nil, areaID,
			entity.AreaStatusNotStarted, entity.AreaStatusInProgress); err != nil {
			return false, err
		}
		s.publish(ws.AreaEvent{
			Type:   ws.EventAreaStatusChanged,
			RunID:  area.RunID,
			AreaID: areaID,
			Status: entity.AreaStatusInProgress,
		})
	}

	return false, nil
}

// LockArea замораживает завершённую область (completed → locked).
// Обратного пути из locked у движка нет.
func (s *AreaService) LockArea(areaID string) (*entity.RunArea, error) {
	area, err := s.areaRepo.GetByID(areaID)
	if err != nil {
		return nil, err
	}

	if err := entity.AssertTransition(area.Status, entity.AreaStatusLocked); err != nil {
		return nil, err
	}
	if err := s.areaRepo.UpdateStatusGuarded(nil, areaID, area.Status, entity.AreaStatusLocked); err != nil {
		return nil, err
	}

	area.Status = entity.AreaStatusLocked
	s.publish(ws.AreaEvent{
		Type:   ws.EventAreaStatusChanged,
		RunID:  area.RunID,
		AreaID: areaID,
		Status: entity.AreaStatusLocked,
	})
	return area, nil
}

// loadQuestionBank возвращает вопросы банка для кода области,
// при возможности — из кеша. Ошибки кеша не фатальны.
func (s *AreaService) loadQuestionBank(areaCode string) ([]entity.MCQQuestion, error) {
	key := fmt.Sprintf(questionBankFmt, areaCode)

	var cached []entity.MCQQuestion
	if err := s.cacheRepo.GetJSON(key, &cached); err == nil && len(cached) > 0 {
		return cached, nil
	}

	questions, err := s.mcqRepo.GetQuestionsByAreaCode(areaCode)
	if err != nil {
		return nil, err
	}
	if len(questions) > 0 {
		if err := s.cacheRepo.SetJSON(key, questions, questionBankTTL); err != nil {
			log.Printf("[AreaService] Failed to cache question bank for %s: %v", areaCode, err)
		}
	}
	return questions, nil
}

// lockArea берёт короткоживущую Redis-блокировку на область. Занятая
// блокировка — признак параллельной записи, оперативно возвращаем
// ErrConflict вместо ожидания. При недоступном Redis работаем без
// блокировки (fail-open): терминальные записи всё равно защищены
// условным UPDATE в транзакциях.
func (s *AreaService) lockArea(areaID string) (func(), error) {
	key := fmt.Sprintf(areaLockKeyFmt, areaID)
	ok, err := s.cacheRepo.SetNX(key, 1, areaLockTTL)
	if err != nil {
		log.Printf("[AreaService] Redis lock unavailable for area %s: %v", areaID, err)
		return func() {}, nil
	}
	if !ok {
		return nil, fmt.Errorf("%w: concurrent write to area %s", apperrors.ErrConflict, areaID)
	}
	return func() {
		if err := s.cacheRepo.Delete(key); err != nil {
			log.Printf("[AreaService] Failed to release lock for area %s: %v", areaID, err)
		}
	}, nil
}

func (s *AreaService) publish(evt ws.AreaEvent) {
	if s.events != nil {
		s.events.PublishAreaEvent(evt)
	}
}

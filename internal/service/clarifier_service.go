package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/yourusername/diagnostic-api/internal/domain/entity"
	"github.com/yourusername/diagnostic-api/internal/domain/repository"
	apperrors "github.com/yourusername/diagnostic-api/internal/pkg/errors"
	"github.com/yourusername/diagnostic-api/internal/service/scoring"
	ws "github.com/yourusername/diagnostic-api/internal/websocket"
)

// ClarifierService управляет генерацией уточняющих вопросов и
// сохранением ответов на них
type ClarifierService struct {
	areaRepo  repository.RunAreaRepository
	runRepo   repository.RunRepository
	mcqRepo   repository.MCQRepository
	clarRepo  repository.ClarifierRepository
	evaluator Evaluator
	events    EventPublisher
}

// NewClarifierService создает новый сервис уточняющих вопросов
func NewClarifierService(
	areaRepo repository.RunAreaRepository,
	runRepo repository.RunRepository,
	mcqRepo repository.MCQRepository,
	clarRepo repository.ClarifierRepository,
	evaluator Evaluator,
	events EventPublisher,
) *ClarifierService {
	return &ClarifierService{
		areaRepo:  areaRepo,
		runRepo:   runRepo,
		mcqRepo:   mcqRepo,
		clarRepo:  clarRepo,
		evaluator: evaluator,
		events:    events,
	}
}

// GenerateCoreClarifiers генерирует три базовых уточняющих вопроса
// (шаг 1). Требует in_progress и полные MCQ-ответы. Повторный вызов
// при уже существующих вопросах шага 1 возвращает их без генерации.
func (s *ClarifierService) GenerateCoreClarifiers(ctx context.Context, areaID string) ([]entity.ClarifierQuestion, error) {
	area, err := s.areaRepo.GetByID(areaID)
	if err != nil {
		return nil, err
	}
	if err := entity.AssertCanGenerateCoreClarifiers(area.Status); err != nil {
		return nil, err
	}

	existing, err := s.clarRepo.GetQuestionsByAreaAndStep(areaID, entity.ClarifierStepCore)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}

	pack, err := s.assembleEvidence(area, false)
	if err != nil {
		return nil, err
	}

	generated, err := s.evaluator.GenerateClarifiers(ctx, ClarifierRequest{
		Step:     entity.ClarifierStepCore,
		Count:    entity.CoreClarifierCount,
		Evidence: *pack,
	})
	if err != nil {
		return nil, wrapEvaluatorError(err)
	}
	if len(generated) != entity.CoreClarifierCount {
		return nil, fmt.Errorf("%w: expected %d core clarifiers, got %d",
			apperrors.ErrEvaluator, entity.CoreClarifierCount, len(generated))
	}

	// Версия области, прочитанная до вызова оценщика: если за время
	// генерации прошёл каскад инвалидации, вставка вернёт ErrConflict
	questions := buildClarifierEntities(areaID, entity.ClarifierStepCore, generated)
	if err := s.clarRepo.CreateQuestions(areaID, area.UpdatedAt, questions); err != nil {
		return nil, err
	}

	log.Printf("[ClarifierService] Generated %d core clarifiers for area %s", len(questions), areaID)
	s.publish(area, ws.EventClarifiersGenerated, map[string]interface{}{"step": entity.ClarifierStepCore})
	return questions, nil
}

// GenerateFollowupClarifiers генерирует два follow-up вопроса (шаг 2).
// Требует in_progress, существующие вопросы шага 1 и ответы на все из
// них: follow-up уточняет базовые ответы, а не заменяет их.
func (s *ClarifierService) GenerateFollowupClarifiers(ctx context.Context, areaID string) ([]entity.ClarifierQuestion, error) {
	area, err := s.areaRepo.GetByID(areaID)
	if err != nil {
		return nil, err
	}
	if err := entity.AssertCanGenerateFollowups(area.Status); err != nil {
		return nil, err
	}

	core, err := s.clarRepo.GetQuestionsByAreaAndStep(areaID, entity.ClarifierStepCore)
	if err != nil {
		return nil, err
	}
	if len(core) == 0 {
		return nil, fmt.Errorf("%w: core clarifiers must be generated first", apperrors.ErrMissingEvidence)
	}
	answered, err := s.clarRepo.CountAnswersByAreaAndStep(areaID, entity.ClarifierStepCore)
	if err != nil {
		return nil, err
	}
	if answered < int64(len(core)) {
		return nil, fmt.Errorf("%w: %d of %d core clarifier answers present",
			apperrors.ErrMissingEvidence, answered, len(core))
	}

	existing, err := s.clarRepo.GetQuestionsByAreaAndStep(areaID, entity.ClarifierStepFollowup)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}

	pack, err := s.assembleEvidence(area, true)
	if err != nil {
		return nil, err
	}

	generated, err := s.evaluator.GenerateClarifiers(ctx, ClarifierRequest{
		Step:     entity.ClarifierStepFollowup,
		Count:    entity.FollowupClarifierCount,
		Evidence: *pack,
	})
	if err != nil {
		return nil, wrapEvaluatorError(err)
	}
	if len(generated) != entity.FollowupClarifierCount {
		return nil, fmt.Errorf("%w: expected %d follow-up clarifiers, got %d",
			apperrors.ErrEvaluator, entity.FollowupClarifierCount, len(generated))
	}

	questions := buildClarifierEntities(areaID, entity.ClarifierStepFollowup, generated)
	if err := s.clarRepo.CreateQuestions(areaID, area.UpdatedAt, questions); err != nil {
		return nil, err
	}

	log.Printf("[ClarifierService] Generated %d follow-up clarifiers for area %s", len(questions), areaID)
	s.publish(area, ws.EventClarifiersGenerated, map[string]interface{}{"step": entity.ClarifierStepFollowup})
	return questions, nil
}

// ClarifierAnswerInput — ответ пользователя на уточняющий вопрос
type ClarifierAnswerInput struct {
	AnswerText          string `json:"answer_text"`
	AudioRef            string `json:"audio_ref"`
	TranscriptionStatus string `json:"transcription_status"`
}

// SaveAnswer сохраняет ответ на уточняющий вопрос. Провал транскрипции
// не отклоняет отправку — он лишь ограничит надёжность оценки.
func (s *ClarifierService) SaveAnswer(questionID string, input ClarifierAnswerInput) (*entity.ClarifierAnswer, error) {
	question, err := s.clarRepo.GetQuestionByID(questionID)
	if err != nil {
		return nil, err
	}
	area, err := s.areaRepo.GetByID(question.RunAreaID)
	if err != nil {
		return nil, err
	}
	if err := entity.AssertWritable(area.Status, "save_clarifier_answer"); err != nil {
		return nil, err
	}

	text := strings.TrimSpace(input.AnswerText)
	audio := strings.TrimSpace(input.AudioRef)
	if text == "" && audio == "" {
		return nil, fmt.Errorf("%w: answer_text or audio_ref is required", apperrors.ErrValidation)
	}

	status := input.TranscriptionStatus
	if status == "" {
		status = entity.TranscriptionOK
	}
	if status != entity.TranscriptionOK && status != entity.TranscriptionFailed {
		return nil, fmt.Errorf("%w: unknown transcription status %q", apperrors.ErrValidation, status)
	}

	answer := &entity.ClarifierAnswer{
		ClarifierQuestionID: questionID,
		TranscriptionStatus: status,
	}
	if text != "" {
		answer.AnswerText = &text
	}
	if audio != "" {
		answer.AudioRef = &audio
	}

	if err := s.clarRepo.SaveAnswer(answer); err != nil {
		return nil, err
	}
	return answer, nil
}

// GetQuestions возвращает все уточняющие вопросы области
func (s *ClarifierService) GetQuestions(areaID string) ([]entity.ClarifierQuestion, error) {
	if _, err := s.areaRepo.GetByID(areaID); err != nil {
		return nil, err
	}
	return s.clarRepo.GetQuestionsByArea(areaID)
}

// assembleEvidence собирает Evidence Pack области: MCQ-часть, контекст
// прогона и (для follow-up и оценки) имеющиеся уточняющие Q&A
func (s *ClarifierService) assembleEvidence(area *entity.RunArea, withClarifiers bool) (*scoring.EvidencePack, error) {
	questions, err := s.mcqRepo.GetQuestionsByAreaCode(area.Code)
	if err != nil {
		return nil, err
	}
	answers, err := s.mcqRepo.GetAnswersByArea(area.ID)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 || len(answers) < len(questions) {
		return nil, fmt.Errorf("%w: %d of %d MCQ answers present",
			apperrors.ErrMissingEvidence, len(answers), len(questions))
	}

	items := scoring.BuildMCQItems(questions, answers)
	pack := &scoring.EvidencePack{
		AreaCode:   area.Code,
		AreaName:   area.Name,
		MCQAnswers: items,
		MCQScore:   scoring.WeightedMCQScore(items),
	}

	if ctx, err := s.runRepo.GetContextByRunID(area.RunID); err == nil {
		pack.CompanyContext = ctx.CompanyContext
		pack.PillarContext = ctx.PillarContext
		pack.PainPoints = ctx.PainPoints
		pack.Ambition = ctx.Ambition
		pack.Role = ctx.Role
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	if withClarifiers {
		cq, err := s.clarRepo.GetQuestionsByArea(area.ID)
		if err != nil {
			return nil, err
		}
		ca, err := s.clarRepo.GetAnswersByArea(area.ID)
		if err != nil {
			return nil, err
		}
		pack.Clarifiers = scoring.BuildClarifierQA(cq, ca)
	}

	return pack, nil
}

func (s *ClarifierService) publish(area *entity.RunArea, eventType string, payload interface{}) {
	if s.events != nil {
		s.events.PublishAreaEvent(ws.AreaEvent{
			Type:    eventType,
			RunID:   area.RunID,
			AreaID:  area.ID,
			Status:  area.Status,
			Payload: payload,
		})
	}
}

// buildClarifierEntities превращает вопросы оценщика в сущности шага
func buildClarifierEntities(areaID string, step int, generated []GeneratedClarifier) []entity.ClarifierQuestion {
	questions := make([]entity.ClarifierQuestion, 0, len(generated))
	for _, g := range generated {
		q := entity.ClarifierQuestion{
			RunAreaID:    areaID,
			Step:         step,
			QuestionText: strings.TrimSpace(g.Text),
		}
		if topic := strings.TrimSpace(g.Topic); topic != "" {
			q.Topic = &topic
		}
		questions = append(questions, q)
	}
	return questions
}

// wrapEvaluatorError помечает любую ошибку внешнего оценщика как
// EvaluatorError, сохраняя уже помеченные как есть
func wrapEvaluatorError(err error) error {
	if errors.Is(err, apperrors.ErrEvaluator) {
		return err
	}
	return fmt.Errorf("%w: %v", apperrors.ErrEvaluator, err)
}

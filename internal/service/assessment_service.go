package service

import (
	"context"
	"fmt"
	"log"

	"github.com/yourusername/diagnostic-api/internal/domain/entity"
	"github.com/yourusername/diagnostic-api/internal/domain/repository"
	apperrors "github.com/yourusername/diagnostic-api/internal/pkg/errors"
	"github.com/yourusername/diagnostic-api/internal/service/scoring"
	ws "github.com/yourusername/diagnostic-api/internal/websocket"
)

// AssessmentService запускает конвейер оценки области и отдаёт
// её итоговые артефакты
type AssessmentService struct {
	areaRepo   repository.RunAreaRepository
	clarRepo   repository.ClarifierRepository
	assessRepo repository.AssessmentRepository
	clarifiers *ClarifierService
	recs       *RecommendationService
	evaluator  Evaluator
	cfg        *scoring.Config
	events     EventPublisher
}

// NewAssessmentService создает новый сервис оценки
func NewAssessmentService(
	areaRepo repository.RunAreaRepository,
	clarRepo repository.ClarifierRepository,
	assessRepo repository.AssessmentRepository,
	clarifiers *ClarifierService,
	recs *RecommendationService,
	evaluator Evaluator,
	cfg *scoring.Config,
	events EventPublisher,
) *AssessmentService {
	if cfg == nil {
		cfg = scoring.DefaultConfig()
	}
	return &AssessmentService{
		areaRepo:   areaRepo,
		clarRepo:   clarRepo,
		assessRepo: assessRepo,
		clarifiers: clarifiers,
		recs:       recs,
		evaluator:  evaluator,
		cfg:        cfg,
		events:     events,
	}
}

// ScoreArea выполняет полный проход оценки области:
//  1. гард статуса и проверка полноты данных (ровно 5 ответов)
//  2. сборка Evidence Pack и вызов внешнего оценщика
//  3. валидация структуры результата на границе
//  4. локальная математика: баллы, противоречия, надёжность
//  5. атомарная замена оценки и рекомендаций + переход в completed
//
// Любой сбой до шага 5 оставляет область в in_progress без частичных
// записей — повторный вызов всегда безопасен.
func (s *AssessmentService) ScoreArea(ctx context.Context, areaID string) (*entity.AreaAssessment, error) {
	area, err := s.areaRepo.GetByID(areaID)
	if err != nil {
		return nil, err
	}
	if err := entity.AssertCanScoreArea(area.Status); err != nil {
		return nil, err
	}

	answered, err := s.clarRepo.CountAnswersByArea(areaID)
	if err != nil {
		return nil, err
	}
	if answered != int64(entity.TotalClarifierAnswers) {
		return nil, fmt.Errorf("%w: %d of %d clarifier answers present",
			apperrors.ErrMissingEvidence, answered, entity.TotalClarifierAnswers)
	}

	pack, err := s.clarifiers.assembleEvidence(area, true)
	if err != nil {
		return nil, err
	}

	result, err := s.evaluator.EvaluateArea(ctx, *pack)
	if err != nil {
		return nil, wrapEvaluatorError(err)
	}
	if err := scoring.ValidateEvaluation(result); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrEvaluator, err)
	}

	clarifierRaw := scoring.ClarifierScoreRaw(result.Subscores)
	assessment := &entity.AreaAssessment{
		RunAreaID:         areaID,
		AreaMCQScore:      pack.MCQScore,
		ClarifierScoreRaw: clarifierRaw,
		ReportedScore:     scoring.ReportedScore(s.cfg, pack.MCQScore, clarifierRaw),
		Subscores:         result.Subscores,
		SystemTags:        result.SystemTags,
		NarrativeTags:     result.NarrativeTags,
		Contradictions:    scoring.ContradictionFlagsFor(s.cfg, pack.MCQScore, result),
		Reliability:       scoring.ReliabilityFor(result.TagQuality, pack.HasFailedTranscription()),
	}

	recommendations, err := s.recs.Derive(assessment, result.ExtraActions)
	if err != nil {
		return nil, err
	}

	// Терминальная запись: замена оценки, вставка рекомендаций и
	// переход in_progress → completed одной транзакцией с перепроверкой
	// статуса и версии строки. Каскад инвалидации во время вызова
	// оценщика возвращает тот же статус, но меняет updated_at — такая
	// гонка вернётся как ErrConflict, устаревшая оценка не запишется.
	if err := s.assessRepo.Replace(assessment, recommendations, area.UpdatedAt); err != nil {
		return nil, err
	}

	log.Printf("[AssessmentService] Area %s scored: reported=%.2f reliability=%s tags=%d recs=%d",
		areaID, assessment.ReportedScore, assessment.Reliability,
		len(assessment.SystemTags), len(recommendations))

	if s.events != nil {
		s.events.PublishAreaEvent(ws.AreaEvent{
			Type:   ws.EventAssessmentCompleted,
			RunID:  area.RunID,
			AreaID: areaID,
			Status: entity.AreaStatusCompleted,
			Payload: map[string]interface{}{
				"reported_score": assessment.ReportedScore,
				"reliability":    assessment.Reliability,
			},
		})
	}

	return assessment, nil
}

// GetAssessment возвращает актуальную оценку области
func (s *AssessmentService) GetAssessment(areaID string) (*entity.AreaAssessment, error) {
	if _, err := s.areaRepo.GetByID(areaID); err != nil {
		return nil, err
	}
	return s.assessRepo.GetByArea(areaID)
}

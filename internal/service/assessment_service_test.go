package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/diagnostic-api/internal/domain/entity"
	apperrors "github.com/yourusername/diagnostic-api/internal/pkg/errors"
	"github.com/yourusername/diagnostic-api/internal/service/scoring"
)

// ============================================================================
// Моки: репозитории оценок и рекомендаций
// ============================================================================

// MockAssessmentRepository реализует repository.AssessmentRepository
type MockAssessmentRepository struct {
	mock.Mock
}

func (m *MockAssessmentRepository) Replace(assessment *entity.AreaAssessment, recommendations []entity.Recommendation, seenUpdatedAt time.Time) error {
	args := m.Called(assessment, recommendations, seenUpdatedAt)
	return args.Error(0)
}

func (m *MockAssessmentRepository) GetByArea(runAreaID string) (*entity.AreaAssessment, error) {
	args := m.Called(runAreaID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.AreaAssessment), args.Error(1)
}

func (m *MockAssessmentRepository) GetByRunID(runID string) ([]entity.AreaAssessment, error) {
	args := m.Called(runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.AreaAssessment), args.Error(1)
}

// MockRecommendationRepository реализует repository.RecommendationRepository
type MockRecommendationRepository struct {
	mock.Mock
}

func (m *MockRecommendationRepository) GetByArea(runAreaID string) ([]entity.Recommendation, error) {
	args := m.Called(runAreaID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Recommendation), args.Error(1)
}

func (m *MockRecommendationRepository) GetTemplatesByTags(systemTags []string) ([]entity.ActionTemplate, error) {
	args := m.Called(systemTags)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ActionTemplate), args.Error(1)
}

// ============================================================================
// Хелперы
// ============================================================================

type scoringDeps struct {
	areaRepo   *MockRunAreaRepository
	runRepo    *MockRunRepository
	mcqRepo    *MockMCQRepository
	clarRepo   *MockClarifierRepository
	assessRepo *MockAssessmentRepository
	recRepo    *MockRecommendationRepository
	evaluator  *MockEvaluator
	svc        *AssessmentService
}

func newScoringDeps() *scoringDeps {
	d := &scoringDeps{
		areaRepo:   new(MockRunAreaRepository),
		runRepo:    new(MockRunRepository),
		mcqRepo:    new(MockMCQRepository),
		clarRepo:   new(MockClarifierRepository),
		assessRepo: new(MockAssessmentRepository),
		recRepo:    new(MockRecommendationRepository),
		evaluator:  new(MockEvaluator),
	}
	clarifiers := NewClarifierService(d.areaRepo, d.runRepo, d.mcqRepo, d.clarRepo, d.evaluator, nil)
	recs := NewRecommendationService(d.recRepo, nil)
	d.svc = NewAssessmentService(d.areaRepo, d.clarRepo, d.assessRepo, clarifiers, recs, d.evaluator, nil, nil)
	return d
}

// setupFullEvidence настраивает моки на полный Evidence Pack:
// 2 MCQ-ответа (балл 3.0) и 5 отвеченных уточняющих вопросов
func (d *scoringDeps) setupFullEvidence() {
	fullMCQEvidence(d.mcqRepo)
	d.runRepo.On("GetContextByRunID", testRunID).Return(nil, apperrors.ErrNotFound)

	text := "подробный ответ"
	questions := make([]entity.ClarifierQuestion, 0, entity.TotalClarifierAnswers)
	answers := make([]entity.ClarifierAnswer, 0, entity.TotalClarifierAnswers)
	for i := 0; i < entity.TotalClarifierAnswers; i++ {
		step := entity.ClarifierStepCore
		if i >= entity.CoreClarifierCount {
			step = entity.ClarifierStepFollowup
		}
		qid := string(rune('a'+i)) + "0000000-0000-4000-8000-000000000000"
		questions = append(questions, entity.ClarifierQuestion{ID: qid, RunAreaID: testAreaID, Step: step})
		answers = append(answers, entity.ClarifierAnswer{
			ClarifierQuestionID: qid,
			AnswerText:          &text,
			TranscriptionStatus: entity.TranscriptionOK,
		})
	}
	d.clarRepo.On("GetQuestionsByArea", testAreaID).Return(questions, nil)
	d.clarRepo.On("GetAnswersByArea", testAreaID).Return(answers, nil)
}

func evaluationResult() *scoring.EvaluationResult {
	return &scoring.EvaluationResult{
		Subscores: map[string]float64{
			entity.DimensionProcess:      2.0,
			entity.DimensionAutomation:   2.0,
			entity.DimensionDataQuality:  2.0,
			entity.DimensionControls:     2.0,
			entity.DimensionPeopleSkills: 2.0,
		},
		SystemTags: []string{entity.TagCoreProcessExcel},
		TagQuality: scoring.TagQualityHigh,
	}
}

// ============================================================================
// Тесты конвейера оценки
// ============================================================================

func TestAssessmentService_ScoreArea_RequiresInProgress(t *testing.T) {
	for _, status := range []string{entity.AreaStatusNotStarted, entity.AreaStatusCompleted, entity.AreaStatusLocked} {
		t.Run(status, func(t *testing.T) {
			// Arrange
			d := newScoringDeps()
			d.areaRepo.On("GetByID", testAreaID).Return(testArea(status), nil)

			// Act
			_, err := d.svc.ScoreArea(context.Background(), testAreaID)

			// Assert
			require.Error(t, err)
			var stErr *entity.StateTransitionError
			assert.True(t, errors.As(err, &stErr))
			d.evaluator.AssertNotCalled(t, "EvaluateArea", mock.Anything, mock.Anything)
		})
	}
}

func TestAssessmentService_ScoreArea_IncompleteClarifiers(t *testing.T) {
	// Arrange: 4 ответа из 5 — оценщик не должен вызываться
	d := newScoringDeps()
	d.areaRepo.On("GetByID", testAreaID).Return(testArea(entity.AreaStatusInProgress), nil)
	d.clarRepo.On("CountAnswersByArea", testAreaID).Return(int64(4), nil)

	// Act
	_, err := d.svc.ScoreArea(context.Background(), testAreaID)

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrMissingEvidence)
	d.evaluator.AssertNotCalled(t, "EvaluateArea", mock.Anything, mock.Anything)
}

func TestAssessmentService_ScoreArea_FullPipeline(t *testing.T) {
	// Arrange: MCQ 3.0, суб-баллы 2.0 → reported = 0.4*3 + 0.6*2 = 2.4
	d := newScoringDeps()
	d.areaRepo.On("GetByID", testAreaID).Return(testArea(entity.AreaStatusInProgress), nil)
	d.clarRepo.On("CountAnswersByArea", testAreaID).Return(int64(entity.TotalClarifierAnswers), nil)
	d.setupFullEvidence()
	d.evaluator.On("EvaluateArea", mock.Anything, mock.Anything).Return(evaluationResult(), nil)
	d.recRepo.On("GetTemplatesByTags", []string{entity.TagCoreProcessExcel}).Return([]entity.ActionTemplate{
		{ActionID: "ACT_REPLACE_EXCEL_CORE", SystemTag: entity.TagCoreProcessExcel, Title: "Уйти от Excel в ядре", Dimension: entity.DimensionAutomation},
	}, nil)

	// Терминальная запись обязана сверять версию области, прочитанную
	// при проверке гарда — одного статуса мало против каскада
	var savedRecs []entity.Recommendation
	d.assessRepo.On("Replace", mock.AnythingOfType("*entity.AreaAssessment"), mock.Anything, testAreaUpdatedAt).
		Run(func(args mock.Arguments) {
			savedRecs = args.Get(1).([]entity.Recommendation)
		}).Return(nil)

	// Act
	assessment, err := d.svc.ScoreArea(context.Background(), testAreaID)

	// Assert
	require.NoError(t, err)
	assert.InDelta(t, 3.0, assessment.AreaMCQScore, 0.001)
	assert.InDelta(t, 2.0, assessment.ClarifierScoreRaw, 0.001)
	assert.InDelta(t, 2.4, assessment.ReportedScore, 0.001)
	assert.Equal(t, entity.ReliabilityHigh, assessment.Reliability)
	// MCQ 3.0 ниже порога «сильной» самооценки — противоречий нет
	assert.False(t, assessment.Contradictions.Automation)

	require.Len(t, savedRecs, 1)
	assert.Equal(t, "ACT_REPLACE_EXCEL_CORE", savedRecs[0].ActionID)
	assert.Equal(t, entity.RecommendationSourceDeterministic, savedRecs[0].Source)
	// automation 2.0 при зрелости 3.0 → серьёзность 1.0 → medium
	assert.InDelta(t, 1.0, savedRecs[0].Severity, 0.001)
	assert.Equal(t, entity.PriorityMedium, savedRecs[0].Priority)

	d.assessRepo.AssertExpectations(t)
}

func TestAssessmentService_ScoreArea_InvalidEvaluationNotPersisted(t *testing.T) {
	// Arrange: оценщик вернул тег вне закрытого словаря
	d := newScoringDeps()
	d.areaRepo.On("GetByID", testAreaID).Return(testArea(entity.AreaStatusInProgress), nil)
	d.clarRepo.On("CountAnswersByArea", testAreaID).Return(int64(entity.TotalClarifierAnswers), nil)
	d.setupFullEvidence()

	bad := evaluationResult()
	bad.SystemTags = []string{"SOME_INVENTED_TAG"}
	d.evaluator.On("EvaluateArea", mock.Anything, mock.Anything).Return(bad, nil)

	// Act
	_, err := d.svc.ScoreArea(context.Background(), testAreaID)

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrEvaluator)
	d.assessRepo.AssertNotCalled(t, "Replace", mock.Anything, mock.Anything, mock.Anything)
}

func TestAssessmentService_ScoreArea_CascadeDuringEvaluation(t *testing.T) {
	// Arrange: пока конвейер ждал оценщика, изменившийся MCQ-ответ
	// запустил каскад. Статус области вернулся в тот же in_progress,
	// но версия строки другая — условная запись отвечает конфликтом,
	// устаревшая оценка не персистится
	d := newScoringDeps()
	d.areaRepo.On("GetByID", testAreaID).Return(testArea(entity.AreaStatusInProgress), nil)
	d.clarRepo.On("CountAnswersByArea", testAreaID).Return(int64(entity.TotalClarifierAnswers), nil)
	d.setupFullEvidence()
	d.evaluator.On("EvaluateArea", mock.Anything, mock.Anything).Return(evaluationResult(), nil)
	d.recRepo.On("GetTemplatesByTags", mock.Anything).Return([]entity.ActionTemplate{}, nil)
	d.assessRepo.On("Replace", mock.Anything, mock.Anything, testAreaUpdatedAt).Return(apperrors.ErrConflict)

	// Act
	_, err := d.svc.ScoreArea(context.Background(), testAreaID)

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrConflict,
		"оценка по доказательствам до каскада не должна записываться")
	d.assessRepo.AssertExpectations(t)
}

// ============================================================================
// Тесты вывода рекомендаций
// ============================================================================

func TestRecommendationService_Derive_DeduplicatesExtras(t *testing.T) {
	// Arrange: llm_extra с тем же action_id, что и шаблон, отбрасывается
	recRepo := new(MockRecommendationRepository)
	recRepo.On("GetTemplatesByTags", mock.Anything).Return([]entity.ActionTemplate{
		{ActionID: "ACT_DOCUMENT_PROCESS", SystemTag: entity.TagNoDocumentation, Title: "Задокументировать процесс"},
	}, nil)

	svc := NewRecommendationService(recRepo, nil)
	assessment := &entity.AreaAssessment{
		RunAreaID:     testAreaID,
		ReportedScore: 2.0,
		SystemTags:    entity.StringArray{entity.TagNoDocumentation},
		Subscores:     entity.Subscores{},
	}
	extras := []scoring.ExtraAction{
		{ActionID: "ACT_DOCUMENT_PROCESS", Title: "Дубликат шаблона"},
		{ActionID: "ACT_CUSTOM_IDEA", Title: "Предложение оценщика"},
		{ActionID: "", Title: "Без идентификатора"},
	}

	// Act
	recs, err := svc.Derive(assessment, extras)

	// Assert
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "ACT_DOCUMENT_PROCESS", recs[0].ActionID)
	assert.Equal(t, entity.RecommendationSourceDeterministic, recs[0].Source)
	assert.Equal(t, "ACT_CUSTOM_IDEA", recs[1].ActionID)
	assert.Equal(t, entity.RecommendationSourceLLMExtra, recs[1].Source)
}

func TestRecommendationService_Derive_SeverityFromReportedScore(t *testing.T) {
	// Arrange: у шаблона нет измерения — серьёзность считается от
	// итогового балла области
	recRepo := new(MockRecommendationRepository)
	recRepo.On("GetTemplatesByTags", mock.Anything).Return([]entity.ActionTemplate{
		{ActionID: "ACT_RELIEVE_CAPACITY", SystemTag: entity.TagCapacityConstraint, Title: "Разгрузить команду"},
	}, nil)

	svc := NewRecommendationService(recRepo, nil)
	assessment := &entity.AreaAssessment{
		RunAreaID:     testAreaID,
		ReportedScore: 1.2,
		SystemTags:    entity.StringArray{entity.TagCapacityConstraint},
		Subscores:     entity.Subscores{},
	}

	// Act
	recs, err := svc.Derive(assessment, nil)

	// Assert
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.InDelta(t, 1.8, recs[0].Severity, 0.001)
	assert.Equal(t, entity.PriorityHigh, recs[0].Priority)
}

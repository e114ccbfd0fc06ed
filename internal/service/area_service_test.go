package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yourusername/diagnostic-api/internal/domain/entity"
	apperrors "github.com/yourusername/diagnostic-api/internal/pkg/errors"
)

// ============================================================================
// Моки репозиториев. Общие для тестов сервисов этого пакета:
// транзакционные пути репозиториев здесь не проверяются (для них нужен
// testcontainers с реальным Postgres), сервисы тестируются на моках.
// ============================================================================

// MockRunAreaRepository реализует repository.RunAreaRepository
type MockRunAreaRepository struct {
	mock.Mock
}

func (m *MockRunAreaRepository) GetByID(id string) (*entity.RunArea, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.RunArea), args.Error(1)
}

func (m *MockRunAreaRepository) GetByRunID(runID string) ([]entity.RunArea, error) {
	args := m.Called(runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.RunArea), args.Error(1)
}

func (m *MockRunAreaRepository) UpdateStatusGuarded(tx *gorm.DB, areaID, fromStatus, toStatus string) error {
	args := m.Called(tx, areaID, fromStatus, toStatus)
	return args.Error(0)
}

// MockMCQRepository реализует repository.MCQRepository
type MockMCQRepository struct {
	mock.Mock
}

func (m *MockMCQRepository) GetQuestionsByAreaCode(areaCode string) ([]entity.MCQQuestion, error) {
	args := m.Called(areaCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.MCQQuestion), args.Error(1)
}

func (m *MockMCQRepository) GetAnswersByArea(runAreaID string) ([]entity.MCQAnswer, error) {
	args := m.Called(runAreaID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.MCQAnswer), args.Error(1)
}

func (m *MockMCQRepository) SaveAnswers(runAreaID string, answers []entity.MCQAnswer, prevStatus string, invalidate bool) error {
	args := m.Called(runAreaID, answers, prevStatus, invalidate)
	return args.Error(0)
}

// MockCacheRepository реализует repository.CacheRepository
type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) Set(key string, value interface{}, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepository) Get(key string) (string, error) {
	args := m.Called(key)
	return args.String(0), args.Error(1)
}

func (m *MockCacheRepository) Delete(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

func (m *MockCacheRepository) Exists(key string) (bool, error) {
	args := m.Called(key)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheRepository) SetNX(key string, value interface{}, expiration time.Duration) (bool, error) {
	args := m.Called(key, value, expiration)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheRepository) SetJSON(key string, value interface{}, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepository) GetJSON(key string, dest interface{}) error {
	args := m.Called(key, dest)
	return args.Error(0)
}

// ============================================================================
// Хелперы
// ============================================================================

const (
	testRunID  = "11111111-1111-4111-8111-111111111111"
	testAreaID = "22222222-2222-4222-8222-222222222222"
	testQ1ID   = "33333333-3333-4333-8333-333333333331"
	testQ2ID   = "33333333-3333-4333-8333-333333333332"
)

// testAreaUpdatedAt — версия строки области на момент чтения гарда;
// терминальные записи обязаны передавать её в условный UPDATE
var testAreaUpdatedAt = time.Date(2026, 5, 12, 10, 30, 0, 0, time.UTC)

func testArea(status string) *entity.RunArea {
	return &entity.RunArea{
		ID:        testAreaID,
		RunID:     testRunID,
		Code:      entity.AreaCodeRecordToReport,
		Name:      "Record to Report",
		Status:    status,
		UpdatedAt: testAreaUpdatedAt,
	}
}

func testQuestionBank() []entity.MCQQuestion {
	return []entity.MCQQuestion{
		{ID: testQ1ID, AreaCode: entity.AreaCodeRecordToReport, Text: "Вопрос 1", Weight: 1},
		{ID: testQ2ID, AreaCode: entity.AreaCodeRecordToReport, Text: "Вопрос 2", Weight: 1},
	}
}

// setupCacheMissAndLock настраивает кеш на промах банка вопросов и
// успешный захват блокировки области
func setupCacheMissAndLock(cache *MockCacheRepository) {
	cache.On("GetJSON", mock.Anything, mock.Anything).Return(errors.New("cache miss"))
	cache.On("SetJSON", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	cache.On("SetNX", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	cache.On("Delete", mock.Anything).Return(nil)
}

// ============================================================================
// Тесты для AreaService.WriteMCQAnswers
// ============================================================================

func TestAreaService_WriteMCQAnswers_FirstWriteStartsArea(t *testing.T) {
	// Arrange
	areaRepo := new(MockRunAreaRepository)
	mcqRepo := new(MockMCQRepository)
	cacheRepo := new(MockCacheRepository)

	areaRepo.On("GetByID", testAreaID).Return(testArea(entity.AreaStatusNotStarted), nil)
	mcqRepo.On("GetQuestionsByAreaCode", entity.AreaCodeRecordToReport).Return(testQuestionBank(), nil)
	mcqRepo.On("GetAnswersByArea", testAreaID).Return([]entity.MCQAnswer{}, nil)
	mcqRepo.On("SaveAnswers", testAreaID, mock.Anything, entity.AreaStatusNotStarted, false).Return(nil)
	areaRepo.On("UpdateStatusGuarded", mock.Anything, testAreaID,
		entity.AreaStatusNotStarted, entity.AreaStatusInProgress).Return(nil)
	setupCacheMissAndLock(cacheRepo)

	svc := NewAreaService(areaRepo, mcqRepo, cacheRepo, nil)

	// Act
	invalidated, err := svc.WriteMCQAnswers(testAreaID, []MCQAnswerInput{
		{QuestionID: testQ1ID, AnswerValue: 3},
		{QuestionID: testQ2ID, AnswerValue: 4},
	})

	// Assert
	require.NoError(t, err)
	assert.False(t, invalidated, "первая запись ответов не запускает инвалидацию")
	areaRepo.AssertExpectations(t)
	mcqRepo.AssertExpectations(t)
}

func TestAreaService_WriteMCQAnswers_ChangedValueInvalidates(t *testing.T) {
	// Arrange
	areaRepo := new(MockRunAreaRepository)
	mcqRepo := new(MockMCQRepository)
	cacheRepo := new(MockCacheRepository)

	areaRepo.On("GetByID", testAreaID).Return(testArea(entity.AreaStatusCompleted), nil)
	mcqRepo.On("GetQuestionsByAreaCode", entity.AreaCodeRecordToReport).Return(testQuestionBank(), nil)
	mcqRepo.On("GetAnswersByArea", testAreaID).Return([]entity.MCQAnswer{
		{RunAreaID: testAreaID, QuestionID: testQ1ID, AnswerValue: 2},
	}, nil)
	// Каскад: invalidate=true, prevStatus=completed
	mcqRepo.On("SaveAnswers", testAreaID, mock.Anything, entity.AreaStatusCompleted, true).Return(nil)
	setupCacheMissAndLock(cacheRepo)

	svc := NewAreaService(areaRepo, mcqRepo, cacheRepo, nil)

	// Act
	invalidated, err := svc.WriteMCQAnswers(testAreaID, []MCQAnswerInput{
		{QuestionID: testQ1ID, AnswerValue: 5},
	})

	// Assert
	require.NoError(t, err)
	assert.True(t, invalidated, "изменение записанного значения должно запускать каскад")
	mcqRepo.AssertExpectations(t)
	// Статус меняет транзакция каскада, не отдельный UPDATE
	areaRepo.AssertNotCalled(t, "UpdateStatusGuarded", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAreaService_WriteMCQAnswers_SameValuesNoInvalidation(t *testing.T) {
	// Arrange
	areaRepo := new(MockRunAreaRepository)
	mcqRepo := new(MockMCQRepository)
	cacheRepo := new(MockCacheRepository)

	areaRepo.On("GetByID", testAreaID).Return(testArea(entity.AreaStatusInProgress), nil)
	mcqRepo.On("GetQuestionsByAreaCode", entity.AreaCodeRecordToReport).Return(testQuestionBank(), nil)
	mcqRepo.On("GetAnswersByArea", testAreaID).Return([]entity.MCQAnswer{
		{RunAreaID: testAreaID, QuestionID: testQ1ID, AnswerValue: 3},
	}, nil)
	mcqRepo.On("SaveAnswers", testAreaID, mock.Anything, entity.AreaStatusInProgress, false).Return(nil)
	setupCacheMissAndLock(cacheRepo)

	svc := NewAreaService(areaRepo, mcqRepo, cacheRepo, nil)

	// Act
	invalidated, err := svc.WriteMCQAnswers(testAreaID, []MCQAnswerInput{
		{QuestionID: testQ1ID, AnswerValue: 3}, // то же значение
	})

	// Assert
	require.NoError(t, err)
	assert.False(t, invalidated, "повтор того же значения не является изменением")
	mcqRepo.AssertExpectations(t)
}

func TestAreaService_WriteMCQAnswers_LockedAreaRejected(t *testing.T) {
	// Arrange
	areaRepo := new(MockRunAreaRepository)
	mcqRepo := new(MockMCQRepository)
	cacheRepo := new(MockCacheRepository)

	areaRepo.On("GetByID", testAreaID).Return(testArea(entity.AreaStatusLocked), nil)

	svc := NewAreaService(areaRepo, mcqRepo, cacheRepo, nil)

	// Act
	_, err := svc.WriteMCQAnswers(testAreaID, []MCQAnswerInput{
		{QuestionID: testQ1ID, AnswerValue: 3},
	})

	// Assert
	require.Error(t, err)
	var stErr *entity.StateTransitionError
	assert.True(t, errors.As(err, &stErr), "должна быть ошибка машины состояний")
	mcqRepo.AssertNotCalled(t, "SaveAnswers", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAreaService_WriteMCQAnswers_UnknownQuestion(t *testing.T) {
	// Arrange
	areaRepo := new(MockRunAreaRepository)
	mcqRepo := new(MockMCQRepository)
	cacheRepo := new(MockCacheRepository)

	areaRepo.On("GetByID", testAreaID).Return(testArea(entity.AreaStatusInProgress), nil)
	mcqRepo.On("GetQuestionsByAreaCode", entity.AreaCodeRecordToReport).Return(testQuestionBank(), nil)
	cacheRepo.On("GetJSON", mock.Anything, mock.Anything).Return(errors.New("cache miss"))
	cacheRepo.On("SetJSON", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := NewAreaService(areaRepo, mcqRepo, cacheRepo, nil)

	// Act
	_, err := svc.WriteMCQAnswers(testAreaID, []MCQAnswerInput{
		{QuestionID: "99999999-9999-4999-8999-999999999999", AnswerValue: 3},
	})

	// Assert
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	mcqRepo.AssertNotCalled(t, "SaveAnswers", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAreaService_WriteMCQAnswers_ValueOutOfRange(t *testing.T) {
	// Arrange
	areaRepo := new(MockRunAreaRepository)
	mcqRepo := new(MockMCQRepository)
	cacheRepo := new(MockCacheRepository)

	areaRepo.On("GetByID", testAreaID).Return(testArea(entity.AreaStatusInProgress), nil)
	mcqRepo.On("GetQuestionsByAreaCode", entity.AreaCodeRecordToReport).Return(testQuestionBank(), nil)
	cacheRepo.On("GetJSON", mock.Anything, mock.Anything).Return(errors.New("cache miss"))
	cacheRepo.On("SetJSON", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := NewAreaService(areaRepo, mcqRepo, cacheRepo, nil)

	// Act
	_, err := svc.WriteMCQAnswers(testAreaID, []MCQAnswerInput{
		{QuestionID: testQ1ID, AnswerValue: 6},
	})

	// Assert
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestAreaService_WriteMCQAnswers_ConcurrentWriteConflict(t *testing.T) {
	// Arrange
	areaRepo := new(MockRunAreaRepository)
	mcqRepo := new(MockMCQRepository)
	cacheRepo := new(MockCacheRepository)

	areaRepo.On("GetByID", testAreaID).Return(testArea(entity.AreaStatusInProgress), nil)
	mcqRepo.On("GetQuestionsByAreaCode", entity.AreaCodeRecordToReport).Return(testQuestionBank(), nil)
	cacheRepo.On("GetJSON", mock.Anything, mock.Anything).Return(errors.New("cache miss"))
	cacheRepo.On("SetJSON", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	// Блокировка занята другой записью
	cacheRepo.On("SetNX", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)

	svc := NewAreaService(areaRepo, mcqRepo, cacheRepo, nil)

	// Act
	_, err := svc.WriteMCQAnswers(testAreaID, []MCQAnswerInput{
		{QuestionID: testQ1ID, AnswerValue: 3},
	})

	// Assert
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	mcqRepo.AssertNotCalled(t, "SaveAnswers", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// ============================================================================
// Тесты для AreaService.LockArea
// ============================================================================

func TestAreaService_LockArea_Success(t *testing.T) {
	// Arrange
	areaRepo := new(MockRunAreaRepository)

	areaRepo.On("GetByID", testAreaID).Return(testArea(entity.AreaStatusCompleted), nil)
	areaRepo.On("UpdateStatusGuarded", mock.Anything, testAreaID,
		entity.AreaStatusCompleted, entity.AreaStatusLocked).Return(nil)

	svc := NewAreaService(areaRepo, nil, nil, nil)

	// Act
	area, err := svc.LockArea(testAreaID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, entity.AreaStatusLocked, area.Status)
	areaRepo.AssertExpectations(t)
}

func TestAreaService_LockArea_OnlyFromCompleted(t *testing.T) {
	for _, status := range []string{entity.AreaStatusNotStarted, entity.AreaStatusInProgress, entity.AreaStatusLocked} {
		t.Run(status, func(t *testing.T) {
			areaRepo := new(MockRunAreaRepository)
			areaRepo.On("GetByID", testAreaID).Return(testArea(status), nil)

			svc := NewAreaService(areaRepo, nil, nil, nil)

			_, err := svc.LockArea(testAreaID)

			require.Error(t, err)
			var stErr *entity.StateTransitionError
			assert.True(t, errors.As(err, &stErr))
			areaRepo.AssertNotCalled(t, "UpdateStatusGuarded", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestAreaService_LockArea_GuardedUpdateConflict(t *testing.T) {
	// Arrange: статус успел измениться между чтением и UPDATE
	areaRepo := new(MockRunAreaRepository)
	areaRepo.On("GetByID", testAreaID).Return(testArea(entity.AreaStatusCompleted), nil)
	areaRepo.On("UpdateStatusGuarded", mock.Anything, testAreaID,
		entity.AreaStatusCompleted, entity.AreaStatusLocked).Return(apperrors.ErrConflict)

	svc := NewAreaService(areaRepo, nil, nil, nil)

	// Act
	_, err := svc.LockArea(testAreaID)

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

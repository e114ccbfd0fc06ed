package service

import (
	"fmt"
	"strings"

	"github.com/yourusername/diagnostic-api/internal/domain/entity"
	"github.com/yourusername/diagnostic-api/internal/domain/repository"
	apperrors "github.com/yourusername/diagnostic-api/internal/pkg/errors"
)

// RunService предоставляет методы для работы с прогонами диагностики
type RunService struct {
	runRepo    repository.RunRepository
	areaRepo   repository.RunAreaRepository
	assessRepo repository.AssessmentRepository
}

// NewRunService создает новый сервис прогонов
func NewRunService(
	runRepo repository.RunRepository,
	areaRepo repository.RunAreaRepository,
	assessRepo repository.AssessmentRepository,
) *RunService {
	return &RunService{
		runRepo:    runRepo,
		areaRepo:   areaRepo,
		assessRepo: assessRepo,
	}
}

// CreateRunInput — входные данные создания прогона
type CreateRunInput struct {
	Title          string
	CompanyContext entity.JSONMap
	PillarContext  entity.JSONMap
	PainPoints     entity.JSONMap
	Ambition       string
	Role           string
}

// CreateRun создает прогон вместе с контекстом и пятью областями
// в статусе not_started
func (s *RunService) CreateRun(input CreateRunInput) (*entity.Run, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", apperrors.ErrValidation)
	}

	run := &entity.Run{
		Title: title,
		Context: &entity.RunContext{
			CompanyContext: input.CompanyContext,
			PillarContext:  input.PillarContext,
			PainPoints:     input.PainPoints,
			Ambition:       strings.TrimSpace(input.Ambition),
			Role:           strings.TrimSpace(input.Role),
		},
		Areas: entity.DefaultAreas(),
	}

	if err := s.runRepo.Create(run); err != nil {
		return nil, err
	}
	return run, nil
}

// GetRun возвращает прогон с областями и контекстом
func (s *RunService) GetRun(runID string) (*entity.Run, error) {
	return s.runRepo.GetWithAreas(runID)
}

// GetAreas возвращает области прогона
func (s *RunService) GetAreas(runID string) ([]entity.RunArea, error) {
	if _, err := s.runRepo.GetByID(runID); err != nil {
		return nil, err
	}
	return s.areaRepo.GetByRunID(runID)
}

// GetAssessments возвращает оценки всех областей прогона (для экспорта)
func (s *RunService) GetAssessments(runID string) ([]entity.RunArea, []entity.AreaAssessment, error) {
	areas, err := s.GetAreas(runID)
	if err != nil {
		return nil, nil, err
	}
	assessments, err := s.assessRepo.GetByRunID(runID)
	if err != nil {
		return nil, nil, err
	}
	return areas, assessments, nil
}

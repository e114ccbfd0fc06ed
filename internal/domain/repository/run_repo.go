package repository

import (
	"github.com/yourusername/diagnostic-api/internal/domain/entity"
)

// RunRepository определяет методы для работы с прогонами диагностики
type RunRepository interface {
	// Create сохраняет прогон вместе с контекстом и областями
	Create(run *entity.Run) error
	GetByID(id string) (*entity.Run, error)
	// GetWithAreas возвращает прогон с предзагруженными областями
	GetWithAreas(id string) (*entity.Run, error)
	GetContextByRunID(runID string) (*entity.RunContext, error)
}

package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/diagnostic-api/internal/domain/entity"
	apperrors "github.com/yourusername/diagnostic-api/internal/pkg/errors"
)

// RunRepo реализует repository.RunRepository
type RunRepo struct {
	db *gorm.DB
}

// NewRunRepo создает новый репозиторий прогонов
func NewRunRepo(db *gorm.DB) *RunRepo {
	return &RunRepo{db: db}
}

// Create сохраняет прогон вместе с контекстом и областями одной транзакцией
func (r *RunRepo) Create(run *entity.Run) error {
	return r.db.Create(run).Error
}

// GetByID возвращает прогон по идентификатору
func (r *RunRepo) GetByID(id string) (*entity.Run, error) {
	var run entity.Run
	err := r.db.First(&run, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &run, nil
}

// GetWithAreas возвращает прогон с предзагруженными областями и контекстом
func (r *RunRepo) GetWithAreas(id string) (*entity.Run, error) {
	var run entity.Run
	err := r.db.Preload("Areas", func(db *gorm.DB) *gorm.DB {
		return db.Order("code")
	}).Preload("Context").First(&run, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &run, nil
}

// GetContextByRunID возвращает контекст прогона
func (r *RunRepo) GetContextByRunID(runID string) (*entity.RunContext, error) {
	var ctx entity.RunContext
	err := r.db.First(&ctx, "run_id = ?", runID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &ctx, nil
}

package repository

import (
	"gorm.io/gorm"

	"github.com/yourusername/diagnostic-api/internal/domain/entity"
)

// RunAreaRepository определяет методы для работы с диагностическими областями
type RunAreaRepository interface {
	GetByID(id string) (*entity.RunArea, error)
	GetByRunID(runID string) ([]entity.RunArea, error)

	// UpdateStatusGuarded переводит область из fromStatus в toStatus одним
	// условным UPDATE (WHERE id = ? AND status = ?). Возвращает
	// apperrors.ErrConflict, если статус успел измениться под ногами.
	UpdateStatusGuarded(tx *gorm.DB, areaID, fromStatus, toStatus string) error
}

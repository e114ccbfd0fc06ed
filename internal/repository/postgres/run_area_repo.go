package postgres

import (
	"errors"
	"log"

	"gorm.io/gorm"

	"github.com/yourusername/diagnostic-api/internal/domain/entity"
	apperrors "github.com/yourusername/diagnostic-api/internal/pkg/errors"
)

// RunAreaRepo реализует repository.RunAreaRepository
type RunAreaRepo struct {
	db *gorm.DB
}

// NewRunAreaRepo создает новый репозиторий диагностических областей
func NewRunAreaRepo(db *gorm.DB) *RunAreaRepo {
	return &RunAreaRepo{db: db}
}

// GetByID возвращает область по идентификатору.
// Статус читается свежим при каждом вызове — гарды никогда
// не работают с закешированным статусом.
func (r *RunAreaRepo) GetByID(id string) (*entity.RunArea, error) {
	var area entity.RunArea
	err := r.db.First(&area, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &area, nil
}

// GetByRunID возвращает все области прогона
func (r *RunAreaRepo) GetByRunID(runID string) ([]entity.RunArea, error) {
	var areas []entity.RunArea
	err := r.db.Where("run_id = ?", runID).Order("code").Find(&areas).Error
	return areas, err
}

// UpdateStatusGuarded переводит область из fromStatus в toStatus условным
// UPDATE. RowsAffected == 0 означает, что статус изменился между проверкой
// гарда и фиксацией — возвращаем ErrConflict, вызывающий решает сам.
func (r *RunAreaRepo) UpdateStatusGuarded(tx *gorm.DB, areaID, fromStatus, toStatus string) error {
	if tx == nil {
		tx = r.db
	}

	res := tx.Model(&entity.RunArea{}).
		Where("id = ? AND status = ?", areaID, fromStatus).
		Update("status", toStatus)
	if res.Error != nil {
		log.Printf("[RunAreaRepo] Error updating status %s -> %s for area %s: %v",
			fromStatus, toStatus, areaID, res.Error)
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrConflict
	}
	return nil
}

package dto

import (
	"time"

	"github.com/yourusername/diagnostic-api/internal/domain/entity"
)

// AreaResponse представляет область диагностики в формате для ответа клиенту
type AreaResponse struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	IsDirty   bool      `json:"is_dirty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RunContextResponse представляет контекст прогона
type RunContextResponse struct {
	CompanyContext entity.JSONMap `json:"company_context,omitempty"`
	PillarContext  entity.JSONMap `json:"pillar_context,omitempty"`
	PainPoints     entity.JSONMap `json:"pain_points,omitempty"`
	Ambition       string         `json:"ambition,omitempty"`
	Role           string         `json:"role,omitempty"`
}

// RunResponse представляет прогон диагностики в формате для ответа клиенту
type RunResponse struct {
	ID        string              `json:"id"`
	Title     string              `json:"title"`
	Context   *RunContextResponse `json:"context,omitempty"`
	Areas     []AreaResponse      `json:"areas,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// NewAreaResponse создает DTO для области
func NewAreaResponse(a *entity.RunArea) AreaResponse {
	return AreaResponse{
		ID:        a.ID,
		RunID:     a.RunID,
		Code:      a.Code,
		Name:      a.Name,
		Status:    a.Status,
		IsDirty:   a.IsDirty,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// NewListAreaResponse создает список DTO областей
func NewListAreaResponse(areas []entity.RunArea) []AreaResponse {
	out := make([]AreaResponse, len(areas))
	for i := range areas {
		out[i] = NewAreaResponse(&areas[i])
	}
	return out
}

// NewRunResponse создает DTO для прогона
func NewRunResponse(run *entity.Run) *RunResponse {
	if run == nil {
		return nil
	}

	resp := &RunResponse{
		ID:        run.ID,
		Title:     run.Title,
		Areas:     NewListAreaResponse(run.Areas),
		CreatedAt: run.CreatedAt,
		UpdatedAt: run.UpdatedAt,
	}
	if run.Context != nil {
		resp.Context = &RunContextResponse{
			CompanyContext: run.Context.CompanyContext,
			PillarContext:  run.Context.PillarContext,
			PainPoints:     run.Context.PainPoints,
			Ambition:       run.Context.Ambition,
			Role:           run.Context.Role,
		}
	}
	return resp
}

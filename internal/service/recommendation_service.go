package service

import (
	"github.com/yourusername/diagnostic-api/internal/domain/entity"
	"github.com/yourusername/diagnostic-api/internal/domain/repository"
	"github.com/yourusername/diagnostic-api/internal/service/scoring"
)

// RecommendationService выводит рекомендации из тегов оценки
type RecommendationService struct {
	recRepo repository.RecommendationRepository
	cfg     *scoring.Config
}

// NewRecommendationService создает новый сервис рекомендаций
func NewRecommendationService(recRepo repository.RecommendationRepository, cfg *scoring.Config) *RecommendationService {
	if cfg == nil {
		cfg = scoring.DefaultConfig()
	}
	return &RecommendationService{recRepo: recRepo, cfg: cfg}
}

// Derive строит рекомендации по оценке: детерминированные — из
// шаблонов по системным тегам, поверх — предложения оценщика
// (llm_extra) без дедупликации, кроме точного совпадения action_id.
// Возвращает несохранённые сущности: персистит их AssessmentRepo
// одной транзакцией с самой оценкой.
func (s *RecommendationService) Derive(assessment *entity.AreaAssessment, extras []scoring.ExtraAction) ([]entity.Recommendation, error) {
	templates, err := s.recRepo.GetTemplatesByTags(assessment.SystemTags)
	if err != nil {
		return nil, err
	}

	recommendations := make([]entity.Recommendation, 0, len(templates)+len(extras))
	seen := make(map[string]bool, len(templates))

	for _, t := range templates {
		severity := scoring.SeverityFor(s.cfg, assessment, t.Dimension)
		rec := entity.Recommendation{
			RunAreaID:      assessment.RunAreaID,
			ActionID:       t.ActionID,
			Source:         entity.RecommendationSourceDeterministic,
			Severity:       severity,
			Priority:       scoring.PriorityFor(s.cfg, severity),
			UpliftEstimate: t.UpliftEstimate,
			Payload: entity.JSONMap{
				"title":      t.Title,
				"system_tag": t.SystemTag,
			},
		}
		if t.Description != "" {
			rec.Payload["description"] = t.Description
		}
		recommendations = append(recommendations, rec)
		seen[t.ActionID] = true
	}

	for _, extra := range extras {
		if extra.ActionID == "" || seen[extra.ActionID] {
			continue
		}
		severity := scoring.SeverityFor(s.cfg, assessment, extra.Dimension)
		recommendations = append(recommendations, entity.Recommendation{
			RunAreaID:      assessment.RunAreaID,
			ActionID:       extra.ActionID,
			Source:         entity.RecommendationSourceLLMExtra,
			Severity:       severity,
			Priority:       scoring.PriorityFor(s.cfg, severity),
			UpliftEstimate: extra.UpliftEstimate,
			Payload: entity.JSONMap{
				"title": extra.Title,
			},
		})
	}

	return recommendations, nil
}

// ListByArea возвращает сохранённые рекомендации области
func (s *RecommendationService) ListByArea(areaID string) ([]entity.Recommendation, error) {
	return s.recRepo.GetByArea(areaID)
}

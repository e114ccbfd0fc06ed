package dto

import (
	"time"

	"github.com/yourusername/diagnostic-api/internal/domain/entity"
)

// ClarifierQuestionResponse представляет уточняющий вопрос
type ClarifierQuestionResponse struct {
	ID           string    `json:"id"`
	RunAreaID    string    `json:"run_area_id"`
	Step         int       `json:"step"`
	QuestionText string    `json:"question_text"`
	Topic        *string   `json:"topic,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ClarifierAnswerResponse представляет сохранённый ответ на уточняющий вопрос
type ClarifierAnswerResponse struct {
	ID                  string    `json:"id"`
	ClarifierQuestionID string    `json:"clarifier_question_id"`
	AnswerText          *string   `json:"answer_text,omitempty"`
	AudioRef            *string   `json:"audio_ref,omitempty"`
	TranscriptionStatus string    `json:"transcription_status"`
	CreatedAt           time.Time `json:"created_at"`
}

// AssessmentResponse представляет итоговую оценку области
type AssessmentResponse struct {
	ID                string                    `json:"id"`
	RunAreaID         string                    `json:"run_area_id"`
	AreaMCQScore      float64                   `json:"area_mcq_score"`
	ClarifierScoreRaw float64                   `json:"clarifier_score_raw"`
	ReportedScore     float64                   `json:"reported_score"`
	Subscores         entity.Subscores          `json:"subscores"`
	SystemTags        []string                  `json:"system_tags"`
	NarrativeTags     []string                  `json:"narrative_tags"`
	Contradictions    entity.ContradictionFlags `json:"contradiction_flags"`
	Reliability       string                    `json:"reliability"`
	CreatedAt         time.Time                 `json:"created_at"`
}

// RecommendationResponse представляет рекомендацию области
type RecommendationResponse struct {
	ID             string         `json:"id"`
	RunAreaID      string         `json:"run_area_id"`
	ActionID       string         `json:"action_id"`
	Source         string         `json:"source"`
	Severity       float64        `json:"severity"`
	Priority       string         `json:"priority"`
	UpliftEstimate *float64       `json:"uplift_estimate,omitempty"`
	Payload        entity.JSONMap `json:"payload,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// NewClarifierQuestionResponse создает DTO для уточняющего вопроса
func NewClarifierQuestionResponse(q *entity.ClarifierQuestion) ClarifierQuestionResponse {
	return ClarifierQuestionResponse{
		ID:           q.ID,
		RunAreaID:    q.RunAreaID,
		Step:         q.Step,
		QuestionText: q.QuestionText,
		Topic:        q.Topic,
		CreatedAt:    q.CreatedAt,
	}
}

// NewListClarifierQuestionResponse создает список DTO уточняющих вопросов
func NewListClarifierQuestionResponse(questions []entity.ClarifierQuestion) []ClarifierQuestionResponse {
	out := make([]ClarifierQuestionResponse, len(questions))
	for i := range questions {
		out[i] = NewClarifierQuestionResponse(&questions[i])
	}
	return out
}

// NewClarifierAnswerResponse создает DTO для ответа на уточняющий вопрос
func NewClarifierAnswerResponse(a *entity.ClarifierAnswer) *ClarifierAnswerResponse {
	if a == nil {
		return nil
	}
	return &ClarifierAnswerResponse{
		ID:                  a.ID,
		ClarifierQuestionID: a.ClarifierQuestionID,
		AnswerText:          a.AnswerText,
		AudioRef:            a.AudioRef,
		TranscriptionStatus: a.TranscriptionStatus,
		CreatedAt:           a.CreatedAt,
	}
}

// NewAssessmentResponse создает DTO для оценки области
func NewAssessmentResponse(a *entity.AreaAssessment) *AssessmentResponse {
	if a == nil {
		return nil
	}
	return &AssessmentResponse{
		ID:                a.ID,
		RunAreaID:         a.RunAreaID,
		AreaMCQScore:      a.AreaMCQScore,
		ClarifierScoreRaw: a.ClarifierScoreRaw,
		ReportedScore:     a.ReportedScore,
		Subscores:         a.Subscores,
		SystemTags:        a.SystemTags,
		NarrativeTags:     a.NarrativeTags,
		Contradictions:    a.Contradictions,
		Reliability:       a.Reliability,
		CreatedAt:         a.CreatedAt,
	}
}

// NewListRecommendationResponse создает список DTO рекомендаций
func NewListRecommendationResponse(recs []entity.Recommendation) []RecommendationResponse {
	out := make([]RecommendationResponse, len(recs))
	for i, r := range recs {
		out[i] = RecommendationResponse{
			ID:             r.ID,
			RunAreaID:      r.RunAreaID,
			ActionID:       r.ActionID,
			Source:         r.Source,
			Severity:       r.Severity,
			Priority:       r.Priority,
			UpliftEstimate: r.UpliftEstimate,
			Payload:        r.Payload,
			CreatedAt:      r.CreatedAt,
		}
	}
	return out
}

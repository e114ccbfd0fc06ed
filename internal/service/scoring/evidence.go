package scoring

import (
	"github.com/yourusername/diagnostic-api/internal/domain/entity"
)

// EvidencePack — read-only связка данных области для генерации
// уточняющих вопросов и оценки. Собирается заново на каждый вызов
// и никогда не сохраняется как отдельная запись.
type EvidencePack struct {
	AreaCode string `json:"area_code"`
	AreaName string `json:"area_name"`

	MCQScore   float64            `json:"mcq_score"`
	MCQAnswers []MCQAnswerItem    `json:"mcq_answers"`
	Clarifiers []ClarifierQA      `json:"clarifiers,omitempty"`

	CompanyContext entity.JSONMap `json:"company_context,omitempty"`
	PillarContext  entity.JSONMap `json:"pillar_context,omitempty"`
	PainPoints     entity.JSONMap `json:"pain_points,omitempty"`
	Ambition       string         `json:"ambition,omitempty"`
	Role           string         `json:"role,omitempty"`
}

// MCQAnswerItem — MCQ-ответ вместе с текстом и весом вопроса
type MCQAnswerItem struct {
	QuestionID   string  `json:"question_id"`
	QuestionText string  `json:"question_text"`
	Weight       float64 `json:"weight"`
	AnswerValue  int     `json:"answer_value"`
}

// ClarifierQA — пара вопрос/ответ уточняющего шага
type ClarifierQA struct {
	Step         int    `json:"step"`
	QuestionText string `json:"question_text"`
	AnswerText   string `json:"answer_text"`
	Transcribed  bool   `json:"transcribed"`
}

// HasFailedTranscription сообщает, есть ли среди ответов провалившаяся
// транскрипция — это ограничивает надёжность итоговой оценки.
func (p *EvidencePack) HasFailedTranscription() bool {
	for _, qa := range p.Clarifiers {
		if !qa.Transcribed {
			return true
		}
	}
	return false
}

// BuildMCQItems сопоставляет ответы вопросам банка. Ответы на
// неизвестные вопросы отбрасываются.
func BuildMCQItems(questions []entity.MCQQuestion, answers []entity.MCQAnswer) []MCQAnswerItem {
	byID := make(map[string]entity.MCQQuestion, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	items := make([]MCQAnswerItem, 0, len(answers))
	for _, a := range answers {
		q, ok := byID[a.QuestionID]
		if !ok {
			continue
		}
		items = append(items, MCQAnswerItem{
			QuestionID:   q.ID,
			QuestionText: q.Text,
			Weight:       q.Weight,
			AnswerValue:  a.AnswerValue,
		})
	}
	return items
}

// WeightedMCQScore считает взвешенное среднее MCQ-ответов в шкале 1–5.
// Вес каждого вопроса задаётся банком; при нулевой сумме весов
// возвращается 0 (нет данных).
func WeightedMCQScore(items []MCQAnswerItem) float64 {
	var sum, weights float64
	for _, item := range items {
		w := item.Weight
		if w <= 0 {
			w = 1.0
		}
		sum += float64(item.AnswerValue) * w
		weights += w
	}
	if weights == 0 {
		return 0
	}
	return sum / weights
}

// BuildClarifierQA склеивает вопросы и ответы уточняющих шагов
func BuildClarifierQA(questions []entity.ClarifierQuestion, answers []entity.ClarifierAnswer) []ClarifierQA {
	byQuestion := make(map[string]entity.ClarifierAnswer, len(answers))
	for _, a := range answers {
		byQuestion[a.ClarifierQuestionID] = a
	}

	qa := make([]ClarifierQA, 0, len(questions))
	for _, q := range questions {
		item := ClarifierQA{
			Step:         q.Step,
			QuestionText: q.QuestionText,
			Transcribed:  true,
		}
		if a, ok := byQuestion[q.ID]; ok {
			item.AnswerText = a.Text()
			item.Transcribed = !a.HasFailedTranscription()
		}
		qa = append(qa, item)
	}
	return qa
}

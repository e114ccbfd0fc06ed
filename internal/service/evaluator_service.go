package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/yourusername/diagnostic-api/internal/config"
	"github.com/yourusername/diagnostic-api/internal/domain/entity"
	apperrors "github.com/yourusername/diagnostic-api/internal/pkg/errors"
	"github.com/yourusername/diagnostic-api/internal/service/scoring"
)

// ClarifierRequest описывает один вызов генерации уточняющих вопросов
type ClarifierRequest struct {
	Step     int // 1 — базовые, 2 — follow-up
	Count    int // ожидаемое число вопросов
	Evidence scoring.EvidencePack
}

// GeneratedClarifier — один сгенерированный вопрос с опциональной темой
type GeneratedClarifier struct {
	Text  string `json:"text"`
	Topic string `json:"topic,omitempty"`
}

// Evaluator абстрагирует внешний языковой сервис. Движку всё равно,
// как именно получен ответ — он проверяет только структуру результата.
// Вызовы могут блокироваться на заметное время и обязаны уважать ctx.
type Evaluator interface {
	GenerateClarifiers(ctx context.Context, req ClarifierRequest) ([]GeneratedClarifier, error)
	EvaluateArea(ctx context.Context, pack scoring.EvidencePack) (*scoring.EvaluationResult, error)
}

// ----------------------------------------------------------------------
// NoopEvaluator — заглушка для локальной разработки без ключа API
// ----------------------------------------------------------------------

// NoopEvaluator возвращает фиксированные вопросы и средние баллы
type NoopEvaluator struct{}

func (e *NoopEvaluator) GenerateClarifiers(ctx context.Context, req ClarifierRequest) ([]GeneratedClarifier, error) {
	log.Printf("[Evaluator] noop generate step=%d count=%d area=%s", req.Step, req.Count, req.Evidence.AreaCode)
	out := make([]GeneratedClarifier, req.Count)
	for i := range out {
		out[i] = GeneratedClarifier{
			Text: fmt.Sprintf("Describe the current state of %s (question %d, step %d).",
				req.Evidence.AreaName, i+1, req.Step),
		}
	}
	return out, nil
}

func (e *NoopEvaluator) EvaluateArea(ctx context.Context, pack scoring.EvidencePack) (*scoring.EvaluationResult, error) {
	log.Printf("[Evaluator] noop evaluate area=%s", pack.AreaCode)
	subscores := make(map[string]float64, len(entity.Dimensions))
	for _, dim := range entity.Dimensions {
		subscores[dim] = 3
	}
	return &scoring.EvaluationResult{
		Subscores:     subscores,
		SystemTags:    []string{},
		NarrativeTags: []string{},
		TagQuality:    scoring.TagQualityMedium,
	}, nil
}

// ----------------------------------------------------------------------
// OpenAIEvaluator — вызовы chat-completions совместимого API
// ----------------------------------------------------------------------

const (
	clarifierSystemPrompt  = "You are the Clarifier Engine for the Finance Maturity Diagnostic."
	evaluationSystemPrompt = "You are the Scoring Engine for the Finance Maturity Diagnostic."
)

// OpenAIEvaluator реализует Evaluator поверх OpenAI-совместимого API
type OpenAIEvaluator struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	httpClient  *http.Client
}

// NewOpenAIEvaluator создает клиента внешнего оценщика
func NewOpenAIEvaluator(cfg config.EvaluatorConfig) (*OpenAIEvaluator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("evaluator api key is required")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &OpenAIEvaluator{
		apiKey:      cfg.APIKey,
		baseURL:     baseURL,
		model:       model,
		temperature: cfg.Temperature,
		httpClient:  &http.Client{Timeout: timeout},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// GenerateClarifiers запрашивает у модели ровно req.Count вопросов.
// Кардинальность здесь не проверяется — это делает вызывающий сервис,
// чтобы правило действовало и для других реализаций Evaluator.
func (e *OpenAIEvaluator) GenerateClarifiers(ctx context.Context, req ClarifierRequest) ([]GeneratedClarifier, error) {
	task := fmt.Sprintf("Generate exactly %d clarifier questions for step %d.", req.Count, req.Step)
	payload := map[string]interface{}{
		"task": task,
		"rules": []string{
			"Questions must be factual and non-redundant.",
			"Each question must target a distinct topic.",
			"Questions should be answerable in 1-3 sentences.",
			"No duplication. No narrative. No scoring.",
			`Respond with JSON: {"questions": [{"text": "...", "topic": "..."}]}`,
		},
		"evidence": req.Evidence,
	}

	content, err := e.call(ctx, clarifierSystemPrompt, payload)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Questions []GeneratedClarifier `json:"questions"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(content)), &parsed); err != nil {
		return nil, fmt.Errorf("%w: invalid clarifier payload: %v", apperrors.ErrEvaluator, err)
	}
	return parsed.Questions, nil
}

// EvaluateArea запрашивает у модели структурированную оценку области
func (e *OpenAIEvaluator) EvaluateArea(ctx context.Context, pack scoring.EvidencePack) (*scoring.EvaluationResult, error) {
	payload := map[string]interface{}{
		"task": "Score the diagnostic area on all five dimensions and tag structural weaknesses.",
		"rules": []string{
			"Score each dimension 1-5: " + strings.Join(entity.Dimensions, ", ") + ".",
			"system_tags must come from the fixed vocabulary: " + strings.Join(entity.SystemTags, ", ") + ".",
			"tag_quality is your confidence in the tags: high, medium or low.",
			`Respond with JSON: {"subscores": {...}, "system_tags": [...], "narrative_tags": [...], "tag_quality": "...", "extra_actions": [...]}`,
		},
		"evidence": pack,
	}

	content, err := e.call(ctx, evaluationSystemPrompt, payload)
	if err != nil {
		return nil, err
	}

	var result scoring.EvaluationResult
	if err := json.Unmarshal([]byte(cleanJSON(content)), &result); err != nil {
		return nil, fmt.Errorf("%w: invalid evaluation payload: %v", apperrors.ErrEvaluator, err)
	}
	return &result, nil
}

// call выполняет один запрос chat-completions. Ретраев нет — повтор
// всегда решение вызывающего, движок ничего не повторяет сам.
func (e *OpenAIEvaluator) call(ctx context.Context, systemPrompt string, payload interface{}) (string, error) {
	userContent, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(chatRequest{
		Model:       e.model,
		Temperature: e.temperature,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: string(userContent)},
		},
	})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		e.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+e.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrEvaluator, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrEvaluator, err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Printf("[Evaluator] API error status=%d body=%s", resp.StatusCode, truncate(string(respBody), 500))
		return "", fmt.Errorf("%w: status %d", apperrors.ErrEvaluator, resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrEvaluator, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", apperrors.ErrEvaluator)
	}
	return parsed.Choices[0].Message.Content, nil
}

// cleanJSON срезает markdown-ограду, если модель завернула JSON в ```
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

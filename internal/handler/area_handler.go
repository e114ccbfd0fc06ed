package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/diagnostic-api/internal/domain/entity"
	"github.com/yourusername/diagnostic-api/internal/handler/dto"
	apperrors "github.com/yourusername/diagnostic-api/internal/pkg/errors"
	"github.com/yourusername/diagnostic-api/internal/service"
)

// AreaHandler обрабатывает запросы жизненного цикла области:
// MCQ-ответы, уточняющие вопросы, оценку и блокировку.
type AreaHandler struct {
	areaService       *service.AreaService
	clarifierService  *service.ClarifierService
	assessmentService *service.AssessmentService
	recService        *service.RecommendationService
}

// NewAreaHandler создает новый обработчик областей
func NewAreaHandler(
	areaService *service.AreaService,
	clarifierService *service.ClarifierService,
	assessmentService *service.AssessmentService,
	recService *service.RecommendationService,
) *AreaHandler {
	return &AreaHandler{
		areaService:       areaService,
		clarifierService:  clarifierService,
		assessmentService: assessmentService,
		recService:        recService,
	}
}

// GetArea возвращает область с текущим статусом
func (h *AreaHandler) GetArea(c *gin.Context) {
	areaID := c.MustGet("areaID").(string) // Получаем из контекста

	area, err := h.areaService.GetArea(areaID)
	if err != nil {
		h.handleAreaError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAreaResponse(area))
}

// SubmitMCQAnswersRequest представляет запрос на запись MCQ-ответов
type SubmitMCQAnswersRequest struct {
	Answers []struct {
		QuestionID  string `json:"question_id" binding:"required,uuid"`
		AnswerValue int    `json:"answer_value" binding:"required,min=1,max=5"`
	} `json:"answers" binding:"required,min=1"`
}

// SubmitMCQAnswers записывает MCQ-ответы области. Если хотя бы одно
// существующее значение изменилось, одной транзакцией выполняется
// каскад инвалидации производных артефактов.
func (h *AreaHandler) SubmitMCQAnswers(c *gin.Context) {
	areaID := c.MustGet("areaID").(string)

	var req SubmitMCQAnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	inputs := make([]service.MCQAnswerInput, len(req.Answers))
	for i, a := range req.Answers {
		inputs[i] = service.MCQAnswerInput{
			QuestionID:  a.QuestionID,
			AnswerValue: a.AnswerValue,
		}
	}

	changed, err := h.areaService.WriteMCQAnswers(areaID, inputs)
	if err != nil {
		h.handleAreaError(c, err)
		return
	}

	area, err := h.areaService.GetArea(areaID)
	if err != nil {
		h.handleAreaError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"area":        dto.NewAreaResponse(area),
		"mcq_changed": changed,
	})
}

// GenerateCoreClarifiers запускает генерацию трёх основных уточняющих
// вопросов. Повторный вызов возвращает уже существующие вопросы.
func (h *AreaHandler) GenerateCoreClarifiers(c *gin.Context) {
	areaID := c.MustGet("areaID").(string)

	questions, err := h.clarifierService.GenerateCoreClarifiers(c.Request.Context(), areaID)
	if err != nil {
		h.handleAreaError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"questions": dto.NewListClarifierQuestionResponse(questions),
		"total":     len(questions),
	})
}

// GenerateFollowupClarifiers запускает генерацию двух дополнительных
// уточняющих вопросов. Требует ответов на все основные.
func (h *AreaHandler) GenerateFollowupClarifiers(c *gin.Context) {
	areaID := c.MustGet("areaID").(string)

	questions, err := h.clarifierService.GenerateFollowupClarifiers(c.Request.Context(), areaID)
	if err != nil {
		h.handleAreaError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"questions": dto.NewListClarifierQuestionResponse(questions),
		"total":     len(questions),
	})
}

// GetClarifiers возвращает все уточняющие вопросы области
func (h *AreaHandler) GetClarifiers(c *gin.Context) {
	areaID := c.MustGet("areaID").(string)

	questions, err := h.clarifierService.GetQuestions(areaID)
	if err != nil {
		h.handleAreaError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"questions": dto.NewListClarifierQuestionResponse(questions),
		"total":     len(questions),
	})
}

// SaveClarifierAnswer сохраняет ответ на уточняющий вопрос
// POST /api/clarifiers/:question_id/answer
func (h *AreaHandler) SaveClarifierAnswer(c *gin.Context) {
	questionID := c.MustGet("questionID").(string)

	var req service.ClarifierAnswerInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	answer, err := h.clarifierService.SaveAnswer(questionID, req)
	if err != nil {
		h.handleAreaError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewClarifierAnswerResponse(answer))
}

// ScoreArea запускает оценку области: сборку Evidence Pack, вызов
// оценщика и атомарную замену оценки с рекомендациями.
func (h *AreaHandler) ScoreArea(c *gin.Context) {
	areaID := c.MustGet("areaID").(string)

	assessment, err := h.assessmentService.ScoreArea(c.Request.Context(), areaID)
	if err != nil {
		h.handleAreaError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAssessmentResponse(assessment))
}

// LockArea переводит область в терминальный статус locked
func (h *AreaHandler) LockArea(c *gin.Context) {
	areaID := c.MustGet("areaID").(string)

	area, err := h.areaService.LockArea(areaID)
	if err != nil {
		h.handleAreaError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAreaResponse(area))
}

// GetAssessment возвращает текущую оценку области
func (h *AreaHandler) GetAssessment(c *gin.Context) {
	areaID := c.MustGet("areaID").(string)

	assessment, err := h.assessmentService.GetAssessment(areaID)
	if err != nil {
		h.handleAreaError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAssessmentResponse(assessment))
}

// GetRecommendations возвращает рекомендации области
func (h *AreaHandler) GetRecommendations(c *gin.Context) {
	areaID := c.MustGet("areaID").(string)

	recs, err := h.recService.ListByArea(areaID)
	if err != nil {
		h.handleAreaError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"recommendations": dto.NewListRecommendationResponse(recs),
		"total":           len(recs),
	})
}

// handleAreaError обрабатывает ошибки от сервисов областей и отправляет соответствующий HTTP ответ
func (h *AreaHandler) handleAreaError(c *gin.Context, err error) {
	var stErr *entity.StateTransitionError
	if errors.As(err, &stErr) {
		// Нарушение машины состояний — это конфликт с текущим
		// статусом области, а не невалидный запрос
		c.JSON(http.StatusConflict, gin.H{
			"error":  stErr.Error(),
			"method": stErr.Method,
			"status": stErr.Status,
		})
		return
	}

	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrMissingEvidence) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrEvaluator) {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	} else {
		log.Printf("ERROR: Internal server error in AreaHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

package handler

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"github.com/yourusername/diagnostic-api/internal/domain/entity"
	"github.com/yourusername/diagnostic-api/internal/handler/dto"
	apperrors "github.com/yourusername/diagnostic-api/internal/pkg/errors"
	"github.com/yourusername/diagnostic-api/internal/service"
)

// RunHandler обрабатывает запросы уровня прогона диагностики
type RunHandler struct {
	runService *service.RunService
}

// NewRunHandler создает новый обработчик прогонов
func NewRunHandler(runService *service.RunService) *RunHandler {
	return &RunHandler{runService: runService}
}

// CreateRunRequest представляет запрос на создание прогона
type CreateRunRequest struct {
	Title          string         `json:"title" binding:"required,min=3,max=200"`
	CompanyContext entity.JSONMap `json:"company_context,omitempty"`
	PillarContext  entity.JSONMap `json:"pillar_context,omitempty"`
	PainPoints     entity.JSONMap `json:"pain_points,omitempty"`
	Ambition       string         `json:"ambition" binding:"omitempty,max=1000"`
	Role           string         `json:"role" binding:"omitempty,max=100"`
}

// CreateRun обрабатывает запрос на создание прогона.
// Вместе с прогоном создаются контекст и пять областей в статусе not_started.
func (h *RunHandler) CreateRun(c *gin.Context) {
	var req CreateRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	run, err := h.runService.CreateRun(service.CreateRunInput{
		Title:          req.Title,
		CompanyContext: req.CompanyContext,
		PillarContext:  req.PillarContext,
		PainPoints:     req.PainPoints,
		Ambition:       req.Ambition,
		Role:           req.Role,
	})
	if err != nil {
		h.handleRunError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewRunResponse(run))
}

// GetRun возвращает прогон вместе с контекстом и областями
func (h *RunHandler) GetRun(c *gin.Context) {
	runID := c.MustGet("runID").(string) // Получаем из контекста

	run, err := h.runService.GetRun(runID)
	if err != nil {
		h.handleRunError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewRunResponse(run))
}

// GetAreas возвращает области прогона с их статусами
func (h *RunHandler) GetAreas(c *gin.Context) {
	runID := c.MustGet("runID").(string)

	areas, err := h.runService.GetAreas(runID)
	if err != nil {
		h.handleRunError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"areas": dto.NewListAreaResponse(areas),
		"total": len(areas),
	})
}

// ExportAssessments экспортирует оценки прогона в CSV или Excel формате
// GET /api/runs/:run_id/export?format=csv|xlsx
func (h *RunHandler) ExportAssessments(c *gin.Context) {
	runID := c.MustGet("runID").(string)
	format := c.DefaultQuery("format", "csv")

	areas, assessments, err := h.runService.GetAssessments(runID)
	if err != nil {
		h.handleRunError(c, err)
		return
	}

	// Сопоставляем оценки с областями по run_area_id
	byArea := make(map[string]*entity.AreaAssessment, len(assessments))
	for i := range assessments {
		byArea[assessments[i].RunAreaID] = &assessments[i]
	}

	filename := fmt.Sprintf("diagnostic_%s_%s", runID[:8], time.Now().Format("2006-01-02"))

	switch format {
	case "xlsx":
		h.exportXLSX(c, areas, byArea, filename)
	default:
		h.exportCSV(c, areas, byArea, filename)
	}
}

// exportCSV экспортирует оценки в CSV с правильным экранированием спецсимволов
func (h *RunHandler) exportCSV(c *gin.Context, areas []entity.RunArea, byArea map[string]*entity.AreaAssessment, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))

	// BOM для корректного отображения UTF-8 в Excel
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	// Используем encoding/csv для правильного экранирования запятых/кавычек
	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	// Заголовки
	writer.Write([]string{"Область", "Код", "Статус", "Устарела", "Балл MCQ", "Балл уточнений", "Итоговый балл", "Надёжность", "Системные теги", "Противоречия"})

	// Данные
	for _, area := range areas {
		row := []string{
			sanitizeForExcel(area.Name),
			area.Code,
			area.Status,
			boolRU(area.IsDirty),
			"", "", "", "", "", "",
		}
		if a := byArea[area.ID]; a != nil {
			row[4] = formatScore(a.AreaMCQScore)
			row[5] = formatScore(a.ClarifierScoreRaw)
			row[6] = formatScore(a.ReportedScore)
			row[7] = a.Reliability
			row[8] = sanitizeForExcel(strings.Join(a.SystemTags, "; "))
			row[9] = contradictionSummary(a.Contradictions)
		}
		writer.Write(row)
	}
}

// exportXLSX экспортирует оценки в Excel с использованием StreamWriter
func (h *RunHandler) exportXLSX(c *gin.Context, areas []entity.RunArea, byArea map[string]*entity.AreaAssessment, filename string) {
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Оценки"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[RunHandler] Ошибка создания StreamWriter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	// Заголовки
	headers := []interface{}{"Область", "Код", "Статус", "Устарела", "Балл MCQ", "Балл уточнений", "Итоговый балл", "Надёжность", "Системные теги", "Противоречия"}
	if err := sw.SetRow("A1", headers); err != nil {
		log.Printf("[RunHandler] Ошибка записи заголовков: %v", err)
	}

	// Данные
	for i, area := range areas {
		rowNum := i + 2 // Начинаем с 2 строки (1 - заголовки)
		cell := fmt.Sprintf("A%d", rowNum)

		row := []interface{}{
			sanitizeForExcel(area.Name), area.Code, area.Status, boolRU(area.IsDirty),
			"", "", "", "", "", "",
		}
		if a := byArea[area.ID]; a != nil {
			row[4] = a.AreaMCQScore
			row[5] = a.ClarifierScoreRaw
			row[6] = a.ReportedScore
			row[7] = a.Reliability
			row[8] = sanitizeForExcel(strings.Join(a.SystemTags, "; "))
			row[9] = contradictionSummary(a.Contradictions)
		}
		if err := sw.SetRow(cell, row); err != nil {
			log.Printf("[RunHandler] Ошибка записи строки %d: %v", rowNum, err)
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[RunHandler] Ошибка при Flush: %v", err)
	}

	// Записываем в response
	if err := f.Write(c.Writer); err != nil {
		log.Printf("[RunHandler] Ошибка записи Excel в response: %v", err)
	}
}

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel/CSV
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}

// formatScore форматирует балл с двумя знаками после запятой
func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// boolRU переводит флаг в Да/Нет
func boolRU(v bool) string {
	if v {
		return "Да"
	}
	return "Нет"
}

// contradictionSummary собирает список осей с противоречиями
func contradictionSummary(f entity.ContradictionFlags) string {
	var axes []string
	if f.Automation {
		axes = append(axes, "автоматизация")
	}
	if f.Governance {
		axes = append(axes, "управление")
	}
	if f.People {
		axes = append(axes, "люди")
	}
	return strings.Join(axes, "; ")
}

// handleRunError обрабатывает ошибки от сервисов прогона и отправляет соответствующий HTTP ответ
func (h *RunHandler) handleRunError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	} else {
		log.Printf("ERROR: Internal server error in RunHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// Сидирует таблицу action_templates детерминированными шаблонами
// действий, по одному на системный тег. Повторный запуск безопасен:
// существующие шаблоны обновляются по action_id.
type template struct {
	ActionID    string
	SystemTag   string
	Title       string
	Description string
	Dimension   string
	Uplift      float64
}

var templates = []template{
	{"ACT_REPLACE_EXCEL_CORE", "CORE_PROCESS_EXCEL", "Перенести ядро процесса из Excel в систему", "Ключевые расчёты живут в таблицах без контроля версий и прав. Перенесите их в учётную систему или специализированный инструмент.", "automation", 0.8},
	{"ACT_DOCUMENT_PROCESS", "NO_DOCUMENTATION", "Задокументировать процесс", "Опишите шаги, сроки и ответственных. Без документации процесс зависит от конкретных людей.", "process", 0.5},
	{"ACT_ASSIGN_OWNERSHIP", "MISSING_OWNERSHIP", "Назначить владельца процесса", "Определите одного ответственного за результат и сроки процесса целиком.", "controls", 0.6},
	{"ACT_FIX_UPSTREAM_DATA", "UPSTREAM_DATA_ISSUES", "Закрепить контроли на входящих данных", "Договоритесь с источниками о формате и сроках, добавьте сверки на входе вместо исправлений внутри процесса.", "data_quality", 0.7},
	{"ACT_REDUCE_LATE_ADJUSTMENTS", "LATE_ADJUSTMENTS", "Сократить поздние корректировки", "Разберите причины корректировок после закрытия и перенесите контроли раньше по процессу.", "process", 0.6},
	{"ACT_EXPAND_AUTOMATION", "LIMITED_AUTOMATION", "Расширить автоматизацию рутинных шагов", "Определите повторяющиеся ручные шаги с наибольшей трудоёмкостью и автоматизируйте их первыми.", "automation", 0.8},
	{"ACT_RELIEVE_CAPACITY", "CAPACITY_CONSTRAINT", "Снять ограничение по мощности команды", "Перераспределите нагрузку, закройте пробелы в навыках или автоматизируйте узкое место.", "people_skills", 0.5},
	{"ACT_CONSOLIDATE_SYSTEMS", "MULTI_SYSTEM_FRAGMENTATION", "Консолидировать фрагментированные системы", "Сократите число систем-источников или закрепите единый мастер-источник для каждого показателя.", "data_quality", 0.6},
	{"ACT_REDUCE_REWORK", "REWORK_HEAVY", "Сократить объём переделок", "Найдите шаги с систематическими переделками и устраните их корневые причины.", "process", 0.6},
	{"ACT_IMPROVE_HANDOFFS", "POOR_HANDOFFS", "Наладить передачи между командами", "Зафиксируйте формат, сроки и критерии готовности на каждой передаче между участниками.", "process", 0.5},
	{"ACT_FIX_DATA_QUALITY", "DATA_QUALITY_GAPS", "Закрыть пробелы качества данных", "Введите валидацию на входе и регулярный контроль качества ключевых справочников.", "data_quality", 0.7},
	{"ACT_ADD_WORKFLOW_SUPPORT", "NO_WORKFLOW_SUPPORT", "Внедрить workflow-поддержку процесса", "Статусы, согласования и напоминания должны жить в системе, а не в почте и мессенджерах.", "automation", 0.6},
}

func main() {
	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		host := envOr("DATABASE_HOST", "localhost")
		port := envOr("DATABASE_PORT", "5432")
		user := envOr("DATABASE_USER", "postgres")
		password := envOr("DATABASE_PASSWORD", "postgres")
		dbname := envOr("DATABASE_DBNAME", "diagnostic_db")
		sslmode := envOr("DATABASE_SSLMODE", "disable")
		connStr = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			host, port, user, password, dbname, sslmode)
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal(err)
	}

	const upsert = `
		INSERT INTO action_templates (id, action_id, system_tag, title, description, dimension, uplift_estimate, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (action_id) DO UPDATE SET
			system_tag = EXCLUDED.system_tag,
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			dimension = EXCLUDED.dimension,
			uplift_estimate = EXCLUDED.uplift_estimate`

	for _, t := range templates {
		if _, err := db.Exec(upsert, uuid.NewString(), t.ActionID, t.SystemTag, t.Title, t.Description, t.Dimension, t.Uplift); err != nil {
			log.Fatalf("Failed to seed template %s: %v", t.ActionID, err)
		}
	}

	fmt.Printf("Seeded %d action templates.\n", len(templates))
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/yourusername/diagnostic-api/internal/websocket"
)

// WSHandler обрабатывает WebSocket соединения прогона
type WSHandler struct {
	wsManager *websocket.Manager
}

// NewWSHandler создает новый обработчик WebSocket
func NewWSHandler(wsManager *websocket.Manager) *WSHandler {
	return &WSHandler{wsManager: wsManager}
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Если Origin пустой - это не браузерный клиент (curl, мобильное приложение).
		// Разрешаем такие подключения
		if r.Header.Get("Origin") == "" {
			return true
		}
		// Подписка read-only: клиент только получает события статусов,
		// поэтому продвинутая проверка origin здесь не нужна
		return true
	},
}

// Subscribe подключает клиента к потоку событий прогона
// GET /ws/runs/:run_id
func (h *WSHandler) Subscribe(c *gin.Context) {
	runID := c.MustGet("runID").(string)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WSHandler] Ошибка обновления соединения для прогона %s: %v", runID, err)
		return
	}

	h.wsManager.Subscribe(runID, conn)
}

package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Типы событий жизненного цикла области
const (
	EventAreaStatusChanged   = "area:status_changed"
	EventAreaInvalidated     = "area:invalidated"
	EventClarifiersGenerated = "area:clarifiers_generated"
	EventAssessmentCompleted = "area:assessment_completed"
)

// AreaEvent — событие, рассылаемое подписчикам прогона
type AreaEvent struct {
	Type      string      `json:"type"`
	RunID     string      `json:"run_id"`
	AreaID    string      `json:"area_id"`
	Status    string      `json:"status,omitempty"`
	IsDirty   bool        `json:"is_dirty,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	clientSendBuf  = 16
	maxMessageSize = 1024
)

// Client представляет одно WebSocket-подключение подписчика прогона
type Client struct {
	conn  *websocket.Conn
	send  chan []byte
	runID string
}

// Manager рассылает события областей подписчикам соответствующих
// прогонов. Подписка — на прогон целиком: аудитория диагностики мала,
// шардирование здесь не нужно.
type Manager struct {
	mu          sync.RWMutex
	subscribers map[string]map[*Client]bool // runID -> клиенты
}

// NewManager создает новый менеджер подписок
func NewManager() *Manager {
	return &Manager{
		subscribers: make(map[string]map[*Client]bool),
	}
}

// Subscribe регистрирует подключение как подписчика прогона и
// запускает его читающую и пишущую горутины
func (m *Manager) Subscribe(runID string, conn *websocket.Conn) {
	client := &Client{
		conn:  conn,
		send:  make(chan []byte, clientSendBuf),
		runID: runID,
	}

	m.mu.Lock()
	if m.subscribers[runID] == nil {
		m.subscribers[runID] = make(map[*Client]bool)
	}
	m.subscribers[runID][client] = true
	m.mu.Unlock()

	log.Printf("[WSManager] Client subscribed to run %s", runID)

	go client.writePump()
	go m.readPump(client)
}

// PublishAreaEvent рассылает событие всем подписчикам прогона.
// Медленный клиент пропускает событие, но не блокирует рассылку.
func (m *Manager) PublishAreaEvent(evt AreaEvent) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}

	data, err := json.Marshal(evt)
	if err != nil {
		log.Printf("[WSManager] Error marshaling event %s: %v", evt.Type, err)
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for client := range m.subscribers[evt.RunID] {
		select {
		case client.send <- data:
		default:
			log.Printf("[WSManager] Dropping event %s for slow client (run %s)", evt.Type, evt.RunID)
		}
	}
}

// unsubscribe снимает клиента с подписки и закрывает его канал
func (m *Manager) unsubscribe(client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if clients, ok := m.subscribers[client.runID]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client.send)
			if len(clients) == 0 {
				delete(m.subscribers, client.runID)
			}
		}
	}
}

// readPump читает входящие фреймы только ради ping/pong и закрытия:
// клиенты ничего не присылают по этому каналу
func (m *Manager) readPump(client *Client) {
	defer func() {
		m.unsubscribe(client)
		client.conn.Close()
	}()

	client.conn.SetReadLimit(maxMessageSize)
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WSManager] Unexpected close: %v", err)
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

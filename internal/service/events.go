package service

import (
	ws "github.com/yourusername/diagnostic-api/internal/websocket"
)

// EventPublisher абстрагирует рассылку событий жизненного цикла
// областей (реализуется websocket.Manager). Сервисы переживают
// nil-издателя: события — побочный канал, не часть контракта операций.
type EventPublisher interface {
	PublishAreaEvent(evt ws.AreaEvent)
}

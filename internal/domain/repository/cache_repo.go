package repository

import (
	"time"
)

// CacheRepository определяет методы для работы с кешем (Redis)
type CacheRepository interface {
	Set(key string, value interface{}, expiration time.Duration) error
	Get(key string) (string, error)
	Delete(key string) error
	Exists(key string) (bool, error)

	// SetNX устанавливает значение, только если ключ отсутствует.
	// Используется как короткоживущая блокировка записи на область.
	SetNX(key string, value interface{}, expiration time.Duration) (bool, error)

	// SetJSON и GetJSON сериализуют значение в JSON (кеш банка вопросов)
	SetJSON(key string, value interface{}, expiration time.Duration) error
	GetJSON(key string, dest interface{}) error
}

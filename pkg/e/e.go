package e

import "fmt"

var (
	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")

	// Ошибки каталога: сеть/бэкенд, хранилище кэша, данные
	ErrTransientFetch      = fmt.Errorf("catalog fetch failed")
	ErrStorageUnavailable  = fmt.Errorf("persisted cache unavailable")
	ErrMalformedImageField = fmt.Errorf("malformed image field")
	ErrCacheEntryCorrupted = fmt.Errorf("cache entry corrupted")
	ErrUnsupportedOrder    = fmt.Errorf("unsupported order field")

	// 400 Bad Request
	ErrStatusBadRequest = fmt.Errorf("bad request")
	ErrUnknownCategory  = fmt.Errorf("unknown category")
	ErrUnknownSort      = fmt.Errorf("unknown sort order")
	ErrSessionRequired  = fmt.Errorf("session id is required")

	// 415
	ErrUnsupportedMediaType = fmt.Errorf("unsupported media type")

	// 503
	ErrTooManySessions = fmt.Errorf("too many active sessions")

	// 500
	ErrInternalServerError = fmt.Errorf("internal server error")

	// Конфигурация
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}

// Transient помечает ошибку обращения к каталогу как временную (повторяемую).
func Transient(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrTransientFetch, err)
}

package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/DRSN-tech/storefront-catalog/pkg/e"
	"github.com/google/uuid"
)

// SessionHeader — заголовок, по которому запросы привязываются к контроллеру выдачи.
const SessionHeader = "X-Session-ID"

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewErrorResponse(code int, message string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
	}
}

func ToHTTPResponse(err error) (int, string) {
	switch {
	case errors.Is(err, e.ErrUnknownCategory):
		return http.StatusBadRequest, e.ErrUnknownCategory.Error()
	case errors.Is(err, e.ErrUnknownSort):
		return http.StatusBadRequest, e.ErrUnknownSort.Error()
	case errors.Is(err, e.ErrSessionRequired):
		return http.StatusBadRequest, e.ErrSessionRequired.Error()
	case errors.Is(err, e.ErrStatusBadRequest):
		return http.StatusBadRequest, e.ErrStatusBadRequest.Error()
	case errors.Is(err, e.ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType, e.ErrUnsupportedMediaType.Error()
	case errors.Is(err, e.ErrTooManySessions):
		return http.StatusServiceUnavailable, e.ErrTooManySessions.Error()
	case errors.Is(err, e.ErrTransientFetch):
		return http.StatusServiceUnavailable, e.ErrTransientFetch.Error()
	default:
		return http.StatusInternalServerError, e.ErrInternalServerError.Error()
	}
}

func WriteError(w http.ResponseWriter, err error) {
	code, msg := ToHTTPResponse(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(NewErrorResponse(code, msg))
}

func WriteSuccess(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// sessionID возвращает id сессии из заголовка. Если create и заголовка нет,
// создаётся новый id. Итоговый id всегда возвращается клиенту в том же заголовке.
func sessionID(w http.ResponseWriter, r *http.Request, create bool) (string, error) {
	id := strings.TrimSpace(r.Header.Get(SessionHeader))
	if id == "" {
		if !create {
			return "", e.ErrSessionRequired
		}
		id = uuid.NewString()
	}

	w.Header().Set(SessionHeader, id)
	return id, nil
}

package http

import (
	"net/http"
	"time"

	"github.com/DRSN-tech/storefront-catalog/pkg/logger"
	"github.com/go-chi/chi/v5/middleware"
)

// accessLog пишет одну строку лога на запрос. Уровень зависит от статуса ответа.
func accessLog(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			const format = "http_request method=%s path=%s status=%d latency=%s bytes=%d request_id=%s"
			args := []any{r.Method, r.URL.Path, status, time.Since(start), ww.BytesWritten(), middleware.GetReqID(r.Context())}

			switch {
			case status >= 500:
				log.Errorf(nil, format, args...)
			case status >= 400:
				log.Warnf(format, args...)
			default:
				log.Debugf(format, args...)
			}
		})
	}
}

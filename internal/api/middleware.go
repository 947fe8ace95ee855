package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/vladislavdragonenkov/kiki/internal/service/session"
)

// headerSessionID передаёт идентификатор клиентской сессии. Пустое значение
// трактуется как анонимная сессия.
const headerSessionID = "X-Session-Id"

// requestLogger логирует завершённые запросы с методом, путём, статусом и длительностью.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.WithFields(map[string]any{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      ww.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		}).Info("http request")
	})
}

// session возвращает сессию, соответствующую заголовку X-Session-Id.
func (s *Server) session(r *http.Request) *session.Session {
	return s.sessions.Session(r.Header.Get(headerSessionID))
}

// movies-api/internal/api/errors.go
package api

import (
	"log/slog"
	"net/http"

	"movies-api/internal/errs"
)

const msgUnexpected = "an unexpected error occurred"

// handlerFunc - обработчик, который возвращает ошибку вместо записи ответа об ошибке
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// handle оборачивает handlerFunc: все ошибки проходят через respondErr
func (h *MovieHandler) handle(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			h.respondErr(w, r, err)
		}
	}
}

// respondErr переводит ошибку в HTTP ответ. Детали внутренних ошибок клиенту не отдаются.
func (h *MovieHandler) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	if ce, ok := errs.AsClientError(err); ok {
		h.logger.WarnContext(r.Context(), "Client error",
			slog.Int("status", ce.Status),
			slog.String("message", ce.Message),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path))
		h.respondError(w, r, ce.Status, ce.Message)
		return
	}

	h.logger.ErrorContext(r.Context(), "Unexpected error while handling request",
		slog.String("error", err.Error()),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("request_id", RequestIDFromContext(r.Context())))
	h.respondError(w, r, http.StatusInternalServerError, msgUnexpected)
}

func (h *MovieHandler) notFound(w http.ResponseWriter, r *http.Request) {
	h.respondError(w, r, http.StatusNotFound, "the requested resource could not be found")
}

func (h *MovieHandler) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.respondError(w, r, http.StatusMethodNotAllowed, "the "+r.Method+" method is not supported for this resource")
}

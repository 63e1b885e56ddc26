// movies-api/internal/api/router.go
package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter собирает маршруты API и цепочку middleware.
func NewRouter(handler *MovieHandler) *mux.Router {
	router := mux.NewRouter()
	// mux применяет Use только к найденным маршрутам, поэтому 404/405 оборачиваются отдельно
	router.NotFoundHandler = handler.withMiddleware(http.HandlerFunc(handler.notFound))
	router.MethodNotAllowedHandler = handler.withMiddleware(http.HandlerFunc(handler.methodNotAllowed))
	router.Use(RequestIDMiddleware, handler.LoggingMiddleware, handler.RecoverMiddleware)

	// Саб-роутер для /api префикса
	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/test", handler.Hello).Methods(http.MethodGet)
	apiRouter.HandleFunc("/healthz", handler.handle(handler.Healthcheck)).Methods(http.MethodGet)

	// Эндпоинты для фильмов
	moviesRouter := apiRouter.PathPrefix("/movies").Subrouter()
	moviesRouter.HandleFunc("", handler.handle(handler.ListMovies)).Methods(http.MethodGet)
	moviesRouter.HandleFunc("", handler.handle(handler.CreateMovie)).Methods(http.MethodPost)
	moviesRouter.HandleFunc("/{movieId}", handler.handle(handler.GetMovie)).Methods(http.MethodGet)
	moviesRouter.HandleFunc("/{movieId}", handler.handle(handler.UpdateMovie)).Methods(http.MethodPut)
	moviesRouter.HandleFunc("/{movieId}", handler.handle(handler.DeleteMovie)).Methods(http.MethodDelete)

	return router
}

// withMiddleware повторяет цепочку router.Use для обработчиков вне маршрутов
func (h *MovieHandler) withMiddleware(next http.Handler) http.Handler {
	return RequestIDMiddleware(h.LoggingMiddleware(h.RecoverMiddleware(next)))
}

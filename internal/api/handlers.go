// movies-api/internal/api/handlers.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"movies-api/internal/domain"
	"movies-api/internal/errs"
	"movies-api/internal/store"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 20

// MovieHandler содержит зависимости для HTTP обработчиков ресурса movies
type MovieHandler struct {
	store     store.MovieStore
	logger    *slog.Logger
	validator *validator.Validate
}

// NewMovieHandler создает новый экземпляр MovieHandler.
func NewMovieHandler(s store.MovieStore, l *slog.Logger, v *validator.Validate) *MovieHandler {
	return &MovieHandler{
		store:     s,
		logger:    l,
		validator: v,
	}
}

// --- Вспомогательные функции ---
func (h *MovieHandler) respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			h.logger.ErrorContext(r.Context(), "Failed to encode JSON response", slog.String("error", err.Error()), slog.String("path", r.URL.Path))
		}
	}
}

func (h *MovieHandler) respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.respondJSON(w, r, status, map[string]string{"error": message})
}

// decodeMovieInput читает тело запроса. Пустое тело считается пустым объектом.
func (h *MovieHandler) decodeMovieInput(w http.ResponseWriter, r *http.Request) (domain.MovieInput, error) {
	var in domain.MovieInput
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&in); err != nil {
		if errors.Is(err, io.EOF) {
			return in, nil
		}
		h.logger.WarnContext(r.Context(), "Failed to decode movie request body", slog.String("error", err.Error()))
		return domain.MovieInput{}, errs.BadRequest("invalid request payload")
	}
	// после объекта в теле не должно быть ничего, кроме пробелов
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		h.logger.WarnContext(r.Context(), "Movie request body has trailing data")
		return domain.MovieInput{}, errs.BadRequest("invalid request payload")
	}
	return in, nil
}

// positiveMovieID - строгая проверка id для PUT и GET
func positiveMovieID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["movieId"], 10, 64)
	if err != nil || id < 1 {
		return 0, errs.BadRequest("movieId must be a positive integer")
	}
	return id, nil
}

// integerMovieID - проверка id для DELETE: только целое число, знак не проверяется
func integerMovieID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["movieId"], 10, 64)
	if err != nil {
		return 0, errs.BadRequest("movieId needs to be a number")
	}
	return id, nil
}

func movieNotFound(id int64) error {
	return errs.NotFound(fmt.Sprintf("cannot find movie with movieId %d", id))
}

// --- Обработчики ---

// Hello - проверочный эндпоинт GET /api/test
func (h *MovieHandler) Hello(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "Hello, world!")
}

// Healthcheck проверяет доступность хранилища.
func (h *MovieHandler) Healthcheck(w http.ResponseWriter, r *http.Request) error {
	if err := h.store.Ping(r.Context()); err != nil {
		return fmt.Errorf("healthcheck ping: %w", err)
	}
	h.respondJSON(w, r, http.StatusOK, map[string]string{"status": "available"})
	return nil
}

// ListMovies возвращает все фильмы по возрастанию movieId.
func (h *MovieHandler) ListMovies(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	movies, err := h.store.List(ctx)
	if err != nil {
		return err
	}
	if movies == nil {
		movies = []*domain.Movie{}
	}
	h.logger.InfoContext(ctx, "Movies list retrieved successfully", slog.Int("count", len(movies)))
	h.respondJSON(w, r, http.StatusOK, movies)
	return nil
}

// GetMovie возвращает один фильм по movieId.
func (h *MovieHandler) GetMovie(w http.ResponseWriter, r *http.Request) error {
	id, err := positiveMovieID(r)
	if err != nil {
		return err
	}
	movie, err := h.store.GetByID(r.Context(), id)
	if errors.Is(err, store.ErrMovieNotFound) {
		return movieNotFound(id)
	}
	if err != nil {
		return err
	}
	h.respondJSON(w, r, http.StatusOK, movie)
	return nil
}

// CreateMovie обрабатывает запрос на создание нового фильма.
func (h *MovieHandler) CreateMovie(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	in, err := h.decodeMovieInput(w, r)
	if err != nil {
		return err
	}
	fields, err := in.Validate(h.validator)
	if err != nil {
		return err
	}

	movie, err := h.store.Create(ctx, fields)
	if err != nil {
		return err
	}
	h.logger.InfoContext(ctx, "Movie created", slog.Int64("movieId", movie.MovieID))
	h.respondJSON(w, r, http.StatusCreated, movie)
	return nil
}

// UpdateMovie заменяет все поля фильма.
func (h *MovieHandler) UpdateMovie(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	id, err := positiveMovieID(r)
	if err != nil {
		return err
	}
	in, err := h.decodeMovieInput(w, r)
	if err != nil {
		return err
	}
	fields, err := in.Validate(h.validator)
	if err != nil {
		return err
	}

	movie, err := h.store.Update(ctx, id, fields)
	if errors.Is(err, store.ErrMovieNotFound) {
		return movieNotFound(id)
	}
	if err != nil {
		return err
	}
	h.logger.InfoContext(ctx, "Movie updated", slog.Int64("movieId", id))
	h.respondJSON(w, r, http.StatusOK, movie)
	return nil
}

// DeleteMovie удаляет фильм. Ответ 204 без тела: удаленная строка только логируется.
func (h *MovieHandler) DeleteMovie(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	id, err := integerMovieID(r)
	if err != nil {
		return err
	}

	deleted, err := h.store.Delete(ctx, id)
	if errors.Is(err, store.ErrMovieNotFound) {
		return errs.NotFound("Movie not found")
	}
	if err != nil {
		return err
	}
	h.logger.InfoContext(ctx, "Movie deleted", slog.Int64("movieId", deleted.MovieID), slog.String("title", deleted.Title))
	w.WriteHeader(http.StatusNoContent)
	return nil
}

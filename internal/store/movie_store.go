// movies-api/internal/store/movie_store.go
package store

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"movies-api/internal/domain"
)

// ErrMovieNotFound возвращается, когда ни одна строка не совпала с movieId.
var ErrMovieNotFound = errors.New("movie not found")

// MovieStore определяет операции с таблицей movies. Каждая операция - один запрос к хранилищу.
type MovieStore interface {
	List(ctx context.Context) ([]*domain.Movie, error)
	GetByID(ctx context.Context, id int64) (*domain.Movie, error)
	Create(ctx context.Context, fields domain.MovieFields) (*domain.Movie, error)
	Update(ctx context.Context, id int64, fields domain.MovieFields) (*domain.Movie, error)
	Delete(ctx context.Context, id int64) (*domain.Movie, error)
	Ping(ctx context.Context) error
	Close() error
}

// MemoryMovieStore - хранилище в памяти процесса (тесты и запуск с MOVIES_STORE=memory)
type MemoryMovieStore struct {
	mu     sync.RWMutex
	movies map[int64]*domain.Movie
	nextID int64
	logger *slog.Logger
	now    func() time.Time
}

// NewMemoryMovieStore создает пустое хранилище в памяти; id начинаются с 1.
func NewMemoryMovieStore(logger *slog.Logger) *MemoryMovieStore {
	return &MemoryMovieStore{
		movies: make(map[int64]*domain.Movie),
		nextID: 1,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// List возвращает копии всех фильмов по возрастанию movieId.
func (m *MemoryMovieStore) List(ctx context.Context) ([]*domain.Movie, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	movies := make([]*domain.Movie, 0, len(m.movies))
	for _, movie := range m.movies {
		movieCopy := *movie
		movies = append(movies, &movieCopy)
	}
	sort.Slice(movies, func(i, j int) bool { return movies[i].MovieID < movies[j].MovieID })

	m.logger.DebugContext(ctx, "Listed movies from memory store", slog.Int("count", len(movies)))
	return movies, nil
}

// GetByID находит фильм по movieId.
func (m *MemoryMovieStore) GetByID(ctx context.Context, id int64) (*domain.Movie, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	movie, ok := m.movies[id]
	if !ok {
		return nil, ErrMovieNotFound
	}
	movieCopy := *movie
	return &movieCopy, nil
}

// Create назначает новый movieId и временные метки.
func (m *MemoryMovieStore) Create(ctx context.Context, fields domain.MovieFields) (*domain.Movie, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	movie := &domain.Movie{
		MovieID:   m.nextID,
		Title:     fields.Title,
		Summary:   fields.Summary,
		ImdbLink:  fields.ImdbLink,
		Rating:    fields.Rating,
		CreatedAt: now,
		UpdatedAt: now,
	}
	// id никогда не переиспользуется, даже после удаления
	m.nextID++
	m.movies[movie.MovieID] = movie

	m.logger.DebugContext(ctx, "Movie created in memory store", slog.Int64("movieId", movie.MovieID))
	movieCopy := *movie
	return &movieCopy, nil
}

// Update заменяет все четыре поля; updatedAt всегда строго больше предыдущего.
func (m *MemoryMovieStore) Update(ctx context.Context, id int64, fields domain.MovieFields) (*domain.Movie, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	movie, ok := m.movies[id]
	if !ok {
		return nil, ErrMovieNotFound
	}

	now := m.now()
	if !now.After(movie.UpdatedAt) {
		now = movie.UpdatedAt.Add(time.Microsecond)
	}
	movie.Title = fields.Title
	movie.Summary = fields.Summary
	movie.ImdbLink = fields.ImdbLink
	movie.Rating = fields.Rating
	movie.UpdatedAt = now

	m.logger.DebugContext(ctx, "Movie updated in memory store", slog.Int64("movieId", id))
	movieCopy := *movie
	return &movieCopy, nil
}

// Delete удаляет фильм и возвращает удаленную запись.
func (m *MemoryMovieStore) Delete(ctx context.Context, id int64) (*domain.Movie, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	movie, ok := m.movies[id]
	if !ok {
		return nil, ErrMovieNotFound
	}
	delete(m.movies, id)

	m.logger.DebugContext(ctx, "Movie deleted from memory store", slog.Int64("movieId", id))
	return movie, nil
}

// Ping для хранилища в памяти проверяет только контекст.
func (m *MemoryMovieStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close ничего не освобождает.
func (m *MemoryMovieStore) Close() error {
	return nil
}

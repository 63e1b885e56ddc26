// movies-api/internal/store/postgres_movie_store.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq" // Драйвер PostgreSQL и разбор ошибок *pq.Error

	"movies-api/internal/domain"
	"movies-api/internal/errs"
)

const movieColumns = `"movieId", "title", "summary", "imdbLink", "rating", "createdAt", "updatedAt"`

// Коды SQLSTATE, которые могут прийти только из-за данных клиента
const (
	pqCheckViolation            = "23514"
	pqInvalidTextRepresentation = "22P02"
	pqNumericValueOutOfRange    = "22003"
)

// PoolConfig - настройки пула соединений database/sql
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open подключается к PostgreSQL, настраивает пул и проверяет соединение.
func Open(ctx context.Context, dsn string, pool PoolConfig) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return db, nil
}

// PostgresMovieStore реализует MovieStore для PostgreSQL.
type PostgresMovieStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewPostgresMovieStore создает новый экземпляр PostgresMovieStore.
func NewPostgresMovieStore(db *sqlx.DB, logger *slog.Logger) (*PostgresMovieStore, error) {
	if db == nil {
		return nil, errors.New("database connection (db) cannot be nil")
	}
	return &PostgresMovieStore{db: db, logger: logger}, nil
}

// List возвращает все фильмы по возрастанию movieId.
func (s *PostgresMovieStore) List(ctx context.Context) ([]*domain.Movie, error) {
	query := `SELECT ` + movieColumns + ` FROM "movies" ORDER BY "movieId"`

	movies := []*domain.Movie{}
	s.logger.DebugContext(ctx, "Executing List movies query")
	if err := s.db.SelectContext(ctx, &movies, query); err != nil {
		s.logger.ErrorContext(ctx, "Failed to list movies from DB", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}
	return movies, nil
}

// GetByID находит фильм по его movieId.
func (s *PostgresMovieStore) GetByID(ctx context.Context, id int64) (*domain.Movie, error) {
	query := `SELECT ` + movieColumns + ` FROM "movies" WHERE "movieId" = $1`

	var movie domain.Movie
	s.logger.DebugContext(ctx, "Executing GetMovieByID query", slog.Int64("movieId", id))
	if err := s.db.GetContext(ctx, &movie, query, id); err != nil {
		return nil, s.rowError(ctx, "get movie by id", id, err)
	}
	return &movie, nil
}

// Create вставляет строку; movieId, createdAt и updatedAt назначает база.
func (s *PostgresMovieStore) Create(ctx context.Context, fields domain.MovieFields) (*domain.Movie, error) {
	query := `INSERT INTO "movies" ("title", "summary", "imdbLink", "rating")
              VALUES ($1, $2, $3, $4)
              RETURNING ` + movieColumns

	var movie domain.Movie
	s.logger.DebugContext(ctx, "Executing Create movie query", slog.String("title", fields.Title))
	err := s.db.GetContext(ctx, &movie, query, fields.Title, fields.Summary, fields.ImdbLink, fields.Rating)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to create movie in DB", slog.String("error", err.Error()))
		return nil, translatePQError(err, "failed to create movie")
	}
	s.logger.InfoContext(ctx, "Movie created successfully in DB", slog.Int64("movieId", movie.MovieID))
	return &movie, nil
}

// Update заменяет все четыре поля и обновляет updatedAt одним запросом.
func (s *PostgresMovieStore) Update(ctx context.Context, id int64, fields domain.MovieFields) (*domain.Movie, error) {
	query := `UPDATE "movies"
                 SET "updatedAt" = now(),
                     "title" = $1,
                     "summary" = $2,
                     "imdbLink" = $3,
                     "rating" = $4
               WHERE "movieId" = $5
           RETURNING ` + movieColumns

	var movie domain.Movie
	s.logger.DebugContext(ctx, "Executing Update movie query", slog.Int64("movieId", id))
	err := s.db.GetContext(ctx, &movie, query, fields.Title, fields.Summary, fields.ImdbLink, fields.Rating, id)
	if err != nil {
		return nil, s.rowError(ctx, "update movie", id, err)
	}
	s.logger.InfoContext(ctx, "Movie updated successfully in DB", slog.Int64("movieId", id))
	return &movie, nil
}

// Delete удаляет строку и возвращает удаленные данные.
func (s *PostgresMovieStore) Delete(ctx context.Context, id int64) (*domain.Movie, error) {
	query := `DELETE FROM "movies" WHERE "movieId" = $1 RETURNING ` + movieColumns

	var movie domain.Movie
	s.logger.DebugContext(ctx, "Executing Delete movie query", slog.Int64("movieId", id))
	if err := s.db.GetContext(ctx, &movie, query, id); err != nil {
		return nil, s.rowError(ctx, "delete movie", id, err)
	}
	s.logger.InfoContext(ctx, "Movie deleted successfully from DB", slog.Int64("movieId", id))
	return &movie, nil
}

// Ping проверяет соединение с базой.
func (s *PostgresMovieStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close закрывает пул соединений.
func (s *PostgresMovieStore) Close() error {
	return s.db.Close()
}

func (s *PostgresMovieStore) rowError(ctx context.Context, op string, id int64, err error) error {
	if errors.Is(err, sql.ErrNoRows) || idOutOfRange(err) {
		s.logger.WarnContext(ctx, "No movie row matched", slog.String("op", op), slog.Int64("movieId", id))
		return ErrMovieNotFound
	}
	s.logger.ErrorContext(ctx, "Movie query failed", slog.String("op", op), slog.Int64("movieId", id), slog.String("error", err.Error()))
	return translatePQError(err, "failed to "+op)
}

// idOutOfRange: id не помещается в тип колонки "movieId", такой строки быть не может
func idOutOfRange(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqNumericValueOutOfRange
}

// translatePQError превращает ошибки ограничений в клиентские (400), остальное оборачивает.
func translatePQError(err error, msg string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqCheckViolation:
			if strings.Contains(pqErr.Constraint, "rating") {
				return errs.BadRequest(domain.MsgRatingRange)
			}
			return errs.BadRequest("movie data violates a table constraint")
		case pqInvalidTextRepresentation:
			return errs.BadRequest("invalid movie data")
		}
	}
	return fmt.Errorf("%s: %w", msg, err)
}

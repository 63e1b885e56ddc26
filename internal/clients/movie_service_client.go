// movies-api/internal/clients/movie_service_client.go
package clients

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"movies-api/internal/domain"
	moviegrpc "movies-api/internal/grpc"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const callTimeout = 3 * time.Second

// MovieServiceClient определяет методы для взаимодействия с MovieLookup.
type MovieServiceClient interface {
	CheckMovieExists(ctx context.Context, movieID int64) (bool, error)
	GetMovieInfo(ctx context.Context, movieID int64) (*domain.Movie, error)
	Close() error
}

// movieServiceGRPCClient реализует MovieServiceClient с использованием gRPC.
type movieServiceGRPCClient struct {
	conn   *grpc.ClientConn
	logger *slog.Logger
}

// NewMovieServiceGRPCClient создает новый gRPC клиент (соединение устанавливается лениво).
func NewMovieServiceGRPCClient(addr string, logger *slog.Logger, opts ...grpc.DialOption) (MovieServiceClient, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create movie service client for %s: %w", addr, err)
	}
	logger.Info("MovieLookup gRPC client created", slog.String("address", addr))
	return &movieServiceGRPCClient{conn: conn, logger: logger}, nil
}

// CheckMovieExists вызывает gRPC метод CheckMovieExists.
func (c *movieServiceGRPCClient) CheckMovieExists(ctx context.Context, movieID int64) (bool, error) {
	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	res := new(wrapperspb.BoolValue)
	if err := c.conn.Invoke(callCtx, moviegrpc.CheckMovieExistsMethod, wrapperspb.Int64(movieID), res); err != nil {
		c.logCallError(ctx, "CheckMovieExists", movieID, err)
		return false, fmt.Errorf("grpc CheckMovieExists failed for movieId %d: %w", movieID, err)
	}
	return res.GetValue(), nil
}

// GetMovieInfo вызывает gRPC метод GetMovieInfo и собирает доменную модель.
func (c *movieServiceGRPCClient) GetMovieInfo(ctx context.Context, movieID int64) (*domain.Movie, error) {
	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	res := new(structpb.Struct)
	if err := c.conn.Invoke(callCtx, moviegrpc.GetMovieInfoMethod, wrapperspb.Int64(movieID), res); err != nil {
		c.logCallError(ctx, "GetMovieInfo", movieID, err)
		return nil, fmt.Errorf("grpc GetMovieInfo failed for movieId %d: %w", movieID, err)
	}
	return structToMovie(res)
}

// Close закрывает gRPC соединение.
func (c *movieServiceGRPCClient) Close() error {
	if c.conn != nil {
		c.logger.Info("Closing gRPC connection to MovieLookup")
		return c.conn.Close()
	}
	return nil
}

func (c *movieServiceGRPCClient) logCallError(ctx context.Context, method string, movieID int64, err error) {
	st, _ := status.FromError(err)
	c.logger.ErrorContext(ctx, "MovieLookup gRPC call failed",
		slog.String("method", method),
		slog.Int64("movieId", movieID),
		slog.String("code", st.Code().String()),
		slog.String("message", st.Message()))
}

func structToMovie(s *structpb.Struct) (*domain.Movie, error) {
	f := s.GetFields()
	movie := &domain.Movie{
		MovieID:  int64(f["movieId"].GetNumberValue()),
		Title:    f["title"].GetStringValue(),
		Summary:  f["summary"].GetStringValue(),
		ImdbLink: f["imdbLink"].GetStringValue(),
		Rating:   int(f["rating"].GetNumberValue()),
	}
	var err error
	if movie.CreatedAt, err = time.Parse(time.RFC3339Nano, f["createdAt"].GetStringValue()); err != nil {
		return nil, fmt.Errorf("invalid createdAt in movie info: %w", err)
	}
	if movie.UpdatedAt, err = time.Parse(time.RFC3339Nano, f["updatedAt"].GetStringValue()); err != nil {
		return nil, fmt.Errorf("invalid updatedAt in movie info: %w", err)
	}
	return movie, nil
}

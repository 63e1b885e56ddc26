// movies-api/internal/grpc/server.go
package grpc

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"movies-api/internal/domain"
	"movies-api/internal/store"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Имена сервиса и методов. Сообщения - well-known типы protobuf, поэтому код генерировать не нужно.
const (
	ServiceName            = "movies.v1.MovieLookup"
	GetMovieInfoMethod     = "/" + ServiceName + "/GetMovieInfo"
	CheckMovieExistsMethod = "/" + ServiceName + "/CheckMovieExists"
)

// MovieLookupServer - контракт gRPC сервиса поиска фильмов
type MovieLookupServer interface {
	GetMovieInfo(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error)
	CheckMovieExists(ctx context.Context, req *wrapperspb.Int64Value) (*wrapperspb.BoolValue, error)
}

// Server реализует MovieLookupServer поверх MovieStore
type Server struct {
	store  store.MovieStore
	logger *slog.Logger
}

// NewServer создает новый экземпляр gRPC сервера.
func NewServer(movieStore store.MovieStore, logger *slog.Logger) *Server {
	return &Server{
		store:  movieStore,
		logger: logger,
	}
}

// Register регистрирует сервис на gRPC сервере.
func Register(s grpc.ServiceRegistrar, srv MovieLookupServer) {
	s.RegisterService(&movieLookupServiceDesc, srv)
}

// MovieToStruct преобразует доменную модель фильма в google.protobuf.Struct
func MovieToStruct(movie *domain.Movie) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"movieId":   movie.MovieID,
		"title":     movie.Title,
		"summary":   movie.Summary,
		"imdbLink":  movie.ImdbLink,
		"rating":    movie.Rating,
		"createdAt": movie.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updatedAt": movie.UpdatedAt.UTC().Format(time.RFC3339Nano),
	})
}

// GetMovieInfo реализует gRPC метод GetMovieInfo.
func (s *Server) GetMovieInfo(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	id := req.GetValue()
	s.logger.InfoContext(ctx, "gRPC GetMovieInfo called", slog.Int64("movieId", id))

	if id < 1 {
		return nil, status.Errorf(codes.InvalidArgument, "movieId must be a positive integer")
	}

	movie, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrMovieNotFound) {
			s.logger.WarnContext(ctx, "Movie not found by ID for GetMovieInfo", slog.Int64("movieId", id))
			return nil, status.Errorf(codes.NotFound, "cannot find movie with movieId %d", id)
		}
		s.logger.ErrorContext(ctx, "Failed to get movie by ID from store for GetMovieInfo", slog.Int64("movieId", id), slog.String("error", err.Error()))
		return nil, status.Error(codes.Internal, "failed to retrieve movie details")
	}

	info, err := MovieToStruct(movie)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to convert movie to struct", slog.Int64("movieId", id), slog.String("error", err.Error()))
		return nil, status.Error(codes.Internal, "failed to encode movie details")
	}
	return info, nil
}

// CheckMovieExists реализует gRPC метод CheckMovieExists.
func (s *Server) CheckMovieExists(ctx context.Context, req *wrapperspb.Int64Value) (*wrapperspb.BoolValue, error) {
	id := req.GetValue()
	s.logger.InfoContext(ctx, "gRPC CheckMovieExists called", slog.Int64("movieId", id))

	if id < 1 {
		return wrapperspb.Bool(false), nil
	}

	_, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrMovieNotFound) {
			return wrapperspb.Bool(false), nil
		}
		s.logger.ErrorContext(ctx, "Failed to check movie existence from store", slog.Int64("movieId", id), slog.String("error", err.Error()))
		return nil, status.Error(codes.Internal, "failed to check movie existence")
	}
	return wrapperspb.Bool(true), nil
}

func getMovieInfoHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MovieLookupServer).GetMovieInfo(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetMovieInfoMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(MovieLookupServer).GetMovieInfo(ctx, req.(*wrapperspb.Int64Value))
	}
	return interceptor(ctx, in, info, handler)
}

func checkMovieExistsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MovieLookupServer).CheckMovieExists(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CheckMovieExistsMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(MovieLookupServer).CheckMovieExists(ctx, req.(*wrapperspb.Int64Value))
	}
	return interceptor(ctx, in, info, handler)
}

var movieLookupServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MovieLookupServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetMovieInfo", Handler: getMovieInfoHandler},
		{MethodName: "CheckMovieExists", Handler: checkMovieExistsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "movies/v1/movie_lookup.proto",
}

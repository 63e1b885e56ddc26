package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movies-api/internal/domain"
	"movies-api/internal/store"
)

// countingStore считает обращения к хранилищу
type countingStore struct {
	*store.MemoryMovieStore
	calls atomic.Int64
}

func (c *countingStore) List(ctx context.Context) ([]*domain.Movie, error) {
	c.calls.Add(1)
	return c.MemoryMovieStore.List(ctx)
}

func (c *countingStore) Create(ctx context.Context, f domain.MovieFields) (*domain.Movie, error) {
	c.calls.Add(1)
	return c.MemoryMovieStore.Create(ctx, f)
}

func (c *countingStore) Update(ctx context.Context, id int64, f domain.MovieFields) (*domain.Movie, error) {
	c.calls.Add(1)
	return c.MemoryMovieStore.Update(ctx, id, f)
}

func (c *countingStore) Delete(ctx context.Context, id int64) (*domain.Movie, error) {
	c.calls.Add(1)
	return c.MemoryMovieStore.Delete(ctx, id)
}

// brokenStore всегда возвращает ошибку соединения
type brokenStore struct {
	*store.MemoryMovieStore
}

var errConnRefused = errors.New("dial tcp 10.0.0.5:5432: connection refused")

func (brokenStore) List(context.Context) ([]*domain.Movie, error) { return nil, errConnRefused }
func (brokenStore) Create(context.Context, domain.MovieFields) (*domain.Movie, error) {
	return nil, errConnRefused
}
func (brokenStore) Ping(context.Context) error { return errConnRefused }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, s store.MovieStore) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewRouter(NewMovieHandler(s, testLogger(), validator.New())))
	t.Cleanup(srv.Close)
	return srv
}

func newCountingStore() *countingStore {
	return &countingStore{MemoryMovieStore: store.NewMemoryMovieStore(testLogger())}
}

func doRequest(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rdr)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func errorMessage(t *testing.T, resp *http.Response) string {
	t.Helper()
	return decodeBody[map[string]string](t, resp)["error"]
}

const inceptionBody = `{"title":"Inception","summary":"A thief steals secrets through dreams","imdbLink":"https://imdb.com/tt1375666","rating":5}`

func TestCreateMovie(t *testing.T) {
	srv := newTestServer(t, newCountingStore())

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/movies", inceptionBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")

	movie := decodeBody[domain.Movie](t, resp)
	assert.Equal(t, int64(1), movie.MovieID)
	assert.Equal(t, "Inception", movie.Title)
	assert.Equal(t, 5, movie.Rating)
	assert.False(t, movie.CreatedAt.IsZero())
}

func TestCreateMovieJSONFieldNames(t *testing.T) {
	srv := newTestServer(t, newCountingStore())

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/movies", inceptionBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	raw := decodeBody[map[string]any](t, resp)
	for _, key := range []string{"movieId", "title", "summary", "imdbLink", "rating", "createdAt", "updatedAt"} {
		assert.Contains(t, raw, key)
	}
}

func TestCreateMovieValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"empty title", `{"title":"","summary":"s","imdbLink":"l","rating":3}`, "title, summary, imdbLink, and rating are required"},
		{"no body", "", "title, summary, imdbLink, and rating are required"},
		{"rating zero", `{"title":"t","summary":"s","imdbLink":"l","rating":0}`, "title, summary, imdbLink, and rating are required"},
		{"rating six", `{"title":"t","summary":"s","imdbLink":"l","rating":6}`, "rating must be an integer 1 to 5"},
		{"rating fractional", `{"title":"t","summary":"s","imdbLink":"l","rating":2.5}`, "rating must be an integer 1 to 5"},
		{"rating string", `{"title":"t","summary":"s","imdbLink":"l","rating":"4"}`, "rating must be an integer 1 to 5"},
		{"malformed json", `{"title":`, "invalid request payload"},
		{"wrong field type", `{"title":123,"summary":"s","imdbLink":"l","rating":3}`, "invalid request payload"},
		{"trailing garbage", inceptionBody + ` garbage`, "invalid request payload"},
		{"two objects", inceptionBody + inceptionBody, "invalid request payload"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newCountingStore()
			srv := newTestServer(t, s)

			resp := doRequest(t, http.MethodPost, srv.URL+"/api/movies", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.msg, errorMessage(t, resp))
			assert.Zero(t, s.calls.Load(), "validation failures must not reach the store")
		})
	}
}

func TestListMoviesEmpty(t *testing.T) {
	srv := newTestServer(t, newCountingStore())

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/movies", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(body))
}

func TestListMoviesOrdered(t *testing.T) {
	srv := newTestServer(t, newCountingStore())
	for i := 0; i < 5; i++ {
		resp := doRequest(t, http.MethodPost, srv.URL+"/api/movies", inceptionBody)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}
	doRequest(t, http.MethodDelete, srv.URL+"/api/movies/2", "")

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/movies", "")
	movies := decodeBody[[]domain.Movie](t, resp)
	require.Len(t, movies, 4)
	for i := 1; i < len(movies); i++ {
		assert.LessOrEqual(t, movies[i-1].MovieID, movies[i].MovieID)
	}
}

func TestUpdateMovie(t *testing.T) {
	srv := newTestServer(t, newCountingStore())
	created := decodeBody[domain.Movie](t, doRequest(t, http.MethodPost, srv.URL+"/api/movies", inceptionBody))

	body := `{"title":"Inception","summary":"Updated","imdbLink":"https://imdb.com/tt1375666","rating":4}`
	resp := doRequest(t, http.MethodPut, srv.URL+"/api/movies/1", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	updated := decodeBody[domain.Movie](t, resp)
	assert.Equal(t, created.MovieID, updated.MovieID)
	assert.Equal(t, 4, updated.Rating)
	assert.Equal(t, "Updated", updated.Summary)
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
}

func TestUpdateMovieNotFound(t *testing.T) {
	s := newCountingStore()
	srv := newTestServer(t, s)
	doRequest(t, http.MethodPost, srv.URL+"/api/movies", inceptionBody)

	resp := doRequest(t, http.MethodPut, srv.URL+"/api/movies/999999", inceptionBody)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "cannot find movie with movieId 999999", errorMessage(t, resp))

	movies, err := s.MemoryMovieStore.List(context.Background())
	require.NoError(t, err)
	require.Len(t, movies, 1)
	assert.Equal(t, "Inception", movies[0].Title)
}

func TestUpdateMovieInvalidID(t *testing.T) {
	for _, id := range []string{"0", "-4", "abc", "1.5"} {
		t.Run(id, func(t *testing.T) {
			s := newCountingStore()
			srv := newTestServer(t, s)

			resp := doRequest(t, http.MethodPut, srv.URL+"/api/movies/"+id, inceptionBody)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, "movieId must be a positive integer", errorMessage(t, resp))
			assert.Zero(t, s.calls.Load())
		})
	}
}

func TestUpdateMovieIDCheckedBeforeBody(t *testing.T) {
	srv := newTestServer(t, newCountingStore())

	resp := doRequest(t, http.MethodPut, srv.URL+"/api/movies/abc", `{"title":""}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "movieId must be a positive integer", errorMessage(t, resp))
}

func TestUpdateMovieInvalidBody(t *testing.T) {
	srv := newTestServer(t, newCountingStore())
	doRequest(t, http.MethodPost, srv.URL+"/api/movies", inceptionBody)

	resp := doRequest(t, http.MethodPut, srv.URL+"/api/movies/1", `{"title":"t","summary":"s","imdbLink":"l","rating":7}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "rating must be an integer 1 to 5", errorMessage(t, resp))
}

func TestDeleteMovie(t *testing.T) {
	srv := newTestServer(t, newCountingStore())
	doRequest(t, http.MethodPost, srv.URL+"/api/movies", inceptionBody)

	resp := doRequest(t, http.MethodDelete, srv.URL+"/api/movies/1", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doRequest(t, http.MethodDelete, srv.URL+"/api/movies/1", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Movie not found", errorMessage(t, resp))
}

func TestDeleteMovieIDValidation(t *testing.T) {
	s := newCountingStore()
	srv := newTestServer(t, s)

	resp := doRequest(t, http.MethodDelete, srv.URL+"/api/movies/abc", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "movieId needs to be a number", errorMessage(t, resp))
	assert.Zero(t, s.calls.Load())

	// знак не проверяется: отрицательный id просто не найден
	resp = doRequest(t, http.MethodDelete, srv.URL+"/api/movies/-3", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, int64(1), s.calls.Load())
}

func TestGetMovie(t *testing.T) {
	srv := newTestServer(t, newCountingStore())
	doRequest(t, http.MethodPost, srv.URL+"/api/movies", inceptionBody)

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/movies/1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Inception", decodeBody[domain.Movie](t, resp).Title)

	resp = doRequest(t, http.MethodGet, srv.URL+"/api/movies/2", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "cannot find movie with movieId 2", errorMessage(t, resp))
}

func TestStoreFailureIsGeneric500(t *testing.T) {
	srv := newTestServer(t, brokenStore{store.NewMemoryMovieStore(testLogger())})

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/movies", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	msg := errorMessage(t, resp)
	assert.Equal(t, "an unexpected error occurred", msg)
	assert.NotContains(t, msg, "10.0.0.5")

	resp = doRequest(t, http.MethodPost, srv.URL+"/api/movies", inceptionBody)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, srv.URL+"/api/healthz", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestHelloAndHealthcheck(t *testing.T) {
	srv := newTestServer(t, newCountingStore())

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/test", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "Hello, world!", string(body))

	resp = doRequest(t, http.MethodGet, srv.URL+"/api/healthz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "available", decodeBody[map[string]string](t, resp)["status"])
}

func TestUnknownRouteAndMethod(t *testing.T) {
	srv := newTestServer(t, newCountingStore())

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/nothing-here", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, errorMessage(t, resp))

	assert.Len(t, resp.Header.Get("X-Request-ID"), 36)

	resp = doRequest(t, http.MethodPatch, srv.URL+"/api/movies/1", `{}`)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Len(t, resp.Header.Get("X-Request-ID"), 36)
}

func TestCreateMovieTrailingWhitespace(t *testing.T) {
	srv := newTestServer(t, newCountingStore())

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/movies", inceptionBody+"\n  \n")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestRequestIDHeader(t *testing.T) {
	srv := newTestServer(t, newCountingStore())

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/movies", "")
	assert.Len(t, resp.Header.Get("X-Request-ID"), 36)
}

func TestEndToEndScenario(t *testing.T) {
	srv := newTestServer(t, newCountingStore())

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/movies", inceptionBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[domain.Movie](t, resp)
	require.NotZero(t, created.MovieID)

	list := decodeBody[[]domain.Movie](t, doRequest(t, http.MethodGet, srv.URL+"/api/movies", ""))
	assert.True(t, containsID(list, created.MovieID))

	time.Sleep(time.Millisecond)
	path := srv.URL + "/api/movies/" + jsonID(created.MovieID)
	resp = doRequest(t, http.MethodPut, path, `{"title":"Inception","summary":"...","imdbLink":"https://imdb.com/tt1375666","rating":4}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeBody[domain.Movie](t, resp)
	assert.Equal(t, 4, updated.Rating)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	resp = doRequest(t, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	list = decodeBody[[]domain.Movie](t, doRequest(t, http.MethodGet, srv.URL+"/api/movies", ""))
	assert.False(t, containsID(list, created.MovieID))
}

func containsID(movies []domain.Movie, id int64) bool {
	for _, m := range movies {
		if m.MovieID == id {
			return true
		}
	}
	return false
}

func jsonID(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}

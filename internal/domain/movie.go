// movies-api/internal/domain/movie.go
package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"movies-api/internal/errs"
)

const (
	MsgFieldsRequired = "title, summary, imdbLink, and rating are required"
	MsgRatingRange    = "rating must be an integer 1 to 5"
)

// Movie представляет доменную модель фильма (строка таблицы movies)
type Movie struct {
	MovieID   int64     `json:"movieId" db:"movieId"`
	Title     string    `json:"title" db:"title"`
	Summary   string    `json:"summary" db:"summary"`
	ImdbLink  string    `json:"imdbLink" db:"imdbLink"`
	Rating    int       `json:"rating" db:"rating"`
	CreatedAt time.Time `json:"createdAt" db:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" db:"updatedAt"`
}

// MovieFields - провалидированные пользовательские поля, которые передаются в хранилище
type MovieFields struct {
	Title    string
	Summary  string
	ImdbLink string
	Rating   int
}

// MovieInput - тело запроса для POST /api/movies и PUT /api/movies/{movieId}.
// Rating хранится как есть, чтобы отличать отсутствующее значение от нецелого.
type MovieInput struct {
	Title    string          `json:"title" validate:"required"`
	Summary  string          `json:"summary" validate:"required"`
	ImdbLink string          `json:"imdbLink" validate:"required"`
	Rating   json.RawMessage `json:"rating"`
}

// Validate проверяет тело запроса. Порядок важен: сначала обязательные поля, потом диапазон рейтинга.
func (in MovieInput) Validate(v *validator.Validate) (MovieFields, error) {
	if err := v.Struct(in); err != nil || ratingIsFalsy(in.Rating) {
		return MovieFields{}, errs.BadRequest(MsgFieldsRequired)
	}

	rating, ok := parseIntegerRating(in.Rating)
	if !ok {
		return MovieFields{}, errs.BadRequest(MsgRatingRange)
	}
	if err := v.Var(rating, "gte=1,lte=5"); err != nil {
		return MovieFields{}, errs.BadRequest(MsgRatingRange)
	}

	return MovieFields{
		Title:    in.Title,
		Summary:  in.Summary,
		ImdbLink: in.ImdbLink,
		Rating:   rating,
	}, nil
}

// ratingIsFalsy: отсутствует, null, false, 0 или пустая строка
func ratingIsFalsy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	switch string(raw) {
	case "", "null", "false", `""`:
		return true
	}
	if f, err := strconv.ParseFloat(string(raw), 64); err == nil && f == 0 {
		return true
	}
	return false
}

// parseIntegerRating принимает только JSON-числа с целым значением (5 и 5.0, но не 2.5 и не "5")
func parseIntegerRating(raw json.RawMessage) (int, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || !(raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9')) {
		return 0, false
	}
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt32 || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

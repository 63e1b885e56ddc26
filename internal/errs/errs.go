// movies-api/internal/errs/errs.go

// Package errs содержит клиентские ошибки с явным HTTP статусом.
// Всё, что не является *ClientError, считается внутренней ошибкой (500).
package errs

import (
	"errors"
	"net/http"
)

// ClientError - ошибка, вызванная данными клиента (400) или отсутствием ресурса (404)
type ClientError struct {
	Status  int
	Message string
}

func (e *ClientError) Error() string {
	return e.Message
}

// BadRequest создает ошибку 400 с сообщением для клиента
func BadRequest(message string) *ClientError {
	return &ClientError{Status: http.StatusBadRequest, Message: message}
}

// NotFound создает ошибку 404 с сообщением для клиента
func NotFound(message string) *ClientError {
	return &ClientError{Status: http.StatusNotFound, Message: message}
}

// AsClientError достает *ClientError из цепочки ошибок
func AsClientError(err error) (*ClientError, bool) {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

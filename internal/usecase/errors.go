package usecase

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

type HTTPError struct {
	Status  int
	Message string
	//500のときの原因（レスポンスには出さずログへ）
	Cause error
	//429のときRetry-Afterヘッダへ
	RetryAfter time.Duration
}

func (e *HTTPError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%d: %s: %v", e.Status, e.Message, e.Cause)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func (e *HTTPError) Unwrap() error {
	return e.Cause
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func internalError(cause error) error {
	return &HTTPError{
		Status:  http.StatusInternalServerError,
		Message: "db error",
		Cause:   cause,
	}
}

func newRateLimitedError(retryAfter time.Duration) error {
	return &HTTPError{
		Status:     http.StatusTooManyRequests,
		Message:    "too many attempts, try again later",
		RetryAfter: retryAfter,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

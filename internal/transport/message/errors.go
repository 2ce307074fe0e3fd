package message

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/heartmarshall/study-helper/internal/domain"
)

// Error codes carried in failed HTTP responses.
const (
	CodeUnsupported = "unsupported"
	CodeValidation  = "validation"
	CodeNotFound    = "not_found"
	CodeStorage     = "storage"
	CodeInternal    = "internal"
)

// ErrorBody is the JSON body of a failed HTTP response.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Classify maps an error to its HTTP status and code.
func Classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrUnsupported):
		return http.StatusBadRequest, CodeUnsupported
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity, CodeValidation
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, domain.ErrStorage):
		return http.StatusInternalServerError, CodeStorage
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// RemoteError is a failure reported by the other side of an HTTP
// messenger. It matches the domain sentinel of its code.
type RemoteError struct {
	Status  int
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote: %d %s: %s", e.Status, e.Code, e.Message)
}

func (e *RemoteError) Is(target error) bool {
	switch e.Code {
	case CodeUnsupported:
		return target == domain.ErrUnsupported
	case CodeValidation:
		return target == domain.ErrValidation
	case CodeNotFound:
		return target == domain.ErrNotFound
	case CodeStorage:
		return target == domain.ErrStorage
	}
	return false
}

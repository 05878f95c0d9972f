package api

import (
	"errors"
	"net/http"

	repository "github.com/okian/eventrank/internal/adapters/repository"
	model "github.com/okian/eventrank/internal/domain/model"
	"github.com/okian/eventrank/internal/domain/scoring"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest     = errors.New("bad request")
	ErrNotFound       = errors.New("not found")
	ErrInvalidWeights = errors.New("invalid weights")
	ErrInternal       = errors.New("internal error")
)

// Error is an API failure tagged with the operation that produced it and a kind
// that decides the response status.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err == nil:
		return e.Op + ": " + e.Kind.Error()
	case e.Kind == nil:
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + ": " + e.Kind.Error() + ": " + e.Err.Error()
}

// Unwrap exposes both the kind and the cause to errors.Is.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewKind returns an error of kind raised by op.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// WrapKind tags err with op and kind.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// Wrap tags err with op and a kind inferred from the domain sentinels.
func Wrap(op string, err error) error {
	return &Error{Op: op, Kind: kindOf(err), Err: err}
}

func kindOf(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrInvalidLimit), errors.Is(err, model.ErrMalformedRecord):
		return ErrBadRequest
	case errors.Is(err, scoring.ErrInvalidWeightConfig):
		return ErrInvalidWeights
	default:
		return ErrInternal
	}
}

// statusOf maps an error kind to a status code and a response code string.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrInvalidWeights):
		return http.StatusUnprocessableEntity, "invalid_weights"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"asd-screening-service/internal/domain"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type errorPayload struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorPayload{Message: err.Error()})
}

func statusFor(err error) int {
	var verrs validator.ValidationErrors
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrBankNotFound),
		errors.Is(err, domain.ErrFlowNotFound),
		errors.Is(err, domain.ErrUnknownActivity),
		errors.Is(err, domain.ErrControllerNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrQuestionnaireComplete),
		errors.Is(err, domain.ErrQuestionnaireInProgress),
		errors.Is(err, domain.ErrAlreadyRunning),
		errors.Is(err, domain.ErrSessionBusy),
		errors.Is(err, domain.ErrSessionRunning):
		return http.StatusConflict
	case errors.Is(err, domain.ErrOptionNotFound):
		return http.StatusUnprocessableEntity
	case errors.As(err, &verrs),
		errors.As(err, &syntaxErr),
		errors.As(err, &typeErr),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// decode reads a JSON body into dst and validates it.
func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return validate.Struct(dst)
}

package handlers

import (
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"
)

// errorBody is the JSON shape of every failed budget API call.
type errorBody struct {
	Error   string         `json:"error"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorJSON writes {"error": message} with the given status.
func ErrorJSON(e *core.RequestEvent, statusCode int, message string) error {
	return e.JSON(statusCode, errorBody{Error: message})
}

// ValidationErrorJSON writes a 400 with one entry per invalid field. Errors
// that are not field errors are reported as a plain 400.
func ValidationErrorJSON(e *core.RequestEvent, err error) error {
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return ErrorJSON(e, http.StatusBadRequest, err.Error())
	}
	return e.JSON(http.StatusBadRequest, errorBody{
		Error:   "invalid scenario",
		Details: flattenValidation(verrs),
	})
}

// validationDetails renders err for the details object of an error body.
func validationDetails(err error) any {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return flattenValidation(verrs)
	}
	return err.Error()
}

// flattenValidation turns nested ozzo errors into plain strings and maps
// that encode as JSON.
func flattenValidation(verrs validation.Errors) map[string]any {
	out := make(map[string]any, len(verrs))
	for field, err := range verrs {
		var nested validation.Errors
		if errors.As(err, &nested) {
			out[field] = flattenValidation(nested)
			continue
		}
		out[field] = err.Error()
	}
	return out
}

// internalError logs err and writes a generic 500.
func internalError(e *core.RequestEvent, op string, err error) error {
	zap.S().Errorw(op, "error", err, "path", e.Request.URL.Path, "run_id", GetRunID(e.Request))
	return ErrorJSON(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
}

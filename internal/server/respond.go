package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/canvasnote/canvasnote/pkg/errors"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	body := errorBody{
		Code:    string(code),
		Message: errors.UserMessage(err),
	}
	if body.Code == "" {
		body.Code = string(errors.ErrCodeInternal)
	}
	var e *errors.Error
	if stderrors.As(err, &e) && e.Hint != "" {
		body.Hint = e.Hint
		body.Message = e.Message
	}
	writeJSON(w, statusFor(code), body)
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidCellType, errors.ErrCodeInvalidGeometry,
		errors.ErrCodeInvalidNotebook, errors.ErrCodeInvalidLayout, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeCellNotFound, errors.ErrCodeDocumentNotFound,
		errors.ErrCodeDirNotFound:
		return http.StatusNotFound
	case errors.ErrCodePermissionDenied:
		return http.StatusForbidden
	case errors.ErrCodeNotADirectory, errors.ErrCodeExecInFlight:
		return http.StatusConflict
	case errors.ErrCodeExecFailed:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeNetwork:
		return http.StatusBadGateway
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

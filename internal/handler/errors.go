package handler

import (
	"errors"
	"net/http"

	"github.com/stemsi/exstem-proctor/internal/response"
	"github.com/stemsi/exstem-proctor/internal/service"
)

// classify maps a session error onto an HTTP status, an error code and the
// field messages carried by validation failures.
func classify(err error) (int, response.ErrCode, map[string]string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, response.ErrValidation, verr.Fields
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, response.ErrValidation, nil
	case errors.Is(err, service.ErrState):
		return http.StatusConflict, response.ErrInvalidState, nil
	default:
		return http.StatusInternalServerError, response.ErrInternal, nil
	}
}

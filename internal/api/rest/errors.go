package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wennersten/mbsim/internal/device"
	"github.com/wennersten/mbsim/internal/registers"
	"github.com/wennersten/mbsim/internal/transport"
)

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// NewErrorResponse builds a consistent API error payload.
// details can be string, map, struct, etc.
func NewErrorResponse(code, message string, details any) ErrorResponse {
	return ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// writeError maps domain errors onto HTTP status codes and the shared
// payload shape. Unknown errors become 500s.
func writeError(c *gin.Context, err error) {
	var (
		dupAddr *registers.DuplicateAddressError
		unkAddr *registers.UnknownAddressError
		dupID   *device.DuplicateIDError
		unkID   *device.UnknownIDError
		invID   *device.InvalidIDError
		dupName *transport.DuplicateTransportError
		unkName *transport.UnknownTransportError
		bindErr *transport.BindError
	)

	switch {
	case errors.As(err, &dupAddr):
		c.JSON(http.StatusConflict, NewErrorResponse("duplicate_address", err.Error(),
			gin.H{"address": dupAddr.Address}))
	case errors.As(err, &unkAddr):
		c.JSON(http.StatusNotFound, NewErrorResponse("unknown_address", err.Error(),
			gin.H{"address": unkAddr.Address}))
	case errors.As(err, &dupID):
		c.JSON(http.StatusConflict, NewErrorResponse("duplicate_device", err.Error(),
			gin.H{"device_id": dupID.ID}))
	case errors.As(err, &unkID):
		c.JSON(http.StatusNotFound, NewErrorResponse("unknown_device", err.Error(),
			gin.H{"device_id": unkID.ID}))
	case errors.As(err, &invID):
		c.JSON(http.StatusBadRequest, NewErrorResponse("invalid_device_id", err.Error(),
			gin.H{"device_id": invID.ID}))
	case errors.As(err, &dupName):
		c.JSON(http.StatusConflict, NewErrorResponse("duplicate_transport", err.Error(),
			gin.H{"name": dupName.Name}))
	case errors.As(err, &unkName):
		c.JSON(http.StatusNotFound, NewErrorResponse("unknown_transport", err.Error(),
			gin.H{"name": unkName.Name}))
	case errors.As(err, &bindErr):
		c.JSON(http.StatusConflict, NewErrorResponse("bind_failed", err.Error(),
			gin.H{"kind": string(bindErr.Kind), "address": bindErr.Address}))
	default:
		c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", err.Error(), nil))
	}
}

func writeBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", message, nil))
}

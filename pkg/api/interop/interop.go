package interop

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// APIResponse is the envelope used both by this service and by the
// DataProtector gateway.
type APIResponse[E any] struct {
	Success bool    `json:"success"`
	Data    E       `json:"data,omitempty"`
	Error   *string `json:"error,omitempty"`
}

func NewResponse[E any](data E) *APIResponse[E] {
	return &APIResponse[E]{Success: true, Data: data}
}

func NewErrorResponse(err any) *APIResponse[any] {
	message := fmt.Sprintf("%s", err)
	return &APIResponse[any]{Success: false, Error: &message}
}

// Err converts an unsuccessful envelope into a fiber.Error carrying status.
func (r *APIResponse[E]) Err(status int) error {
	if r.Success && status >= 200 && status < 400 {
		return nil
	} else if r.Error != nil {
		return fiber.NewError(status, *r.Error)
	} else if !r.Success {
		return fiber.NewError(status, "unknown error")
	} else {
		return fiber.NewError(status, fmt.Sprintf("unexpected status %d", status))
	}
}

// StatusCode returns the HTTP status carried by err, or 500.
func StatusCode(err error) int {
	var e *fiber.Error
	if errors.As(err, &e) {
		return e.Code
	}
	return fiber.StatusInternalServerError
}

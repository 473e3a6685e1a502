package utils

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/landlord-propsdb/internal/store"
)

// SuccessResponse sends a standard success response
func SuccessResponse(c *fiber.Ctx, data interface{}, status int) error {
	return c.Status(status).JSON(data)
}

// RowsResponse sends a JSON array of rows that is already encoded
func RowsResponse(c *fiber.Ctx, rows []byte, status int) error {
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(status).Send(rows)
}

// ErrorResponse sends a standard error response
func ErrorResponse(c *fiber.Ctx, message string, status int, errorType string) error {
	return c.Status(status).JSON(ErrorResponseStruct{
		Status:    status,
		Message:   message,
		Ok:        false,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		URL:       c.OriginalURL(),
		Type:      errorType,
	})
}

// NotFoundResponse sends a 404 error response
func NotFoundResponse(c *fiber.Ctx, message string) error {
	return ErrorResponse(c, message, fiber.StatusNotFound, store.TypeNotFound)
}

// StoreErrorResponse sends the error response for a store error.
// The store's message is sent verbatim.
func StoreErrorResponse(c *fiber.Ctx, err error) error {
	return ErrorResponse(c, err.Error(), store.StatusOf(err), store.TypeOf(err))
}

// ErrorResponseStruct is the error envelope, for swagger
type ErrorResponseStruct struct {
	Status    int    `json:"status"`
	Message   string `json:"message"`
	Ok        bool   `json:"ok"`
	Timestamp string `json:"timestamp"`
	URL       string `json:"url"`
	Type      string `json:"type,omitempty"`
}

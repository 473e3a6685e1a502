package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/landlord-propsdb/internal/logging"
	"github.com/localnerve/landlord-propsdb/internal/middleware"
	"github.com/localnerve/landlord-propsdb/internal/services"
	"github.com/localnerve/landlord-propsdb/internal/store"
	"github.com/localnerve/landlord-propsdb/internal/store/gormstore"
	"github.com/localnerve/landlord-propsdb/internal/utils"
)

// Register mounts the table and auth routes
func Register(app fiber.Router, tables *gormstore.Client, auth services.Authenticator) {
	h := &TableHandler{Store: tables}
	authUser := middleware.AuthUser(auth)

	rest := app.Group("/rest/v1", authUser)
	rest.Get("/:table", h.Select)
	rest.Post("/:table", h.Insert)
	rest.Patch("/:table", h.Update)
	rest.Delete("/:table", h.Delete)

	app.Get("/auth/v1/user", authUser, CurrentUser)
}

// NotFound is the trailing 404 handler
func NotFound(c *fiber.Ctx) error {
	return utils.NotFoundResponse(c, "[404] Resource Not Found")
}

// ErrorHandler handles errors returned by handlers and middleware
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()
	errorType := store.TypeInternal

	var fe *fiber.Error
	var se *store.Error
	switch {
	case errors.As(err, &se):
		code, message, errorType = se.Status, se.Message, se.Type
	case errors.As(err, &fe):
		code, message = fe.Code, fe.Message
		errorType = ""
	}

	if code >= fiber.StatusInternalServerError {
		logging.Logger.WithField("url", c.OriginalURL()).Errorf("request failed: %v", err)
	}
	return utils.ErrorResponse(c, message, code, errorType)
}

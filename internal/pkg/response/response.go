package response

import (
	"github.com/gofiber/fiber/v2"
)

// SuccessBody is the JSON shape of every 2xx response.
type SuccessBody struct {
	Status   string      `json:"status"`
	Message  string      `json:"message"`
	Data     interface{} `json:"data"`
	Metadata interface{} `json:"metadata,omitempty"`
}

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Status string      `json:"status"`
	Error  ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Message    string      `json:"message"`
	StatusCode int         `json:"statusCode"`
	Details    interface{} `json:"details,omitempty"`
}

// PageMeta is the metadata attached to paginated lists.
type PageMeta struct {
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

const (
	statusSuccess = "success"
	statusError   = "error"
)

func send(c *fiber.Ctx, code int, message string, data, metadata interface{}) error {
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	return c.Status(code).JSON(SuccessBody{
		Status:   statusSuccess,
		Message:  message,
		Data:     data,
		Metadata: metadata,
	})
}

// Success sends 200 with the success envelope.
func Success(c *fiber.Ctx, message string, data interface{}, metadata interface{}) error {
	return send(c, fiber.StatusOK, message, data, metadata)
}

// SuccessCreated sends 201 with the success envelope.
func SuccessCreated(c *fiber.Ctx, message string, data interface{}, metadata interface{}) error {
	return send(c, fiber.StatusCreated, message, data, metadata)
}

// Page sends 200 with pagination metadata.
func Page(c *fiber.Ctx, message string, data interface{}, total int64, limit, offset int) error {
	return send(c, fiber.StatusOK, message, data, PageMeta{Total: total, Limit: limit, Offset: offset})
}

// Error sends statusCode with the error envelope.
func Error(c *fiber.Ctx, message string, statusCode int, details interface{}) error {
	if details == nil {
		details = map[string]interface{}{}
	}
	return c.Status(statusCode).JSON(ErrorBody{
		Status: statusError,
		Error: ErrorDetail{
			Message:    message,
			StatusCode: statusCode,
			Details:    details,
		},
	})
}

// Unauthorized sends 401. Auth middleware uses it so every rejection has the same shape.
func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, message, fiber.StatusUnauthorized, nil)
}

// Invalid sends 400 "Validation failed" with per-field details.
func Invalid(c *fiber.Ctx, fields map[string]string) error {
	return Error(c, "Validation failed", fiber.StatusBadRequest, fields)
}

// BadBody sends 400 for a request body that could not be parsed.
func BadBody(c *fiber.Ctx) error {
	return Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
}

// Internal sends 500 without leaking the underlying error.
func Internal(c *fiber.Ctx) error {
	return Error(c, "Internal server error", fiber.StatusInternalServerError, nil)
}

// internal/pkg/response/response.go
package response

import (
	"net/http"

	xerrors "auth-service/internal/pkg/errors"

	"github.com/gin-gonic/gin"
)

// Response is the envelope every JSON answer is wrapped in.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Success writes data under a success envelope; status 0 means 200.
func Success(c *gin.Context, status int, message string, data any) {
	if status == 0 {
		status = http.StatusOK
	}
	c.JSON(status, Response{Success: true, Message: message, Data: data})
}

// NoContent answers 204 with an empty body.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error aborts the chain and writes a failure envelope. err, when given,
// is exposed to the client as the error field.
func Error(c *gin.Context, status int, message string, err error) {
	c.Abort()

	body := Response{Message: message}
	if err != nil {
		body.Error = err.Error()
	}
	c.JSON(status, body)
}

// FromError maps err onto its HTTP status. Authentication failures and
// server-side errors never carry the underlying detail to the client.
func FromError(c *gin.Context, message string, err error) {
	status := xerrors.HTTPStatus(err)
	if status == http.StatusUnauthorized || status >= http.StatusInternalServerError {
		err = nil
	}
	Error(c, status, message, err)
}

func ValidationError(c *gin.Context, message string, err error) {
	Error(c, http.StatusBadRequest, message, err)
}

func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message, nil)
}

func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, message, nil)
}

func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message, nil)
}

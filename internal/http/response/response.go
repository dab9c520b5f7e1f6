package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/inkforge-backend/internal/platform/apierr"
)

type APIError struct {
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

const errorCodeKey = "inkforge.error_code"

func writeError(c *gin.Context, status int, body APIError) {
	c.Set(errorCodeKey, body.Code)
	c.JSON(status, ErrorEnvelope{Error: body})
}

// ErrorCode returns the envelope code written for this request, if any.
func ErrorCode(c *gin.Context) (string, bool) {
	code := c.GetString(errorCodeKey)
	return code, code != ""
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	writeError(c, status, APIError{Message: msg, Code: code})
}

// RespondAPIError renders service errors. Anything that is not an *apierr.Error is
// reported as a generic retryable 500 so internal details never reach the client.
func RespondAPIError(c *gin.Context, err error) {
	_ = c.Error(err)
	ae, ok := apierr.As(err)
	if !ok {
		writeError(c, http.StatusInternalServerError, APIError{Message: "internal error", Code: "internal", Retryable: true})
		return
	}
	status := ae.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	writeError(c, status, APIError{Message: ae.Error(), Code: ae.Code, Retryable: ae.Retryable})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

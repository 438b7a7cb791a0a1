package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the unified API envelope. Successful calls carry Message and
// Data, failed calls carry Error.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// AppError is an error that knows its HTTP status.
type AppError struct {
	HTTPStatus int
	Code       int
	Message    string
}

func (e *AppError) Error() string {
	return e.Message
}

func newAppError(status int, msg string) *AppError {
	return &AppError{HTTPStatus: status, Code: status, Message: msg}
}

func NewBadRequest(msg string) *AppError {
	return newAppError(http.StatusBadRequest, msg)
}

func NewUnauthorized(msg string) *AppError {
	return newAppError(http.StatusUnauthorized, msg)
}

func NewForbidden(msg string) *AppError {
	return newAppError(http.StatusForbidden, msg)
}

func NewNotFound(msg string) *AppError {
	return newAppError(http.StatusNotFound, msg)
}

func NewTooManyRequests(msg string) *AppError {
	return newAppError(http.StatusTooManyRequests, msg)
}

func NewServerError(msg string) *AppError {
	return newAppError(http.StatusInternalServerError, msg)
}

// NewUnavailable is used when the database cannot be reached.
func NewUnavailable(msg string) *AppError {
	return newAppError(http.StatusServiceUnavailable, msg)
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "ok",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    0,
		Message: "created",
		Data:    data,
	})
}

// Error writes err. An *AppError keeps its status and message; anything else
// becomes a 500 with a generic message so internals are not leaked.
func Error(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		fail(c, appErr.HTTPStatus, appErr.Message)
		return
	}
	_ = c.Error(err)
	fail(c, http.StatusInternalServerError, "internal server error")
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, Response{Code: status, Error: msg})
}

// Abort writes an error envelope and stops the handler chain.
func Abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Response{Code: status, Error: msg})
}

func BadRequest(c *gin.Context, msg string) {
	fail(c, http.StatusBadRequest, msg)
}

func Unauthorized(c *gin.Context, msg string) {
	fail(c, http.StatusUnauthorized, msg)
}

func Forbidden(c *gin.Context, msg string) {
	fail(c, http.StatusForbidden, msg)
}

func NotFound(c *gin.Context, msg string) {
	fail(c, http.StatusNotFound, msg)
}

func ServerError(c *gin.Context, msg string) {
	fail(c, http.StatusInternalServerError, msg)
}

package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AppError is a classified application error carrying the HTTP status it
// should surface as. Services return AppErrors; handlers render them with
// Fail without inspecting the domain failure further.
type AppError struct {
	Status  int
	Message string
	Errors  interface{} // optional detail, e.g. field validation messages
}

func (e *AppError) Error() string {
	return e.Message
}

func BadRequest(msg string) *AppError {
	return &AppError{Status: http.StatusBadRequest, Message: msg}
}

func BadRequestWith(msg string, detail interface{}) *AppError {
	return &AppError{Status: http.StatusBadRequest, Message: msg, Errors: detail}
}

func Unauthorized(msg string) *AppError {
	return &AppError{Status: http.StatusUnauthorized, Message: msg}
}

func Forbidden(msg string) *AppError {
	return &AppError{Status: http.StatusForbidden, Message: msg}
}

func NotFound(msg string) *AppError {
	return &AppError{Status: http.StatusNotFound, Message: msg}
}

func Conflict(msg string) *AppError {
	return &AppError{Status: http.StatusConflict, Message: msg}
}

func TooManyRequests(msg string) *AppError {
	return &AppError{Status: http.StatusTooManyRequests, Message: msg}
}

func ServerError(msg string) *AppError {
	return &AppError{Status: http.StatusInternalServerError, Message: msg}
}

// OK sends a 200 envelope. fields are merged into the top level next to
// success and message, matching the API's response shape.
func OK(c *gin.Context, message string, fields gin.H) {
	send(c, http.StatusOK, message, fields)
}

// Created sends a 201 envelope.
func Created(c *gin.Context, message string, fields gin.H) {
	send(c, http.StatusCreated, message, fields)
}

func send(c *gin.Context, status int, message string, fields gin.H) {
	body := gin.H{"success": true, "message": message}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(status, body)
}

// Fail renders an error envelope. AppErrors keep their status and message;
// anything else becomes an opaque 500 so infrastructure errors never leak.
func Fail(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		body := gin.H{"success": false, "message": appErr.Message}
		if appErr.Errors != nil {
			body["errors"] = appErr.Errors
		}
		c.JSON(appErr.Status, body)
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"message": "Internal Server Error",
	})
}

// AbortFail is Fail plus gin abort, for middleware.
func AbortFail(c *gin.Context, err error) {
	Fail(c, err)
	c.Abort()
}

package errors

import (
	"net/http"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
)

// Error is the error type returned across service boundaries. It carries the
// HTTP status the handler layer should respond with.
type Error struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

var (
	ErrInternalServerError = New("internal server error", http.StatusInternalServerError)
	ErrBadRequest          = New("bad request", http.StatusBadRequest)
	ErrNotFound            = New("not found", http.StatusNotFound)
	ErrUnauthorized        = New("unauthorized", http.StatusUnauthorized)
	// ErrInvalidCredentials is returned for a bad password and for an unknown
	// email alike, so a login attempt never reveals whether an account exists.
	ErrInvalidCredentials = New("invalid email or password", http.StatusUnauthorized)
	ErrInvalidToken       = New("invalid or expired token", http.StatusUnauthorized)
	ErrMissingParameter   = New("required parameter is missing", http.StatusBadRequest)
)

func New(message string, status int) *Error {
	return &Error{
		Message: message,
		Status:  status,
	}
}

// Error satisfies the error interface
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// ErrorHandler is used by the login rate limiter when a client exceeds the
// allowed attempt rate.
func ErrorHandler(c *gin.Context, info ratelimit.Info) {
	c.JSON(http.StatusTooManyRequests, gin.H{
		"errors": "too many requests, try again later",
		"status": http.StatusText(http.StatusTooManyRequests),
	})
	c.Abort()
}

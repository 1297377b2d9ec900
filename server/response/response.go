package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apiError "github.com/duochat/duochat/errors"
)

// JSON writes the standard response envelope. err may be nil, a plain error or
// an *apiError.Error; plain errors are rendered as their message.
func JSON(c *gin.Context, message string, status int, data interface{}, err error) {
	errMessage := ""
	if err != nil {
		errMessage = err.Error()
	}

	responsedata := gin.H{
		"message": message,
		"data":    data,
		"errors":  errMessage,
		"status":  http.StatusText(status),
	}

	c.JSON(status, responsedata)
}

// HandleErrors maps a service error to the right status code before writing
// the response body.
func HandleErrors(c *gin.Context, err error) {
	if apiErr, ok := err.(*apiError.Error); ok {
		JSON(c, "", apiErr.Status, nil, apiErr)
		return
	}
	JSON(c, "", http.StatusInternalServerError, nil, err)
}

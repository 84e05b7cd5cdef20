package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/clivefinesse/jobtracker/pkg/errors"
)

// Envelope is the payload shape used by every non-list endpoint.
type Envelope struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// Page is the envelope used by list endpoints.
type Page struct {
	Count    int64       `json:"count"`
	Next     *string     `json:"next"`
	Previous *string     `json:"previous"`
	Results  interface{} `json:"results"`
}

// OK writes a JSON success envelope.
func OK(c *gin.Context, statusCode int, message string, data interface{}) {
	if data == nil {
		data = gin.H{}
	}
	c.JSON(statusCode, Envelope{
		Status:  true,
		Message: message,
		Data:    data,
	})
}

// Paginated writes a list response with count and page links.
func Paginated(c *gin.Context, count int64, next, previous *string, results interface{}) {
	if results == nil {
		results = []interface{}{}
	}
	c.JSON(http.StatusOK, Page{
		Count:    count,
		Next:     next,
		Previous: previous,
		Results:  results,
	})
}

// Error writes a JSON error envelope derived from an AppError. Field-level
// details, when present, are carried in data.
func Error(c *gin.Context, err error) {
	if err == nil {
		err = appErrors.ErrInternalServer
	}

	appErr := appErrors.FromError(err)
	status := appErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}

	data := interface{}(gin.H{})
	if len(appErr.Fields) > 0 {
		data = appErr.Fields
	}

	c.JSON(status, Envelope{
		Status:  false,
		Message: appErr.Message,
		Data:    data,
	})
}

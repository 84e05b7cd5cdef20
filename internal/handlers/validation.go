package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/clivefinesse/jobtracker/pkg/errors"
	"github.com/clivefinesse/jobtracker/pkg/response"
	appValidator "github.com/clivefinesse/jobtracker/pkg/validator"
)

// bindAndValidate binds the JSON payload into dest and runs struct validation
// rules. When validation fails, an error response carrying per-field messages
// is automatically written and false is returned.
func bindAndValidate[T any](c *gin.Context, dest *T) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.NewBadRequest("invalid JSON payload"))
		return false
	}

	if err := appValidator.ValidateStruct(dest); err != nil {
		if ve, ok := err.(appValidator.ValidationErrors); ok {
			response.Error(c, appErrors.NewValidation("Validation failed", validationFields(ve)))
		} else {
			response.Error(c, appErrors.NewBadRequest("invalid request payload"))
		}
		return false
	}

	return true
}

func validationFields(ve appValidator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(ve))
	for _, failure := range ve {
		fields[failure.Field] = validationMessage(failure)
	}
	return fields
}

func validationMessage(failure appValidator.ValidationError) string {
	switch failure.Tag {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s characters.", failure.Param)
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", failure.Param)
	default:
		if failure.Param != "" {
			return fmt.Sprintf("Failed validation: %s=%s.", failure.Tag, failure.Param)
		}
		return fmt.Sprintf("Failed validation: %s.", failure.Tag)
	}
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// parseBoolQuery returns nil when the parameter is absent or unparsable, so
// unknown filter values simply do not filter.
func parseBoolQuery(c *gin.Context, key string) *bool {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(strings.ToLower(value))
	if err != nil {
		return nil
	}
	return &parsed
}

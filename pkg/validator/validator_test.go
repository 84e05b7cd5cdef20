package validator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type sampleInput struct {
	Username string `json:"username" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Note     string `json:"-" validate:"omitempty,max=5"`
}

func TestValidateStructPasses(t *testing.T) {
	err := ValidateStruct(sampleInput{Username: "alice", Email: "alice@example.com"})
	require.NoError(t, err)
}

func TestValidateStructReportsJSONFieldNames(t *testing.T) {
	err := ValidateStruct(sampleInput{Username: "al", Email: "nope"})
	require.Error(t, err)

	failures, ok := err.(ValidationErrors)
	require.True(t, ok)
	require.Len(t, failures, 2)

	byField := map[string]ValidationError{}
	for _, f := range failures {
		byField[f.Field] = f
	}

	require.Equal(t, "min", byField["username"].Tag)
	require.Equal(t, "3", byField["username"].Param)
	require.Equal(t, "email", byField["email"].Tag)
}

func TestValidateStructFallsBackToStructName(t *testing.T) {
	err := ValidateStruct(sampleInput{Username: "alice", Email: "alice@example.com", Note: "toolong"})
	require.Error(t, err)

	failures := err.(ValidationErrors)
	require.Len(t, failures, 1)
	require.Equal(t, "Note", failures[0].Field)
}

func TestValidationErrorsMessage(t *testing.T) {
	errs := ValidationErrors{
		{Field: "username", Tag: "min", Param: "3"},
		{Field: "email", Tag: "required"},
	}
	require.Equal(t, "username violates min=3, email violates required", errs.Error())
	require.Equal(t, "validation failed", ValidationErrors{}.Error())
}

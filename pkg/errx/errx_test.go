package errx

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryPrefixesCodes(t *testing.T) {
	reg := NewRegistry("BILLING")
	code := reg.Register("NOT_FOUND", TypeNotFound, http.StatusNotFound, "Invoice not found")

	assert.Equal(t, Code("BILLING_NOT_FOUND"), code)

	err := reg.New(code)
	assert.Equal(t, "BILLING_NOT_FOUND", err.Code)
	assert.Equal(t, TypeNotFound, err.Type)
	assert.Equal(t, http.StatusNotFound, err.HTTPStatus)
	assert.Equal(t, "Invoice not found", err.Message)
}

func TestNewWithCauseUnwraps(t *testing.T) {
	reg := NewRegistry("TEST")
	code := reg.Register("EXTERNAL", TypeExternal, http.StatusBadGateway, "Upstream failed")

	cause := errors.New("connection refused")
	err := reg.NewWithCause(code, cause)

	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Contains(t, err.Error(), "TEST_EXTERNAL")
}

func TestUnregisteredCodeFallsBackToInternal(t *testing.T) {
	reg := NewRegistry("TEST")

	err := reg.New(Code("TEST_NEVER_REGISTERED"))
	assert.Equal(t, TypeInternal, err.Type)
	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus)
}

func TestWithDetailChaining(t *testing.T) {
	reg := NewRegistry("TEST")
	code := reg.Register("VALIDATION", TypeValidation, http.StatusBadRequest, "Invalid input")

	err := reg.New(code).
		WithDetail("field", "email").
		WithDetails(map[string]any{"max_length": 255})

	assert.Equal(t, "email", err.Details["field"])
	assert.Equal(t, 255, err.Details["max_length"])
}

func TestToHTTPResponse(t *testing.T) {
	reg := NewRegistry("TEST")
	code := reg.Register("CONFLICT", TypeConflict, http.StatusConflict, "Already exists")

	resp := reg.New(code).WithDetail("id", "abc").ToHTTPResponse()

	assert.Equal(t, "TEST_CONFLICT", resp["code"])
	assert.Equal(t, TypeConflict, resp["type"])
	assert.Equal(t, "Already exists", resp["message"])
	require.IsType(t, map[string]any{}, resp["details"])
	assert.Equal(t, "abc", resp["details"].(map[string]any)["id"])
}

func TestToHTTPResponseOmitsEmptyDetails(t *testing.T) {
	reg := NewRegistry("TEST")
	code := reg.Register("BUSINESS", TypeBusiness, http.StatusUnprocessableEntity, "Rule broken")

	resp := reg.New(code).ToHTTPResponse()
	_, ok := resp["details"]
	assert.False(t, ok)
}

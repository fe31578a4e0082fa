package util

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError_PassesThroughDomainErrors(t *testing.T) {
	original := NewConflict("event is full", nil)
	mapped := ToDomainError(original)
	assert.Equal(t, "CONFLICT", mapped.Code)
	assert.Equal(t, http.StatusConflict, mapped.HTTPStatus)
}

func TestToDomainError_NoRows(t *testing.T) {
	mapped := ToDomainError(pgx.ErrNoRows)
	assert.Equal(t, "NOT_FOUND", mapped.Code)
	assert.Equal(t, http.StatusNotFound, mapped.HTTPStatus)
}

func TestToDomainError_UniqueViolation(t *testing.T) {
	mapped := ToDomainError(&pgconn.PgError{Code: "23505"})
	assert.Equal(t, "CONFLICT", mapped.Code)
}

func TestToDomainError_ForeignKeyViolation(t *testing.T) {
	mapped := ToDomainError(&pgconn.PgError{Code: "23503"})
	assert.Equal(t, "VALIDATION_FAILED", mapped.Code)
}

func TestToDomainError_DeadlineExceeded(t *testing.T) {
	mapped := ToDomainError(context.DeadlineExceeded)
	assert.Equal(t, "UNAVAILABLE", mapped.Code)
	assert.Equal(t, http.StatusServiceUnavailable, mapped.HTTPStatus)
}

func TestToDomainError_Unknown(t *testing.T) {
	mapped := ToDomainError(errors.New("boom"))
	assert.Equal(t, "INTERNAL_ERROR", mapped.Code)
	assert.Equal(t, http.StatusInternalServerError, mapped.HTTPStatus)
}

func TestToDomainError_Nil(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))
}

func TestDomainError_Unwrap(t *testing.T) {
	inner := errors.New("connection reset")
	wrapped := NewUnavailable(inner)

	var de *DomainError
	require.ErrorAs(t, wrapped, &de)
	assert.ErrorIs(t, wrapped, inner)
	assert.Contains(t, de.Error(), "connection reset")
}

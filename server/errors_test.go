package server

import (
	stderrors "errors"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/stretchr/testify/assert"

	"github.com/subtrackd/subtrack"
)

func TestNormalizeError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "missing record",
			err:         repository.NewRecordNotFound(),
			wantStatus:  fiber.StatusNotFound,
			wantMessage: "Resource not found",
		},
		{
			name:        "storage uniqueness violation",
			err:         stderrors.New("constraint failed: UNIQUE constraint failed: users.email"),
			wantStatus:  fiber.StatusBadRequest,
			wantMessage: "Duplicate field value entered",
		},
		{
			name: "validation errors join every violated field",
			err: validation.Errors{
				"password": stderrors.New("cannot be blank"),
				"email":    stderrors.New("must be a valid email address"),
			},
			wantStatus:  fiber.StatusBadRequest,
			wantMessage: "email must be a valid email address, password cannot be blank",
		},
		{
			name:        "structured conflict",
			err:         subtrack.ErrUserExists,
			wantStatus:  fiber.StatusConflict,
			wantMessage: "User already exists!",
		},
		{
			name:        "structured ownership rejection",
			err:         subtrack.ErrOwnershipMismatch,
			wantStatus:  fiber.StatusUnauthorized,
			wantMessage: "Unauthorized!",
		},
		{
			name:        "structured error without a code keeps its message internal",
			err:         goerrors.New("user lookup blew up", goerrors.CategoryInternal),
			wantStatus:  fiber.StatusInternalServerError,
			wantMessage: "Server error",
		},
		{
			name:        "fiber error keeps its status",
			err:         fiber.ErrMethodNotAllowed,
			wantStatus:  fiber.StatusMethodNotAllowed,
			wantMessage: "Method Not Allowed",
		},
		{
			name:        "anything else is a server error",
			err:         stderrors.New("pq: connection refused"),
			wantStatus:  fiber.StatusInternalServerError,
			wantMessage: "Server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, message := normalizeError(tt.err)

			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantMessage, message)
		})
	}
}

func TestJoinValidationErrors(t *testing.T) {
	t.Run("single field", func(t *testing.T) {
		got := joinValidationErrors(validation.Errors{
			"name": stderrors.New("cannot be blank"),
		})

		assert.Equal(t, "name cannot be blank", got)
	})

	t.Run("fields are sorted for deterministic output", func(t *testing.T) {
		got := joinValidationErrors(validation.Errors{
			"password": stderrors.New("cannot be blank"),
			"name":     stderrors.New("cannot be blank"),
			"email":    stderrors.New("must be a valid email address"),
		})

		assert.Equal(t, "email must be a valid email address, name cannot be blank, password cannot be blank", got)
	})

	t.Run("nil field errors are skipped", func(t *testing.T) {
		got := joinValidationErrors(validation.Errors{
			"name":  nil,
			"email": stderrors.New("must be a valid email address"),
		})

		assert.Equal(t, "email must be a valid email address", got)
	})
}

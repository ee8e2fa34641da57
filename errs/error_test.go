package errs_test

import (
	"errors"
	"fmt"
	"testing"

	"contactbook/errs"

	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	err := errs.Errorf(errs.EDUPLICATE, "Contact %s is a duplicate", "Kate Beckett")

	assert.Equal(t, "application error: code=duplicate message=Contact Kate Beckett is a duplicate", err.Error())
}

func TestErrorCodeAndMessage(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name: "nil error",
		},
		{
			name:        "application error",
			err:         errs.Errorf(errs.ENOTFOUND, "Contact with id %d was not found", 9),
			wantCode:    errs.ENOTFOUND,
			wantMessage: "Contact with id 9 was not found",
		},
		{
			name:        "wrapped application error",
			err:         fmt.Errorf("edit contact: %w", errs.Errorf(errs.EINVALID, "Mobile number must be 11 digits")),
			wantCode:    errs.EINVALID,
			wantMessage: "Mobile number must be 11 digits",
		},
		{
			name:        "twice wrapped duplicate",
			err:         fmt.Errorf("http: %w", fmt.Errorf("usecase: %w", &errs.Error{Code: errs.EDUPLICATE, Message: "dup"})),
			wantCode:    errs.EDUPLICATE,
			wantMessage: "dup",
		},
		{
			name:        "plain error is internal",
			err:         errors.New("bolt: database not open"),
			wantCode:    errs.EINTERNAL,
			wantMessage: "Internal error.",
		},
		{
			name:        "joined errors pick the application error",
			err:         errors.Join(errors.New("rollback failed"), errs.Errorf(errs.ECONFLICT, "version changed")),
			wantCode:    errs.ECONFLICT,
			wantMessage: "version changed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, errs.ErrorCode(tt.err))
			assert.Equal(t, tt.wantMessage, errs.ErrorMessage(tt.err))
		})
	}
}

func TestErrorf(t *testing.T) {
	t.Run("formats the message", func(t *testing.T) {
		err := errs.Errorf(errs.EINVALID, "%s must be at least %d characters", "First name", 2)

		assert.Equal(t, errs.EINVALID, err.Code)
		assert.Equal(t, "First name must be at least 2 characters", err.Message)
	})

	t.Run("keeps percent signs without args", func(t *testing.T) {
		err := errs.Errorf(errs.EINTERNAL, "100%% broken")

		assert.Equal(t, "100% broken", err.Message)
	})

	t.Run("matches with errors.As", func(t *testing.T) {
		var target *errs.Error
		wrapped := fmt.Errorf("ctx: %w", errs.Errorf(errs.EUNAUTHORIZED, "no"))

		assert.True(t, errors.As(wrapped, &target))
		assert.Equal(t, errs.EUNAUTHORIZED, target.Code)
	})
}

func TestErrorCodes(t *testing.T) {
	codes := []string{
		errs.ECONFLICT,
		errs.EDUPLICATE,
		errs.EINTERNAL,
		errs.EINVALID,
		errs.ENOTFOUND,
		errs.ENOTIMPLEMENTED,
		errs.EUNAUTHORIZED,
	}

	seen := make(map[string]bool, len(codes))
	for _, code := range codes {
		assert.NotEmpty(t, code)
		assert.False(t, seen[code], "code %q is declared twice", code)
		seen[code] = true
	}
}

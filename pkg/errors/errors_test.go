// pkg/errors/errors_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: None
// PURPOSE: Test error creation, wrapping, and code lookup

package errors_test

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/fsmerge/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    errors.ErrorCode
		message string
		wantStr string
	}{
		{
			name:    "unsupported_entry",
			code:    errors.ErrUnsupportedEntryType,
			message: "unknown tar member type 'X'",
			wantStr: "[UNSUPPORTED_ENTRY_TYPE] unknown tar member type 'X'",
		},
		{
			name:    "missing_changeset",
			code:    errors.ErrMissingChangeset,
			message: "changeset new_cset not supplied",
			wantStr: "[MISSING_CHANGESET] changeset new_cset not supplied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := errors.New(tt.code, tt.message)

			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.message, err.Message)
			assert.NotNil(t, err.Details)
			assert.Equal(t, tt.wantStr, err.Error())
		})
	}
}

func TestNewf(t *testing.T) {
	err := errors.Newf(errors.ErrSymlinkCycle, "symlink %s loops back through %s", "/a", "/a/b")
	assert.Equal(t, "symlink /a loops back through /a/b", err.Message)
	assert.Equal(t, errors.ErrSymlinkCycle, err.Code)
}

func TestWrap(t *testing.T) {
	t.Run("nil error stays nil", func(t *testing.T) {
		assert.Nil(t, errors.Wrap(nil, errors.ErrFileAccess, "ignored"))
		assert.Nil(t, errors.Wrapf(nil, errors.ErrFileAccess, "ignored %d", 1))
	})

	t.Run("wrapped error is reachable", func(t *testing.T) {
		base := stderrors.New("permission denied")
		err := errors.Wrapf(base, errors.ErrFileAccess, "reading %s", "/etc/ld.so.conf")
		require.Error(t, err)

		assert.True(t, stderrors.Is(err, base))
		assert.Equal(t, "[FILE_ACCESS] reading /etc/ld.so.conf: permission denied", err.Error())
	})
}

func TestIsErrorCode(t *testing.T) {
	inner := errors.New(errors.ErrBlockModification, "cannot create etc/ld.so.conf")
	outer := errors.Wrap(inner, errors.ErrTriggerInvalid, "trigger ldconfig failed")
	wrapped := fmt.Errorf("hook pre_merge: %w", outer)

	assert.True(t, errors.IsErrorCode(wrapped, errors.ErrTriggerInvalid))
	assert.True(t, errors.IsErrorCode(wrapped, errors.ErrBlockModification))
	assert.False(t, errors.IsErrorCode(wrapped, errors.ErrTriggerWarning))
	assert.False(t, errors.IsErrorCode(stderrors.New("plain"), errors.ErrTriggerWarning))
	assert.False(t, errors.IsErrorCode(nil, errors.ErrTriggerWarning))
}

func TestGetErrorCode(t *testing.T) {
	assert.Equal(t, errors.ErrNotArmed, errors.GetErrorCode(errors.New(errors.ErrNotArmed, "x")))
	assert.Equal(t, errors.ErrUnknown, errors.GetErrorCode(stderrors.New("plain")))
}

func TestIsMatchesByCode(t *testing.T) {
	err := errors.New(errors.ErrFrozenSet, "set is frozen")
	target := errors.New(errors.ErrFrozenSet, "different message")

	assert.True(t, stderrors.Is(err, target))
	assert.False(t, stderrors.Is(err, errors.New(errors.ErrNotFound, "")))
}

func TestDetails(t *testing.T) {
	err := errors.New(errors.ErrTriggerWarning, "ldconfig returned 1").
		WithDetail("trigger", "ldconfig").
		WithDetail("exit", 1)

	details := errors.GetErrorDetails(err)
	assert.Equal(t, "ldconfig", details["trigger"])
	assert.Equal(t, 1, details["exit"])
	assert.Nil(t, errors.GetErrorDetails(stderrors.New("plain")))
}

func TestIsNotExist(t *testing.T) {
	_, err := os.Stat(filepath.Join(t.TempDir(), "missing"))
	assert.True(t, errors.IsNotExist(err))
	assert.True(t, errors.IsNotExist(errors.Wrap(err, errors.ErrFileAccess, "stat")))
	assert.False(t, errors.IsNotExist(errors.New(errors.ErrNotFound, "other")))
}

func TestWithDetails(t *testing.T) {
	err := errors.New(errors.ErrInvalidInput, "bad").WithDetails(map[string]interface{}{"a": 1, "b": "two"})
	assert.Equal(t, 1, err.Details["a"])
	assert.Equal(t, "two", err.Details["b"])
}

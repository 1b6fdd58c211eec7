package hal_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/fwojciec/hal"
	"github.com/stretchr/testify/assert"
)

func TestErrorf(t *testing.T) {
	t.Parallel()

	err := hal.Errorf(hal.EUNKNOWNTICKER, "ticker %q not found", "ZZZZ")

	assert.Equal(t, hal.EUNKNOWNTICKER, hal.ErrorCode(err))
	assert.Equal(t, "ticker \"ZZZZ\" not found", hal.ErrorMessage(err))
}

func TestErrorCode_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, hal.ErrorCode(nil))
}

func TestErrorMessage_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, hal.ErrorMessage(nil))
}

func TestErrorCode_WrappedError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("render: %w", hal.Errorf(hal.ETIMEOUT, "deadline exceeded"))

	assert.Equal(t, hal.ETIMEOUT, hal.ErrorCode(err))
	assert.Equal(t, "deadline exceeded", hal.ErrorMessage(err))
}

func TestErrorCode_NonApplicationError(t *testing.T) {
	t.Parallel()

	err := errors.New("boom")

	assert.Equal(t, hal.EINTERNAL, hal.ErrorCode(err))
	assert.Equal(t, "Internal error.", hal.ErrorMessage(err))
}

func TestBlocked(t *testing.T) {
	t.Parallel()

	err := hal.Blocked(hal.BlockPrivateNetwork, "%s resolves to a private address", "internal.example")

	assert.Equal(t, hal.EBLOCKED, hal.ErrorCode(err))
	assert.Equal(t, hal.BlockPrivateNetwork, hal.ErrorReason(err))
	assert.Equal(t, "blocked_target (private_network): internal.example resolves to a private address", err.Error())
}

func TestWrapf_UnwrapsCause(t *testing.T) {
	t.Parallel()

	err := hal.Wrapf(hal.ETIMEOUT, context.DeadlineExceeded, "render timed out")

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, hal.ETIMEOUT, hal.ErrorCode(err))
}

func TestErrorReason_NotBlocked(t *testing.T) {
	t.Parallel()

	assert.Empty(t, hal.ErrorReason(hal.Errorf(hal.EINVALID, "bad")))
	assert.Empty(t, hal.ErrorReason(errors.New("plain")))
}

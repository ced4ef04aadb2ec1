package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs_MatchesByCode(t *testing.T) {
	err := InvariantViolation("row count 9 != 10")
	assert.True(t, stderrors.Is(err, ErrInvariantViolation))
	assert.False(t, stderrors.Is(err, ErrSchemaMismatch))

	wrapped := fmt.Errorf("finalize: %w", err)
	assert.True(t, stderrors.Is(wrapped, ErrInvariantViolation))
}

func TestWrap_KeepsCode(t *testing.T) {
	base := InvalidParameter("plausible value index 11 outside [1, 10]")
	wrapped := Wrap(base, "threshold calculation failed")

	assert.Equal(t, CodeInvalidParameter, GetCode(wrapped))
	assert.Contains(t, wrapped.Error(), "threshold calculation failed")
	assert.Contains(t, wrapped.Error(), "outside [1, 10]")
	assert.Nil(t, Wrap(nil, "ignored"))
}

func TestWrap_ForeignErrorBecomesInternal(t *testing.T) {
	wrapped := Wrapf(stderrors.New("disk full"), "write %s", "result.xlsx")
	assert.Equal(t, CodeInternalError, GetCode(wrapped))
	assert.Equal(t, "UNKNOWN", GetCode(stderrors.New("plain")))
}

func TestWithCode(t *testing.T) {
	err := WithCode(CodeSchemaMismatch, stderrors.New("columns differ"))
	assert.True(t, stderrors.Is(err, ErrSchemaMismatch))
	assert.True(t, IsAppError(err))
}

func TestIsFatal(t *testing.T) {
	assert.False(t, IsFatal(nil))
	assert.False(t, IsFatal(MissingCollaboratorData("school table is empty")))
	assert.True(t, IsFatal(SchemaMismatch("SK and US columns differ")))
	assert.True(t, IsFatal(stderrors.New("boom")))
}

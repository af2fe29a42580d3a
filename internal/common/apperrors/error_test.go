package apperrors

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorDerivation(t *testing.T) {
	ErrBase := New("base error")
	assert.Equal(t, "base error", ErrBase.Error())
	assert.ErrorIs(t, ErrBase, ErrBase)

	ErrFirst := ErrBase.New("first level")
	assert.Equal(t, "first level", ErrFirst.Error())
	assert.ErrorIs(t, ErrFirst, ErrBase)

	ErrSecond := ErrFirst.Msg("second level")
	assert.Equal(t, "second level", ErrSecond.Error())
	assert.ErrorIs(t, ErrSecond, ErrFirst)
	assert.ErrorIs(t, ErrSecond, ErrBase)
}

func TestErrorAttachment(t *testing.T) {
	ErrBase := New("base error")
	ErrFirst := ErrBase.New("first level")

	plain := errors.New("plain error")
	wrapped := ErrFirst.Err(plain)
	assert.Equal(t, "first level", wrapped.Error())
	assert.ErrorIs(t, wrapped, ErrBase)
	assert.ErrorIs(t, wrapped, plain)

	other := New("other error")
	withMsg := ErrFirst.MsgErr("rewritten", other, plain)
	assert.Equal(t, "rewritten", withMsg.Error())
	assert.ErrorIs(t, withMsg, ErrFirst)
	assert.ErrorIs(t, withMsg, other)
	assert.ErrorIs(t, withMsg, plain)

	assert.Len(t, withMsg.UnwrapAll(), 3)
}

func TestErrorStatusCode(t *testing.T) {
	ErrBase := New("base error").SetStatusCode(http.StatusBadRequest)
	assert.Equal(t, http.StatusBadRequest, ErrBase.StatusCode())

	// derived errors inherit the status code
	derived := ErrBase.New("derived")
	assert.Equal(t, http.StatusBadRequest, derived.StatusCode())

	// SetStatusCode does not mutate the receiver
	changed := derived.SetStatusCode(http.StatusConflict)
	assert.Equal(t, http.StatusConflict, changed.StatusCode())
	assert.Equal(t, http.StatusBadRequest, derived.StatusCode())
	assert.ErrorIs(t, changed, ErrBase)
}

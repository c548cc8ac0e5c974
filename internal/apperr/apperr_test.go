package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindStatus(t *testing.T) {
	cases := map[Kind]int{
		KindUnauthorized: http.StatusUnauthorized,
		KindForbidden:    http.StatusForbidden,
		KindNotFound:     http.StatusNotFound,
		KindValidation:   http.StatusBadRequest,
		KindRateLimited:  http.StatusTooManyRequests,
		KindInternal:     http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.Status(), kind.String())
	}
}

func TestErrorsIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("guard: %w", Forbidden(""))

	assert.True(t, errors.Is(err, ErrForbidden))
	assert.False(t, errors.Is(err, ErrUnauthorized))
	assert.Equal(t, http.StatusForbidden, StatusOf(err))
	assert.True(t, IsKind(err, KindForbidden))
}

func TestAsWrapsUnknownErrorsAsInternal(t *testing.T) {
	cause := errors.New("pq: connection refused")
	e := As(cause)

	assert.Equal(t, KindInternal, e.Kind)
	assert.Equal(t, CodeInternal, e.Code)
	assert.NotContains(t, e.Message, "connection refused")
	assert.ErrorIs(t, e, cause)
	assert.Nil(t, As(nil))
}

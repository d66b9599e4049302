package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid argument", E(CodeInvalidArgument, "op", "bad", nil), http.StatusBadRequest},
		{"not found", E(CodeNotFound, "op", "missing", ErrNotFound), http.StatusNotFound},
		{"conflict", E(CodeConflict, "op", "no question", ErrNoPendingQuestion), http.StatusConflict},
		{"unavailable", E(CodeUnavailable, "op", "down", ErrUpstream), http.StatusServiceUnavailable},
		{"bare sentinel", fmt.Errorf("wrap: %w", ErrNoPendingQuestion), http.StatusConflict},
		{"bare not found", ErrNotFound, http.StatusNotFound},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatus(tc.err))
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	err := E(CodeConflict, "Session.SubmitAnswer", "no active question to answer", ErrNoPendingQuestion)
	require.True(t, errors.Is(err, ErrNoPendingQuestion))
	require.True(t, IsCode(err, CodeConflict))
	require.False(t, IsCode(err, CodeNotFound))
	require.Equal(t, "Session.SubmitAnswer: no active question to answer: no active question to answer", err.Error())
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "00:00", FormatTimestamp(0))
	assert.Equal(t, "01:05", FormatTimestamp(65.4))
	assert.Equal(t, "12:00", FormatTimestamp(720))
	assert.Equal(t, "00:00", FormatTimestamp(-3))
}

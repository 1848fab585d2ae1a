package apperrors_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"vibe2apk/internal/apperrors"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := apperrors.Wrap(apperrors.ErrToolchain, "assemble", "gradle", "build failed", base)

	require.True(t, errors.Is(err, apperrors.ErrToolchain))
	require.True(t, errors.Is(err, base))
	require.Contains(t, err.Error(), "assemble")
	require.Contains(t, err.Error(), "gradle")
	require.Contains(t, err.Error(), "build failed")
}

func TestWrapNilMarkerDefaultsToInternal(t *testing.T) {
	err := apperrors.Wrap(nil, "", "", "oops", nil)
	require.True(t, errors.Is(err, apperrors.ErrInternal))
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := map[error]int{
		apperrors.ErrValidation:  http.StatusBadRequest,
		apperrors.ErrRateLimited: http.StatusTooManyRequests,
		apperrors.ErrNotFound:    http.StatusNotFound,
		apperrors.ErrConflict:    http.StatusConflict,
		apperrors.ErrToolchain:   http.StatusUnprocessableEntity,
		apperrors.ErrEnvironment: http.StatusUnprocessableEntity,
	}
	for marker, want := range cases {
		wrapped := apperrors.Wrap(marker, "stage", "op", "msg", nil)
		require.Equalf(t, want, apperrors.HTTPStatus(wrapped), "marker %v", marker)
	}
	require.Equal(t, http.StatusInternalServerError, apperrors.HTTPStatus(errors.New("plain")))
	require.Equal(t, http.StatusOK, apperrors.HTTPStatus(nil))
}

func TestKindMapping(t *testing.T) {
	require.Equal(t, "validation_error", apperrors.Kind(apperrors.Wrap(apperrors.ErrValidation, "", "", "x", nil)))
	require.Equal(t, "toolchain_error", apperrors.Kind(apperrors.Wrap(apperrors.ErrToolchain, "", "", "x", nil)))
	require.Equal(t, "internal_error", apperrors.Kind(errors.New("plain")))
	require.Equal(t, "", apperrors.Kind(nil))
}

func TestRetryable(t *testing.T) {
	require.False(t, apperrors.Retryable(apperrors.Wrap(apperrors.ErrValidation, "", "", "x", nil)))
	require.False(t, apperrors.Retryable(apperrors.Wrap(apperrors.ErrConflict, "", "", "x", nil)))
	require.True(t, apperrors.Retryable(apperrors.Wrap(apperrors.ErrToolchain, "", "", "x", nil)))
	require.True(t, apperrors.Retryable(apperrors.Wrap(apperrors.ErrInternal, "", "", "x", nil)))
}

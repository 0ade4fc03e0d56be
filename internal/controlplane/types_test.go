package controlplane_test

import (
	"errors"
	"testing"

	"github.com/n8nctl/n8nctl/internal/controlplane"
	"github.com/stretchr/testify/assert"
)

func TestClassifyStatus(t *testing.T) {
	cases := []struct {
		status int
		want   controlplane.ErrorClass
	}{
		{401, controlplane.ErrClassAuth},
		{403, controlplane.ErrClassAuth},
		{429, controlplane.ErrClassRateLimit},
		{400, controlplane.ErrClassValidation},
		{422, controlplane.ErrClassValidation},
		{500, controlplane.ErrClassGenericTransient},
		{503, controlplane.ErrClassGenericTransient},
		{0, controlplane.ErrClassNoResponse},
		{418, controlplane.ErrClassOther},
	}
	for _, tc := range cases {
		t.Run(string(tc.want), func(t *testing.T) {
			assert.Equal(t, tc.want, controlplane.ClassifyStatus(tc.status))
		})
	}
}

func TestErrorClass_Retryable(t *testing.T) {
	t.Run("Should retry connection, no-response, rate-limit, and generic-transient classes only", func(t *testing.T) {
		retryable := []controlplane.ErrorClass{
			controlplane.ErrClassConnection, controlplane.ErrClassNoResponse,
			controlplane.ErrClassRateLimit, controlplane.ErrClassGenericTransient,
		}
		for _, c := range retryable {
			assert.True(t, c.Retryable(), c)
		}
		notRetryable := []controlplane.ErrorClass{
			controlplane.ErrClassAuth, controlplane.ErrClassValidation, controlplane.ErrClassOther,
		}
		for _, c := range notRetryable {
			assert.False(t, c.Retryable(), c)
		}
	})
}

func TestError_UnwrapAndMessage(t *testing.T) {
	t.Run("Should include the cause in Error() and expose it via Unwrap", func(t *testing.T) {
		cause := errors.New("dial tcp: connection refused")
		err := &controlplane.Error{Class: controlplane.ErrClassConnection, Message: "request failed", Cause: cause}
		assert.Contains(t, err.Error(), "connection refused")
		assert.ErrorIs(t, err, cause)
		assert.True(t, err.Retryable())
	})
}

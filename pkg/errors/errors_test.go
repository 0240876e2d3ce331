package errors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"config", Wrap(ErrConfig, "bad model"), KindConfig},
		{"transient", Wrapf(ErrTransient, "upstream %d", 503), KindTransient},
		{"permanent", Wrap(ErrPermanent, "upstream 400"), KindPermanent},
		{"cancelled sentinel", Wrap(ErrCancelled, "caller gave up"), KindCancelled},
		{"context cancellation", context.Canceled, KindCancelled},
		{"partial analyst", Wrap(ErrPartialAnalyst, "news failed"), KindPartialAnalyst},
		{"unknown", New("something else"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(Wrap(ErrTransient, "timeout")))
	assert.False(t, Retryable(Wrap(ErrPermanent, "bad request")))
	assert.False(t, Retryable(Wrap(ErrConfig, "no key")))
	assert.False(t, Retryable(Wrap(ErrCancelled, "stop")))
	assert.False(t, Retryable(nil))
}

func TestWrapPreservesSentinel(t *testing.T) {
	err := Wrapf(ErrTransient, "attempt %d", 2)
	assert.True(t, Is(err, ErrTransient))
	assert.Contains(t, err.Error(), "attempt 2")

	// Double wrapping still resolves to the innermost sentinel.
	outer := Wrap(err, "dispatch")
	assert.True(t, Is(outer, ErrTransient))
	assert.Equal(t, KindTransient, KindOf(outer))
}

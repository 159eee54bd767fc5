package errs

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"tagged", New(KindBadRequest, "schema mismatch"), KindBadRequest},
		{"wrapped with context", errors.Wrap(New(KindLimitExceeded, "too many"), "store 5"), KindLimitExceeded},
		{"plain", errors.New("boom"), KindOther},
		{"nil", nil, KindOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestWrapKeepsCauseMessage(t *testing.T) {
	cause := errors.New("index does not exist")
	err := Wrap(cause, KindBadRequest)

	assert.True(t, Is(err, KindBadRequest))
	assert.Equal(t, "index does not exist", Message(err))
	assert.True(t, errors.Is(err, cause))
	assert.Nil(t, Wrap(nil, KindBadRequest))
}

func TestMessageIgnoresOuterContext(t *testing.T) {
	err := errors.Wrap(New(KindLimitExceeded, "too many attributes"), "syncing store 5")

	assert.Equal(t, "too many attributes", Message(err))
	assert.Contains(t, err.Error(), "syncing store 5")
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "bad_request", KindBadRequest.String())
	assert.Equal(t, "other", Kind(99).String())
}

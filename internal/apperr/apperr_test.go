package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"transient", Transient(errors.New("boom")), KindTransient},
		{"input", Input(errors.New("bad streamer")), KindInput},
		{"conflict", Conflict(errors.New("monitor running")), KindConflict},
		{"fatal config", FatalConfig(errors.New("missing credentials")), KindFatalConfig},
		{"unclassified defaults to transient", errors.New("plain"), KindTransient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestIs(t *testing.T) {
	err := Conflict(errors.New("monitor running"))
	assert.True(t, Is(err, KindConflict))
	assert.False(t, Is(err, KindInput))
}

func TestWrappingNilReturnsNil(t *testing.T) {
	assert.Nil(t, Transient(nil))
	assert.Nil(t, Input(nil))
	assert.Nil(t, Conflict(nil))
	assert.Nil(t, FatalConfig(nil))
}

func TestErrorUnwraps(t *testing.T) {
	sentinel := errors.New("twitch unreachable")
	wrapped := Transient(sentinel)
	require.ErrorIs(t, wrapped, sentinel)
}

func TestFormattedConstructors(t *testing.T) {
	err := Inputf("streamer %q is empty", "")
	assert.Equal(t, KindInput, KindOf(err))
	assert.Contains(t, err.Error(), "streamer")

	wrapped := Transientf("fetch archive: %w", fmt.Errorf("timeout"))
	assert.Equal(t, KindTransient, KindOf(wrapped))
	assert.Contains(t, wrapped.Error(), "timeout")
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "transient", KindTransient.String())
	assert.Equal(t, "input", KindInput.String())
	assert.Equal(t, "conflict", KindConflict.String())
	assert.Equal(t, "fatal_config", KindFatalConfig.String())
	assert.Equal(t, "unknown", Kind(99).String())
}

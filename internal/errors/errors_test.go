package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodesFollowTheChain(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"constructor", InvalidIndex(3, 2), CodeInvalidIndex},
		{"wrapped app error keeps code", Wrapf(NotFound("run x"), "failed to load %s", "x"), CodeNotFound},
		{"wrapped plain error", Wrap(stderrors.New("boom"), "failed"), CodeInternalError},
		{"with code", WithCode(CodeInvalidInput, stderrors.New("bad")), CodeInvalidInput},
		{"fmt wrapped", fmt.Errorf("outer: %w", MalformedUpstreamData("epoch")), CodeMalformedUpstreamData},
		{"plain error", stderrors.New("plain"), "UNKNOWN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, GetCode(tt.err))
			if tt.code != "UNKNOWN" {
				assert.True(t, IsCode(tt.err, tt.code))
			}
		})
	}
}

func TestIsCodeMatchesInnerCodes(t *testing.T) {
	err := Wrap(WithCode(CodeInvalidIndex, stderrors.New("duplicate")), "failed to filter")
	assert.True(t, IsCode(err, CodeInvalidIndex))
	assert.False(t, IsCode(err, CodeNotFound))
	assert.False(t, IsCode(nil, CodeInvalidIndex))
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, "ignored"))
	assert.NoError(t, Wrapf(nil, "ignored %d", 1))
	assert.NoError(t, WithCode(CodeNotFound, nil))
}

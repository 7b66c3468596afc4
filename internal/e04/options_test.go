package e04

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newState(t *testing.T) *OptionState {
	t.Helper()
	var state OptionState
	var fail Fail
	InitOptions(&state, &fail)
	require.True(t, fail.OK(), fail.Message)
	return &state
}

func TestInitOptionsDefaults(t *testing.T) {
	state := newState(t)
	assert.Equal(t, 3000, state.Int("Major Iterations Limit"))
	assert.Equal(t, 1e-8, state.Float("Optimality Tolerance"))
	assert.False(t, state.IsSet("Print File"))
}

func TestOptionNamesAreNormalised(t *testing.T) {
	state := newState(t)
	var fail Fail

	OptionSetInteger("  major   ITERATIONS limit ", 50, state, &fail)
	OptionSetInteger("Print file", 7, state, &fail)

	require.True(t, fail.OK(), fail.Message)
	assert.Equal(t, 50, state.Int("Major Iterations Limit"))
	assert.Equal(t, 7, state.Int("Print File"))
	assert.True(t, state.IsSet("print file"))
}

func TestUnknownOptionSetsStatus(t *testing.T) {
	state := newState(t)
	var fail Fail

	OptionSetDouble("tolx", 1e-3, state, &fail)

	assert.Equal(t, OptionInvalid, fail.Code)
	assert.Contains(t, fail.Message, "tolx")
}

func TestOptionTypeMismatch(t *testing.T) {
	state := newState(t)
	var fail Fail

	OptionSetDouble("Verify Level", 1.5, state, &fail)

	assert.Equal(t, OptionInvalid, fail.Code)
	assert.Equal(t, 0, state.Int("Verify Level"))
}

func TestFirstErrorSticks(t *testing.T) {
	state := newState(t)
	var fail Fail

	OptionSetInteger("no such option", 1, state, &fail)
	first := fail.Message
	OptionSetString("broken", state, &fail)

	assert.Equal(t, first, fail.Message)
}

func TestOptionSetString(t *testing.T) {
	state := newState(t)
	var fail Fail

	OptionSetString("Major Iterations Limit = 12", state, &fail)
	OptionSetString("optimality tolerance=1e-4", state, &fail)

	require.True(t, fail.OK(), fail.Message)
	assert.Equal(t, 12, state.Int("Major Iterations Limit"))
	assert.Equal(t, 1e-4, state.Float("Optimality Tolerance"))

	OptionSetString("Print Level = loud", state, &fail)
	assert.Equal(t, OptionInvalid, fail.Code)
}

func TestOptionsBeforeInit(t *testing.T) {
	var state OptionState
	var fail Fail

	OptionSetInteger("Print Level", 1, &state, &fail)

	assert.Equal(t, BadParam, fail.Code)
}

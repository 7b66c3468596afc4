package run

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/nagplug/internal/nagsolver"
	"github.com/cwbudde/nagplug/internal/solver"
)

func TestDescribeSimplex(t *testing.T) {
	info, err := Describe(nagsolver.NewRegistry(), nagsolver.SimplexName)
	require.NoError(t, err)

	byKey := make(map[string]ParameterInfo)
	for _, p := range info.Parameters {
		byKey[p.Key] = p
	}

	require.Contains(t, byKey, nagsolver.KeyMaxIterations)
	assert.Equal(t, "int", byKey[nagsolver.KeyMaxIterations].Kind)
	assert.Equal(t, "3000", byKey[nagsolver.KeyMaxIterations].Default)
	assert.Contains(t, byKey, nagsolver.KeyTolX)
	assert.Contains(t, byKey, nagsolver.KeyOutputFile)
	assert.NotEmpty(t, byKey[nagsolver.KeyTolX].Description)
}

func TestDescribeAll(t *testing.T) {
	infos, err := DescribeAll(nagsolver.NewRegistry())
	require.NoError(t, err)

	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
		assert.NotEmpty(t, info.Parameters, info.Name)
	}
	assert.Equal(t, []string{nagsolver.DifferentiableName, nagsolver.GlobalName, nagsolver.SimplexName}, names)
}

func TestDescribeUnknown(t *testing.T) {
	_, err := Describe(nagsolver.NewRegistry(), "nope")
	assert.True(t, errors.Is(err, solver.ErrUnknownSolver))
}

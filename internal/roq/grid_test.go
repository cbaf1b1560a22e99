package roq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		dt      float64
		deltaTc float64
		want    int
	}{
		{"default example", 0.1, 0.01, 25},
		{"coarse", 0.1, 0.1, 3},
		{"zero prior", 0, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GridSize(tt.dt, tt.deltaTc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGridSizeErrors(t *testing.T) {
	t.Parallel()

	_, err := GridSize(0.1, 0)
	assert.Error(t, err)
	_, err = GridSize(0.1, -0.01)
	assert.Error(t, err)
	_, err = GridSize(-1, 0.01)
	assert.Error(t, err)
}

func TestTimeGrid(t *testing.T) {
	t.Parallel()

	tcs, err := TimeGrid(4, 0.1, 0.01)
	require.NoError(t, err)
	require.Len(t, tcs, 25)
	assert.InDelta(t, 1.878, tcs[0], 1e-12)
	assert.InDelta(t, 2.122, tcs[24], 1e-12)
	assert.InDelta(t, 2.0, tcs[12], 1e-12)

	step := tcs[1] - tcs[0]
	for i := 1; i < len(tcs); i++ {
		assert.InDelta(t, step, tcs[i]-tcs[i-1], 1e-12)
	}
}

func TestTimeGridSinglePoint(t *testing.T) {
	t.Parallel()

	tcs, err := TimeGrid(8, 0, 1)
	require.NoError(t, err)
	require.Len(t, tcs, 1)
	assert.InDelta(t, 6-GuardBand, tcs[0], 1e-12)
}

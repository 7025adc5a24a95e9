package gesture

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// swipe feeds a two-point stroke from origin to (x,y) and returns the
// classification produced on release.
func swipe(t *testing.T, g *Recognizer, x, y, sensitivity float64) Direction {
	t.Helper()
	require.Equal(t, None, g.Process(0, 0, true, sensitivity))
	require.Equal(t, None, g.Process(x, y, true, sensitivity))
	return g.Process(x, y, false, sensitivity)
}

func TestClassificationTable(t *testing.T) {
	cases := []struct {
		name    string
		degrees float64
		want    Direction
	}{
		{"right", 0, Right},
		{"down", 90, Down},
		{"left", 180, Left},
		{"up", 270, Up},
		{"dead zone 45", 45, None},
		{"dead zone 135", 135, None},
		{"dead zone 225", 225, None},
		{"dead zone 315", 315, None},
	}

	const dist = 0.5
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rad := tc.degrees * math.Pi / 180.0
			g := NewRecognizer()
			got := swipe(t, g, dist*math.Cos(rad), dist*math.Sin(rad), 2.0)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDistanceThreshold(t *testing.T) {
	// At sensitivity 2.0 the threshold is the 0.2 base: a shorter stroke
	// at 0° classifies as none.
	g := NewRecognizer()
	assert.Equal(t, None, swipe(t, g, 0.1, 0, 2.0))

	g = NewRecognizer()
	assert.Equal(t, Right, swipe(t, g, 0.3, 0, 2.0))
}

func TestThresholdScalesWithSensitivity(t *testing.T) {
	// Doubling sensitivity halves the required distance.
	assert.InDelta(t, 0.2, Threshold(2.0), 1e-9)
	assert.InDelta(t, 0.1, Threshold(4.0), 1e-9)
	assert.InDelta(t, 0.4, Threshold(1.0), 1e-9)

	// The floor keeps tiny sensitivities from demanding impossible
	// distances.
	assert.InDelta(t, Threshold(0.1), Threshold(0.01), 1e-9)
}

func TestSinglePointStrokeIsNone(t *testing.T) {
	g := NewRecognizer()
	require.Equal(t, None, g.Process(0.5, 0.5, true, 2.0))
	assert.Equal(t, None, g.Process(0, 0, false, 2.0))
}

func TestTrajectoryBufferBound(t *testing.T) {
	// A long stroke is judged by its last buffered point, not the true
	// endpoint's touch-up sample.
	g := NewRecognizer()
	require.Equal(t, None, g.Process(0, 0, true, 2.0))
	for i := 1; i <= 20; i++ {
		require.Equal(t, None, g.Process(float64(i)*0.05, 0, true, 2.0))
		assert.LessOrEqual(t, len(g.points), trajectoryCap)
	}
	assert.Equal(t, Right, g.Process(1.0, 0, false, 2.0))
}

func TestUntouchedIdleProducesNothing(t *testing.T) {
	g := NewRecognizer()
	for i := 0; i < 3; i++ {
		assert.Equal(t, None, g.Process(0, 0, false, 2.0))
	}
}

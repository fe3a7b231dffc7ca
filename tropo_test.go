package cugnssgo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSaastamoinenDelay_ZeroBelowHorizon(t *testing.T) {
	assert.Equal(t, 0.0, SaastamoinenDelay(0.5, 100, 0))
	assert.Equal(t, 0.0, SaastamoinenDelay(0.5, 100, -0.1))
}

func TestSaastamoinenDelay_ZeroOutsideHeightRange(t *testing.T) {
	assert.Equal(t, 0.0, SaastamoinenDelay(0.5, -200, 0.5))
	assert.Equal(t, 0.0, SaastamoinenDelay(0.5, 20000, 0.5))
}

func TestSaastamoinenDelay_DecreasesWithElevation(t *testing.T) {
	low := SaastamoinenDelay(0.7, 100, 0.1)
	high := SaastamoinenDelay(0.7, 100, PI/2)
	assert.Greater(t, low, high, "slant delay at low elevation must exceed zenith delay")
	assert.InDelta(t, 2.3, high, 0.3, "zenith delay near sea level should be roughly 2.3m")
}

func TestSaastamoinenDelay_VariesWithLatitude(t *testing.T) {
	a := SaastamoinenDelay(0.0, 0, PI/4)
	b := SaastamoinenDelay(PI/2, 0, PI/4)
	assert.NotEqual(t, a, b, "the cos(2*lat) term must actually depend on latitude")
}

func TestSaastamoinenDelay_DecreasesWithHeight(t *testing.T) {
	sea := SaastamoinenDelay(0.5, 0, PI/2)
	mountain := SaastamoinenDelay(0.5, 3000, PI/2)
	assert.Greater(t, sea, mountain)
}

package robust

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThresholdIsStrict(t *testing.T) {
	th := Threshold(0.5)
	assert.True(t, th.Check(0.4999))
	assert.False(t, th.Check(0.5))
	assert.False(t, th.Check(0.6))
}

func TestDistanceCheckFunc(t *testing.T) {
	within := DistanceCheckFunc(func(r float64) bool { return r >= -1 && r <= 1 })
	assert.True(t, within.Check(-1))
	assert.True(t, within.Check(1))
	assert.False(t, within.Check(1.01))
}

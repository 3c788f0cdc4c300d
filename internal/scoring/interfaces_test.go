package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerdict_DefaultThreshold(t *testing.T) {
	assert.False(t, Verdict(0, DefaultFraudThreshold))
	assert.False(t, Verdict(0.6, DefaultFraudThreshold), "threshold itself is not fraud")
	assert.True(t, Verdict(0.6000001, DefaultFraudThreshold))
	assert.True(t, Verdict(1, DefaultFraudThreshold))
}

func TestVerdict_Monotonic(t *testing.T) {
	prev := false
	for i := 0; i <= 1000; i++ {
		score := float64(i) / 1000
		got := Verdict(score, DefaultFraudThreshold)

		assert.Equal(t, score > 0.6, got, "score %v", score)
		if prev {
			assert.True(t, got, "verdict flipped back at %v", score)
		}
		prev = got
	}
}

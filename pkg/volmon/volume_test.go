package volmon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayPercent(t *testing.T) {
	tests := []struct {
		name   string
		volume float64
		want   int
	}{
		{"silence", 0.0, 0},
		{"full volume", 1.0, 100},
		{"half displayed volume", 0.125, 50},
		{"forty percent displayed", 0.064, 40},
		{"quarter displayed volume", 0.015625, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sample := VolumeSample{Volume: tt.volume}
			assert.Equal(t, tt.want, sample.DisplayPercent())
		})
	}
}

func TestDisplayPercentPropagatesBoostedVolume(t *testing.T) {
	// boosted sinks report raw volume above 1.0; the transcoder does not
	// clamp, callers do
	sample := VolumeSample{Volume: 1.331}
	assert.Equal(t, 110, sample.DisplayPercent())
}

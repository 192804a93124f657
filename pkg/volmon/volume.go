package volmon

import "math"

// VolumeSample is one reading from the mixer capability. Volume is a
// fraction in [0, 1] on the mixer's cubic scale, so equal steps sound
// equally loud. It lives for a single event handling step.
type VolumeSample struct {
	Volume  float64
	MinStep float64
	Muted   bool
}

// DisplayPercent converts the cubic-scale fraction to the integer percentage
// shown to the user. Raw volumes above 1.0 are not clamped and yield values
// above 100, matching what the mixer reports for boosted sinks.
func (s VolumeSample) DisplayPercent() int {
	return int(math.Round(math.Cbrt(s.Volume) * 100))
}

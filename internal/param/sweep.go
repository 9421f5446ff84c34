package param

import "math"

// SweepInt sweeps linearly from a to b across the sequence: frame 1 resolves
// to a, the last frame to b. A single-frame sequence resolves to a.
func SweepInt(a, b int) Source[int] {
	return DynamicSpan(func(frame, total int) int {
		return int(math.Round(interpolate(float64(a), float64(b), frame, total)))
	})
}

// SweepFloat sweeps linearly from a to b across the sequence.
func SweepFloat(a, b float64) Source[float64] {
	return DynamicSpan(func(frame, total int) float64 {
		return interpolate(a, b, frame, total)
	})
}

// SweepGray sweeps a luminance value from a to b across the sequence,
// broadcast to all three channels.
func SweepGray(a, b uint8) Source[Color] {
	return DynamicSpan(func(frame, total int) Color {
		return Gray(uint8(math.Round(interpolate(float64(a), float64(b), frame, total))))
	})
}

func interpolate(a, b float64, frame, total int) float64 {
	if total <= 1 {
		return a
	}
	return a + (b-a)*float64(frame-1)/float64(total-1)
}

// Package resample reduces long series to a bounded count and rebuilds derived
// series back to the original length.
package resample

import "math"

// Downsample keeps every step-th element, step = len(seq)/targetCount, and always
// keeps the last element. Sequences already within targetCount are returned as is.
// A targetCount below 1 disables downsampling.
func Downsample[T any](seq []T, targetCount int) []T {
	if targetCount < 1 || len(seq) <= targetCount {
		return seq
	}

	step := len(seq) / targetCount
	out := make([]T, 0, targetCount+1)
	last := -1
	for i := 0; i < len(seq); i += step {
		out = append(out, seq[i])
		last = i
	}
	if last != len(seq)-1 {
		out = append(out, seq[len(seq)-1])
	}
	return out
}

// Interpolate stretches values linearly to originalCount samples, rounding to the
// nearest integer. Values already of that length are returned as is.
func Interpolate(values []float64, originalCount int) []float64 {
	if len(values) == originalCount {
		return values
	}
	if originalCount <= 0 {
		return []float64{}
	}

	out := make([]float64, originalCount)
	if len(values) == 0 {
		return out
	}
	if originalCount == 1 {
		out[0] = math.Round(values[0])
		return out
	}

	scale := float64(len(values)-1) / float64(originalCount-1)
	for i := range out {
		src := float64(i) * scale
		lo := int(math.Floor(src))
		hi := lo + 1
		if hi >= len(values) {
			out[i] = math.Round(values[len(values)-1])
			continue
		}
		frac := src - float64(lo)
		out[i] = math.Round(values[lo]*(1-frac) + values[hi]*frac)
	}
	return out
}

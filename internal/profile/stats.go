package profile

import "math"

const (
	smoothingHalfWindow = 2
	segmentThresholdM   = 3.0
)

// Stats summarises an elevation series. All values are whole meters.
type Stats struct {
	TotalElevationGainM int `json:"total_elevation_gain_m"`
	TotalElevationLossM int `json:"total_elevation_loss_m"`
	MinElevationM       int `json:"min_elevation_m"`
	MaxElevationM       int `json:"max_elevation_m"`
}

// ComputeStats smooths elevations with a centered 5 sample moving average, then
// counts gain and loss per monotonic segment. A segment only counts when its net
// change is at least 3 m. Empty or all-zero input yields zero stats.
func ComputeStats(elevations []float64) Stats {
	if allZero(elevations) {
		return Stats{}
	}

	smoothed := smooth(elevations)

	var gain, loss, segGain, segLoss float64
	climbing, started := false, false
	minEle, maxEle := smoothed[0], smoothed[0]

	for i := 1; i < len(smoothed); i++ {
		v := smoothed[i]
		minEle = math.Min(minEle, v)
		maxEle = math.Max(maxEle, v)

		diff := v - smoothed[i-1]
		switch {
		case diff > 0:
			if started && !climbing {
				if segLoss >= segmentThresholdM {
					loss += segLoss
				}
				segLoss = 0
			}
			climbing, started = true, true
			segGain += diff
		case diff < 0:
			if started && climbing {
				if segGain >= segmentThresholdM {
					gain += segGain
				}
				segGain = 0
			}
			climbing, started = false, true
			segLoss -= diff
		}
	}

	if started {
		if climbing && segGain >= segmentThresholdM {
			gain += segGain
		}
		if !climbing && segLoss >= segmentThresholdM {
			loss += segLoss
		}
	}

	return Stats{
		TotalElevationGainM: int(math.Round(gain)),
		TotalElevationLossM: int(math.Round(loss)),
		MinElevationM:       int(math.Round(minEle)),
		MaxElevationM:       int(math.Round(maxEle)),
	}
}

func allZero(values []float64) bool {
	for _, v := range values {
		if v != 0 {
			return false
		}
	}
	return true
}

// smooth applies a centered moving average; windows are truncated at the edges.
func smooth(values []float64) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		lo := max(0, i-smoothingHalfWindow)
		hi := min(len(values)-1, i+smoothingHalfWindow)
		var sum float64
		for j := lo; j <= hi; j++ {
			sum += values[j]
		}
		out[i] = sum / float64(hi-lo+1)
	}
	return out
}

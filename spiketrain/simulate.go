package spiketrain

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// GenerateBinaryStim generates a binary white noise stimulus of n samples
// alternating randomly between -1.0 and 1.0
func GenerateBinaryStim(n int) []float64 {
	stim := make([]float64, n)
	for i := range stim {
		if rand.IntN(2) == 0 {
			stim[i] = -1.0
			continue
		}
		stim[i] = 1.0
	}
	return stim
}

// GenerateStimTimes generates n uniformly spaced sample times starting at 0
func GenerateStimTimes(n int, dt float64) []float64 {
	times := make([]float64, n)
	for i := range times {
		times[i] = float64(i) * dt
	}
	return times
}

// GenerateSpikeTimes draws a Poisson spike count for every bin from the given
// rate series and places the events uniformly within their bin. The returned
// timestamps are ordered.
func GenerateSpikeTimes(rate []float64, dt float64) []float64 {
	var events []float64
	for i, r := range rate {
		if r <= 0 {
			continue
		}
		cnt := int(distuv.Poisson{Lambda: r}.Rand())
		start := float64(i) * dt

		binEvents := make([]float64, cnt)
		for j := 0; j < cnt; j++ {
			binEvents[j] = start + rand.Float64()*dt
		}
		// keep timestamps ordered within the bin
		for j := 1; j < len(binEvents); j++ {
			for k := j; k > 0 && binEvents[k] < binEvents[k-1]; k-- {
				binEvents[k], binEvents[k-1] = binEvents[k-1], binEvents[k]
			}
		}
		events = append(events, binEvents...)
	}
	return events
}

package spikeglm

import (
	"os"
	"testing"

	"github.com/goccy/go-json"
	"github.com/pkg/profile"
)

var benchFitRes *Results

func BenchmarkFit(b *testing.B) {
	stim, counts := generateExampleRecording(2000, 25)
	opt := testOptions()
	opt.Window = 25
	opt.HistoryWindow = 20
	opt.GLM.Iterations = 200

	var f *Fitter
	var err error

	b.ResetTimer()
	defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	for b.Loop() {
		f, err = New(opt)
		if err != nil {
			panic(err)
		}
		if err := f.Fit(stim, counts); err != nil {
			panic(err)
		}
	}

	benchFitRes, err = f.Results()
	if err != nil {
		panic(err)
	}

	bytes, err := json.MarshalIndent(benchFitRes, "", "  ")
	if err != nil {
		panic(err)
	}

	if err := os.WriteFile("benchmark_results.json", bytes, 0o644); err != nil {
		panic(err)
	}
}

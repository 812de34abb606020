package spikeglm

import (
	"fmt"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/mat"
)

// LineSeries generates an echart multi-line chart for some arbitrary bin/value
// combination. The input y is a slice of series that must have the same length
// as the input bin slice.
func LineSeries(title string, seriesName []string, bins []int, y [][]float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
	)

	lineData := make([][]opts.LineData, len(y))
	for i := 0; i < len(y); i++ {
		lineData[i] = make([]opts.LineData, 0, len(y[i]))
		for j := 0; j < len(y[i]); j++ {
			val := y[i][j]
			if math.IsNaN(val) {
				lineData[i] = append(lineData[i], opts.LineData{Value: nil})
				continue
			}
			lineData[i] = append(lineData[i], opts.LineData{Value: val})
		}
	}

	line = line.SetXAxis(bins)
	for i, series := range seriesName {
		line = line.AddSeries(series, lineData[i])
	}

	return line
}

// LineFit generates an echart chart for a fit result plotting the observed
// spike counts as bars along with the predicted rate of every strategy as
// line overlays. sampleBins limits how many bins are drawn starting from the
// beginning of the recording.
func LineFit(res *Results, sampleBins int) *charts.Bar {
	if sampleBins <= 0 || sampleBins > len(res.Observed) {
		sampleBins = len(res.Observed)
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: "Spike Count Fit",
			},
		),
	)

	bins := make([]int, 0, sampleBins)
	barData := make([]opts.BarData, 0, sampleBins)
	for i := 0; i < sampleBins; i++ {
		bins = append(bins, i)
		barData = append(barData, opts.BarData{Value: res.Observed[i]})
	}
	bar.SetXAxis(bins).AddSeries("Observed", barData)

	line := charts.NewLine()
	line = line.SetXAxis(bins)
	for _, sr := range res.Strategies() {
		lineData := make([]opts.LineData, 0, sampleBins)
		for i := 0; i < sampleBins; i++ {
			lineData = append(lineData, opts.LineData{Value: sr.Predicted[i]})
		}
		line = line.AddSeries(string(sr.Strategy), lineData)
	}
	bar.Overlap(line)

	return bar
}

// LineFilters generates an echart line chart of the fitted stimulus filters
// of every strategy over the lag axis ordered oldest lag first
func LineFilters(title string, filters map[Strategy][]float64, window int) *charts.Line {
	lags := make([]int, 0, window)
	for k := 0; k < window; k++ {
		lags = append(lags, k-window+1)
	}

	seriesName := make([]string, 0, len(filters))
	y := make([][]float64, 0, len(filters))
	for _, strategy := range []Strategy{StrategyLinear, StrategyPoisson, StrategyPoissonHist} {
		coef, exists := filters[strategy]
		if !exists {
			continue
		}
		seriesName = append(seriesName, string(strategy))
		y = append(y, coef)
	}
	return LineSeries(title, seriesName, lags, y)
}

// HeatMapDesign generates an echart heatmap of the leading rows of a design
// matrix with one cell per lag feature
func HeatMapDesign(title string, x mat.Matrix, maxRows int) *charts.HeatMap {
	m, n := x.Dims()
	if maxRows <= 0 || maxRows > m {
		maxRows = m
	}

	hm := charts.NewHeatMap()

	minVal := math.Inf(1)
	maxVal := math.Inf(-1)
	data := make([]opts.HeatMapData, 0, maxRows*n)
	for i := 0; i < maxRows; i++ {
		for j := 0; j < n; j++ {
			val := x.At(i, j)
			minVal = math.Min(minVal, val)
			maxVal = math.Max(maxVal, val)
			data = append(data, opts.HeatMapData{Value: [3]interface{}{j, i, val}})
		}
	}
	if minVal >= maxVal {
		maxVal = minVal + 1
	}

	cols := make([]string, 0, n)
	for j := 0; j < n; j++ {
		cols = append(cols, fmt.Sprintf("f%d", j))
	}
	rows := make([]string, 0, maxRows)
	for i := 0; i < maxRows; i++ {
		rows = append(rows, fmt.Sprintf("t%d", i))
	}

	hm.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
		charts.WithYAxisOpts(
			opts.YAxis{
				Type: "category",
				Data: rows,
			},
		),
		charts.WithVisualMapOpts(
			opts.VisualMap{
				Calculable: opts.Bool(true),
				Min:        float32(minVal),
				Max:        float32(maxVal),
			},
		),
	)
	hm.SetXAxis(cols).AddSeries("design", data)

	return hm
}

// Package plotutils provides plotting utilities for inspecting
// training and serving results
package plotutils

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Line saves a line chart of a data series to an image file. Entry i
// of the series is plotted at x = i.
func Line(title, xLabel, yLabel string, series []float64,
	filename string) error {
	if len(series) == 0 {
		return fmt.Errorf("line: no data to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel

	pts := make(plotter.XYs, len(series))
	for i, v := range series {
		pts[i].X = float64(i)
		pts[i].Y = v
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("line: could not create line plotter: %v", err)
	}
	p.Add(line)
	p.Legend.Add(yLabel, line)

	if err := p.Save(6*vg.Inch, 6*vg.Inch, filename); err != nil {
		return fmt.Errorf("line: could not save plot: %v", err)
	}
	return nil
}

// Rewards saves the rewards-over-episodes line chart of a training run
func Rewards(returns []float64, filename string) error {
	return Line("Training Progress", "Episode", "Cumulative Reward",
		returns, filename)
}

// CTR saves the CTR-over-windows line chart of a serving run
func CTR(rolling []float64, filename string) error {
	return Line("Real-Time Adjustment", "Window", "Rolling CTR", rolling,
		filename)
}

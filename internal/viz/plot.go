package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/wavesim/internal/sim"
)

const (
	plotWidth  = 80
	plotHeight = 15
)

// EnergyPlot charts the energy log of a run.
func EnergyPlot(samples []sim.EnergySample, caption string) string {
	if len(samples) == 0 {
		return "(no energy samples)\n"
	}
	data := make([]float64, len(samples))
	for i, s := range samples {
		data[i] = s.Energy
	}
	if len(data) == 1 {
		data = append(data, data[0])
	}
	return asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(plotWidth),
		asciigraph.Precision(6),
		asciigraph.Caption(caption),
	) + "\n"
}

// SnapshotPlot charts one layer against position.
func SnapshotPlot(step int, x, u []float64) string {
	if len(u) == 0 {
		return "(empty snapshot)\n"
	}
	caption := fmt.Sprintf("u(x) at step %d", step)
	if len(x) == len(u) && len(x) > 1 {
		caption = fmt.Sprintf("u(x) at step %d, x in [%g, %g]", step, x[0], x[len(x)-1])
	}
	return asciigraph.Plot(u,
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Caption(caption),
	) + "\n"
}

// SpectrumPlot charts a mode spectrum up to maxBins bins.
func SpectrumPlot(spec []float64, maxBins int) string {
	if len(spec) == 0 {
		return "(empty spectrum)\n"
	}
	if maxBins > 1 && len(spec) > maxBins {
		spec = spec[:maxBins]
	}
	return asciigraph.Plot(spec,
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Caption("mode amplitude"),
	) + "\n"
}

// Package report summarises and renders occlusion results: per-axis
// statistics, bird's-eye PNG plots and an HTML chart page.
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/occlusion.sim/internal/occlusion"
)

// AxisStats is the mean and sample standard deviation of one coordinate.
type AxisStats struct {
	Mean float64
	Std  float64
}

// Summary describes a single cloud.
type Summary struct {
	Points   int
	X, Y, Z  AxisStats
	Range    AxisStats // horizontal distance from the origin
	BySensor map[occlusion.SensorID]int
	ByRegion map[occlusion.Region]int // sector boundary, disjoint
}

// Summarize computes a Summary. Statistics of an empty cloud are zero.
func Summarize(c occlusion.PointCloud) Summary {
	s := Summary{
		Points:   c.Len(),
		BySensor: c.CountBySensor(),
		ByRegion: make(map[occlusion.Region]int, len(occlusion.Regions)),
	}
	if c.Len() == 0 {
		return s
	}
	xs := make([]float64, c.Len())
	ys := make([]float64, c.Len())
	zs := make([]float64, c.Len())
	rs := make([]float64, c.Len())
	for i, p := range c.Points {
		xs[i], ys[i], zs[i] = p.X, p.Y, p.Z
		rs[i] = math.Hypot(p.X, p.Y)
		for _, r := range occlusion.Regions {
			if occlusion.Classify(p, r, occlusion.BoundarySector) {
				s.ByRegion[r]++
				break
			}
		}
	}
	s.X = axis(xs)
	s.Y = axis(ys)
	s.Z = axis(zs)
	s.Range = axis(rs)
	return s
}

func axis(v []float64) AxisStats {
	if len(v) < 2 {
		return AxisStats{Mean: stat.Mean(v, nil)}
	}
	m, sd := stat.MeanStdDev(v, nil)
	return AxisStats{Mean: m, Std: sd}
}

// SensorChange is one sensor's before/after count.
type SensorChange struct {
	Sensor   occlusion.SensorID
	Before   int
	After    int
	Retained float64 // After/Before, 0 when Before is 0
}

// Comparison relates an input cloud to its occluded output.
type Comparison struct {
	Before, After Summary
	Retained      float64
	Sensors       []SensorChange // sorted by sensor
}

// Compare summarises before and after and the per-sensor retention.
func Compare(before, after occlusion.PointCloud) Comparison {
	cmp := Comparison{Before: Summarize(before), After: Summarize(after)}
	cmp.Retained = ratio(cmp.After.Points, cmp.Before.Points)

	seen := make(map[occlusion.SensorID]bool)
	for s := range cmp.Before.BySensor {
		seen[s] = true
	}
	for s := range cmp.After.BySensor {
		seen[s] = true
	}
	for s := range seen {
		b, a := cmp.Before.BySensor[s], cmp.After.BySensor[s]
		cmp.Sensors = append(cmp.Sensors, SensorChange{Sensor: s, Before: b, After: a, Retained: ratio(a, b)})
	}
	sort.Slice(cmp.Sensors, func(i, j int) bool { return cmp.Sensors[i].Sensor < cmp.Sensors[j].Sensor })
	return cmp
}

// String renders the comparison as an aligned text table.
func (c Comparison) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "points: %d -> %d (%.1f%% retained)\n", c.Before.Points, c.After.Points, 100*c.Retained)
	for _, s := range c.Sensors {
		fmt.Fprintf(&b, "  %-18s %6d -> %6d  %5.1f%%\n", s.Sensor, s.Before, s.After, 100*s.Retained)
	}
	for _, r := range occlusion.Regions {
		fmt.Fprintf(&b, "  region %-11s %6d -> %6d\n", r, c.Before.ByRegion[r], c.After.ByRegion[r])
	}
	return b.String()
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}

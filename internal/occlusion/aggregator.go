package occlusion

import (
	"github.com/banshee-data/occlusion.sim/internal/monitoring"
)

// AggregateReport describes the sensor-level decisions of one Aggregate call.
type AggregateReport struct {
	Present  []SensorID       // Non-empty sensors in merge order
	Dropped  []SensorID       // Sensors excluded from the merged cloud
	Warnings []UnknownSensorWarning
	Counts   map[SensorID]int // Input points per sensor
}

// Aggregator merges per-sensor clouds and applies whole-sensor loss.
type Aggregator struct {
	// Order is the canonical merge order. Sensors not listed are appended
	// after it, sorted by name.
	Order []SensorID
}

// NewAggregator returns an Aggregator merging in the given order.
func NewAggregator(order []SensorID) *Aggregator {
	return &Aggregator{Order: append([]SensorID(nil), order...)}
}

// Aggregate merges inputs in canonical order, excluding the sensors chosen
// by cfg. SensorsToDrop names absent from inputs yield warnings only.
// RandomDropOneSensor picks one present, non-empty sensor using rng, or a
// FallbackSeed source when rng is nil. Inputs whose channel layout differs
// from the merged layout are remapped onto it by name.
func (a *Aggregator) Aggregate(inputs map[SensorID]PointCloud, cfg Config, rng Rand) (PointCloud, AggregateReport) {
	order := mergeOrder(a.Order, inputs)
	report := AggregateReport{Counts: make(map[SensorID]int, len(inputs))}
	for _, s := range order {
		n := inputs[s].Len()
		report.Counts[s] = n
		if n > 0 {
			report.Present = append(report.Present, s)
		}
	}

	drop := make(map[SensorID]bool)
	opts := cfg.opts
	switch {
	case len(opts.SensorsToDrop) > 0:
		for _, s := range opts.SensorsToDrop {
			if _, ok := inputs[s]; !ok {
				w := UnknownSensorWarning{Sensor: s}
				report.Warnings = append(report.Warnings, w)
				monitoring.Warnf("%s, ignoring", w)
				continue
			}
			drop[s] = true
		}
		if opts.RandomDropOneSensor {
			monitoring.Logf("sensors_to_drop set, random_drop_one_sensor ignored")
		}
	case opts.RandomDropOneSensor:
		if len(report.Present) > 0 {
			pick := report.Present[orFallback(rng).Intn(len(report.Present))]
			drop[pick] = true
			monitoring.Logf("randomly selected sensor to drop: %s", pick)
		}
	}

	total := 0
	var kept []PointCloud
	for _, s := range order {
		if drop[s] {
			report.Dropped = append(report.Dropped, s)
			continue
		}
		kept = append(kept, inputs[s])
		total += inputs[s].Len()
	}
	channels := mergeLayouts(kept)
	merged := make([]PointRecord, 0, total)
	for _, c := range kept {
		if sameLayout(c.Channels, channels) {
			merged = append(merged, c.Points...)
			continue
		}
		merged = append(merged, remapChannels(c, channels)...)
	}
	return PointCloud{Points: merged, Channels: channels}, report
}

// mergeLayouts returns the channel names of clouds in order of first
// appearance. It returns the first layout itself when every cloud agrees.
func mergeLayouts(clouds []PointCloud) []string {
	var layout []string
	seen := make(map[string]bool)
	for _, c := range clouds {
		if layout == nil && len(c.Channels) > 0 {
			layout = c.Channels
			for _, name := range layout {
				seen[name] = true
			}
			continue
		}
		for _, name := range c.Channels {
			if !seen[name] {
				seen[name] = true
				layout = append(append([]string(nil), layout...), name)
			}
		}
	}
	return layout
}

func sameLayout(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// remapChannels returns copies of c's points with channels reordered to
// layout. Channels c does not carry are zero.
func remapChannels(c PointCloud, layout []string) []PointRecord {
	src := make([]int, len(layout))
	for i, name := range layout {
		src[i] = c.ChannelIndex(name)
	}
	out := make([]PointRecord, len(c.Points))
	for i, p := range c.Points {
		ch := make([]float64, len(layout))
		for j, k := range src {
			if k >= 0 && k < len(p.Channels) {
				ch[j] = p.Channels[k]
			}
		}
		p.Channels = ch
		out[i] = p
	}
	return out
}

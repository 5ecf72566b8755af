package occlusion

import (
	"context"
	"sort"
)

// SensorID names the physical sensor that produced a point,
// e.g. "RADAR_FRONT" or "LIDAR_TOP".
type SensorID string

// Radar and LiDAR sensor identifiers used by nuScenes-style rigs.
const (
	RadarFront      SensorID = "RADAR_FRONT"
	RadarFrontLeft  SensorID = "RADAR_FRONT_LEFT"
	RadarFrontRight SensorID = "RADAR_FRONT_RIGHT"
	RadarBackLeft   SensorID = "RADAR_BACK_LEFT"
	RadarBackRight  SensorID = "RADAR_BACK_RIGHT"
	LidarTop        SensorID = "LIDAR_TOP"
)

// Modality distinguishes radar from LiDAR pipelines.
type Modality string

const (
	ModalityRadar Modality = "radar"
	ModalityLidar Modality = "lidar"
)

// RadarSensors is the canonical merge order for radar clouds.
var RadarSensors = []SensorID{
	RadarFront,
	RadarFrontLeft,
	RadarFrontRight,
	RadarBackLeft,
	RadarBackRight,
}

// LidarSensors is the canonical merge order for LiDAR clouds.
var LidarSensors = []SensorID{LidarTop}

// Default extra-channel layouts. Loaders map decoded fields onto these by name.
var (
	RadarChannels = []string{"rcs", "vx", "vy", "vx_comp", "vy_comp"}
	LidarChannels = []string{"intensity", "ring"}
)

// ChannelRCS is the radar cross-section channel scaled by RCS attenuation.
const ChannelRCS = "rcs"

// PointRecord is a single return in the ego frame.
// Records are values; transforms return new records and never write through
// a shared Channels slice.
type PointRecord struct {
	X, Y, Z  float64   // Ego frame position (meters)
	Channels []float64 // Extra channels, laid out per PointCloud.Channels
	Sensor   SensorID  // Source sensor
	TimeLag  float64   // Seconds between this sweep and the reference sweep
}

// PointCloud is an ordered set of points for one dataset sample.
// Order carries no meaning but is kept stable so seeded draws reproduce.
type PointCloud struct {
	Points   []PointRecord
	Channels []string
}

// Len returns the number of points.
func (c PointCloud) Len() int { return len(c.Points) }

// Clone returns a deep copy, including every Channels slice.
func (c PointCloud) Clone() PointCloud {
	out := PointCloud{
		Points:   make([]PointRecord, len(c.Points)),
		Channels: append([]string(nil), c.Channels...),
	}
	for i, p := range c.Points {
		p.Channels = append([]float64(nil), p.Channels...)
		out.Points[i] = p
	}
	return out
}

// ChannelIndex returns the position of a named channel, or -1.
func (c PointCloud) ChannelIndex(name string) int {
	for i, ch := range c.Channels {
		if ch == name {
			return i
		}
	}
	return -1
}

// CountBySensor returns the number of points contributed by each sensor.
func (c PointCloud) CountBySensor() map[SensorID]int {
	counts := make(map[SensorID]int)
	for _, p := range c.Points {
		counts[p.Sensor]++
	}
	return counts
}

// IndicesOf returns the ascending indices of points produced by sensor.
func (c PointCloud) IndicesOf(sensor SensorID) []int {
	var idx []int
	for i, p := range c.Points {
		if p.Sensor == sensor {
			idx = append(idx, i)
		}
	}
	return idx
}

// AllIndices returns 0..Len()-1.
func (c PointCloud) AllIndices() []int {
	idx := make([]int, len(c.Points))
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// Without returns a new cloud omitting the given indices. Indices must be
// ascending and unique, which is what the selection functions produce.
func (c PointCloud) Without(indices []int) PointCloud {
	if len(indices) == 0 {
		return c
	}
	kept := make([]PointRecord, 0, len(c.Points)-len(indices))
	next := 0
	for i, p := range c.Points {
		if next < len(indices) && indices[next] == i {
			next++
			continue
		}
		kept = append(kept, p)
	}
	return PointCloud{Points: kept, Channels: c.Channels}
}

// Source provides raw per-sensor sweeps for a dataset sample, already in the
// ego frame. Sensors with no data may be omitted from the returned map.
type Source interface {
	LoadSensors(ctx context.Context, sampleID string, sensors []SensorID, nsweeps int) (map[SensorID]PointCloud, error)
}

// mergeOrder returns the sensors of inputs ordered canonically: first the
// sensors listed in order, then any others sorted by name.
func mergeOrder(order []SensorID, inputs map[SensorID]PointCloud) []SensorID {
	seen := make(map[SensorID]bool, len(order))
	out := make([]SensorID, 0, len(inputs))
	for _, s := range order {
		if _, ok := inputs[s]; ok && !seen[s] {
			out = append(out, s)
		}
		seen[s] = true
	}
	var extra []SensorID
	for s := range inputs {
		if !seen[s] {
			extra = append(extra, s)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}

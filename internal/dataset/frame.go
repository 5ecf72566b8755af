package dataset

import (
	"math"

	"github.com/banshee-data/occlusion.sim/internal/occlusion"
)

// Frame is a decoded sweep in the sensor frame: one row per point, with
// values laid out as Fields.
type Frame struct {
	Fields []string
	Rows   [][]float64
}

// Len returns the number of points.
func (f *Frame) Len() int { return len(f.Rows) }

// Index returns the column of a field, or -1.
func (f *Frame) Index(name string) int {
	for i, n := range f.Fields {
		if n == name {
			return i
		}
	}
	return -1
}

// RemoveClose drops points with |x| < d and |y| < d, the square around the
// sensor where returns hit the vehicle itself. d <= 0 keeps everything.
func (f *Frame) RemoveClose(d float64) int {
	if d <= 0 {
		return 0
	}
	xi, yi := f.Index("x"), f.Index("y")
	kept := f.Rows[:0]
	for _, r := range f.Rows {
		if math.Abs(r[xi]) < d && math.Abs(r[yi]) < d {
			continue
		}
		kept = append(kept, r)
	}
	removed := len(f.Rows) - len(kept)
	f.Rows = kept
	return removed
}

// Radar state fields carried by nuScenes radar PCDs.
const (
	FieldInvalidState = "invalid_state"
	FieldDynProp      = "dyn_prop"
	FieldAmbigState   = "ambig_state"
)

// RadarFilter lists the accepted values of each radar state field.
// A nil list accepts every value.
type RadarFilter struct {
	InvalidStates []int
	DynProps      []int
	AmbigStates   []int
}

// DefaultRadarFilter keeps valid, unambiguous returns of any dynamic
// property: invalid_state 0, dyn_prop 0..6, ambig_state 3.
var DefaultRadarFilter = RadarFilter{
	InvalidStates: []int{0},
	DynProps:      []int{0, 1, 2, 3, 4, 5, 6},
	AmbigStates:   []int{3},
}

// FilterRadar drops rows whose state fields fall outside rf and returns the
// number removed. Fields the frame does not carry are reported in missing
// and do not constrain.
func (f *Frame) FilterRadar(rf RadarFilter) (removed int, missing []string) {
	type rule struct {
		col     int
		allowed []int
	}
	var rules []rule
	for _, c := range []struct {
		field   string
		allowed []int
	}{
		{FieldInvalidState, rf.InvalidStates},
		{FieldDynProp, rf.DynProps},
		{FieldAmbigState, rf.AmbigStates},
	} {
		if c.allowed == nil {
			continue
		}
		col := f.Index(c.field)
		if col < 0 {
			missing = append(missing, c.field)
			continue
		}
		rules = append(rules, rule{col: col, allowed: c.allowed})
	}
	if len(rules) == 0 {
		return 0, missing
	}

	kept := f.Rows[:0]
	for _, r := range f.Rows {
		ok := true
		for _, ru := range rules {
			if !containsInt(ru.allowed, r[ru.col]) {
				ok = false
				break
			}
		}
		if ok {
			kept = append(kept, r)
		}
	}
	removed = len(f.Rows) - len(kept)
	f.Rows = kept
	return removed, missing
}

func containsInt(set []int, v float64) bool {
	for _, s := range set {
		if float64(s) == v {
			return true
		}
	}
	return false
}

// ApplyPose applies a 4x4 row-major transform T to point (x,y,z).
func ApplyPose(x, y, z float64, T [16]float64) (wx, wy, wz float64) {
	wx = T[0]*x + T[1]*y + T[2]*z + T[3]
	wy = T[4]*x + T[5]*y + T[6]*z + T[7]
	wz = T[8]*x + T[9]*y + T[10]*z + T[11]
	return
}

// ToCloud transforms the frame into the ego frame and maps its fields onto
// the channel layout by name. Channels the frame lacks are zero.
func (f *Frame) ToCloud(sensor occlusion.SensorID, layout []string, T [16]float64, timeLag float64) occlusion.PointCloud {
	xi, yi, zi := f.Index("x"), f.Index("y"), f.Index("z")
	src := make([]int, len(layout))
	for i, ch := range layout {
		src[i] = f.Index(ch)
	}

	cloud := occlusion.PointCloud{
		Points:   make([]occlusion.PointRecord, 0, len(f.Rows)),
		Channels: append([]string(nil), layout...),
	}
	for _, r := range f.Rows {
		x, y, z := ApplyPose(r[xi], r[yi], r[zi], T)
		ch := make([]float64, len(layout))
		for i, j := range src {
			if j >= 0 {
				ch[i] = r[j]
			}
		}
		cloud.Points = append(cloud.Points, occlusion.PointRecord{
			X: x, Y: y, Z: z,
			Channels: ch,
			Sensor:   sensor,
			TimeLag:  timeLag,
		})
	}
	return cloud
}

// hasXYZ reports whether the frame carries coordinates.
func (f *Frame) hasXYZ() bool {
	return f.Index("x") >= 0 && f.Index("y") >= 0 && f.Index("z") >= 0
}

package occlusion

import (
	"math"
	"math/rand"
	"testing"

	"github.com/banshee-data/occlusion.sim/internal/monitoring"
)

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// quietLogs mutes the package logger for the duration of a test.
func quietLogs(t *testing.T) {
	t.Helper()
	original := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.Logf = original })
}

// ringCloud returns n points for sensor spread evenly around a circle of
// radius r, starting at heading offsetDeg.
func ringCloud(sensor SensorID, n int, r, offsetDeg float64) PointCloud {
	c := PointCloud{Channels: []string{"rcs", "vx"}}
	for i := 0; i < n; i++ {
		a := (offsetDeg + 360*float64(i)/float64(n)) * math.Pi / 180
		c.Points = append(c.Points, PointRecord{
			X:        r * math.Cos(a),
			Y:        r * math.Sin(a),
			Z:        0.5,
			Channels: []float64{float64(i), 1.5},
			Sensor:   sensor,
			TimeLag:  0.05 * float64(i%3),
		})
	}
	return c
}

// radarInputs returns five radar clouds with n points each.
func radarInputs(n int) map[SensorID]PointCloud {
	in := make(map[SensorID]PointCloud)
	for i, s := range RadarSensors {
		in[s] = ringCloud(s, n, 10+float64(i), 3)
	}
	return in
}

// axisCloud returns 25 points on each of +x, -x, +y, -y.
func axisCloud(sensor SensorID) PointCloud {
	var c PointCloud
	for i := 1; i <= 25; i++ {
		r := float64(i)
		c.Points = append(c.Points,
			PointRecord{X: r, Y: 0, Sensor: sensor},
			PointRecord{X: -r, Y: 0, Sensor: sensor},
			PointRecord{X: 0, Y: r, Sensor: sensor},
			PointRecord{X: 0, Y: -r, Sensor: sensor},
		)
	}
	return c
}

func ptr(v float64) *float64 { return &v }

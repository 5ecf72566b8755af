// Package testutil builds small on-disk datasets for end-to-end tests.
package testutil

import (
	"bytes"
	"encoding/binary"
	"math"
	"path/filepath"
	"testing"

	"github.com/banshee-data/occlusion.sim/internal/dataset"
	"github.com/banshee-data/occlusion.sim/internal/fsutil"
	"github.com/banshee-data/occlusion.sim/internal/occlusion"
)

// RadarBinFields is the column layout WriteDataroot uses for radar sweeps.
var RadarBinFields = []string{"x", "y", "z", "rcs", "vx", "vy", "vx_comp", "vy_comp"}

// RadarStateFields extend RadarBinFields when Dataroot.InvalidEvery is set.
var RadarStateFields = []string{"invalid_state", "dyn_prop", "ambig_state"}

// Dataroot describes the fixture written by WriteDataroot.
type Dataroot struct {
	RadarPoints int // per radar sensor
	LidarPoints int
	RCS         float64

	// InvalidEvery, when > 0, adds radar state fields and marks every
	// InvalidEvery-th radar point (from the first) with invalid_state 1.
	// The rest are valid: invalid_state 0, dyn_prop 0, ambig_state 3.
	InvalidEvery int
}

// DefaultDataroot has 20 points on each of the five radars and 100 LiDAR
// points, so a sample holds 100 points of either modality.
var DefaultDataroot = Dataroot{RadarPoints: 20, LidarPoints: 100, RCS: 10}

// RingRecords packs n float32 records of width fields on a circle of the
// given radius. The fourth column, when present, holds value. Angles start
// just past zero so no point lies on an axis.
func RingRecords(n, fields int, radius, value float64) []byte {
	var b bytes.Buffer
	rec := make([]float32, fields)
	for i := 0; i < n; i++ {
		a := 2*math.Pi*float64(i)/float64(n) + 0.01
		rec[0] = float32(radius * math.Cos(a))
		rec[1] = float32(radius * math.Sin(a))
		if fields > 3 {
			rec[3] = float32(value)
		}
		_ = binary.Write(&b, binary.LittleEndian, rec)
	}
	return b.Bytes()
}

// Write writes one manifest per id into fsys under root, with .bin
// sweeps for every radar and the top LiDAR. Radar k sits on radius 10+k,
// the LiDAR ring on radius 20.
func (d Dataroot) Write(t *testing.T, fsys fsutil.FileSystem, root string, ids ...string) {
	t.Helper()
	if err := fsys.MkdirAll(filepath.Join(root, "sweeps"), 0755); err != nil {
		t.Fatalf("create sweeps dir: %v", err)
	}
	for _, id := range ids {
		man := &dataset.Manifest{Sample: id, Sensors: map[string]dataset.SensorSweeps{}}
		fields := RadarBinFields
		if d.InvalidEvery > 0 {
			fields = append(append([]string(nil), RadarBinFields...), RadarStateFields...)
		}
		for k, s := range occlusion.RadarSensors {
			rel := filepath.Join("sweeps", id+"_"+string(s)+".bin")
			data := RingRecords(d.RadarPoints, len(fields), 10+float64(k), d.RCS)
			if d.InvalidEvery > 0 {
				markStates(data, len(fields), d.InvalidEvery)
			}
			writeFile(t, fsys, filepath.Join(root, rel), data)
			man.Sensors[string(s)] = dataset.SensorSweeps{Fields: fields, Sweeps: []dataset.Sweep{{Path: rel}}}
		}
		rel := filepath.Join("sweeps", id+"_"+string(occlusion.LidarTop)+".bin")
		writeFile(t, fsys, filepath.Join(root, rel), RingRecords(d.LidarPoints, len(dataset.NuScenesLidarFields), 20, 1))
		man.Sensors[string(occlusion.LidarTop)] = dataset.SensorSweeps{Fields: dataset.NuScenesLidarFields, Sweeps: []dataset.Sweep{{Path: rel}}}
		if err := dataset.WriteManifest(fsys, root, man); err != nil {
			t.Fatalf("write manifest %s: %v", id, err)
		}
	}
}

// markStates fills the trailing invalid_state, dyn_prop and ambig_state
// columns of packed float32 records in place.
func markStates(data []byte, fields, every int) {
	stride := fields * 4
	put := func(rec []byte, col int, v float32) {
		binary.LittleEndian.PutUint32(rec[col*4:], math.Float32bits(v))
	}
	for i := 0; i*stride < len(data); i++ {
		rec := data[i*stride : (i+1)*stride]
		invalid := float32(0)
		if i%every == 0 {
			invalid = 1
		}
		put(rec, fields-3, invalid)
		put(rec, fields-2, 0)
		put(rec, fields-1, 3)
	}
}

// WriteDataroot writes DefaultDataroot samples into a fresh temp directory
// and returns its path.
func WriteDataroot(t *testing.T, ids ...string) string {
	t.Helper()
	root := t.TempDir()
	DefaultDataroot.Write(t, fsutil.OSFileSystem{}, root, ids...)
	return root
}

func writeFile(t *testing.T, fsys fsutil.FileSystem, path string, data []byte) {
	t.Helper()
	if err := fsys.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

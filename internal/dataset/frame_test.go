package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/occlusion.sim/internal/occlusion"
)

func TestApplyPose(t *testing.T) {
	// 90 degrees about z, then translate by (1, 2, 3).
	T := [16]float64{
		0, -1, 0, 1,
		1, 0, 0, 2,
		0, 0, 1, 3,
		0, 0, 0, 1,
	}
	x, y, z := ApplyPose(1, 0, 0, T)
	assert.InDelta(t, 1.0, x, 1e-12)
	assert.InDelta(t, 3.0, y, 1e-12)
	assert.InDelta(t, 3.0, z, 1e-12)

	x, y, z = ApplyPose(4, 5, 6, Identity)
	assert.Equal(t, []float64{4, 5, 6}, []float64{x, y, z})
}

func TestFrameRemoveClose(t *testing.T) {
	f := &Frame{
		Fields: []string{"x", "y", "z"},
		Rows: [][]float64{
			{0.5, 0.5, 0},   // inside the square
			{0.5, 1.5, 0},   // outside in y
			{-2, 0.1, 0},    // outside in x
			{-0.9, -0.9, 9}, // inside
		},
	}
	removed := f.RemoveClose(1.0)
	assert.Equal(t, 2, removed)
	require.Equal(t, 2, f.Len())
	assert.Equal(t, 1.5, f.Rows[0][1])
	assert.Equal(t, -2.0, f.Rows[1][0])

	assert.Zero(t, f.RemoveClose(0))
	assert.Equal(t, 2, f.Len())
}

func TestFrameToCloud(t *testing.T) {
	f := &Frame{
		Fields: []string{"x", "y", "z", "vx", "rcs", "dyn_prop"},
		Rows: [][]float64{
			{1, 2, 3, 0.5, 7, 1},
		},
	}
	T := Identity
	T[3] = 10 // translate x

	c := f.ToCloud(occlusion.RadarFront, occlusion.RadarChannels, T, 0.25)
	require.Equal(t, 1, c.Len())
	assert.Equal(t, occlusion.RadarChannels, c.Channels)

	p := c.Points[0]
	assert.Equal(t, 11.0, p.X)
	assert.Equal(t, 2.0, p.Y)
	assert.Equal(t, occlusion.RadarFront, p.Sensor)
	assert.Equal(t, 0.25, p.TimeLag)
	// rcs vx vy vx_comp vy_comp, missing ones are zero
	assert.Equal(t, []float64{7, 0.5, 0, 0, 0}, p.Channels)
}

func TestSweepPose(t *testing.T) {
	T, err := Sweep{Path: "a.pcd"}.Pose()
	require.NoError(t, err)
	assert.Equal(t, Identity, T)

	_, err = Sweep{Path: "a.pcd", Transform: []float64{1, 2, 3}}.Pose()
	assert.Error(t, err)
}

func TestFrame_FilterRadarMissingFields(t *testing.T) {
	f := &Frame{
		Fields: []string{"x", "y", "z", "dyn_prop"},
		Rows:   [][]float64{{1, 0, 0, 2}, {2, 0, 0, 9}},
	}
	removed, missing := f.FilterRadar(DefaultRadarFilter)
	if removed != 1 || f.Len() != 1 {
		t.Fatalf("removed %d, %d left; want 1 and 1", removed, f.Len())
	}
	if len(missing) != 2 || missing[0] != FieldInvalidState || missing[1] != FieldAmbigState {
		t.Errorf("missing = %v, want [invalid_state ambig_state]", missing)
	}

	removed, _ = f.FilterRadar(RadarFilter{})
	if removed != 0 {
		t.Errorf("empty filter removed %d rows", removed)
	}
}

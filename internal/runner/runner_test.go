package runner

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/occlusion.sim/internal/fsutil"
	"github.com/banshee-data/occlusion.sim/internal/monitoring"
	"github.com/banshee-data/occlusion.sim/internal/occlusion"
	"github.com/banshee-data/occlusion.sim/internal/storage/sqlite"
)

func quietLogs(t *testing.T) {
	t.Helper()
	original := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.Logf = original })
}

// synthSource generates deterministic radar clouds and fails for ids
// listed in fail.
type synthSource struct {
	n    int
	fail map[string]bool
}

func (s synthSource) LoadSensors(ctx context.Context, sampleID string, sensors []occlusion.SensorID, _ int) (map[occlusion.SensorID]occlusion.PointCloud, error) {
	if s.fail[sampleID] {
		return nil, errors.New("corrupt sweep")
	}
	out := make(map[occlusion.SensorID]occlusion.PointCloud)
	for k, sensor := range sensors {
		c := occlusion.PointCloud{Channels: occlusion.RadarChannels}
		for i := 0; i < s.n; i++ {
			a := 2 * math.Pi * float64(i) / float64(s.n)
			r := 5 + float64(k)
			c.Points = append(c.Points, occlusion.PointRecord{
				X: r * math.Cos(a), Y: r * math.Sin(a),
				Channels: []float64{1, 0, 0, 0, 0},
				Sensor:   sensor,
			})
		}
		out[sensor] = c
	}
	return out, nil
}

// memStore collects runs in memory.
type memStore struct {
	mu   sync.Mutex
	runs []*sqlite.Run
}

func (m *memStore) InsertRun(r *sqlite.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.RunID = fmt.Sprintf("run-%d", len(m.runs))
	m.runs = append(m.runs, r)
	return nil
}

func samples(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("sample-%03d", i)
	}
	return ids
}

func newRunner(cfg occlusion.Config) *Runner {
	return &Runner{
		Source:   synthSource{n: 40},
		Pipeline: occlusion.NewRadarPipeline(),
		Config:   cfg,
		Seed:     42,
		Sweeps:   1,
	}
}

func TestSampleSeed(t *testing.T) {
	assert.Equal(t, SampleSeed(42, "a"), SampleSeed(42, "a"))
	assert.NotEqual(t, SampleSeed(42, "a"), SampleSeed(42, "b"))
	assert.NotEqual(t, SampleSeed(42, "a"), SampleSeed(43, "a"))
}

func TestRunIndependentOfWorkers(t *testing.T) {
	quietLogs(t)
	cfg := occlusion.MustConfig(occlusion.Options{DropPercentage: 30, RandomDropOneSensor: true})
	ids := samples(24)

	serial := newRunner(cfg)
	serial.Workers = 1
	a, err := serial.Run(context.Background(), ids)
	require.NoError(t, err)

	parallel := newRunner(cfg)
	parallel.Workers = 8
	b, err := parallel.Run(context.Background(), ids)
	require.NoError(t, err)

	require.Len(t, a, len(ids))
	for i := range ids {
		assert.Equal(t, ids[i], a[i].SampleID)
		assert.NoError(t, a[i].Err)
		if diff := cmp.Diff(a[i].Stats, b[i].Stats); diff != "" {
			t.Errorf("%s differs between 1 and 8 workers:\n%s", ids[i], diff)
		}
		// 200 points, one sensor lost, 30% of the remaining 160
		assert.Equal(t, 112, a[i].Stats.OutputPoints)
	}
}

func TestRunWritesOutputsAndRecords(t *testing.T) {
	quietLogs(t)
	mfs := fsutil.NewMemoryFileSystem()
	store := &memStore{}
	r := newRunner(occlusion.MustConfig(occlusion.Options{DropPercentage: 50}))
	r.OutDir = "/out"
	r.OutFormat = "bin"
	r.FS = mfs
	r.Store = store
	r.ConfigJSON = `{"drop_percentage":50}`

	res, err := r.Run(context.Background(), samples(3))
	require.NoError(t, err)
	for _, s := range res {
		require.NoError(t, s.Err)
		assert.Equal(t, filepath.Join("/out", s.SampleID+".bin"), s.Output)
		data, err := mfs.ReadFile(s.Output)
		require.NoError(t, err)
		assert.Len(t, data, s.Stats.OutputPoints*8*4)
		assert.NotEmpty(t, s.RunID)
	}

	require.Len(t, store.runs, 3)
	for _, run := range store.runs {
		assert.Equal(t, sqlite.StatusOK, run.Status)
		assert.Equal(t, r.ConfigJSON, run.ConfigJSON)
		assert.Equal(t, occlusion.ModalityRadar, run.Modality)
		assert.Equal(t, 200, run.InputPoints)
		assert.Equal(t, 100, run.OutputPoints)
		assert.Len(t, run.Sensors, 5)
	}
}

func TestRunContinuesPastFailures(t *testing.T) {
	quietLogs(t)
	store := &memStore{}
	r := newRunner(occlusion.Config{})
	r.Source = synthSource{n: 4, fail: map[string]bool{"sample-001": true}}
	r.Store = store

	res, err := r.Run(context.Background(), samples(3))
	require.NoError(t, err)
	assert.NoError(t, res[0].Err)
	assert.Error(t, res[1].Err)
	assert.NoError(t, res[2].Err)

	require.Len(t, store.runs, 3)
	var failed int
	for _, run := range store.runs {
		if run.Status == sqlite.StatusError {
			failed++
			assert.Contains(t, run.Error, "corrupt sweep")
		}
	}
	assert.Equal(t, 1, failed)
}

func TestRunFailFast(t *testing.T) {
	quietLogs(t)
	r := newRunner(occlusion.Config{})
	r.Source = synthSource{n: 4, fail: map[string]bool{"sample-000": true}}
	r.Workers = 1
	r.FailFast = true

	res, err := r.Run(context.Background(), samples(5))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sample-000")
	require.Len(t, res, 5)
	for _, s := range res[1:] {
		assert.Error(t, s.Err, s.SampleID)
	}
}

func TestRunCancelled(t *testing.T) {
	quietLogs(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := newRunner(occlusion.Config{}).Run(ctx, samples(4))
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, res, 4)
	for _, s := range res {
		assert.Error(t, s.Err)
	}
}

func TestRunRejectsModalityMismatch(t *testing.T) {
	r := newRunner(occlusion.MustConfig(occlusion.Options{ScaleRCS: true, RCSScale: 0.5}))
	r.Pipeline = occlusion.NewLidarPipeline()

	_, err := r.Run(context.Background(), samples(1))
	assert.ErrorIs(t, err, occlusion.ErrInvalidConfig)
}

func TestRunWithSQLiteStore(t *testing.T) {
	quietLogs(t)
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer store.Close()

	r := newRunner(occlusion.MustConfig(occlusion.Options{SensorsToDrop: []occlusion.SensorID{occlusion.RadarFront}}))
	r.Store = store
	r.Workers = 4

	res, err := r.Run(context.Background(), samples(6))
	require.NoError(t, err)

	runs, err := store.ListRuns(10)
	require.NoError(t, err)
	assert.Len(t, runs, 6)

	got, err := store.GetRun(res[0].RunID)
	require.NoError(t, err)
	assert.Equal(t, []occlusion.SensorID{occlusion.RadarFront}, got.DroppedSensors)
	assert.Equal(t, 160, got.OutputPoints)
}

// Package runner applies one occlusion policy to many samples in parallel.
package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math/rand"
	"path/filepath"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/occlusion.sim/internal/dataset"
	"github.com/banshee-data/occlusion.sim/internal/fsutil"
	"github.com/banshee-data/occlusion.sim/internal/monitoring"
	"github.com/banshee-data/occlusion.sim/internal/occlusion"
	"github.com/banshee-data/occlusion.sim/internal/security"
	"github.com/banshee-data/occlusion.sim/internal/storage/sqlite"
)

// RunStore records finished samples. *sqlite.Store implements it.
type RunStore interface {
	InsertRun(r *sqlite.Run) error
}

// Runner processes samples with a fixed pipeline and policy.
type Runner struct {
	Source   occlusion.Source
	Pipeline *occlusion.Pipeline
	Config   occlusion.Config
	Seed     int64
	Sweeps   int
	Workers  int // <= 0 means GOMAXPROCS

	// OutDir, when set, receives <sample>.<OutFormat> per sample via FS.
	OutDir    string
	OutFormat string // "pcd" (default) or "bin"
	FS        fsutil.FileSystem

	// Store, when set, records every sample. ConfigJSON is stored verbatim.
	Store      RunStore
	ConfigJSON string

	// FailFast stops the batch at the first failed sample. Otherwise
	// failures are reported per sample and the batch continues.
	FailFast bool
}

// SampleResult is the outcome of one sample.
type SampleResult struct {
	SampleID string
	Seed     int64
	RunID    string
	Stats    occlusion.Stats
	Output   string
	Err      error
}

// SampleSeed derives a per-sample seed so results do not depend on which
// worker handles a sample or in what order.
func SampleSeed(seed int64, sampleID string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(sampleID))
	return seed ^ int64(h.Sum64())
}

// Run processes samples and returns one result per sample in input order.
// The error is ctx's error on cancellation, the first sample error when
// FailFast is set, and nil otherwise.
func (r *Runner) Run(ctx context.Context, samples []string) ([]SampleResult, error) {
	if r.Pipeline == nil || r.Source == nil {
		return nil, fmt.Errorf("runner needs a pipeline and a source")
	}
	if err := r.Pipeline.Check(r.Config); err != nil {
		return nil, err
	}
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]SampleResult, len(samples))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var mu sync.Mutex
	done := 0
	for i, id := range samples {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = SampleResult{SampleID: id, Err: err}
				return nil
			}
			res := r.runOne(gctx, id)
			results[i] = res

			mu.Lock()
			done++
			n := done
			mu.Unlock()
			if res.Err != nil {
				monitoring.Warnf("[%d/%d] %s: %v", n, len(samples), id, res.Err)
				if r.FailFast {
					return fmt.Errorf("sample %s: %w", id, res.Err)
				}
				return nil
			}
			monitoring.Logf("[%d/%d] %s: %d -> %d points", n, len(samples), id, res.Stats.InputPoints, res.Stats.OutputPoints)
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	for i := range results {
		if results[i].SampleID == "" {
			results[i] = SampleResult{SampleID: samples[i], Err: context.Canceled}
		}
	}
	return results, err
}

func (r *Runner) runOne(ctx context.Context, id string) SampleResult {
	seed := SampleSeed(r.Seed, id)
	out := SampleResult{SampleID: id, Seed: seed}
	rng := rand.New(rand.NewSource(seed))

	res, err := r.Pipeline.Occlude(ctx, r.Source, id, r.Sweeps, r.Config, rng)
	if err != nil {
		out.Err = err
		r.record(&out, sqlite.Run{Status: sqlite.StatusError, Error: err.Error()})
		return out
	}
	out.Stats = res.Stats

	if r.OutDir != "" {
		ext := r.OutFormat
		if ext == "" {
			ext = "pcd"
		}
		out.Output = filepath.Join(r.OutDir, security.SanitizeFilename(id)+"."+ext)
		fsys := r.FS
		if fsys == nil {
			fsys = fsutil.OSFileSystem{}
		}
		if err := dataset.WriteCloud(fsys, out.Output, res.Cloud); err != nil {
			out.Err = err
			r.record(&out, sqlite.Run{Status: sqlite.StatusError, Error: err.Error()})
			return out
		}
	}

	run := sqlite.NewRun(r.Pipeline.Modality, id, seed, r.ConfigJSON, r.Config, res)
	r.record(&out, *run)
	return out
}

func (r *Runner) record(out *SampleResult, run sqlite.Run) {
	if r.Store == nil {
		return
	}
	run.SampleID = out.SampleID
	run.Seed = out.Seed
	run.Modality = r.Pipeline.Modality
	if run.ConfigJSON == "" {
		run.ConfigJSON = r.ConfigJSON
	}
	if run.Policy == "" {
		run.Policy = r.Config.String()
	}
	if err := r.Store.InsertRun(&run); err != nil {
		monitoring.Warnf("record run for %s: %v", out.SampleID, err)
		return
	}
	out.RunID = run.RunID
}

// ConfigJSON encodes v for Runner.ConfigJSON, returning "{}" on failure.
func ConfigJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

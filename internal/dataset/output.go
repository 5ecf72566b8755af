package dataset

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/banshee-data/occlusion.sim/internal/fsutil"
	"github.com/banshee-data/occlusion.sim/internal/occlusion"
)

// WriteCloud writes cloud to path, choosing PCD or .bin by extension and
// creating parent directories as needed.
func WriteCloud(fsys fsutil.FileSystem, path string, cloud occlusion.PointCloud) (err error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".pcd" && ext != ".bin" {
		return fmt.Errorf("output must be .pcd or .bin, got %q", ext)
	}
	if err := fsys.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	w, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := w.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	if ext == ".pcd" {
		return WritePCD(w, cloud)
	}
	return WriteBin(w, cloud)
}

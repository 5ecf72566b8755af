package occlusion

import "math"

// atOrigin reports whether the point has no defined heading.
func atOrigin(p PointRecord) bool {
	return p.X == 0 && p.Y == 0
}

// Classify reports whether p lies inside region under the given boundary.
// The origin belongs to no region.
func Classify(p PointRecord, region Region, boundary Boundary) bool {
	if atOrigin(p) {
		return false
	}
	if boundary == BoundarySector {
		ax, ay := math.Abs(p.X), math.Abs(p.Y)
		switch region {
		case RegionFront:
			return p.X > 0 && ay <= ax
		case RegionBack:
			return p.X < 0 && ay <= ax
		case RegionLeft:
			return p.Y > 0 && ay > ax
		case RegionRight:
			return p.Y < 0 && ay > ax
		}
		return false
	}
	switch region {
	case RegionFront:
		return p.X > 0
	case RegionBack:
		return p.X < 0
	case RegionLeft:
		return p.Y > 0
	case RegionRight:
		return p.Y < 0
	}
	return false
}

// regionHeading returns the centre heading of region in degrees.
func regionHeading(region Region) (float64, bool) {
	switch region {
	case RegionFront:
		return 0, true
	case RegionLeft:
		return 90, true
	case RegionBack:
		return 180, true
	case RegionRight:
		return -90, true
	}
	return 0, false
}

// Heading returns atan2(y, x) in degrees, in (-180, 180].
func Heading(p PointRecord) float64 {
	return math.Atan2(p.Y, p.X) * 180.0 / math.Pi
}

// AngleClassify reports whether the heading of p lies within
// ±angleRangeDeg/2 of the region's centre heading, wrapping at ±180°.
// The origin belongs to no region.
func AngleClassify(p PointRecord, region Region, angleRangeDeg float64) bool {
	if atOrigin(p) {
		return false
	}
	centre, ok := regionHeading(region)
	if !ok {
		return false
	}
	return math.Abs(wrapDegrees(Heading(p)-centre)) <= angleRangeDeg/2
}

// wrapDegrees maps d into [-180, 180).
func wrapDegrees(d float64) float64 {
	d = math.Mod(d+180, 360)
	if d < 0 {
		d += 360
	}
	return d - 180
}

// RegionIndices returns the ascending indices of cloud points matching the
// region predicate selected by cfg (angular when AngleMode is set).
func RegionIndices(cloud PointCloud, cfg Config) []int {
	o := cfg.opts
	if o.Region == RegionNone {
		return nil
	}
	var idx []int
	for i, p := range cloud.Points {
		var in bool
		if o.AngleMode {
			in = AngleClassify(p, o.Region, o.AngleRangeDegrees)
		} else {
			in = Classify(p, o.Region, o.RegionBoundary)
		}
		if in {
			idx = append(idx, i)
		}
	}
	return idx
}

package occlusion

// Inject returns p with independent zero-mean Gaussian noise of standard
// deviation std added to X, Y and Z. Channels are shared, not copied, since
// they are left untouched. std == 0 returns p unchanged without consuming
// randomness. A nil rng uses a FallbackSeed source.
func Inject(p PointRecord, std float64, rng Rand) PointRecord {
	if std == 0 {
		return p
	}
	rng = orFallback(rng)
	p.X += rng.NormFloat64() * std
	p.Y += rng.NormFloat64() * std
	p.Z += rng.NormFloat64() * std
	return p
}

// InjectAt returns a copy of cloud with Inject applied to the points at
// indices, visited in ascending order.
func InjectAt(cloud PointCloud, indices []int, std float64, rng Rand) PointCloud {
	if std == 0 || len(indices) == 0 {
		return cloud
	}
	rng = orFallback(rng)
	pts := append([]PointRecord(nil), cloud.Points...)
	for _, i := range indices {
		pts[i] = Inject(pts[i], std, rng)
	}
	return PointCloud{Points: pts, Channels: cloud.Channels}
}

// ScaleChannel returns a copy of cloud with channel ch multiplied by scale on
// the points at indices. A cloud without the channel is returned unchanged.
func ScaleChannel(cloud PointCloud, ch string, indices []int, scale float64) PointCloud {
	ci := cloud.ChannelIndex(ch)
	if ci < 0 || len(indices) == 0 {
		return cloud
	}
	pts := append([]PointRecord(nil), cloud.Points...)
	for _, i := range indices {
		p := pts[i]
		if ci >= len(p.Channels) {
			continue
		}
		p.Channels = append([]float64(nil), p.Channels...)
		p.Channels[ci] *= scale
		pts[i] = p
	}
	return PointCloud{Points: pts, Channels: cloud.Channels}
}

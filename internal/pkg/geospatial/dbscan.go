package geospatial

import (
	"sort"
)

// Noise is the label DBSCAN gives to points that belong to no cluster.
// It never occurs with minSamples <= 1.
const Noise = -1

// DBSCAN labels points by density-based clustering under the haversine
// metric. Two points are neighbours when their great-circle distance is at
// most epsMeters; a point is a core point when it has at least minSamples
// neighbours, itself included. Clusters are numbered from 0 in order of the
// lowest-index core point that seeds them, so the labelling only depends on
// input order. A border point reachable from several clusters joins the
// first one that reaches it.
func DBSCAN(points []Point, epsMeters float64, minSamples int) []int {
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = Noise
	}
	if len(points) == 0 {
		return labels
	}

	neighbours := regionQuery(points, epsMeters)

	core := make([]bool, len(points))
	for i, nb := range neighbours {
		core[i] = len(nb) >= minSamples
	}

	next := 0
	var stack []int
	for i := range points {
		if labels[i] != Noise || !core[i] {
			continue
		}

		labels[i] = next
		stack = append(stack[:0], i)
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !core[p] {
				continue
			}
			for _, q := range neighbours[p] {
				if labels[q] == Noise {
					labels[q] = next
					stack = append(stack, q)
				}
			}
		}
		next++
	}

	return labels
}

// regionQuery returns, for every point, the indices of all points within
// epsMeters (itself included), in ascending index order. Points are swept in
// latitude order so that only candidates inside the latitude band are
// measured.
func regionQuery(points []Point, epsMeters float64) [][]int {
	order := make([]int, len(points))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return points[order[a]].Lat < points[order[b]].Lat
	})

	maxAngle := epsMeters / EarthRadiusMeters
	band := LatitudeSpan(epsMeters) + 1e-9

	neighbours := make([][]int, len(points))
	for pos, i := range order {
		p := points[i]
		lo := sort.Search(len(order), func(k int) bool {
			return points[order[k]].Lat >= p.Lat-band
		})
		for k := lo; k < len(order); k++ {
			j := order[k]
			q := points[j]
			if q.Lat > p.Lat+band {
				break
			}
			if k == pos || CentralAngle(p.Lat, p.Lon, q.Lat, q.Lon) <= maxAngle {
				neighbours[i] = append(neighbours[i], j)
			}
		}
		sort.Ints(neighbours[i])
	}

	return neighbours
}

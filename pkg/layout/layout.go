// Package layout computes initial node positions for family graphs and
// caches them per uploaded file.
//
// Positions are seeds for an interactive force layout: the selected root sits
// at the origin and every other node on a circle around it. They are cheap to
// compute but a viewer that has already settled a layout wants it back
// unchanged, so [Store] keeps them in a [cache.Cache] keyed by the file's
// content hash and drops them as soon as a different file is observed.
package layout

import "math"

// DefaultRadius is the circle radius in layout units.
const DefaultRadius = 1000

// Point is a position in layout units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Circular places center at the origin and node i of nodes at angle 2πi/n on
// a circle of DefaultRadius, where n is len(nodes). The center keeps its slot,
// so the remaining nodes stay where they would be for any other center.
// A center that is not in nodes is ignored.
func Circular(nodes []string, center string) map[string]Point {
	return CircularRadius(nodes, center, DefaultRadius)
}

// CircularRadius is Circular with an explicit radius.
func CircularRadius(nodes []string, center string, radius float64) map[string]Point {
	pos := make(map[string]Point, len(nodes))
	n := float64(len(nodes))
	for i, node := range nodes {
		if node == center {
			pos[node] = Point{}
			continue
		}
		angle := 2 * math.Pi * float64(i) / n
		pos[node] = Point{X: math.Cos(angle) * radius, Y: math.Sin(angle) * radius}
	}
	return pos
}

package geometry

import "math"

// PolygonArea computes the area of a simple polygon using the shoelace
// formula. The result is always non-negative regardless of winding order.
func PolygonArea(polygon []Point2D) float64 {
	n := len(polygon)
	if n < 3 {
		return 0
	}

	var sum float64
	j := n - 1
	for i := 0; i < n; i++ {
		sum += polygon[j].X*polygon[i].Y - polygon[i].X*polygon[j].Y
		j = i
	}
	return math.Abs(sum) / 2
}

// PolygonPerimeter computes the closed perimeter of a polygon.
func PolygonPerimeter(polygon []Point2D) float64 {
	n := len(polygon)
	if n < 2 {
		return 0
	}

	var perim float64
	j := n - 1
	for i := 0; i < n; i++ {
		perim += polygon[j].Distance(polygon[i])
		j = i
	}
	return perim
}

// BoundingBox computes the axis-aligned bounding box of a set of points.
func BoundingBox(points []Point2D) Rect {
	if len(points) == 0 {
		return Rect{}
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Centroid computes the centroid (average position) of a set of points.
func Centroid(points []Point2D) Point2D {
	if len(points) == 0 {
		return Point2D{}
	}
	var sumX, sumY float64
	for _, p := range points {
		sumX += p.X
		sumY += p.Y
	}
	n := float64(len(points))
	return Point2D{X: sumX / n, Y: sumY / n}
}

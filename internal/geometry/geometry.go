package geometry

// Point is a position in image-pixel coordinates (unscaled).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Centroid computes the signed-area-weighted centroid of a polygon using the
// shoelace formula. If the polygon is degenerate (zero area, e.g. collinear
// points) the first vertex is returned as-is to avoid dividing by zero. An
// empty slice yields the zero point.
func Centroid(points []Point) Point {
	if len(points) == 0 {
		return Point{}
	}

	var area, cx, cy float64
	for i := range points {
		p := points[i]
		q := points[(i+1)%len(points)]
		cross := p.X*q.Y - q.X*p.Y
		area += cross
		cx += (p.X + q.X) * cross
		cy += (p.Y + q.Y) * cross
	}

	if area == 0 {
		return points[0]
	}

	area /= 2
	return Point{
		X: cx / (6 * area),
		Y: cy / (6 * area),
	}
}

// RectangleFromTwoCorners normalizes two opposite corners into an axis-aligned
// rectangle. The result is independent of click order: corners run clockwise
// from the top-left, so the first point is (min x, min y) and the third is
// (max x, max y). Zero-width or zero-height rectangles are allowed.
func RectangleFromTwoCorners(p1, p2 Point) [4]Point {
	minX, maxX := p1.X, p2.X
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	minY, maxY := p1.Y, p2.Y
	if minY > maxY {
		minY, maxY = maxY, minY
	}

	return [4]Point{
		{X: minX, Y: minY},
		{X: maxX, Y: minY},
		{X: maxX, Y: maxY},
		{X: minX, Y: maxY},
	}
}

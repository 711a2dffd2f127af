package geo

import "math"

const earthRadiusM = 6371000.0

// Point is a geographic coordinate, GeoJSON axis order.
type Point struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }
func toDeg(rad float64) float64 { return rad * 180 / math.Pi }

// DistanceMeters is the haversine great-circle distance between two points.
func DistanceMeters(a, b Point) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)
	la1, la2 := toRad(a.Lat), toRad(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(la1)*math.Cos(la2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusM * math.Asin(math.Sqrt(h))
}

// Bearing returns the initial bearing from a to b in degrees from north.
func Bearing(a, b Point) float64 {
	la1, la2 := toRad(a.Lat), toRad(b.Lat)
	dLng := toRad(b.Lng - a.Lng)

	y := math.Sin(dLng) * math.Cos(la2)
	x := math.Cos(la1)*math.Sin(la2) - math.Sin(la1)*math.Cos(la2)*math.Cos(dLng)
	return math.Mod(toDeg(math.Atan2(y, x))+360, 360)
}

// Destination computes the point reached by travelling dist meters from p
// on the given bearing.
func Destination(p Point, bearingDeg, dist float64) Point {
	la1 := toRad(p.Lat)
	ln1 := toRad(p.Lng)
	br := toRad(bearingDeg)
	ad := dist / earthRadiusM

	la2 := math.Asin(math.Sin(la1)*math.Cos(ad) + math.Cos(la1)*math.Sin(ad)*math.Cos(br))
	ln2 := ln1 + math.Atan2(
		math.Sin(br)*math.Sin(ad)*math.Cos(la1),
		math.Cos(ad)-math.Sin(la1)*math.Sin(la2),
	)
	return Point{Lng: toDeg(ln2), Lat: toDeg(la2)}
}

// LineLength is the summed segment length of a polyline in meters.
func LineLength(line []Point) float64 {
	var total float64
	for i := 1; i < len(line); i++ {
		total += DistanceMeters(line[i-1], line[i])
	}
	return total
}

// pointAlong walks the polyline to the given distance and returns the
// interpolated point and the bearing of the segment it lands on. Distances
// beyond the line clamp to its last point.
func pointAlong(line []Point, dist float64) (Point, float64) {
	walked := 0.0
	for i := 1; i < len(line); i++ {
		seg := DistanceMeters(line[i-1], line[i])
		br := Bearing(line[i-1], line[i])
		if walked+seg >= dist {
			return Destination(line[i-1], br, dist-walked), br
		}
		walked += seg
	}
	last := line[len(line)-1]
	return last, Bearing(line[len(line)-2], last)
}

// Bands divides the centerline into count evenly spaced rectangular bands
// of the given width, centered on the line. Each band is returned as a
// closed ring of five points. This geometry is display-only.
func Bands(line []Point, count int, widthM float64) [][]Point {
	if len(line) < 2 || count <= 0 {
		return nil
	}

	total := LineLength(line)
	step := total / float64(count)
	half := widthM / 2

	bands := make([][]Point, 0, count)
	for i := 0; i < count; i++ {
		start, brStart := pointAlong(line, float64(i)*step)
		end, brEnd := pointAlong(line, float64(i+1)*step)

		// Perpendicular offsets on each side of the centerline.
		a := Destination(start, math.Mod(brStart+90, 360), half)
		b := Destination(start, math.Mod(brStart+270, 360), half)
		c := Destination(end, math.Mod(brEnd+270, 360), half)
		d := Destination(end, math.Mod(brEnd+90, 360), half)

		bands = append(bands, []Point{a, b, c, d, a})
	}
	return bands
}

package globe

import "math"

const degToRad = math.Pi / 180

// Project maps a geographic coordinate onto a sphere of the given radius.
//
// The frame is right-handed and Y-up: phi = 90-lat is the polar angle from
// +Y and theta = lng is the azimuth measured from +Z towards +X, so
// (0, 0) lands on +Z and (0, 90) on +X. Backing textures must be aligned to
// this convention, not the other way around.
func Project(lat, lng, radius float64) Vec3 {
	lat = clampLatitude(lat)
	if lat == 90 || lat == -90 {
		// Collapse the poles exactly instead of relying on sin(pi) ~ 1e-16.
		return Vec3{0, math.Copysign(radius, lat), 0}
	}

	phi := (90 - lat) * degToRad
	theta := NormalizeLongitude(lng) * degToRad

	sinPhi := math.Sin(phi)
	return Vec3{
		X: radius * sinPhi * math.Sin(theta),
		Y: radius * math.Cos(phi),
		Z: radius * sinPhi * math.Cos(theta),
	}
}

// NormalizeLongitude folds any longitude into [-180, 180).
func NormalizeLongitude(lng float64) float64 {
	if lng >= -180 && lng < 180 {
		return lng
	}
	lng = math.Mod(lng+180, 360)
	if lng < 0 {
		lng += 360
	}
	return lng - 180
}

func clampLatitude(lat float64) float64 {
	return math.Max(-90, math.Min(90, lat))
}

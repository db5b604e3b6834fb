package globe

import "math"

// Vec3 is a point or direction in the globe's right-handed, Y-up frame.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vec3) Scale(k float64) Vec3 {
	return Vec3{v.X * k, v.Y * k, v.Z * k}
}

func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

func (v Vec3) Len() float64 {
	return math.Sqrt(v.Dot(v))
}

func (v Vec3) Dist(o Vec3) float64 {
	return v.Sub(o).Len()
}

// Normalize returns the unit vector along v, or the zero vector if v has no length.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l == 0 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

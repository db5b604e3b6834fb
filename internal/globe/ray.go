package globe

import "math"

// Ray is a half-line Origin + t*Dir, t >= 0. Dir must be unit length.
type Ray struct {
	Origin Vec3
	Dir    Vec3
}

func (r Ray) At(t float64) Vec3 {
	return r.Origin.Add(r.Dir.Scale(t))
}

// IntersectSphere returns the smallest non-negative t at which the ray
// meets the sphere, or ok=false on a miss.
func (r Ray) IntersectSphere(center Vec3, radius float64) (t float64, ok bool) {
	oc := r.Origin.Sub(center)
	b := oc.Dot(r.Dir)
	c := oc.Dot(oc) - radius*radius
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	if t0 := -b - sq; t0 >= 0 {
		return t0, true
	}
	if t1 := -b + sq; t1 >= 0 {
		// Origin inside the sphere.
		return t1, true
	}
	return 0, false
}

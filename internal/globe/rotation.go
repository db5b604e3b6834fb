package globe

import "math"

const maxPitch = math.Pi / 2

// RotationState is the globe orientation. Yaw turns about +Y and wraps
// freely; Pitch turns about +X and stays within [-pi/2, pi/2].
type RotationState struct {
	Pitch        float64 `json:"pitch"`
	Yaw          float64 `json:"yaw"`
	AutoRotating bool    `json:"auto_rotating"`
}

func (r *RotationState) rotateBy(dYaw, dPitch float64) {
	r.Yaw += dYaw
	r.Pitch = math.Max(-maxPitch, math.Min(maxPitch, r.Pitch+dPitch))
}

// Apply takes a point from the globe's local frame into world space:
// yaw first, then pitch (Euler XYZ, as a scene graph would compose them).
func (r RotationState) Apply(p Vec3) Vec3 {
	sy, cy := math.Sincos(r.Yaw)
	p = Vec3{
		X: p.X*cy + p.Z*sy,
		Y: p.Y,
		Z: -p.X*sy + p.Z*cy,
	}
	sp, cp := math.Sincos(r.Pitch)
	return Vec3{
		X: p.X,
		Y: p.Y*cp - p.Z*sp,
		Z: p.Y*sp + p.Z*cp,
	}
}

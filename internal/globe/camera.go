package globe

import "math"

// Viewport is the pointer surface size in pixels.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (v Viewport) valid() bool {
	return v.Width > 0 && v.Height > 0
}

// NDC converts a pointer position in pixels (origin top-left) into
// normalized device coordinates in [-1, 1], Y up.
func (v Viewport) NDC(x, y float64) (float64, float64) {
	return x/v.Width*2 - 1, -(y/v.Height)*2 + 1
}

func (v Viewport) Aspect() float64 {
	if !v.valid() {
		return 1
	}
	return v.Width / v.Height
}

// Camera is a perspective camera looking down -Z from Position, with no
// roll, matching the default globe view.
type Camera struct {
	Position Vec3
	FOV      float64 // vertical field of view in degrees
}

func DefaultCamera() Camera {
	return Camera{Position: Vec3{0, 0, 400}, FOV: 50}
}

// RayThrough returns the ray leaving the camera through the given NDC point.
func (c Camera) RayThrough(ndcX, ndcY, aspect float64) Ray {
	halfH := math.Tan(c.FOV * degToRad / 2)
	dir := Vec3{
		X: ndcX * halfH * aspect,
		Y: ndcY * halfH,
		Z: -1,
	}
	return Ray{Origin: c.Position, Dir: dir.Normalize()}
}

package globe

import (
	"math"

	"github.com/mr1hm/crisis-globe/internal/models"
)

const (
	DefaultSensitivity     = 0.005 // radians per pixel of drag
	DefaultAutoRotateSpeed = 0.001 // radians per frame
)

type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// PointerEvent carries a pointer position in viewport pixels. Either field
// may be nil when the client could not supply it; such events are dropped.
type PointerEvent struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

func At(x, y float64) PointerEvent {
	return PointerEvent{X: &x, Y: &y}
}

func (e PointerEvent) xy() (float64, float64, bool) {
	if e.X == nil || e.Y == nil {
		return 0, 0, false
	}
	x, y := *e.X, *e.Y
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return 0, 0, false
	}
	return x, y, true
}

type ControllerConfig struct {
	Sensitivity     float64
	AutoRotateSpeed float64
	Camera          Camera
	Viewport        Viewport
}

func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		Sensitivity:     DefaultSensitivity,
		AutoRotateSpeed: DefaultAutoRotateSpeed,
		Camera:          DefaultCamera(),
		Viewport:        Viewport{Width: 1280, Height: 720},
	}
}

// Controller turns pointer and touch input into rotation changes and
// marker selections. It reads markers through a callback so every event
// sees the most recently derived set.
type Controller struct {
	cfg      ControllerConfig
	state    State
	lastX    float64
	lastY    float64
	moved    bool
	rotation RotationState
	markers  func() []MarkerView
	onSelect func(*models.Crisis)
}

func NewController(cfg ControllerConfig, markers func() []MarkerView, onSelect func(*models.Crisis)) *Controller {
	return &Controller{
		cfg:      cfg,
		rotation: RotationState{AutoRotating: true},
		markers:  markers,
		onSelect: onSelect,
	}
}

func (c *Controller) State() State {
	return c.state
}

func (c *Controller) Rotation() RotationState {
	return c.rotation
}

func (c *Controller) SetViewport(v Viewport) {
	c.cfg.Viewport = v
}

func (c *Controller) Viewport() Viewport {
	return c.cfg.Viewport
}

// PointerDown starts a gesture and suspends auto-rotation immediately.
func (c *Controller) PointerDown(ev PointerEvent) bool {
	x, y, ok := ev.xy()
	if !ok {
		return false
	}
	c.state = Dragging
	c.lastX, c.lastY = x, y
	c.moved = false
	c.rotation.AutoRotating = false
	return true
}

// PointerMove rotates the globe by the delta since the last position.
// Moves outside a gesture are ignored.
func (c *Controller) PointerMove(ev PointerEvent) bool {
	if c.state != Dragging {
		return false
	}
	x, y, ok := ev.xy()
	if !ok {
		return false
	}
	dx, dy := x-c.lastX, y-c.lastY
	if dx != 0 || dy != 0 {
		c.moved = true
	}
	c.rotation.rotateBy(dx*c.cfg.Sensitivity, dy*c.cfg.Sensitivity)
	c.lastX, c.lastY = x, y
	return true
}

// PointerUp ends the gesture. If the pointer never moved it is a click:
// the nearest marker under the pointer, if any, is reported through the
// selection callback. A click on empty space changes nothing.
func (c *Controller) PointerUp(ev PointerEvent) (selected bool) {
	wasClick := c.state == Idle || !c.moved
	c.release()

	x, y, ok := ev.xy()
	if !ok || !wasClick {
		return false
	}
	hit, ok := c.HitTest(x, y)
	if !ok {
		return false
	}
	if c.onSelect != nil {
		c.onSelect(hit.Crisis)
	}
	return true
}

// PointerLeave abandons any gesture without a click test.
func (c *Controller) PointerLeave() {
	c.release()
}

func (c *Controller) TouchStart(ev PointerEvent) bool {
	return c.PointerDown(ev)
}

func (c *Controller) TouchMove(ev PointerEvent) bool {
	return c.PointerMove(ev)
}

func (c *Controller) TouchEnd() {
	c.release()
}

// Tick advances auto-rotation by one frame.
func (c *Controller) Tick() {
	if c.state == Dragging || !c.rotation.AutoRotating {
		return
	}
	c.rotation.Yaw += c.cfg.AutoRotateSpeed
}

// HitTest casts a ray from the camera through the pointer position and
// returns the marker with the smallest ray parameter.
func (c *Controller) HitTest(x, y float64) (MarkerView, bool) {
	if !c.cfg.Viewport.valid() || c.markers == nil {
		return MarkerView{}, false
	}
	markers := c.markers()
	if len(markers) == 0 {
		return MarkerView{}, false
	}

	nx, ny := c.cfg.Viewport.NDC(x, y)
	ray := c.cfg.Camera.RayThrough(nx, ny, c.cfg.Viewport.Aspect())

	best := -1
	bestT := math.Inf(1)
	for i := range markers {
		center := c.rotation.Apply(markers[i].Position)
		if t, ok := ray.IntersectSphere(center, MarkerRadius); ok && t < bestT {
			best, bestT = i, t
		}
	}
	if best < 0 {
		return MarkerView{}, false
	}
	return markers[best], true
}

func (c *Controller) release() {
	c.state = Idle
	c.moved = false
	c.rotation.AutoRotating = true
}

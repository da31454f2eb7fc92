package viz

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/nbodysim/internal/dynamo"
)

// Camera orbits the world origin and projects points onto the canvas.
type Camera struct {
	RotX, RotY, RotZ float64
	// Perspective is the eye distance in multiples of the view extent;
	// 0 gives an orthographic view.
	Perspective float64
}

func NewCamera() *Camera {
	return &Camera{RotX: -0.5, Perspective: 4}
}

func (c *Camera) RotateX(a float64) { c.RotX += a }
func (c *Camera) RotateY(a float64) { c.RotY += a }
func (c *Camera) RotateZ(a float64) { c.RotZ += a }
func (c *Camera) Reset()            { *c = *NewCamera() }

func (c *Camera) rotation() mgl64.Mat3 {
	return mgl64.Rotate3DZ(c.RotZ).Mul3(mgl64.Rotate3DY(c.RotY)).Mul3(mgl64.Rotate3DX(c.RotX))
}

// Projection is a camera fixed for one frame.
type Projection struct {
	rot           mgl64.Mat3
	pixelsPerUnit float64
	eye           float64
	sw, sh        int
}

// Frame prepares a projection for a canvas of sw x sh sub-pixels where one
// world unit spans pixelsPerUnit sub-pixels.
func (c *Camera) Frame(pixelsPerUnit float64, sw, sh int) Projection {
	return Projection{
		rot:           c.rotation(),
		pixelsPerUnit: pixelsPerUnit,
		eye:           c.Perspective * float64(min(sw, sh)) / 2,
		sw:            sw,
		sh:            sh,
	}
}

// Project returns screen coordinates and depth of p; larger depth is
// closer to the viewer. ok is false behind the eye or off screen.
func (p Projection) Project(v dynamo.Vec3) (x, y int, depth float64, ok bool) {
	r := p.rot.Mul3x1(v).Mul(p.pixelsPerUnit)
	scale := 1.0
	if p.eye > 0 {
		if r.Z() >= p.eye {
			return 0, 0, 0, false
		}
		scale = p.eye / (p.eye - r.Z())
	}
	x = int(math.Round(r.X()*scale)) + p.sw/2
	y = int(math.Round(-r.Y()*scale)) + p.sh/2
	return x, y, r.Z(), x >= 0 && x < p.sw && y >= 0 && y < p.sh
}

// Extent is the largest distance of any point from the origin, at least 1e-9.
func Extent(points []dynamo.Vec3) float64 {
	e := 1e-9
	for _, p := range points {
		e = math.Max(e, p.Len())
	}
	return e
}

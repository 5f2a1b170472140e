package viz

import (
	"math"

	"github.com/san-kum/biodyn/internal/dynamo"
)

type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Camera projects points around the origin onto a plane with perspective.
type Camera struct {
	Distance   float64
	RotX, RotY float64
	Zoom       float64
}

func NewCamera() *Camera {
	return &Camera{Distance: 4, RotX: -0.4, RotY: 0.6, Zoom: 1.0}
}

func (c *Camera) Rotate(dx, dy float64) {
	c.RotX += dx
	c.RotY += dy
}

func (c *Camera) ZoomIn()  { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut() { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

func (c *Camera) rotate(p Vec3) Vec3 {
	cx, sx := math.Cos(c.RotX), math.Sin(c.RotX)
	p.Y, p.Z = p.Y*cx-p.Z*sx, p.Y*sx+p.Z*cx
	cy, sy := math.Cos(c.RotY), math.Sin(c.RotY)
	p.X, p.Z = p.X*cy+p.Z*sy, -p.X*sy+p.Z*cy
	return p
}

// Project maps p to raster coordinates of a w x h surface. The last result
// reports whether the point lies in front of the camera and on screen.
func (c *Camera) Project(p Vec3, w, h int) (int, int, bool) {
	rot := c.rotate(p).Scale(c.Zoom)
	if rot.Z >= c.Distance-0.1 {
		return 0, 0, false
	}
	scale := c.Distance / (c.Distance - rot.Z)
	unit := math.Min(float64(w), float64(h)) / 3.0
	sx := int(rot.X*scale*unit) + w/2
	sy := int(-rot.Y*scale*unit) + h/2
	return sx, sy, sx >= 0 && sx < w && sy >= 0 && sy < h
}

// Orbit centres and normalises three components of tr into the unit cube.
func Orbit(tr *dynamo.Trajectory, ix, iy, iz int) []Vec3 {
	if len(tr.States) == 0 {
		return nil
	}
	pts := make([]Vec3, 0, len(tr.States))
	lo := Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi := Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, x := range tr.States {
		if ix >= len(x) || iy >= len(x) || iz >= len(x) {
			return nil
		}
		p := Vec3{x[ix], x[iy], x[iz]}
		lo = Vec3{math.Min(lo.X, p.X), math.Min(lo.Y, p.Y), math.Min(lo.Z, p.Z)}
		hi = Vec3{math.Max(hi.X, p.X), math.Max(hi.Y, p.Y), math.Max(hi.Z, p.Z)}
		pts = append(pts, p)
	}

	mid := Vec3{(lo.X + hi.X) / 2, (lo.Y + hi.Y) / 2, (lo.Z + hi.Z) / 2}
	span := math.Max(hi.X-lo.X, math.Max(hi.Y-lo.Y, hi.Z-lo.Z))
	if span == 0 {
		span = 1
	}
	for i, p := range pts {
		pts[i] = p.Sub(mid).Scale(2 / span)
	}
	return pts
}

// RenderOrbit draws pts as a connected curve. Segments with an endpoint
// behind the camera are skipped.
func RenderOrbit(c *Canvas, pts []Vec3, cam *Camera) {
	if c == nil || cam == nil {
		return
	}
	w, h := c.SubWidth(), c.SubHeight()
	px, py, pv := 0, 0, false
	for _, p := range pts {
		x, y, visible := cam.Project(p, w, h)
		if visible && pv {
			c.DrawLine(px, py, x, y)
		} else if visible {
			c.Set(x, y)
		}
		px, py, pv = x, y, visible
	}
}

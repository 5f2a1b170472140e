package viz

import (
	"math"
	"strings"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const brailleBlank = 0x2800

// Canvas is a grid of Braille cells, each holding 2x4 sub-pixels.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// SubWidth and SubHeight are the canvas size in sub-pixels.
func (c *Canvas) SubWidth() int  { return c.Width * 2 }
func (c *Canvas) SubHeight() int { return c.Height * 4 }

// Set lights the sub-pixel at (x, y). Out of range points are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// Polyline connects consecutive points given in data coordinates.
func (c *Canvas) Polyline(points []Point, b Bounds) {
	w, h := c.SubWidth(), c.SubHeight()
	for i, p := range points {
		x, y := b.project(p, w, h)
		if i == 0 {
			c.Set(x, y)
			continue
		}
		px, py := b.project(points[i-1], w, h)
		c.DrawLine(px, py, x, y)
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

// Bounds is a data-space rectangle mapped onto a raster.
type Bounds struct {
	MinX, MaxX, MinY, MaxY float64
}

// boundsOf returns the extent of points, widened by pad on each side as a
// fraction of the range. Degenerate ranges get unit width.
func boundsOf(points []Point, pad float64) Bounds {
	if len(points) == 0 {
		return Bounds{0, 1, 0, 1}
	}
	b := Bounds{points[0].X, points[0].X, points[0].Y, points[0].Y}
	for _, p := range points {
		b.MinX = math.Min(b.MinX, p.X)
		b.MaxX = math.Max(b.MaxX, p.X)
		b.MinY = math.Min(b.MinY, p.Y)
		b.MaxY = math.Max(b.MaxY, p.Y)
	}

	rangeX := b.MaxX - b.MinX
	rangeY := b.MaxY - b.MinY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	b.MinX -= rangeX * pad
	b.MaxX += rangeX * pad
	b.MinY -= rangeY * pad
	b.MaxY += rangeY * pad
	return b
}

// project maps p to a column and row of a w x h raster, row 0 at the top.
func (b Bounds) project(p Point, w, h int) (int, int) {
	col := int((p.X - b.MinX) / (b.MaxX - b.MinX) * float64(w-1))
	row := h - 1 - int((p.Y-b.MinY)/(b.MaxY-b.MinY)*float64(h-1))
	return col, row
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

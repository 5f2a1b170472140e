package viz

import (
	"fmt"
	"strings"

	"github.com/san-kum/biodyn/internal/dynamo"
)

type Point struct{ X, Y float64 }

// PhasePortrait holds two state components sampled along a trajectory.
type PhasePortrait struct {
	XIndex, YIndex int
	XLabel, YLabel string
	Points         []Point
}

func NewPhasePortrait(tr *dynamo.Trajectory, xIdx, yIdx int) (*PhasePortrait, error) {
	dim := 0
	if len(tr.States) > 0 {
		dim = len(tr.States[0])
	}
	if xIdx < 0 || yIdx < 0 || xIdx >= dim || yIdx >= dim {
		return nil, fmt.Errorf("phase indices (%d, %d) out of range for dimension %d", xIdx, yIdx, dim)
	}

	portrait := &PhasePortrait{
		XIndex: xIdx,
		YIndex: yIdx,
		XLabel: tr.VarName(xIdx),
		YLabel: tr.VarName(yIdx),
		Points: make([]Point, len(tr.States)),
	}
	for i, x := range tr.States {
		portrait.Points[i] = Point{X: x[xIdx], Y: x[yIdx]}
	}
	return portrait, nil
}

// ASCII draws the portrait with one character per sample cell, plus the
// axes where they cross the visible area.
func (p *PhasePortrait) ASCII(width, height int) string {
	if p == nil || len(p.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	b := boundsOf(p.Points, 0.1)

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	for _, pt := range p.Points {
		col, row := b.project(pt, width, height)
		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	if b.MinX <= 0 && b.MaxX >= 0 {
		col, _ := b.project(Point{0, b.MinY}, width, height)
		for row := 0; row < height; row++ {
			if canvas[row][col] == ' ' {
				canvas[row][col] = '│'
			}
		}
	}
	if b.MinY <= 0 && b.MaxY >= 0 {
		_, row := b.project(Point{b.MinX, 0}, width, height)
		for col := 0; col < width; col++ {
			if canvas[row][col] == ' ' {
				canvas[row][col] = '─'
			}
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}

// Braille draws the portrait as a connected curve on a width x height
// cell canvas.
func (p *PhasePortrait) Braille(width, height int) string {
	if p == nil || len(p.Points) == 0 || width < 1 || height < 1 {
		return ""
	}
	c := NewCanvas(width, height)
	c.Polyline(p.Points, boundsOf(p.Points, 0.05))
	return c.String()
}

// Poincare records (rx, ry) wherever component crossIdx passes threshold
// upwards between consecutive samples, interpolating linearly inside the
// sample interval.
func Poincare(tr *dynamo.Trajectory, crossIdx int, threshold float64, rx, ry int) (*PhasePortrait, error) {
	section, err := NewPhasePortrait(tr, rx, ry)
	if err != nil {
		return nil, err
	}
	if crossIdx < 0 || (len(tr.States) > 0 && crossIdx >= len(tr.States[0])) {
		return nil, fmt.Errorf("crossing index %d out of range", crossIdx)
	}
	section.Points = section.Points[:0]

	for i := 1; i < len(tr.States); i++ {
		prev, curr := tr.States[i-1], tr.States[i]
		if !(prev[crossIdx] < threshold && curr[crossIdx] >= threshold) {
			continue
		}
		frac := (threshold - prev[crossIdx]) / (curr[crossIdx] - prev[crossIdx])
		section.Points = append(section.Points, Point{
			X: prev[rx] + frac*(curr[rx]-prev[rx]),
			Y: prev[ry] + frac*(curr[ry]-prev[ry]),
		})
	}
	return section, nil
}

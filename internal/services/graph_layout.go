package services

import (
	"math"
	"slices"
)

const (
	layoutMargin = 30.0
	minDistance  = 0.01
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Layout places graph nodes with the Fruchterman–Reingold force model:
// every pair repels, every edge attracts, and the step size cools linearly.
// Positions survive between runs so a relayout after a mutation moves the
// picture as little as possible. Pinned nodes are never moved by a run.
type Layout struct {
	Width      float64
	Height     float64
	Iterations int

	pos    map[string]Point
	pinned map[string]bool
}

func NewLayout(width, height float64, iterations int) *Layout {
	if iterations <= 0 {
		iterations = 300
	}
	return &Layout{
		Width:      width,
		Height:     height,
		Iterations: iterations,
		pos:        make(map[string]Point),
		pinned:     make(map[string]bool),
	}
}

func (l *Layout) clamp(p Point) Point {
	return Point{
		X: math.Min(math.Max(p.X, layoutMargin), l.Width-layoutMargin),
		Y: math.Min(math.Max(p.Y, layoutMargin), l.Height-layoutMargin),
	}
}

// seed puts nodes without a position on a circle around the centre.
// Order is by id so the same graph always starts the same way.
func (l *Layout) seed(nodes []string) {
	var fresh []string
	for _, id := range nodes {
		if _, ok := l.pos[id]; !ok {
			fresh = append(fresh, id)
		}
	}
	slices.Sort(fresh)

	cx, cy := l.Width/2, l.Height/2
	r := math.Min(l.Width, l.Height)/2 - layoutMargin
	if r < 0 {
		r = 0
	}
	for i, id := range fresh {
		angle := 2 * math.Pi * float64(i) / float64(len(fresh))
		l.pos[id] = l.clamp(Point{X: cx + r*math.Cos(angle), Y: cy + r*math.Sin(angle)})
	}
}

// Run lays out nodes joined by edges ([source, target] pairs). Nodes no
// longer present are forgotten.
func (l *Layout) Run(nodes []string, edges [][2]string) {
	nodes = slices.Clone(nodes)
	slices.Sort(nodes)
	nodes = slices.Compact(nodes)

	keep := make(map[string]bool, len(nodes))
	for _, id := range nodes {
		keep[id] = true
	}
	for id := range l.pos {
		if !keep[id] {
			delete(l.pos, id)
			delete(l.pinned, id)
		}
	}
	l.seed(nodes)
	if len(nodes) < 2 {
		return
	}

	area := (l.Width - 2*layoutMargin) * (l.Height - 2*layoutMargin)
	k := math.Sqrt(area / float64(len(nodes)))
	t0 := l.Width / 10
	disp := make(map[string]Point, len(nodes))

	for iter := 0; iter < l.Iterations; iter++ {
		temp := t0 * (1 - float64(iter)/float64(l.Iterations))
		for _, id := range nodes {
			disp[id] = Point{}
		}

		for i := 0; i < len(nodes); i++ {
			for j := i + 1; j < len(nodes); j++ {
				u, v := nodes[i], nodes[j]
				dx, dy, d := l.delta(u, v, i, j)
				f := k * k / d
				du, dv := disp[u], disp[v]
				du.X += dx / d * f
				du.Y += dy / d * f
				dv.X -= dx / d * f
				dv.Y -= dy / d * f
				disp[u], disp[v] = du, dv
			}
		}

		for _, e := range edges {
			u, v := e[0], e[1]
			if u == v || !keep[u] || !keep[v] {
				continue
			}
			dx, dy, d := l.delta(u, v, 0, 1)
			f := d * d / k
			du, dv := disp[u], disp[v]
			du.X -= dx / d * f
			du.Y -= dy / d * f
			dv.X += dx / d * f
			dv.Y += dy / d * f
			disp[u], disp[v] = du, dv
		}

		for _, id := range nodes {
			if l.pinned[id] {
				continue
			}
			dp := disp[id]
			length := math.Hypot(dp.X, dp.Y)
			if length < minDistance {
				continue
			}
			step := math.Min(length, temp)
			p := l.pos[id]
			p.X += dp.X / length * step
			p.Y += dp.Y / length * step
			l.pos[id] = l.clamp(p)
		}
	}
}

// delta returns the vector from v to u and its length. Coincident nodes are
// nudged apart along a direction derived from their indices.
func (l *Layout) delta(u, v string, i, j int) (dx, dy, d float64) {
	pu, pv := l.pos[u], l.pos[v]
	dx, dy = pu.X-pv.X, pu.Y-pv.Y
	d = math.Hypot(dx, dy)
	if d < minDistance {
		angle := float64(i*31+j*17) * 0.1
		dx, dy = math.Cos(angle)*minDistance, math.Sin(angle)*minDistance
		d = minDistance
	}
	return dx, dy, d
}

func (l *Layout) Position(id string) (Point, bool) {
	p, ok := l.pos[id]
	return p, ok
}

func (l *Layout) Pinned(id string) bool {
	return l.pinned[id]
}

// Drag moves a node to (x, y), clamped to the viewport, and pins it there.
func (l *Layout) Drag(id string, x, y float64) (Point, bool) {
	if _, ok := l.pos[id]; !ok {
		return Point{}, false
	}
	p := l.clamp(Point{X: x, Y: y})
	l.pos[id] = p
	l.pinned[id] = true
	return p, true
}

func (l *Layout) Unpin(id string) {
	delete(l.pinned, id)
}

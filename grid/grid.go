// Package grid describes the regular 3D lattice that x variables live on.
//
// Variables are numbered with x varying fastest, then y, then z:
//
//	index = (z*ny + y)*nx + x
package grid

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidGeometry is returned for non-positive node counts or steps.
var ErrInvalidGeometry = errors.New("grid: invalid geometry")

// ErrOutOfGrid is returned for nodes or coordinates outside the lattice.
var ErrOutOfGrid = errors.New("grid: position outside grid")

// Node is an integer lattice coordinate.
type Node [3]int

// Grid is the geometry shared by all fields of a dataset.
type Grid struct {
	Origin [3]float64
	Step   [3]float64
	Nodes  [3]int
}

// New validates and returns a grid.
func New(origin, step [3]float64, nodes [3]int) (Grid, error) {
	g := Grid{Origin: origin, Step: step, Nodes: nodes}
	if err := g.Validate(); err != nil {
		return Grid{}, err
	}
	return g, nil
}

// Validate checks that every axis has at least one node and a positive step.
func (g Grid) Validate() error {
	for a := 0; a < 3; a++ {
		if g.Nodes[a] <= 0 {
			return fmt.Errorf("%w: axis %d has %d nodes", ErrInvalidGeometry, a, g.Nodes[a])
		}
		if !(g.Step[a] > 0) {
			return fmt.Errorf("%w: axis %d has step %g", ErrInvalidGeometry, a, g.Step[a])
		}
	}
	return nil
}

// XVars returns the number of grid points.
func (g Grid) XVars() int {
	return g.Nodes[0] * g.Nodes[1] * g.Nodes[2]
}

// End returns the coordinate of the last node on each axis.
func (g Grid) End() [3]float64 {
	var end [3]float64
	for a := 0; a < 3; a++ {
		end[a] = g.Origin[a] + g.Step[a]*float64(g.Nodes[a]-1)
	}
	return end
}

// Index maps a node to its linear variable index.
func (g Grid) Index(n Node) (int, error) {
	for a := 0; a < 3; a++ {
		if n[a] < 0 || n[a] >= g.Nodes[a] {
			return 0, fmt.Errorf("%w: node %v", ErrOutOfGrid, n)
		}
	}
	return (n[2]*g.Nodes[1]+n[1])*g.Nodes[0] + n[0], nil
}

// Node maps a linear variable index back to its node.
func (g Grid) Node(index int) (Node, error) {
	if index < 0 || index >= g.XVars() {
		return Node{}, fmt.Errorf("%w: index %d", ErrOutOfGrid, index)
	}
	plane := g.Nodes[0] * g.Nodes[1]
	return Node{
		index % g.Nodes[0],
		(index % plane) / g.Nodes[0],
		index / plane,
	}, nil
}

// Coord returns the Cartesian coordinate of a node.
func (g Grid) Coord(n Node) [3]float64 {
	var c [3]float64
	for a := 0; a < 3; a++ {
		c[a] = g.Origin[a] + g.Step[a]*float64(n[a])
	}
	return c
}

// Nearest returns the node closest to a Cartesian coordinate.
func (g Grid) Nearest(c [3]float64) (Node, error) {
	var n Node
	for a := 0; a < 3; a++ {
		n[a] = int(math.Round((c[a] - g.Origin[a]) / g.Step[a]))
		if n[a] < 0 || n[a] >= g.Nodes[a] {
			return Node{}, fmt.Errorf("%w: coordinate %v", ErrOutOfGrid, c)
		}
	}
	return n, nil
}

func round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}

// Match reports whether data on other can be merged with data on g: node
// counts must be identical and origin, end and step must agree once rounded
// to three decimal places.
func (g Grid) Match(other Grid) bool {
	end, otherEnd := g.End(), other.End()
	for a := 0; a < 3; a++ {
		if g.Nodes[a] != other.Nodes[a] {
			return false
		}
		if round3(g.Origin[a]) != round3(other.Origin[a]) ||
			round3(g.Step[a]) != round3(other.Step[a]) ||
			round3(end[a]) != round3(otherEnd[a]) {
			return false
		}
	}
	return true
}

// ErrMismatch describes two grids that cannot share a dataset.
type ErrMismatch struct {
	Have Grid
	Got  Grid
}

func (e *ErrMismatch) Error() string {
	return fmt.Sprintf("grid: mismatch: have origin %v step %v nodes %v, got origin %v step %v nodes %v",
		e.Have.Origin, e.Have.Step, e.Have.Nodes, e.Got.Origin, e.Got.Step, e.Got.Nodes)
}

// Package geometry 描述游戏棋盘：正方形网格与格子坐标。
package geometry

import (
	"golang.org/x/exp/rand"
)

// Coordinate 是网格上的一个格子，单位为格。
type Coordinate struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns c translated by the delta d.
func (c Coordinate) Add(d Coordinate) Coordinate {
	return Coordinate{X: c.X + d.X, Y: c.Y + d.Y}
}

// Equals reports value equality.
func Equals(a, b Coordinate) bool {
	return a.X == b.X && a.Y == b.Y
}

// Grid 是边长为 TileCount 的正方形棋盘。
type Grid struct {
	TileCount int
	rng       *rand.Rand
}

// NewGrid 创建棋盘，seed 决定随机格子的序列，相同 seed 序列相同。
func NewGrid(tileCount int, seed uint64) *Grid {
	return &Grid{
		TileCount: tileCount,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

// InBounds reports whether 0 <= c.X < TileCount and 0 <= c.Y < TileCount.
func (g *Grid) InBounds(c Coordinate) bool {
	return c.X >= 0 && c.X < g.TileCount && c.Y >= 0 && c.Y < g.TileCount
}

// RandomCell 均匀随机返回棋盘上的一个格子（包含边缘），不保证空闲。
func (g *Grid) RandomCell() Coordinate {
	return Coordinate{
		X: g.rng.Intn(g.TileCount),
		Y: g.rng.Intn(g.TileCount),
	}
}

// Intn exposes the grid's random source for callers that pick among
// precomputed candidates.
func (g *Grid) Intn(n int) int {
	return g.rng.Intn(n)
}

// Cells returns the number of cells on the grid.
func (g *Grid) Cells() int {
	return g.TileCount * g.TileCount
}

package snake

import (
	"strings"

	"github.com/hoshinonyaruko/snake-inside-out/geometry"
)

// Direction 是四个单位向量之一。
type Direction struct {
	DX, DY int
}

var (
	Up    = Direction{DX: 0, DY: -1}
	Down  = Direction{DX: 0, DY: 1}
	Left  = Direction{DX: -1, DY: 0}
	Right = Direction{DX: 1, DY: 0}
)

// 方向名以及键盘别名（方向键 / WASD）
var directionNames = map[string]Direction{
	"up":         Up,
	"w":          Up,
	"arrowup":    Up,
	"down":       Down,
	"s":          Down,
	"arrowdown":  Down,
	"left":       Left,
	"a":          Left,
	"arrowleft":  Left,
	"right":      Right,
	"d":          Right,
	"arrowright": Right,
}

// ParseDirection maps a direction name or key alias to a Direction.
func ParseDirection(name string) (Direction, bool) {
	d, ok := directionNames[strings.ToLower(strings.TrimSpace(name))]
	return d, ok
}

// Valid reports whether d is one of the four unit directions.
func (d Direction) Valid() bool {
	return d == Up || d == Down || d == Left || d == Right
}

// Reverses reports whether d points exactly against o on the same axis.
func (d Direction) Reverses(o Direction) bool {
	return d.DX == -o.DX && d.DY == -o.DY
}

func (d Direction) delta() geometry.Coordinate {
	return geometry.Coordinate{X: d.DX, Y: d.DY}
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return "none"
}

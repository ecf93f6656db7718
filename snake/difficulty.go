package snake

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidDifficulty is returned for unknown preset names and for
	// difficulties with a non-positive tick interval or start length.
	ErrInvalidDifficulty = errors.New("invalid difficulty")
	// ErrBoardTooSmall is returned when the starting snake does not fit the grid.
	ErrBoardTooSmall = errors.New("start length does not fit the board")
)

// Difficulty 难度：决定刷新间隔与蛇的初始长度，开局后不可修改。
type Difficulty struct {
	Name         string
	TickInterval time.Duration
	StartLength  int
}

// 预设难度
var (
	Easy   = Difficulty{Name: "easy", TickInterval: 150 * time.Millisecond, StartLength: 20}
	Normal = Difficulty{Name: "normal", TickInterval: 120 * time.Millisecond, StartLength: 30}
	Hard   = Difficulty{Name: "hard", TickInterval: 75 * time.Millisecond, StartLength: 50}
)

var presets = map[string]Difficulty{
	Easy.Name:   Easy,
	Normal.Name: Normal,
	Hard.Name:   Hard,
}

// LookupDifficulty returns the preset registered under name. An empty name
// selects normal.
func LookupDifficulty(name string) (Difficulty, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Normal, nil
	}
	d, ok := presets[name]
	if !ok {
		return Difficulty{}, fmt.Errorf("%w: unknown preset %q", ErrInvalidDifficulty, name)
	}
	return d, nil
}

// DifficultyNames lists the presets from slowest to fastest.
func DifficultyNames() []string {
	return []string{Easy.Name, Normal.Name, Hard.Name}
}

// Validate checks d against a tileCount x tileCount grid.
func (d Difficulty) Validate(tileCount int) error {
	if d.TickInterval <= 0 {
		return fmt.Errorf("%w: tick interval %v", ErrInvalidDifficulty, d.TickInterval)
	}
	if d.StartLength < 1 {
		return fmt.Errorf("%w: start length %d", ErrInvalidDifficulty, d.StartLength)
	}
	if d.StartLength > tileCount {
		return fmt.Errorf("%w: length %d on a %dx%d grid", ErrBoardTooSmall, d.StartLength, tileCount, tileCount)
	}
	return nil
}

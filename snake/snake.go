// 关于蛇的更新：吃到食物会变短的贪食蛇
package snake

import (
	"time"

	"github.com/hoshinonyaruko/snake-inside-out/geometry"
)

// RunState 是一局游戏的状态。
type RunState int

const (
	Idle RunState = iota
	Running
	Won
	Lost
)

func (s RunState) String() string {
	switch s {
	case Running:
		return "running"
	case Won:
		return "won"
	case Lost:
		return "lost"
	}
	return "idle"
}

// Terminal reports whether s is won or lost.
func (s RunState) Terminal() bool {
	return s == Won || s == Lost
}

const (
	// WinLength 吃到食物后长度不超过该值即获胜
	WinLength = 2
	// 每次吃到食物额外去掉的尾部格子数（加上正常移动共两格）
	eatTrim = 2
	// 随机放置食物的尝试次数，超过后改为遍历空闲格子
	maxFoodAttempts = 64
)

// Result 是终局时交给界面层展示的结果。
type Result struct {
	Outcome         string `json:"outcome"`
	SecondsSurvived int    `json:"secondsSurvived"`
}

// Engine owns one game instance. It is not safe for concurrent use; the
// driver serializes calls.
type Engine struct {
	grid *geometry.Grid
	seed uint64
	now  func() time.Time

	difficulty Difficulty
	body       []geometry.Coordinate // body[0] 是蛇头
	direction  Direction             // 上一次移动使用的方向
	next       Direction             // 下一次移动将使用的方向
	food       geometry.Coordinate
	state      RunState
	score      int
	startedAt  time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithSeed fixes the food placement sequence.
func WithSeed(seed uint64) Option {
	return func(e *Engine) { e.seed = seed }
}

// WithClock replaces time.Now for score bookkeeping.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an idle engine on a tileCount x tileCount grid.
func New(tileCount int, opts ...Option) *Engine {
	e := &Engine{
		seed: uint64(time.Now().UnixNano()),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.grid = geometry.NewGrid(tileCount, e.seed)
	return e
}

// Start 开始新的一局，丢弃上一局的全部状态。
// 蛇水平摆放，蛇头在左，初始方向向左。
func (e *Engine) Start(d Difficulty) error {
	if err := d.Validate(e.grid.TileCount); err != nil {
		return err
	}

	anchor := geometry.Coordinate{
		X: (e.grid.TileCount - d.StartLength) / 2,
		Y: e.grid.TileCount / 2,
	}
	body := make([]geometry.Coordinate, d.StartLength)
	for i := range body {
		body[i] = geometry.Coordinate{X: anchor.X + i, Y: anchor.Y}
	}

	e.difficulty = d
	e.body = body
	e.direction = Left
	e.next = Left
	e.score = 0
	e.startedAt = e.now()
	e.state = Running
	e.spawnFood()
	return nil
}

// SetDirection 设置下一次移动的方向。与当前移动方向相反的请求被忽略；
// 两次移动之间多次调用只保留最后一次有效的方向。
func (e *Engine) SetDirection(d Direction) bool {
	if e.state != Running || !d.Valid() {
		return false
	}
	if d.Reverses(e.direction) {
		return false
	}
	e.next = d
	return true
}

// Step 推进一格，返回推进后的状态。终局后调用不做任何事。
func (e *Engine) Step() RunState {
	if e.state != Running {
		return e.state
	}

	e.direction = e.next
	head := e.body[0].Add(e.direction.delta())

	// 撞墙
	if !e.grid.InBounds(head) {
		return e.finish(Lost)
	}
	// 咬到自己，包括即将移走的尾巴
	if e.occupies(head) {
		return e.finish(Lost)
	}

	e.body = append([]geometry.Coordinate{head}, e.body...)

	if geometry.Equals(head, e.food) {
		// 吃到食物：尾部去掉两格，蛇头始终保留
		trim := eatTrim
		if len(e.body)-trim < 1 {
			trim = len(e.body) - 1
		}
		e.body = e.body[:len(e.body)-trim]
		if len(e.body) <= WinLength {
			return e.finish(Won)
		}
		e.spawnFood()
	} else {
		e.body = e.body[:len(e.body)-1]
	}

	if len(e.body) <= 0 {
		return e.finish(Lost)
	}

	e.updateScore()
	return e.state
}

func (e *Engine) finish(s RunState) RunState {
	e.updateScore()
	e.state = s
	return s
}

func (e *Engine) updateScore() {
	elapsed := int(e.now().Sub(e.startedAt) / time.Second)
	if elapsed > e.score {
		e.score = elapsed
	}
}

func (e *Engine) occupies(c geometry.Coordinate) bool {
	for _, p := range e.body {
		if geometry.Equals(p, c) {
			return true
		}
	}
	return false
}

// spawnFood 随机放置食物，避开整条蛇。随机尝试超过上限后遍历空闲格子，
// 保证一定结束；没有空闲格子时食物保持原位。
func (e *Engine) spawnFood() {
	for i := 0; i < maxFoodAttempts; i++ {
		c := e.grid.RandomCell()
		if e.grid.InBounds(c) && !e.occupies(c) {
			e.food = c
			return
		}
	}

	taken := make(map[geometry.Coordinate]bool, len(e.body))
	for _, p := range e.body {
		taken[p] = true
	}
	free := make([]geometry.Coordinate, 0, e.grid.Cells()-len(taken))
	for y := 0; y < e.grid.TileCount; y++ {
		for x := 0; x < e.grid.TileCount; x++ {
			c := geometry.Coordinate{X: x, Y: y}
			if !taken[c] {
				free = append(free, c)
			}
		}
	}
	if len(free) == 0 {
		return
	}
	e.food = free[e.grid.Intn(len(free))]
}

// State returns the current run state.
func (e *Engine) State() RunState { return e.state }

// Snake returns a copy of the body, head first.
func (e *Engine) Snake() []geometry.Coordinate {
	out := make([]geometry.Coordinate, len(e.body))
	copy(out, e.body)
	return out
}

// Length returns the number of segments.
func (e *Engine) Length() int { return len(e.body) }

// Food returns the food cell.
func (e *Engine) Food() geometry.Coordinate { return e.food }

// Score returns whole seconds elapsed since Start, as of the last step.
func (e *Engine) Score() int { return e.score }

// Direction returns the direction the next step will use.
func (e *Engine) Direction() Direction { return e.next }

// Difficulty returns the difficulty of the current run.
func (e *Engine) Difficulty() Difficulty { return e.difficulty }

// TileCount returns the grid side length.
func (e *Engine) TileCount() int { return e.grid.TileCount }

// Result 终局时返回结果，未结束时 ok 为 false。
func (e *Engine) Result() (Result, bool) {
	if !e.state.Terminal() {
		return Result{}, false
	}
	return Result{Outcome: e.state.String(), SecondsSurvived: e.score}, true
}

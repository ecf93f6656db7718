// Package session drives engines on a fixed-interval ticker and fans
// frames out to renderers.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hoshinonyaruko/snake-inside-out/snake"
	"github.com/hoshinonyaruko/snake-inside-out/structs"
)

// ErrClosed is returned by Start after Close.
var ErrClosed = errors.New("session closed")

// 订阅者缓冲的帧数，慢的订阅者丢弃最旧的帧
const subscriberBuffer = 16

// Hooks are called under the session lock and must not call back into
// the session.
type Hooks struct {
	OnStart  func(id string, d snake.Difficulty, at time.Time)
	OnFinish func(id string, r snake.Result, at time.Time)
}

// Session 拥有一个引擎以及驱动它的计时器。
type Session struct {
	ID string

	mu        sync.Mutex
	engine    *snake.Engine
	tileCount func() int
	opts      []snake.Option
	hooks     Hooks

	gen    uint64 // 每次开局或停止加一，过期的 tick 据此作废
	tick   uint64
	cancel context.CancelFunc
	subs   map[chan structs.Frame]struct{}
	closed bool
}

// New creates an idle session. tileCount is consulted on every Start, so
// a changed grid size applies to the next run.
func New(id string, tileCount func() int, hooks Hooks, opts ...snake.Option) *Session {
	return &Session{
		ID:        id,
		tileCount: tileCount,
		opts:      opts,
		hooks:     hooks,
		subs:      make(map[chan structs.Frame]struct{}),
	}
}

// Start 结束正在进行的一局（如果有），然后按难度开始新的一局并启动计时器。
func (s *Session) Start(d snake.Difficulty) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	// 先校验，失败时不打断正在进行的一局
	tc := s.tileCount()
	if err := d.Validate(tc); err != nil {
		return err
	}

	s.stopLocked()
	if s.engine == nil || s.engine.TileCount() != tc {
		s.engine = snake.New(tc, s.opts...)
	}
	if err := s.engine.Start(d); err != nil {
		return err
	}

	s.tick = 0
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	if s.hooks.OnStart != nil {
		s.hooks.OnStart(s.ID, d, time.Now())
	}
	s.broadcastLocked(s.frameLocked())

	go s.run(ctx, s.gen, d.TickInterval)
	return nil
}

func (s *Session) run(ctx context.Context, gen uint64, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.step(gen) {
				return
			}
		}
	}
}

// step 推进一格并广播。返回 false 表示计时器应当停止。
func (s *Session) step(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen || s.engine == nil {
		return false
	}
	state := s.engine.Step()
	s.tick++

	if !state.Terminal() {
		s.broadcastLocked(s.frameLocked())
		return true
	}
	// 终局：先停计时器、写登记表，再广播最后一帧
	s.stopLocked()
	if s.hooks.OnFinish != nil {
		res, _ := s.engine.Result()
		s.hooks.OnFinish(s.ID, res, time.Now())
	}
	s.broadcastLocked(s.frameLocked())
	return false
}

// stopLocked cancels the ticker of the current run and invalidates any
// tick already waiting on the lock.
func (s *Session) stopLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
}

// SetDirection forwards a turn to the engine; reversals are ignored.
func (s *Session) SetDirection(d snake.Direction) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		return false
	}
	return s.engine.SetDirection(d)
}

// Frame returns the current observable state.
func (s *Session) Frame() structs.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameLocked()
}

// Result returns the terminal result of the current run, if any.
func (s *Session) Result() (snake.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		return snake.Result{}, false
	}
	return s.engine.Result()
}

// Difficulty returns the preset of the current run.
func (s *Session) Difficulty() snake.Difficulty {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		return snake.Difficulty{}
	}
	return s.engine.Difficulty()
}

// Running reports whether a run is in progress.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine != nil && s.engine.State() == snake.Running
}

// Subscribe 订阅帧。立即收到当前帧；会话关闭时通道被关闭。
func (s *Session) Subscribe() (<-chan structs.Frame, func()) {
	ch := make(chan structs.Frame, subscriberBuffer)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	s.subs[ch] = struct{}{}
	ch <- s.frameLocked()

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
	}
}

// broadcastLocked never blocks: a full subscriber loses its oldest frame,
// so the latest frame (including the terminal one) is always delivered.
func (s *Session) broadcastLocked(frame structs.Frame) {
	for ch := range s.subs {
		select {
		case ch <- frame:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- frame:
		default:
		}
	}
}

// Close stops the run and closes every subscription.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	for ch := range s.subs {
		delete(s.subs, ch)
		close(ch)
	}
	s.closed = true
}

func (s *Session) frameLocked() structs.Frame {
	frame := structs.Frame{
		SessionID: s.ID,
		State:     snake.Idle.String(),
		Tick:      s.tick,
	}
	if s.engine == nil {
		frame.TileCount = s.tileCount()
		frame.Snake = []structs.Position{}
		return frame
	}
	return FrameOf(s.engine, frame)
}

// FrameOf fills base with the engine's observable state.
func FrameOf(e *snake.Engine, base structs.Frame) structs.Frame {
	body := e.Snake()
	positions := make([]structs.Position, len(body))
	for i, c := range body {
		positions[i] = structs.Position{X: c.X, Y: c.Y}
	}
	food := e.Food()

	base.State = e.State().String()
	base.Difficulty = e.Difficulty().Name
	base.TileCount = e.TileCount()
	base.Snake = positions
	base.Food = structs.Position{X: food.X, Y: food.Y}
	base.Score = e.Score()
	base.Direction = e.Direction().String()
	if res, ok := e.Result(); ok {
		base.Result = &structs.Result{Outcome: res.Outcome, SecondsSurvived: res.SecondsSurvived}
	}
	return base
}

package main

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/hoshinonyaruko/snake-inside-out/session"
	"github.com/hoshinonyaruko/snake-inside-out/snake"
	"github.com/hoshinonyaruko/snake-inside-out/structs"
)

// 每个格子占两列，终端字符高约为宽的两倍
const cellWidth = 2

var (
	styleBorder = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleSnake  = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleHead   = tcell.StyleDefault.Foreground(tcell.ColorLightGreen)
	styleFood   = tcell.StyleDefault.Foreground(tcell.ColorRed)
	styleStatus = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleBanner = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
)

type actionKind int

const (
	actionNone actionKind = iota
	actionQuit
	actionTurn
	actionRestart
)

type action struct {
	kind       actionKind
	direction  snake.Direction
	difficulty string
}

// actionFor 把按键映射为操作：方向键/WASD 转向，r 重开，1/2/3 选难度重开
func actionFor(key tcell.Key, r rune) action {
	switch key {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return action{kind: actionQuit}
	case tcell.KeyUp:
		return action{kind: actionTurn, direction: snake.Up}
	case tcell.KeyDown:
		return action{kind: actionTurn, direction: snake.Down}
	case tcell.KeyLeft:
		return action{kind: actionTurn, direction: snake.Left}
	case tcell.KeyRight:
		return action{kind: actionTurn, direction: snake.Right}
	case tcell.KeyRune:
	default:
		return action{}
	}

	switch r {
	case 'q', 'Q':
		return action{kind: actionQuit}
	case 'r', 'R':
		return action{kind: actionRestart}
	case '1', '2', '3':
		names := snake.DifficultyNames()
		return action{kind: actionRestart, difficulty: names[r-'1']}
	}
	if d, ok := snake.ParseDirection(string(r)); ok {
		return action{kind: actionTurn, direction: d}
	}
	return action{}
}

// Game is the terminal front end of one session.
type Game struct {
	screen     tcell.Screen
	sess       *session.Session
	difficulty string
	message    string
	last       structs.Frame
}

func (g *Game) start(name string) error {
	d, err := snake.LookupDifficulty(name)
	if err != nil {
		return err
	}
	if err := g.sess.Start(d); err != nil {
		return err
	}
	g.difficulty = d.Name
	g.message = ""
	return nil
}

// handleInput returns false when the player quits.
func (g *Game) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return g.apply(actionFor(ev.Key(), ev.Rune()))
	case *tcell.EventResize:
		g.screen.Sync()
		g.draw(g.last)
	}
	return true
}

func (g *Game) apply(a action) bool {
	switch a.kind {
	case actionQuit:
		return false
	case actionTurn:
		g.sess.SetDirection(a.direction)
	case actionRestart:
		name := a.difficulty
		if name == "" {
			name = g.difficulty
		}
		if err := g.start(name); err != nil {
			g.message = err.Error()
			g.draw(g.last)
		}
	}
	return true
}

func (g *Game) draw(frame structs.Frame) {
	g.last = frame
	s := g.screen
	s.Clear()

	n := frame.TileCount
	w, h := s.Size()
	if w < n*cellWidth+2 || h < n+4 {
		drawText(s, 0, 0, styleBanner, fmt.Sprintf("terminal too small: need %dx%d", n*cellWidth+2, n+4))
		s.Show()
		return
	}

	// 边框
	for x := 0; x < n*cellWidth+2; x++ {
		s.SetContent(x, 0, '─', nil, styleBorder)
		s.SetContent(x, n+1, '─', nil, styleBorder)
	}
	for y := 0; y < n+2; y++ {
		s.SetContent(0, y, '│', nil, styleBorder)
		s.SetContent(n*cellWidth+1, y, '│', nil, styleBorder)
	}

	for i, p := range frame.Snake {
		style := styleSnake
		if i == 0 {
			style = styleHead
		}
		fillCell(s, p, '█', style)
	}
	if frame.State == snake.Running.String() {
		fillCell(s, frame.Food, '●', styleFood)
	}

	status := fmt.Sprintf(" %s  length %d  %ds  [arrows/wasd] turn  [r] restart  [1/2/3] difficulty  [q] quit",
		frame.Difficulty, len(frame.Snake), frame.Score)
	drawText(s, 0, n+2, styleStatus, status)

	if g.message != "" {
		drawText(s, 0, n+3, styleBanner, g.message)
	}
	if frame.Result != nil {
		msg := fmt.Sprintf(" You vanished! Survived %ds ", frame.Result.SecondsSurvived)
		if frame.Result.Outcome == snake.Won.String() {
			msg = fmt.Sprintf(" You shrank to victory in %ds! ", frame.Result.SecondsSurvived)
		}
		drawText(s, (n*cellWidth+2-len(msg))/2, n/2, styleBanner, msg)
	}
	s.Show()
}

func fillCell(s tcell.Screen, p structs.Position, r rune, style tcell.Style) {
	x, y := 1+p.X*cellWidth, 1+p.Y
	for i := 0; i < cellWidth; i++ {
		s.SetContent(x+i, y, r, nil, style)
	}
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	if x < 0 {
		x = 0
	}
	for i, r := range []rune(text) {
		s.SetContent(x+i, y, r, nil, style)
	}
}

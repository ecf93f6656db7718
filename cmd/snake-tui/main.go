// Command snake-tui plays the shrinking snake in a terminal.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/hoshinonyaruko/snake-inside-out/session"
	"github.com/hoshinonyaruko/snake-inside-out/snake"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	difficulty := flag.String("difficulty", "normal", "easy, normal or hard")
	tiles := flag.Int("tiles", 52, "grid side in cells")
	logFile := flag.String("log", "", "write logs to this file")
	flag.Parse()

	// 屏幕被占用，日志只能写文件
	zerolog.SetGlobalLevel(zerolog.Disabled)
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open log: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		log.Logger = zerolog.New(f).With().Timestamp().Logger()
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if _, err := snake.LookupDifficulty(*difficulty); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer screen.Fini()

	n := *tiles
	hooks := session.Hooks{
		OnFinish: func(id string, r snake.Result, _ time.Time) {
			log.Info().Str("outcome", r.Outcome).Int("seconds", r.SecondsSurvived).Msg("game over")
		},
	}
	g := &Game{
		screen: screen,
		sess:   session.New("local", func() int { return n }, hooks),
	}
	defer g.sess.Close()

	if err := run(g, *difficulty); err != nil {
		screen.Fini()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(g *Game, difficulty string) error {
	frames, unsubscribe := g.sess.Subscribe()
	defer unsubscribe()

	if err := g.start(difficulty); err != nil {
		return err
	}

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := g.screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	}()

	for {
		select {
		case ev := <-eventChan:
			if !g.handleInput(ev) {
				return nil
			}
		case frame, ok := <-frames:
			if !ok {
				return nil
			}
			g.draw(frame)
		}
	}
}

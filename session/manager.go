package session

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hoshinonyaruko/snake-inside-out/snake"
	"github.com/hoshinonyaruko/snake-inside-out/sqlite"
	"github.com/hoshinonyaruko/snake-inside-out/structs"
	"github.com/rs/zerolog/log"
)

// ErrNotFound is returned for unknown session ids.
var ErrNotFound = errors.New("session not found")

// Manager 管理所有会话，并把开局和终局写入登记表。db 可以为 nil。
type Manager struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	db        *sql.DB
	tileCount func() int
	opts      []snake.Option
}

func NewManager(db *sql.DB, tileCount func() int, opts ...snake.Option) *Manager {
	return &Manager{
		sessions:  make(map[string]*Session),
		db:        db,
		tileCount: tileCount,
		opts:      opts,
	}
}

// Create starts a new session on the named preset.
func (m *Manager) Create(difficultyName string) (*Session, error) {
	d, err := snake.LookupDifficulty(difficultyName)
	if err != nil {
		return nil, err
	}
	return m.CreateWith(d)
}

// CreateWith starts a new session on an arbitrary difficulty.
func (m *Manager) CreateWith(d snake.Difficulty) (*Session, error) {
	id := uuid.New().String()
	s := New(id, m.tileCount, m.hooks(), m.opts...)
	if err := s.Start(d); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	log.Info().Str("session", id).Str("difficulty", d.Name).Msg("session created")
	return s, nil
}

// Restart 中止会话正在进行的一局并按新难度重开。
func (m *Manager) Restart(id, difficultyName string) (*Session, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	d, err := snake.LookupDifficulty(difficultyName)
	if err != nil {
		return nil, err
	}
	if err := s.Start(d); err != nil {
		return nil, err
	}
	log.Info().Str("session", id).Str("difficulty", d.Name).Msg("session restarted")
	return s, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// Delete stops a session and forgets it.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	s.Close()
	if m.db != nil {
		if err := sqlite.DeleteGame(m.db, id); err != nil {
			log.Warn().Err(err).Str("session", id).Msg("delete registry row")
		}
	}
	log.Info().Str("session", id).Msg("session deleted")
	return nil
}

// Records lists the registry. Without a database it is empty.
func (m *Manager) Records() ([]structs.GameRecord, error) {
	if m.db == nil {
		return nil, nil
	}
	return sqlite.ListGames(m.db)
}

// Close stops every session.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

func (m *Manager) hooks() Hooks {
	return Hooks{
		OnStart: func(id string, d snake.Difficulty, at time.Time) {
			if m.db == nil {
				return
			}
			rec := structs.GameRecord{
				SessionID:  id,
				Difficulty: d.Name,
				State:      snake.Running.String(),
				StartedAt:  at.Unix(),
			}
			if err := sqlite.InsertGame(m.db, rec); err != nil {
				log.Warn().Err(err).Str("session", id).Msg("insert registry row")
			}
		},
		OnFinish: func(id string, r snake.Result, at time.Time) {
			log.Info().Str("session", id).Str("outcome", r.Outcome).Int("seconds", r.SecondsSurvived).Msg("game over")
			if m.db == nil {
				return
			}
			if err := sqlite.FinishGame(m.db, id, r.Outcome, at.Unix(), r.SecondsSurvived); err != nil {
				log.Warn().Err(err).Str("session", id).Msg("finish registry row")
			}
		},
	}
}

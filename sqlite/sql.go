package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/hoshinonyaruko/snake-inside-out/structs"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

// ErrNoGame is returned when a session has no registry row.
var ErrNoGame = errors.New("game not found")

const createGamesTableSQL = `
CREATE TABLE IF NOT EXISTS Games (
    SessionID TEXT PRIMARY KEY,
    Difficulty TEXT NOT NULL,
    State TEXT NOT NULL,
    StartedAt INTEGER NOT NULL,
    EndedAt INTEGER NOT NULL DEFAULT 0,
    SecondsSurvived INTEGER NOT NULL DEFAULT 0
);
`

const createGamesIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_games_state ON Games (State);
`

// Open 打开登记表数据库。默认 DSN 为进程内的内存数据库，进程退出即清空。
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", dsn, err)
	}
	// 内存库每个连接各自独立，只保留一个连接
	db.SetMaxOpenConns(1)
	if err := InitializeDatabase(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func executeSQL(db *sql.DB, sqlStatement string) error {
	if _, err := db.Exec(sqlStatement); err != nil {
		return fmt.Errorf("executing %q: %w", sqlStatement, err)
	}
	return nil
}

func InitializeDatabase(db *sql.DB) error {
	for _, stmt := range []string{createGamesTableSQL, createGamesIndexSQL} {
		if err := executeSQL(db, stmt); err != nil {
			log.Error().Err(err).Msg("initialize database")
			return err
		}
	}
	return nil
}

// InsertGame 登记一局新游戏，同一会话重开时覆盖旧行。
func InsertGame(db *sql.DB, rec structs.GameRecord) error {
	_, err := db.Exec(
		"INSERT OR REPLACE INTO Games (SessionID, Difficulty, State, StartedAt, EndedAt, SecondsSurvived) VALUES (?, ?, ?, ?, ?, ?)",
		rec.SessionID, rec.Difficulty, rec.State, rec.StartedAt, rec.EndedAt, rec.SecondsSurvived)
	return err
}

// FinishGame 记录终局状态与存活秒数。
func FinishGame(db *sql.DB, sessionID, state string, endedAt int64, seconds int) error {
	result, err := db.Exec("UPDATE Games SET State = ?, EndedAt = ?, SecondsSurvived = ? WHERE SessionID = ?",
		state, endedAt, seconds, sessionID)
	if err != nil {
		return err
	}
	if count, err := result.RowsAffected(); err != nil {
		return err
	} else if count == 0 {
		return fmt.Errorf("%w: %s", ErrNoGame, sessionID)
	}
	return nil
}

func GetGame(db *sql.DB, sessionID string) (structs.GameRecord, error) {
	var rec structs.GameRecord
	err := db.QueryRow("SELECT SessionID, Difficulty, State, StartedAt, EndedAt, SecondsSurvived FROM Games WHERE SessionID = ?", sessionID).Scan(
		&rec.SessionID, &rec.Difficulty, &rec.State, &rec.StartedAt, &rec.EndedAt, &rec.SecondsSurvived,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, fmt.Errorf("%w: %s", ErrNoGame, sessionID)
	}
	return rec, err
}

// ListGames 按开始时间倒序列出登记表。
func ListGames(db *sql.DB) ([]structs.GameRecord, error) {
	rows, err := db.Query("SELECT SessionID, Difficulty, State, StartedAt, EndedAt, SecondsSurvived FROM Games ORDER BY StartedAt DESC, SessionID")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []structs.GameRecord
	for rows.Next() {
		var rec structs.GameRecord
		if err := rows.Scan(&rec.SessionID, &rec.Difficulty, &rec.State, &rec.StartedAt, &rec.EndedAt, &rec.SecondsSurvived); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// DeleteGame removes a session's row.
func DeleteGame(db *sql.DB, sessionID string) error {
	_, err := db.Exec("DELETE FROM Games WHERE SessionID = ?", sessionID)
	return err
}

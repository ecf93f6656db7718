package sqlite

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/hoshinonyaruko/snake-inside-out/structs"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestInsertFinishGet(t *testing.T) {
	db := openTestDB(t)
	rec := structs.GameRecord{SessionID: "a", Difficulty: "easy", State: "running", StartedAt: 100}
	if err := InsertGame(db, rec); err != nil {
		t.Fatalf("InsertGame: %v", err)
	}
	if err := FinishGame(db, "a", "lost", 130, 30); err != nil {
		t.Fatalf("FinishGame: %v", err)
	}
	got, err := GetGame(db, "a")
	if err != nil {
		t.Fatalf("GetGame: %v", err)
	}
	want := structs.GameRecord{SessionID: "a", Difficulty: "easy", State: "lost", StartedAt: 100, EndedAt: 130, SecondsSurvived: 30}
	if got != want {
		t.Errorf("GetGame = %+v, want %+v", got, want)
	}
}

func TestInsertReplacesOnRestart(t *testing.T) {
	db := openTestDB(t)
	if err := InsertGame(db, structs.GameRecord{SessionID: "a", Difficulty: "easy", State: "lost", StartedAt: 1, EndedAt: 5, SecondsSurvived: 4}); err != nil {
		t.Fatal(err)
	}
	if err := InsertGame(db, structs.GameRecord{SessionID: "a", Difficulty: "hard", State: "running", StartedAt: 10}); err != nil {
		t.Fatal(err)
	}
	got, err := GetGame(db, "a")
	if err != nil {
		t.Fatal(err)
	}
	if got.Difficulty != "hard" || got.State != "running" || got.EndedAt != 0 || got.SecondsSurvived != 0 {
		t.Errorf("restart row = %+v", got)
	}
}

func TestMissingGame(t *testing.T) {
	db := openTestDB(t)
	if _, err := GetGame(db, "nope"); !errors.Is(err, ErrNoGame) {
		t.Errorf("GetGame err = %v, want ErrNoGame", err)
	}
	if err := FinishGame(db, "nope", "won", 1, 1); !errors.Is(err, ErrNoGame) {
		t.Errorf("FinishGame err = %v, want ErrNoGame", err)
	}
}

func TestListAndDelete(t *testing.T) {
	db := openTestDB(t)
	for i, id := range []string{"old", "new"} {
		if err := InsertGame(db, structs.GameRecord{SessionID: id, Difficulty: "normal", State: "running", StartedAt: int64(i)}); err != nil {
			t.Fatal(err)
		}
	}
	list, err := ListGames(db)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].SessionID != "new" {
		t.Fatalf("ListGames = %+v", list)
	}
	if err := DeleteGame(db, "new"); err != nil {
		t.Fatal(err)
	}
	list, err = ListGames(db)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].SessionID != "old" {
		t.Fatalf("after delete = %+v", list)
	}
}

package session

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/starford/tabula/internal/models"
	"github.com/starford/tabula/internal/store"
	"github.com/starford/tabula/internal/testutil"
)

func testSession(t *testing.T) (*Session, *store.DB) {
	t.Helper()
	st := testutil.TestStore(t)
	s := New(st, testutil.DiscardLogger())
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s, st
}

func TestLoadDefaults(t *testing.T) {
	s, _ := testSession(t)

	snap := s.Snapshot()
	if len(snap.Boards) != 1 || snap.Boards[0] != models.DefaultBoardName {
		t.Errorf("boards = %v, want default seed", snap.Boards)
	}
	if snap.FontSize != models.DefaultFontSize {
		t.Errorf("fontSize = %d, want %d", snap.FontSize, models.DefaultFontSize)
	}
	if len(snap.Notes) != 0 || len(snap.DeletedNotes) != 0 || len(snap.DeletedBoards) != 0 {
		t.Error("expected empty collections on first load")
	}
	if s.Loading() {
		t.Error("Loading should be false after Load")
	}
}

func TestLoadingFlag(t *testing.T) {
	st := testutil.TestStore(t)
	s := New(st, testutil.DiscardLogger())
	defer s.Close()
	if !s.Loading() {
		t.Error("Loading should be true before Load")
	}
}

func TestSettersUpdateMemoryImmediately(t *testing.T) {
	s, _ := testSession(t)
	defer s.Close()

	s.SetBoards([]string{"a", "b"})
	s.SetNotes([]models.Note{{ID: "1", Content: "x", Board: "a"}})
	s.SetFontSize(20)

	snap := s.Snapshot()
	if len(snap.Boards) != 2 || snap.Boards[1] != "b" {
		t.Errorf("boards = %v", snap.Boards)
	}
	if len(snap.Notes) != 1 || snap.Notes[0].ID != "1" {
		t.Errorf("notes = %v", snap.Notes)
	}
	if snap.FontSize != 20 {
		t.Errorf("fontSize = %d", snap.FontSize)
	}
}

func TestWritesReachStore(t *testing.T) {
	s, st := testSession(t)

	s.SetBoards([]string{"الرئيسية", "عمل"})
	s.SetNotes([]models.Note{
		{ID: "1", Content: "test", Board: "عمل"},
		{ID: "2", Content: "more", Board: "الرئيسية", Images: []string{"data:image/png;base64,AA=="}},
	})
	s.SetDeletedNotes([]models.Note{{ID: "3", Board: "عمل"}})
	s.SetDeletedBoards([]models.DeletedBoard{{Board: "old", Notes: []models.Note{{ID: "4", Board: "old"}}}})
	s.SetFontSize(16)
	s.Close() // drains pending writes

	boards, _ := st.Collection(store.CollectionBoards)
	if len(boards) != 2 {
		t.Fatalf("persisted boards = %d, want 2", len(boards))
	}
	notes, _ := st.Collection(store.CollectionNotes)
	if len(notes) != 2 {
		t.Fatalf("persisted notes = %d, want 2", len(notes))
	}
	var note models.Note
	_ = json.Unmarshal(notes[1], &note)
	if note.ID != "2" || len(note.Images) != 1 {
		t.Errorf("persisted note = %+v", note)
	}
	var fontSize int
	if ok, _ := st.Setting("fontSize", &fontSize); !ok || fontSize != 16 {
		t.Errorf("persisted fontSize = %d (found=%v)", fontSize, ok)
	}
}

func TestRapidWritesLastOneWins(t *testing.T) {
	s, st := testSession(t)

	for i := 0; i < 100; i++ {
		s.SetBoards([]string{"a"})
		s.SetBoards([]string{"a", "b"})
	}
	s.SetBoards([]string{"final"})
	s.Close()

	boards, _ := st.Collection(store.CollectionBoards)
	if len(boards) != 1 || string(boards[0]) != `"final"` {
		t.Errorf("persisted boards = %v, want single \"final\"", boards)
	}
}

func TestReloadRoundTrip(t *testing.T) {
	st := testutil.TestStore(t)
	s := New(st, testutil.DiscardLogger())
	if err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	s.SetBoards([]string{"x", "y"})
	s.SetNotes([]models.Note{{ID: "n1", Content: "c", Board: "x", CreatedAt: "2024-01-01T00:00:00Z"}})
	s.Close()

	s2 := New(st, testutil.DiscardLogger())
	defer s2.Close()
	if err := s2.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	snap := s2.Snapshot()
	if len(snap.Boards) != 2 || snap.Boards[0] != "x" {
		t.Errorf("boards = %v", snap.Boards)
	}
	if len(snap.Notes) != 1 || snap.Notes[0].CreatedAt != "2024-01-01T00:00:00Z" {
		t.Errorf("notes = %v", snap.Notes)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s, _ := testSession(t)
	defer s.Close()

	s.SetBoards([]string{"a", "b"})
	snap := s.Snapshot()
	snap.Boards[0] = "mutated"

	if got := s.Snapshot().Boards[0]; got != "a" {
		t.Errorf("internal state mutated through snapshot: %q", got)
	}
}

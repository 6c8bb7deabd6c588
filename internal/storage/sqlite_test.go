package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "data", "users.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	return s
}

func readRecord(t *testing.T, s *SQLiteStore, email string) (UserRecord, bool) {
	t.Helper()
	var rec UserRecord
	var token, name, history sql.NullString
	err := s.db.QueryRow(
		`SELECT email, api_token, name, conversation_history FROM users WHERE email = ?`, email,
	).Scan(&rec.Email, &token, &name, &history)
	if errors.Is(err, sql.ErrNoRows) {
		return UserRecord{}, false
	}
	if err != nil {
		t.Fatalf("read record: %v", err)
	}
	rec.Token, rec.Name, rec.History = token.String, name.String, history.String
	return rec, true
}

func countRows(t *testing.T, s *SQLiteStore) int {
	t.Helper()
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestSQLiteStore_CreateRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	in := UserRecord{Email: "ann@example.com", Name: "Ann", Token: "tok-1"}
	res, err := s.Create(ctx, in)
	if err != nil || res != Created {
		t.Fatalf("create: res=%v err=%v", res, err)
	}

	got, ok := readRecord(t, s, in.Email)
	if !ok {
		t.Fatalf("record not found")
	}
	if got.Email != in.Email || got.Name != in.Name || got.Token != in.Token {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.History != "" {
		t.Fatalf("history should start empty, got %q", got.History)
	}
}

func TestSQLiteStore_CreateDuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Create(ctx, UserRecord{Email: "a@b.io", Name: "first", Token: "t1"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	res, err := s.Create(ctx, UserRecord{Email: "a@b.io", Name: "second", Token: "t2"})
	if err != nil {
		t.Fatalf("duplicate must not be an error: %v", err)
	}
	if res != EmailTaken {
		t.Fatalf("want EmailTaken, got %v", res)
	}

	got, _ := readRecord(t, s, "a@b.io")
	if got.Name != "first" || got.Token != "t1" {
		t.Fatalf("existing record altered: %+v", got)
	}
	if n := countRows(t, s); n != 1 {
		t.Fatalf("want 1 row, got %d", n)
	}
}

func TestSQLiteStore_CreateDuplicateToken(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Create(ctx, UserRecord{Email: "a@b.io", Token: "same"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	res, err := s.Create(ctx, UserRecord{Email: "c@d.io", Token: "same"})
	if err != nil {
		t.Fatalf("collision must not be an error: %v", err)
	}
	if res != TokenTaken {
		t.Fatalf("want TokenTaken, got %v", res)
	}
	if _, ok := readRecord(t, s, "c@d.io"); ok {
		t.Fatalf("colliding record must not be stored")
	}
}

func TestSQLiteStore_AppendHistoryOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Create(ctx, UserRecord{Email: "a@b.io", Token: "t"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, m := range []string{"a", "b", `say "hi", ok`} {
		if err := s.AppendHistory(ctx, "a@b.io", m); err != nil {
			t.Fatalf("append %q: %v", m, err)
		}
	}

	got, _ := readRecord(t, s, "a@b.io")
	if want := `"a", "b", "say \"hi\", ok"`; got.History != want {
		t.Fatalf("history = %q, want %q", got.History, want)
	}
	msgs := ParseHistory(got.History)
	if len(msgs) != 3 || msgs[0] != "a" || msgs[1] != "b" || msgs[2] != `say "hi", ok` {
		t.Fatalf("parsed history: %#v", msgs)
	}
}

func TestSQLiteStore_AppendHistoryUnknownEmail(t *testing.T) {
	s := newTestStore(t)

	if err := s.AppendHistory(context.Background(), "ghost@nowhere.io", "hello"); err != nil {
		t.Fatalf("unknown email must be a no-op, got %v", err)
	}
	if n := countRows(t, s); n != 0 {
		t.Fatalf("no record should be created, got %d rows", n)
	}
}

func TestSQLiteStore_ReopenKeepsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.db")
	s, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := s.Create(context.Background(), UserRecord{Email: "a@b.io", Token: "t"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s2, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	if err := s2.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	res, err := s2.Create(context.Background(), UserRecord{Email: "a@b.io", Token: "t2"})
	if err != nil || res != EmailTaken {
		t.Fatalf("record lost across reopen: res=%v err=%v", res, err)
	}
}

package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "state.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestTokenRoundTrip verifies that a saved token loads back with its expiry.
func TestTokenRoundTrip(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()

	got, err := db.LoadToken(ctx, "garmin")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("expected no token, got %+v", got)
	}

	expiry := time.Date(2025, 5, 6, 12, 0, 0, 0, time.UTC)
	in := &oauth2.Token{AccessToken: "a1", RefreshToken: "r1", TokenType: "Bearer", Expiry: expiry}
	if err := db.SaveToken(ctx, "garmin", in); err != nil {
		t.Fatal(err)
	}
	got, err = db.LoadToken(ctx, "garmin")
	if err != nil {
		t.Fatal(err)
	}
	if got.AccessToken != "a1" || got.RefreshToken != "r1" || got.TokenType != "Bearer" {
		t.Errorf("token = %+v", got)
	}
	if !got.Expiry.Equal(expiry) {
		t.Errorf("expiry = %v, want %v", got.Expiry, expiry)
	}
}

// TestTokenReplace verifies that saving again overwrites the previous token.
func TestTokenReplace(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()
	if err := db.SaveToken(ctx, "garmin", &oauth2.Token{AccessToken: "old"}); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveToken(ctx, "garmin", &oauth2.Token{AccessToken: "new"}); err != nil {
		t.Fatal(err)
	}
	got, err := db.LoadToken(ctx, "garmin")
	if err != nil {
		t.Fatal(err)
	}
	if got.AccessToken != "new" {
		t.Errorf("access token = %q, want new", got.AccessToken)
	}
	if !got.Expiry.IsZero() {
		t.Errorf("expiry = %v, want zero", got.Expiry)
	}
}

// TestAppendedRows verifies the per-day, per-sink bookkeeping keyed by document hash.
func TestAppendedRows(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()
	day := time.Date(2025, 5, 6, 0, 0, 0, 0, time.UTC)
	h1 := HashBytes([]byte(`{"date":"2025-05-06"}`))
	h2 := HashBytes([]byte(`{"date":"2025-05-06","x":1}`))

	if ok, _ := db.IsAppended(ctx, day, "sheets", h1); ok {
		t.Fatal("nothing appended yet")
	}
	if err := db.MarkAppended(ctx, day, "sheets", h1); err != nil {
		t.Fatal(err)
	}
	if ok, _ := db.IsAppended(ctx, day, "sheets", h1); !ok {
		t.Error("expected appended for same hash")
	}
	if ok, _ := db.IsAppended(ctx, day, "postgres", h1); ok {
		t.Error("other sink must be independent")
	}
	if ok, _ := db.IsAppended(ctx, day, "sheets", h2); ok {
		t.Error("changed document must not count as appended")
	}
	if ok, _ := db.IsAppended(ctx, day.AddDate(0, 0, 1), "sheets", h1); ok {
		t.Error("other day must be independent")
	}
}

// TestHashBytes verifies a known SHA-256 digest.
func TestHashBytes(t *testing.T) {
	const want = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := HashBytes(nil); got != want {
		t.Errorf("HashBytes(nil) = %s", got)
	}
}

package storage

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/tsunagu/internal/catalog"
)

func openTestStore(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "nested", "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStorage_RoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	cat, err := catalog.Default(zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	want := cat.Snapshot()

	if err := store.SaveCatalog(ctx, want); err != nil {
		t.Fatal(err)
	}
	got, err := store.LoadCatalog(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if len(got.Chapters) != len(want.Chapters) {
		t.Fatalf("expected %d chapters, got %d", len(want.Chapters), len(got.Chapters))
	}
	for i := range want.Chapters {
		w, g := want.Chapters[i], got.Chapters[i]
		if w.Reference() != g.Reference() || w.Name != g.Name || w.VerseCount != g.VerseCount {
			t.Errorf("chapter %d: got %s %q, want %s %q", i, g.Reference(), g.Name, w.Reference(), w.Name)
		}
		if len(w.Verses) != len(g.Verses) {
			t.Errorf("chapter %s: expected %d verses, got %d", w.Reference(), len(w.Verses), len(g.Verses))
			continue
		}
		for j := range w.Verses {
			if w.Verses[j] != g.Verses[j] {
				t.Errorf("verse %s:%d differs: got %+v", w.Reference(), w.Verses[j].Number, g.Verses[j])
			}
		}
		if len(w.Themes) > 0 && !reflect.DeepEqual(w.Themes, g.Themes) {
			t.Errorf("chapter %s themes: got %v, want %v", w.Reference(), g.Themes, w.Themes)
		}
	}
	if len(got.Connections) != len(want.Connections) {
		t.Fatalf("expected %d connections, got %d", len(want.Connections), len(got.Connections))
	}
	for i := range want.Connections {
		if got.Connections[i].ID != want.Connections[i].ID {
			t.Errorf("connection order: got %q at %d, want %q", got.Connections[i].ID, i, want.Connections[i].ID)
		}
		if len(got.Connections[i].Texts) != len(want.Connections[i].Texts) {
			t.Errorf("connection %q: texts lost", want.Connections[i].ID)
		}
	}
	if len(got.Interlinks) != len(want.Interlinks) {
		t.Fatalf("expected %d interlinks, got %d", len(want.Interlinks), len(got.Interlinks))
	}
	for i := range want.Interlinks {
		if got.Interlinks[i].Reference != want.Interlinks[i].Reference {
			t.Errorf("interlinks order: got %q, want %q", got.Interlinks[i].Reference, want.Interlinks[i].Reference)
		}
	}

	// The stored snapshot must build an equivalent catalog.
	if _, err := catalog.New(got, zap.NewNop()); err != nil {
		t.Fatalf("stored snapshot does not validate: %v", err)
	}
}

func TestSQLiteStorage_SaveReplaces(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	cat, err := catalog.Default(zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	data := cat.Snapshot()
	if err := store.SaveCatalog(ctx, data); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveCatalog(ctx, data); err != nil {
		t.Fatal(err)
	}
	n, err := store.CountChapters(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != int64(len(data.Chapters)) {
		t.Errorf("expected %d chapters after second save, got %d", len(data.Chapters), n)
	}

	var verses int
	for _, ch := range data.Chapters {
		verses += len(ch.Verses)
	}
	vn, err := store.CountVerses(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if vn != int64(verses) {
		t.Errorf("expected %d verses, got %d", verses, vn)
	}
}

func TestSQLiteStorage_Empty(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	data, err := store.LoadCatalog(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(data.Chapters) != 0 || len(data.Connections) != 0 || len(data.Interlinks) != 0 {
		t.Errorf("expected empty snapshot, got %+v", data)
	}
	n, err := store.CountChapters(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("expected 0 chapters, got %d", n)
	}
}

package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/samcharles93/yukari/internal/logger"
)

func quietCtx() context.Context {
	return logger.WithContext(context.Background(), logger.Discard())
}

// memStorage is an in-memory Storage whose saves can be made to fail.
type memStorage struct {
	saved   []Entry
	saves   int
	failErr error
	loadErr error
}

func (m *memStorage) Load(context.Context) ([]Entry, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.saved, nil
}

func (m *memStorage) Save(_ context.Context, entries []Entry) error {
	m.saves++
	if m.failErr != nil {
		return m.failErr
	}
	m.saved = append([]Entry(nil), entries...)
	return nil
}

func (m *memStorage) Close() error { return nil }

func TestOpenCreatesMissingFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "yukarimemory.json")

	b, err := Open(quietCtx(), &JSONFile{Path: path})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if len(b.All()) != 0 {
		t.Fatalf("expected empty book, got %v", b.All())
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected memory file to be created: %v", err)
	}
}

func TestOpenPropagatesLoadError(t *testing.T) {
	t.Parallel()
	boom := errors.New("corrupt")
	if _, err := Open(quietCtx(), &memStorage{loadErr: boom}); !errors.Is(err, boom) {
		t.Fatalf("expected load error, got %v", err)
	}
}

func TestBookPersistsEveryMutation(t *testing.T) {
	t.Parallel()
	ctx := quietCtx()
	path := filepath.Join(t.TempDir(), "m.json")

	b, err := Open(ctx, &JSONFile{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Remember(ctx, "ran", "Ran is a kitsune."); err != nil {
		t.Fatal(err)
	}
	if err := b.Remember(ctx, "chen", "Chen is a nekomata."); err != nil {
		t.Fatal(err)
	}
	if err := b.Forget(ctx, "ran"); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(ctx, &JSONFile{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	want := []Entry{{"chen", "Chen is a nekomata."}}
	if got := reopened.All(); !reflect.DeepEqual(got, want) {
		t.Fatalf("reopened = %v, want %v", got, want)
	}
	if _, err := reopened.Get("ran"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBookRollsBackFailedSave(t *testing.T) {
	t.Parallel()
	ctx := quietCtx()
	st := &memStorage{saved: []Entry{{"a", "1"}}}
	b, err := Open(ctx, st)
	if err != nil {
		t.Fatal(err)
	}

	boom := errors.New("disk full")
	st.failErr = boom
	if err := b.Remember(ctx, "a", "2"); !errors.Is(err, boom) {
		t.Fatalf("expected save error, got %v", err)
	}
	if err := b.Remember(ctx, "b", "3"); !errors.Is(err, boom) {
		t.Fatalf("expected save error, got %v", err)
	}
	if err := b.Forget(ctx, "a"); !errors.Is(err, boom) {
		t.Fatalf("expected save error, got %v", err)
	}
	want := []Entry{{"a", "1"}}
	if got := b.All(); !reflect.DeepEqual(got, want) {
		t.Fatalf("state after failed saves = %v, want %v", got, want)
	}
}

func TestBookForgetMissingDoesNotSave(t *testing.T) {
	t.Parallel()
	ctx := quietCtx()
	st := &memStorage{}
	b, err := Open(ctx, st)
	if err != nil {
		t.Fatal(err)
	}
	saves := st.saves
	if err := b.Forget(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if st.saves != saves {
		t.Fatal("forget of a missing key must not write storage")
	}
}

func TestBookRejectsEmptyKey(t *testing.T) {
	t.Parallel()
	ctx := quietCtx()
	b, err := Open(ctx, &memStorage{})
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Remember(ctx, "  ", "x"); !errors.Is(err, ErrEmptyKey) {
		t.Fatalf("expected ErrEmptyKey, got %v", err)
	}
}

func TestBookOnSQLite(t *testing.T) {
	t.Parallel()
	ctx := quietCtx()
	st, err := OpenStorage(filepath.Join(t.TempDir(), "memory.db"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Open(ctx, st)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = b.Close() }()

	if err := b.Remember(ctx, "k", "v"); err != nil {
		t.Fatal(err)
	}
	if err := b.Remember(ctx, "k", "v2"); err != nil {
		t.Fatal(err)
	}
	entries, err := st.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(entries, []Entry{{"k", "v2"}}) {
		t.Fatalf("stored %v", entries)
	}
}

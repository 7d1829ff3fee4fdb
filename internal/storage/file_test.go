package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
)

func TestFileStore_AppendAndList(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "nested", "journals.jsonl")
	st, err := NewFileStore(p)
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	ctx := context.Background()

	e1 := Entry{UserID: "u1", Text: "first", CreatedAt: time.Unix(1, 0).UTC()}
	e2 := Entry{UserID: "u2", Text: "other", CreatedAt: time.Unix(2, 0).UTC()}
	e3 := Entry{UserID: "u1", Text: "second", CreatedAt: time.Unix(3, 0).UTC()}
	for _, e := range []Entry{e1, e2, e3} {
		if _, err := st.Append(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := st.List(ctx, Query{UserID: "u1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2, got %d", len(got))
	}
	if got[0].Text != "second" || got[1].Text != "first" {
		t.Fatalf("order mismatch: %+v", got)
	}
	if got[0].ID == "" {
		t.Fatalf("id not assigned")
	}

	// ensure file exists and non-empty
	info, err := os.Stat(p)
	if err != nil || info.Size() == 0 {
		t.Fatalf("file not written")
	}
}

func TestFileStore_SkipsMalformedLines(t *testing.T) {
	p := filepath.Join(t.TempDir(), "j.jsonl")
	if err := os.WriteFile(p, []byte("garbage\n\n{\"user_id\":\"u1\",\"journal\":\"ok\"}\n"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	st, err := NewFileStore(p)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	got, err := st.List(context.Background(), Query{UserID: "u1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].Text != "ok" || !got[0].CreatedAt.IsZero() {
		t.Fatalf("unexpected entries: %+v", got)
	}
}

func TestFileStore_WrapsCause(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	_, err := NewFileStore(filepath.Join(blocker, "sub", "j.jsonl"))
	if err == nil {
		t.Fatal("expected error when the parent is a file")
	}
	if !strings.HasPrefix(err.Error(), "failed to ensure journal dir: ") {
		t.Fatalf("unexpected message: %v", err)
	}
	if _, ok := errors.Cause(err).(*os.PathError); !ok {
		t.Fatalf("cause not preserved: %T", errors.Cause(err))
	}
}

package memory

import (
	"context"
	"testing"

	"myexpense/internal/storage"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	s := NewWith(map[string]string{"a": "1"})

	if got, err := s.Get(ctx, "a"); err != nil || got != "1" {
		t.Fatalf("Get(a) = %q, %v; want 1, nil", got, err)
	}
	if _, err := s.Get(ctx, "b"); err != storage.ErrKeyNotFound {
		t.Fatalf("Get(b) error = %v; want ErrKeyNotFound", err)
	}
	if err := s.Put(ctx, "b", "2"); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 2 {
		t.Fatalf("Len() = %d; want 2", s.Len())
	}
	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "a"); err != storage.ErrKeyNotFound {
		t.Fatalf("Get(a) after delete error = %v; want ErrKeyNotFound", err)
	}
}

package memory

import (
	"context"
	"testing"
)

func TestKVStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewKVStore()

	if _, ok, _ := store.Get(ctx, "tutorial-theme"); ok {
		t.Fatalf("expected empty store")
	}
	if err := store.Set(ctx, "tutorial-theme", `"dark"`); err != nil {
		t.Fatalf("set: %v", err)
	}
	value, ok, err := store.Get(ctx, "tutorial-theme")
	if err != nil || !ok || value != `"dark"` {
		t.Fatalf("expected stored value, got %q ok=%v err=%v", value, ok, err)
	}

	if err := store.Delete(ctx, "tutorial-theme"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "tutorial-theme"); ok {
		t.Fatalf("expected key removed")
	}
}

package memory

import (
	"testing"

	"asd-screening-service/internal/domain"
	"asd-screening-service/internal/game"
)

func TestControllerStoreLifecycle(t *testing.T) {
	store := NewControllerStore()
	ctrl := game.NewController("s1", domain.ActivityShape, nil, game.Options{})
	defer ctrl.Close()

	store.Put(ctrl)
	got, ok := store.Get("s1")
	if !ok || got != ctrl {
		t.Fatalf("expected controller s1")
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 controller, got %d", store.Len())
	}

	store.Delete("s1")
	if _, ok := store.Get("s1"); ok {
		t.Fatalf("expected controller removed")
	}
}

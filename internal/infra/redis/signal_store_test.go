package redis

import (
	"context"
	"testing"
	"time"

	"asd-screening-service/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
)

func TestSignalStoreConsumesOnce(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewSignalStore(newClient(mr), time.Minute)

	if err := store.Set(ctx, "u1", domain.ActivityShape); err != nil {
		t.Fatalf("set: %v", err)
	}
	ok, err := store.Consume(ctx, "u1", domain.ActivityShape)
	if err != nil || !ok {
		t.Fatalf("expected signal, ok=%v err=%v", ok, err)
	}
	ok, err = store.Consume(ctx, "u1", domain.ActivityShape)
	if err != nil || ok {
		t.Fatalf("expected signal consumed, ok=%v err=%v", ok, err)
	}
}

func TestSignalStoreExpires(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewSignalStore(newClient(mr), time.Minute)

	_ = store.Set(ctx, "u1", domain.ActivityEmotion)
	mr.FastForward(2 * time.Minute)

	if ok, _ := store.Consume(ctx, "u1", domain.ActivityEmotion); ok {
		t.Fatalf("expected expired signal to be gone")
	}
}

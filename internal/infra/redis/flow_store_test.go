package redis

import (
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestFlowStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewFlowStore(newClient(mr), time.Minute)

	flow := store.GetOrCreate("u1")
	if !mr.Exists("questionnaire:flow:u1") {
		t.Fatalf("expected redis key to be set")
	}
	if got, ok := store.Get("u1"); !ok || got != flow {
		t.Fatalf("expected flow to be kept in memory")
	}

	store.Delete("u1")
	if mr.Exists("questionnaire:flow:u1") {
		t.Fatalf("expected redis key to be removed")
	}
}

func TestFlowStoreSweepEvictsFlowAndMarker(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewFlowStore(newClient(mr), time.Minute)
	store.GetOrCreate("u1")

	if n := store.Sweep(time.Now().Add(-time.Hour)); n != 0 {
		t.Fatalf("expected nothing swept, got %d", n)
	}
	if n := store.Sweep(time.Now().Add(time.Second)); n != 1 {
		t.Fatalf("expected 1 flow swept, got %d", n)
	}
	if _, ok := store.Get("u1"); ok {
		t.Fatalf("expected in-process flow evicted")
	}
	if mr.Exists("questionnaire:flow:u1") {
		t.Fatalf("expected marker removed")
	}
}

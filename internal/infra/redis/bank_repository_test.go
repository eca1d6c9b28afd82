package redis

import (
	"context"
	"testing"
	"time"

	"asd-screening-service/internal/bank"
	"asd-screening-service/internal/domain"
	"asd-screening-service/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestBankRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	loader := &countingLoader{BankLoader: memory.NewStaticBankLoader(bank.Default())}
	repo := NewBankRepository(client, loader, time.Minute)

	_, err = repo.GetBank(context.Background(), bank.DefaultID)
	if err != nil {
		t.Fatalf("get bank: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("bank:aq-20:questions") {
		t.Fatalf("expected bank hash in redis")
	}

	// Second call should hit cache, loader not incremented.
	cached, err := repo.GetBank(context.Background(), bank.DefaultID)
	if err != nil {
		t.Fatalf("get cached bank: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	want := bank.Default()
	if cached.Len() != want.Len() {
		t.Fatalf("expected %d questions, got %d", want.Len(), cached.Len())
	}
	for i := range want.Questions {
		if cached.Questions[i].ID != want.Questions[i].ID || cached.Questions[i].Text != want.Questions[i].Text {
			t.Fatalf("question %d mismatch: %+v", i, cached.Questions[i])
		}
	}
}

func TestBankRepositoryReloadsAfterExpiry(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{BankLoader: memory.NewStaticBankLoader(bank.Default())}
	repo := NewBankRepository(newClient(mr), loader, time.Minute)

	_, _ = repo.GetBank(context.Background(), bank.DefaultID)
	mr.FastForward(2 * time.Minute)
	_, _ = repo.GetBank(context.Background(), bank.DefaultID)

	if loader.calls != 2 {
		t.Fatalf("expected reload after ttl, loader calls=%d", loader.calls)
	}
}

func TestBankRepositoryIgnoresCorruptCache(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	mr.HSet("bank:aq-20:questions", "0", "not json")

	loader := &countingLoader{BankLoader: memory.NewStaticBankLoader(bank.Default())}
	repo := NewBankRepository(newClient(mr), loader, time.Minute)

	b, err := repo.GetBank(context.Background(), bank.DefaultID)
	if err != nil {
		t.Fatalf("get bank: %v", err)
	}
	if loader.calls != 1 || b.Len() != 20 {
		t.Fatalf("expected fallback to loader, calls=%d len=%d", loader.calls, b.Len())
	}
}

type countingLoader struct {
	memory.BankLoader
	calls int
}

func (l *countingLoader) LoadBank(ctx context.Context, bankID string) (domain.QuestionBank, error) {
	l.calls++
	return l.BankLoader.LoadBank(ctx, bankID)
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}

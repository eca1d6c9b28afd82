package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"sync"
	"time"

	"asd-screening-service/internal/bank"
	"asd-screening-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// BankLoader fetches question banks from a backing store (e.g., Postgres).
type BankLoader interface {
	LoadBank(ctx context.Context, bankID string) (domain.QuestionBank, error)
}

// BankRepository caches banks in Redis (hash per bank) and falls back to a loader on cache miss.
// Questions are stored as: HSET bank:{bankID}:questions {position} {question JSON}
type BankRepository struct {
	client *redis.Client
	loader BankLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewBankRepository(client *redis.Client, loader BankLoader, ttl time.Duration) *BankRepository {
	return &BankRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *BankRepository) GetBank(ctx context.Context, bankID string) (domain.QuestionBank, error) {
	if b, ok := r.fromCache(ctx, bankID); ok {
		return b, nil
	}

	result, err, _ := r.sf.Do(bankID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if b, ok := r.fromCache(ctx, bankID); ok {
			return b, nil
		}

		b, err := r.loader.LoadBank(ctx, bankID)
		if err != nil {
			return domain.QuestionBank{}, err
		}
		if err := bank.Validate(b); err != nil {
			return domain.QuestionBank{}, err
		}

		key := r.questionsKey(bankID)
		pipe := r.client.TxPipeline()
		pipe.Del(ctx, key)
		for i, q := range b.Questions {
			raw, err := json.Marshal(q)
			if err != nil {
				return domain.QuestionBank{}, fmt.Errorf("marshal question %d: %w", q.ID, err)
			}
			pipe.HSet(ctx, key, strconv.Itoa(i), raw)
		}
		if ttl := r.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		// best-effort: a failed cache write only costs a reload
		_, _ = pipe.Exec(ctx)

		return b, nil
	})
	if err != nil {
		return domain.QuestionBank{}, err
	}
	return result.(domain.QuestionBank), nil
}

func (r *BankRepository) fromCache(ctx context.Context, bankID string) (domain.QuestionBank, bool) {
	fields, err := r.client.HGetAll(ctx, r.questionsKey(bankID)).Result()
	if err != nil || len(fields) == 0 {
		return domain.QuestionBank{}, false
	}
	b, err := buildBankFromCache(bankID, fields)
	if err != nil {
		return domain.QuestionBank{}, false
	}
	return b, true
}

func (r *BankRepository) questionsKey(bankID string) string {
	return "bank:" + bankID + ":questions"
}

func buildBankFromCache(bankID string, fields map[string]string) (domain.QuestionBank, error) {
	type positioned struct {
		pos int
		q   domain.Question
	}
	items := make([]positioned, 0, len(fields))
	for field, raw := range fields {
		pos, err := strconv.Atoi(field)
		if err != nil {
			return domain.QuestionBank{}, fmt.Errorf("bad position %q: %w", field, err)
		}
		var q domain.Question
		if err := json.Unmarshal([]byte(raw), &q); err != nil {
			return domain.QuestionBank{}, fmt.Errorf("unmarshal question at %d: %w", pos, err)
		}
		items = append(items, positioned{pos: pos, q: q})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].pos < items[j].pos })

	questions := make([]domain.Question, 0, len(items))
	for i, item := range items {
		if item.pos != i {
			return domain.QuestionBank{}, fmt.Errorf("%w: cached bank %q has a gap at %d", domain.ErrInvalidBank, bankID, i)
		}
		questions = append(questions, item.q)
	}
	b := domain.QuestionBank{ID: bankID, Questions: questions}
	if err := bank.Validate(b); err != nil {
		return domain.QuestionBank{}, err
	}
	return b, nil
}

func (r *BankRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

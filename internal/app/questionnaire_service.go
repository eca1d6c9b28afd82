package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"asd-screening-service/internal/domain"
	"asd-screening-service/internal/scoring"
)

// FlowRepository abstracts where in-progress questionnaires live (in-memory, Redis, etc).
type FlowRepository interface {
	GetOrCreate(userID string) *Flow
	Get(userID string) (*Flow, bool)
	Delete(userID string)
	// Sweep drops flows not updated since cutoff.
	Sweep(cutoff time.Time) int
}

// BankRepository loads question banks (from cache/backing store).
type BankRepository interface {
	GetBank(ctx context.Context, bankID string) (domain.QuestionBank, error)
}

// QuestionnaireService contains the questionnaire use cases.
type QuestionnaireService struct {
	flows  FlowRepository
	banks  BankRepository
	bankID string
	engine *scoring.Engine
}

func NewQuestionnaireService(flows FlowRepository, banks BankRepository, bankID string, engine *scoring.Engine) *QuestionnaireService {
	return &QuestionnaireService{flows: flows, banks: banks, bankID: bankID, engine: engine}
}

// NewFlow is exported for infrastructure layers that need to seed flows.
func NewFlow(userID string) *Flow {
	return newFlowWithClock(userID, time.Now)
}

// NewFlowWithClock is test-only for deterministic timestamps.
func NewFlowWithClock(userID string, now func() time.Time) *Flow {
	return newFlowWithClock(userID, now)
}

// Questions returns the configured bank.
func (s *QuestionnaireService) Questions(ctx context.Context) (domain.QuestionBank, error) {
	return s.banks.GetBank(ctx, s.bankID)
}

// Current returns the user's flow, starting a new one at the first question if needed.
func (s *QuestionnaireService) Current(ctx context.Context, userID string) (domain.QuestionnaireView, error) {
	bank, err := s.banks.GetBank(ctx, s.bankID)
	if err != nil {
		return domain.QuestionnaireView{}, err
	}
	return s.flows.GetOrCreate(userID).view(bank, s.engine), nil
}

// Answer records option for the current question and advances the flow.
func (s *QuestionnaireService) Answer(ctx context.Context, userID, option string) (domain.QuestionnaireView, error) {
	bank, err := s.banks.GetBank(ctx, s.bankID)
	if err != nil {
		return domain.QuestionnaireView{}, err
	}
	flow := s.flows.GetOrCreate(userID)
	if err := flow.answer(bank, option); err != nil {
		return domain.QuestionnaireView{}, err
	}
	return flow.view(bank, s.engine), nil
}

// Retake discards all answers and returns to the first question. It is only
// valid once results are showing.
func (s *QuestionnaireService) Retake(ctx context.Context, userID string) (domain.QuestionnaireView, error) {
	bank, err := s.banks.GetBank(ctx, s.bankID)
	if err != nil {
		return domain.QuestionnaireView{}, err
	}
	flow, ok := s.flows.Get(userID)
	if !ok {
		return domain.QuestionnaireView{}, domain.ErrFlowNotFound
	}
	if err := flow.retake(); err != nil {
		return domain.QuestionnaireView{}, err
	}
	return flow.view(bank, s.engine), nil
}

// Evaluate scores an answer set held by the client.
func (s *QuestionnaireService) Evaluate(ctx context.Context, answers domain.AnswerSet) (domain.Result, error) {
	bank, err := s.banks.GetBank(ctx, s.bankID)
	if err != nil {
		return domain.Result{}, err
	}
	return s.engine.Evaluate(answers, bank), nil
}

// Leave drops the user's flow.
func (s *QuestionnaireService) Leave(_ context.Context, userID string) {
	s.flows.Delete(userID)
}

// SweepIdle forgets flows nobody has touched for maxIdle.
func (s *QuestionnaireService) SweepIdle(maxIdle time.Duration) int {
	return s.flows.Sweep(time.Now().Add(-maxIdle))
}

// RunSweeper calls SweepIdle every interval until ctx is done.
func (s *QuestionnaireService) RunSweeper(ctx context.Context, maxIdle, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.SweepIdle(maxIdle); n > 0 {
				logger.Info("idle questionnaire flows dropped", "count", n)
			}
		}
	}
}

// Flow is one user's linear pass through the bank: answering question by
// question, then showing results until retaken.
type Flow struct {
	userID    string
	now       func() time.Time
	mu        sync.Mutex
	index     int
	answers   domain.AnswerSet
	done      bool
	updatedAt time.Time
}

func newFlowWithClock(userID string, now func() time.Time) *Flow {
	return &Flow{
		userID:    userID,
		now:       now,
		answers:   make(domain.AnswerSet),
		updatedAt: now(),
	}
}

// UserID returns the owner of the flow.
func (f *Flow) UserID() string {
	return f.userID
}

// Answers returns a copy of the recorded answers.
func (f *Flow) Answers() domain.AnswerSet {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(domain.AnswerSet, len(f.answers))
	for k, v := range f.answers {
		out[k] = v
	}
	return out
}

// UpdatedAt reports when the flow last changed.
func (f *Flow) UpdatedAt() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updatedAt
}

func (f *Flow) answer(bank domain.QuestionBank, option string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.done {
		return domain.ErrQuestionnaireComplete
	}
	question, ok := bank.At(f.index)
	if !ok {
		f.done = true
		return domain.ErrQuestionnaireComplete
	}
	if !hasOption(question, option) {
		return domain.ErrOptionNotFound
	}

	f.answers[f.index] = option
	f.updatedAt = f.now()
	if f.index < bank.Len()-1 {
		f.index++
	} else {
		f.done = true
	}
	return nil
}

func (f *Flow) retake() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.done {
		return domain.ErrQuestionnaireInProgress
	}
	f.index = 0
	f.done = false
	f.answers = make(domain.AnswerSet)
	f.updatedAt = f.now()
	return nil
}

func (f *Flow) view(bank domain.QuestionBank, engine *scoring.Engine) domain.QuestionnaireView {
	f.mu.Lock()
	defer f.mu.Unlock()

	v := domain.QuestionnaireView{
		Index:    f.index,
		Total:    bank.Len(),
		Answered: len(f.answers),
	}
	if f.done {
		v.Status = domain.FlowResults
		result := engine.Evaluate(f.answers, bank)
		v.Result = &result
		return v
	}
	v.Status = domain.FlowAnswering
	if q, ok := bank.At(f.index); ok {
		v.Question = &q
	}
	return v
}

func hasOption(q domain.Question, option string) bool {
	for _, opt := range q.Options {
		if opt == option {
			return true
		}
	}
	return false
}

package scoring

import (
	"fmt"

	"asd-screening-service/internal/domain"
)

// Thresholds are absolute score boundaries expressed on a ScaleMax-point scale.
type Thresholds struct {
	High     int `yaml:"high"`
	Moderate int `yaml:"moderate"`
	Some     int `yaml:"some"`
	ScaleMax int `yaml:"scale_max"`
}

// Config is the static scoring configuration. It is copied into the Engine
// and never mutated afterwards.
type Config struct {
	// ReverseScored lists question ids where agreement counts toward the trait score.
	ReverseScored []int      `yaml:"reverse_scored"`
	Thresholds    Thresholds `yaml:"thresholds"`
}

// DefaultConfig returns the reference partition and 40-point thresholds.
func DefaultConfig() Config {
	return Config{
		ReverseScored: []int{1, 2, 4, 5, 6, 7, 9, 12, 13, 16, 18, 19, 20},
		Thresholds: Thresholds{
			High:     32,
			Moderate: 25,
			Some:     15,
			ScaleMax: 40,
		},
	}
}

var messages = map[domain.RiskLabel]string{
	domain.RiskHigh:     "Your responses suggest a high likelihood of autism spectrum traits. We recommend consulting with a healthcare professional for a thorough evaluation.",
	domain.RiskModerate: "Your responses indicate moderate autism spectrum traits. Consider discussing these results with a healthcare provider.",
	domain.RiskSome:     "Your responses show some autism spectrum traits. If you have concerns, consider discussing them with a healthcare professional.",
	domain.RiskFewNone:  "Your responses indicate few or no autism spectrum traits. However, if you have concerns, always feel free to discuss them with a healthcare provider.",
}

// Engine scores answer sets. It holds no mutable state and is safe for concurrent use.
type Engine struct {
	reverse    map[int]struct{}
	thresholds Thresholds
}

// New validates cfg and builds an Engine from a private copy of it.
func New(cfg Config) (*Engine, error) {
	th := cfg.Thresholds
	if th.ScaleMax <= 0 {
		return nil, fmt.Errorf("scoring: scale max must be positive, got %d", th.ScaleMax)
	}
	if !(th.Some <= th.Moderate && th.Moderate <= th.High) {
		return nil, fmt.Errorf("scoring: thresholds must satisfy some <= moderate <= high, got %d/%d/%d", th.Some, th.Moderate, th.High)
	}
	reverse := make(map[int]struct{}, len(cfg.ReverseScored))
	for _, id := range cfg.ReverseScored {
		reverse[id] = struct{}{}
	}
	return &Engine{reverse: reverse, thresholds: th}, nil
}

// MustNew is New for configurations known to be valid.
func MustNew(cfg Config) *Engine {
	e, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return e
}

// IsReverseScored reports whether agreement with question id counts toward the score.
func (e *Engine) IsReverseScored(id int) bool {
	_, ok := e.reverse[id]
	return ok
}

// Score sums per-answer contributions. Keys without a question at that
// position and answers outside the canonical options contribute nothing.
func (e *Engine) Score(answers domain.AnswerSet, bank domain.QuestionBank) int {
	score := 0
	for index, answer := range answers {
		question, ok := bank.At(index)
		if !ok {
			continue
		}
		score += e.contribution(question.ID, answer)
	}
	return score
}

func (e *Engine) contribution(questionID int, answer string) int {
	if e.IsReverseScored(questionID) {
		switch answer {
		case domain.OptionDefinitelyAgree:
			return 2
		case domain.OptionSlightlyAgree:
			return 1
		}
		return 0
	}
	switch answer {
	case domain.OptionDefinitelyDisagree:
		return 2
	case domain.OptionSlightlyDisagree:
		return 1
	}
	return 0
}

// MaxScore is the highest score attainable on bank.
func MaxScore(bank domain.QuestionBank) int {
	return 2 * bank.Len()
}

// Classify maps an absolute score to a label. When maxScore differs from the
// configured scale, thresholds are scaled proportionally.
func (e *Engine) Classify(score, maxScore int) domain.Classification {
	if maxScore <= 0 {
		maxScore = e.thresholds.ScaleMax
	}
	label := domain.RiskFewNone
	switch {
	case e.atLeast(score, e.thresholds.High, maxScore):
		label = domain.RiskHigh
	case e.atLeast(score, e.thresholds.Moderate, maxScore):
		label = domain.RiskModerate
	case e.atLeast(score, e.thresholds.Some, maxScore):
		label = domain.RiskSome
	}
	return domain.Classification{Label: label, Message: messages[label]}
}

// atLeast compares score >= threshold*maxScore/ScaleMax without rounding.
func (e *Engine) atLeast(score, threshold, maxScore int) bool {
	return score*e.thresholds.ScaleMax >= threshold*maxScore
}

// Evaluate scores and classifies answers in one step.
func (e *Engine) Evaluate(answers domain.AnswerSet, bank domain.QuestionBank) domain.Result {
	score := e.Score(answers, bank)
	maxScore := MaxScore(bank)
	c := e.Classify(score, maxScore)
	return domain.Result{
		Score:      score,
		MaxScore:   maxScore,
		Label:      c.Label,
		Message:    c.Message,
		Disclaimer: domain.ScreeningDisclaimer,
	}
}

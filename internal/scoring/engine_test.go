package scoring

import (
	"testing"

	"asd-screening-service/internal/bank"
	"asd-screening-service/internal/domain"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(DefaultConfig())
	require.NoError(t, err)
	return e
}

func TestScoreThreeQuestionScenario(t *testing.T) {
	e := newEngine(t)
	b := domain.QuestionBank{ID: "mini", Questions: []domain.Question{
		{ID: 1, Text: "a", Options: domain.CanonicalOptions()},
		{ID: 2, Text: "b", Options: domain.CanonicalOptions()},
		{ID: 3, Text: "c", Options: domain.CanonicalOptions()},
	}}
	answers := domain.AnswerSet{
		0: domain.OptionDefinitelyAgree,
		1: domain.OptionSlightlyDisagree,
		2: domain.OptionDefinitelyDisagree,
	}

	require.Equal(t, 4, e.Score(answers, b))
}

func TestContributionDirection(t *testing.T) {
	e := newEngine(t)
	b := bank.Default()

	// position 0 is id 1 (reverse scored), position 2 is id 3 (not).
	require.Equal(t, 2, e.Score(domain.AnswerSet{0: domain.OptionDefinitelyAgree}, b))
	require.Equal(t, 1, e.Score(domain.AnswerSet{0: domain.OptionSlightlyAgree}, b))
	require.Equal(t, 0, e.Score(domain.AnswerSet{0: domain.OptionSlightlyDisagree}, b))
	require.Equal(t, 0, e.Score(domain.AnswerSet{0: domain.OptionDefinitelyDisagree}, b))

	require.Equal(t, 0, e.Score(domain.AnswerSet{2: domain.OptionDefinitelyAgree}, b))
	require.Equal(t, 0, e.Score(domain.AnswerSet{2: domain.OptionSlightlyAgree}, b))
	require.Equal(t, 1, e.Score(domain.AnswerSet{2: domain.OptionSlightlyDisagree}, b))
	require.Equal(t, 2, e.Score(domain.AnswerSet{2: domain.OptionDefinitelyDisagree}, b))
}

func TestScoreIgnoresUnknownKeysAndAnswers(t *testing.T) {
	e := newEngine(t)
	b := bank.Default()

	answers := domain.AnswerSet{
		-1: domain.OptionDefinitelyAgree,
		20: domain.OptionDefinitelyAgree,
		99: domain.OptionDefinitelyDisagree,
		0:  "Sometimes",
		1:  "",
	}
	require.Equal(t, 0, e.Score(answers, b))
}

func TestScoreBoundsAndOrderInvariance(t *testing.T) {
	e := newEngine(t)
	b := bank.Default()
	options := domain.CanonicalOptions()

	for pick := 0; pick < len(options); pick++ {
		forward := domain.AnswerSet{}
		for i := 0; i < b.Len(); i++ {
			forward[i] = options[(i+pick)%len(options)]
		}
		backward := domain.AnswerSet{}
		for i := b.Len() - 1; i >= 0; i-- {
			backward[i] = forward[i]
		}

		score := e.Score(forward, b)
		require.GreaterOrEqual(t, score, 0)
		require.LessOrEqual(t, score, MaxScore(b))
		require.Equal(t, score, e.Score(backward, b))
		require.Equal(t, score, e.Score(forward, b))
	}
}

func TestScoreExtremes(t *testing.T) {
	e := newEngine(t)
	b := bank.Default()

	maxed := domain.AnswerSet{}
	for i, q := range b.Questions {
		if e.IsReverseScored(q.ID) {
			maxed[i] = domain.OptionDefinitelyAgree
		} else {
			maxed[i] = domain.OptionDefinitelyDisagree
		}
	}
	require.Equal(t, 40, e.Score(maxed, b))
	require.Equal(t, 0, e.Score(domain.AnswerSet{}, b))
}

func TestClassifyBoundaries(t *testing.T) {
	e := newEngine(t)
	cases := []struct {
		score int
		want  domain.RiskLabel
	}{
		{40, domain.RiskHigh},
		{32, domain.RiskHigh},
		{31, domain.RiskModerate},
		{25, domain.RiskModerate},
		{24, domain.RiskSome},
		{15, domain.RiskSome},
		{14, domain.RiskFewNone},
		{0, domain.RiskFewNone},
		{-3, domain.RiskFewNone},
	}
	for _, tc := range cases {
		got := e.Classify(tc.score, 40)
		require.Equal(t, tc.want, got.Label, "score %d", tc.score)
		require.NotEmpty(t, got.Message)
	}
}

func TestClassifyScalesThresholds(t *testing.T) {
	e := newEngine(t)

	// 20-point scale halves every boundary: 16 / 12.5 / 7.5.
	require.Equal(t, domain.RiskHigh, e.Classify(16, 20).Label)
	require.Equal(t, domain.RiskModerate, e.Classify(15, 20).Label)
	require.Equal(t, domain.RiskModerate, e.Classify(13, 20).Label)
	require.Equal(t, domain.RiskSome, e.Classify(12, 20).Label)
	require.Equal(t, domain.RiskSome, e.Classify(8, 20).Label)
	require.Equal(t, domain.RiskFewNone, e.Classify(7, 20).Label)
}

func TestClassifyMessagesAreVerbatim(t *testing.T) {
	e := newEngine(t)
	require.Equal(t,
		"Your responses suggest a high likelihood of autism spectrum traits. We recommend consulting with a healthcare professional for a thorough evaluation.",
		e.Classify(35, 40).Message)
	require.Equal(t,
		"Your responses indicate few or no autism spectrum traits. However, if you have concerns, always feel free to discuss them with a healthcare provider.",
		e.Classify(3, 40).Message)
}

func TestNewCopiesConfig(t *testing.T) {
	cfg := DefaultConfig()
	e, err := New(cfg)
	require.NoError(t, err)

	cfg.ReverseScored[0] = 3
	require.True(t, e.IsReverseScored(1))
	require.False(t, e.IsReverseScored(3))
}

func TestNewRejectsInvalidThresholds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Thresholds.ScaleMax = 0
	_, err := New(cfg)
	require.Error(t, err)

	cfg = DefaultConfig()
	cfg.Thresholds.Some = 30
	_, err = New(cfg)
	require.Error(t, err)
}

func TestEvaluate(t *testing.T) {
	e := newEngine(t)
	b := bank.Default()

	result := e.Evaluate(domain.AnswerSet{0: domain.OptionDefinitelyAgree}, b)
	require.Equal(t, 2, result.Score)
	require.Equal(t, 40, result.MaxScore)
	require.Equal(t, domain.RiskFewNone, result.Label)
	require.Equal(t, domain.ScreeningDisclaimer, result.Disclaimer)
}

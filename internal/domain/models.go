package domain

import (
	"fmt"
	"time"
)

// Canonical answer options, in presentation order.
const (
	OptionDefinitelyAgree    = "Definitely agree"
	OptionSlightlyAgree      = "Slightly agree"
	OptionSlightlyDisagree   = "Slightly disagree"
	OptionDefinitelyDisagree = "Definitely disagree"
)

// CanonicalOptions returns the four answer options in their fixed order.
func CanonicalOptions() []string {
	return []string{
		OptionDefinitelyAgree,
		OptionSlightlyAgree,
		OptionSlightlyDisagree,
		OptionDefinitelyDisagree,
	}
}

// Question is a single self-report item with exactly four ordered options.
type Question struct {
	ID      int      `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// QuestionBank is the ordered, immutable list of questionnaire items.
type QuestionBank struct {
	ID        string     `json:"id"`
	Questions []Question `json:"questions"`
}

// Len returns the number of questions in the bank.
func (b QuestionBank) Len() int {
	return len(b.Questions)
}

// At returns the question presented at the given 0-based position.
func (b QuestionBank) At(index int) (Question, bool) {
	if index < 0 || index >= len(b.Questions) {
		return Question{}, false
	}
	return b.Questions[index], true
}

// AnswerSet maps a 0-based presentation position to the chosen option text.
type AnswerSet map[int]string

// Complete reports whether every question of the bank has an answer.
func (a AnswerSet) Complete(bank QuestionBank) bool {
	return len(a) == bank.Len()
}

// RiskLabel is the qualitative outcome of a questionnaire score.
type RiskLabel string

const (
	RiskHigh     RiskLabel = "high"
	RiskModerate RiskLabel = "moderate"
	RiskSome     RiskLabel = "some"
	RiskFewNone  RiskLabel = "few/none"
)

// Classification pairs a risk label with its advisory message.
type Classification struct {
	Label   RiskLabel `json:"label"`
	Message string    `json:"message"`
}

// Result is the scored and classified outcome of a completed questionnaire.
type Result struct {
	Score      int       `json:"score"`
	MaxScore   int       `json:"maxScore"`
	Label      RiskLabel `json:"label"`
	Message    string    `json:"message"`
	Disclaimer string    `json:"disclaimer"`
}

// ScreeningDisclaimer accompanies every result.
const ScreeningDisclaimer = "This test is for screening purposes only and is not a diagnostic tool. " +
	"A proper diagnosis can only be made by qualified healthcare professionals."

// FlowStatus is the state of a user's questionnaire flow.
type FlowStatus string

const (
	FlowAnswering FlowStatus = "answering"
	FlowResults   FlowStatus = "results"
)

// QuestionnaireView is a snapshot of a flow suitable for rendering.
type QuestionnaireView struct {
	Status   FlowStatus `json:"status"`
	Index    int        `json:"index"`
	Total    int        `json:"total"`
	Answered int        `json:"answered"`
	Question *Question  `json:"question,omitempty"`
	Result   *Result    `json:"result,omitempty"`
}

// ActivityKind identifies one of the camera-based mini games.
type ActivityKind string

const (
	ActivityEmotion ActivityKind = "emotion"
	ActivityShape   ActivityKind = "shape"
	ActivityColor   ActivityKind = "color"
	ActivityGesture ActivityKind = "gesture"
)

// ActivityKinds lists every supported activity in display order.
func ActivityKinds() []ActivityKind {
	return []ActivityKind{ActivityEmotion, ActivityShape, ActivityColor, ActivityGesture}
}

// ParseActivityKind validates a raw activity name.
func ParseActivityKind(raw string) (ActivityKind, error) {
	for _, kind := range ActivityKinds() {
		if string(kind) == raw {
			return kind, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownActivity, raw)
}

// GamePhase is the controller state of a game session.
type GamePhase string

const (
	PhaseIdle     GamePhase = "idle"
	PhaseStarting GamePhase = "starting"
	PhaseRunning  GamePhase = "running"
	PhaseStopping GamePhase = "stopping"
	PhaseStopped  GamePhase = "stopped"
)

// StopReason explains why a session reached PhaseStopped.
type StopReason string

const (
	StopUser     StopReason = "user"
	StopTimeout  StopReason = "timeout"
	StopError    StopReason = "error"
	StopTeardown StopReason = "teardown"
)

// GameSessionState is the observable state of one game controller.
type GameSessionState struct {
	SessionID           string       `json:"sessionId"`
	Activity            ActivityKind `json:"activity"`
	Phase               GamePhase    `json:"phase"`
	Running             bool         `json:"running"`
	SecondsRemaining    int          `json:"secondsRemaining"`
	Remaining           string       `json:"remaining"`
	LastError           string       `json:"lastError,omitempty"`
	InstructionsVisible bool         `json:"instructionsVisible"`
	StopReason          StopReason   `json:"stopReason,omitempty"`
	UpdatedAt           time.Time    `json:"updatedAt"`
}

// FormatRemaining renders a countdown as m:ss.
func FormatRemaining(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// Activity is the static "how to play" content for an activity kind.
type Activity struct {
	Kind        ActivityKind `json:"kind"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	AgeRange    string       `json:"ageRange"`
	Duration    string       `json:"duration"`
	Tips        []string     `json:"tips"`
}

// User is the identity resolved by the authentication boundary.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName,omitempty"`
}

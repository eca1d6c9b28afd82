package domain

import "errors"

var (
	// ErrBankNotFound indicates the question bank could not be loaded.
	ErrBankNotFound = errors.New("question bank not found")
	// ErrInvalidBank is returned when a loaded bank violates its shape rules.
	ErrInvalidBank = errors.New("invalid question bank")
	// ErrOptionNotFound indicates a submitted answer is not an option of the current question.
	ErrOptionNotFound = errors.New("option not found")
	// ErrQuestionnaireComplete is returned when answering after the last question.
	ErrQuestionnaireComplete = errors.New("questionnaire already complete")
	// ErrQuestionnaireInProgress is returned when retaking before results are shown.
	ErrQuestionnaireInProgress = errors.New("questionnaire not finished")
	// ErrFlowNotFound is returned when a user has no questionnaire in progress.
	ErrFlowNotFound = errors.New("questionnaire flow not found")

	// ErrUnknownActivity indicates an activity name outside the supported kinds.
	ErrUnknownActivity = errors.New("unknown activity")
	// ErrAlreadyRunning is returned by Start while a session is running.
	ErrAlreadyRunning = errors.New("game session already running")
	// ErrSessionBusy is returned while a start or stop request is in flight.
	ErrSessionBusy = errors.New("game session is starting or stopping")
	// ErrSessionRunning is returned by Reset while a session is active.
	ErrSessionRunning = errors.New("game session is active")
	// ErrControllerClosed is returned once a controller has been torn down.
	ErrControllerClosed = errors.New("game controller closed")
	// ErrControllerNotFound indicates an unknown game session id.
	ErrControllerNotFound = errors.New("game session not found")

	// ErrUnauthenticated is returned when no current user can be resolved.
	ErrUnauthenticated = errors.New("authentication required")
)

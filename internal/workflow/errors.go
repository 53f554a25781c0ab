package workflow

import "errors"

var (
	// ErrUnknownStatus indicates a status value outside the defined set.
	ErrUnknownStatus = errors.New("unknown submission status")
	// ErrInvalidState indicates a transition attempted from a status that does not permit it.
	ErrInvalidState = errors.New("transition not permitted from current status")
	// ErrWrongStage indicates the submission moved to another stage before the transition applied.
	ErrWrongStage = errors.New("submission is not at the expected review stage")
)

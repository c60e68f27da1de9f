package engine

import "errors"

// Configuration errors. These are fatal: Start rejects the definition and
// the session never enters IN_PROGRESS.
var (
	ErrNoQuestions        = errors.New("exam definition has no questions")
	ErrInvalidDuration    = errors.New("exam duration must be positive")
	ErrInvalidTotalMarks  = errors.New("total marks must equal the sum of question marks")
	ErrNegativeMarkConfig = errors.New("negative marks per wrong must not be negative")
	ErrBadQuestion        = errors.New("malformed question in exam definition")
)

// Input validation errors. These are recoverable: the action is rejected,
// prior answers stay intact and the session remains IN_PROGRESS.
var (
	ErrUnknownQuestion  = errors.New("question does not exist in this exam")
	ErrOptionOutOfRange = errors.New("selected option index is out of range")
	ErrFormatMismatch   = errors.New("operation does not match the exam format")
	ErrEvidenceLimit    = errors.New("evidence limit reached for this question")
	ErrEvidenceTooLarge = errors.New("evidence item exceeds the size limit")
	ErrEvidenceIndex    = errors.New("no evidence at that index")
)

// Lifecycle errors.
var (
	ErrAlreadyStarted  = errors.New("session already started")
	ErrSessionInactive = errors.New("session is not in progress")
	ErrNotFinalized    = errors.New("session has not finalized")
)

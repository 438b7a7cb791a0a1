package services

import "errors"

var (
	ErrCycleNotFound      = errors.New("award cycle not found")
	ErrProjectNotFound    = errors.New("project not found")
	ErrProjectNotVotable  = errors.New("project is not open for voting")
	ErrSelfVote           = errors.New("you cannot vote for your own project")
	ErrAlreadyVoted       = errors.New("you have already voted for this project")
	ErrVoteNotFound       = errors.New("vote not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserDisabled       = errors.New("user is disabled")
	ErrNotProjectOwner    = errors.New("only the project owner can do this")
	ErrProjectLocked      = errors.New("project can no longer be edited")
	ErrCommentNotFound    = errors.New("comment not found")
	ErrSubscriberNotFound = errors.New("subscriber not found")
	ErrTemplateNotFound   = errors.New("email template not found")
	ErrUnknownKind        = errors.New("unknown notification kind")
	ErrEmailDisabled      = errors.New("email delivery is disabled")
	ErrUnknownProvider    = errors.New("unknown sign-in provider")
	ErrInvalidRefresh     = errors.New("invalid refresh token")
)

// ValidationError wraps input problems found before any write.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

func newValidationError(err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Err: err}
}

// IsValidationError reports whether err carries a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

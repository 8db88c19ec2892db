package domain

import "errors"

// ErrorKind classifies failures so transport layers can map them to a
// response without inspecting message text. Dependency errors come from
// post-commit side effects and are logged, never returned to callers.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindAuthorization
	KindConflict
	KindNotFound
	KindDependency
)

type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string { return e.Message }

func NewValidation(msg string) *Error    { return &Error{Kind: KindValidation, Message: msg} }
func NewAuthorization(msg string) *Error { return &Error{Kind: KindAuthorization, Message: msg} }
func NewConflict(msg string) *Error      { return &Error{Kind: KindConflict, Message: msg} }
func NewNotFound(msg string) *Error      { return &Error{Kind: KindNotFound, Message: msg} }
func NewDependency(msg string) *Error    { return &Error{Kind: KindDependency, Message: msg} }

// KindOf returns the kind of err, or 0 for errors outside the taxonomy.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

var (
	ErrEventNotFound      = NewNotFound("event not found")
	ErrMembershipNotFound = NewNotFound("membership not found")
	ErrChatNotFound       = NewNotFound("chat not found")
	ErrProfileNotFound    = NewNotFound("event profile not found")

	ErrAlreadyRequested = NewConflict("already requested or member")
	ErrAlreadyProcessed = NewConflict("request already processed")
	ErrEventFull        = NewConflict("event is full")

	ErrOnlyOrganizer       = NewAuthorization("only organizer can perform this action")
	ErrUserBlocked         = NewAuthorization("user is blocked")
	ErrNotEventParticipant = NewAuthorization("caller is not an event participant")

	ErrRemoveOrganizer = NewValidation("organizer cannot be removed as participant")
)

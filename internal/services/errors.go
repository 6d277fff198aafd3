package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure so callers can map it to a response.
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindAuthorization ErrorKind = "authorization"
	KindTiming        ErrorKind = "timing"
	KindDependency    ErrorKind = "dependency"
	KindNotFound      ErrorKind = "not_found"
	KindInternal      ErrorKind = "internal"
)

// Error is a domain error with a kind. Sentinels are compared with errors.Is.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

var (
	ErrInvalidNumbers          = newError(KindValidation, "invalid ticket numbers")
	ErrInvalidAddress          = newError(KindValidation, "invalid address")
	ErrInvalidSetting          = newError(KindValidation, "invalid setting value")
	ErrNotWinner               = newError(KindValidation, "ticket did not win a prize")
	ErrNoFreeTickets           = newError(KindValidation, "no free ticket credit available")
	ErrInvalidRandomness       = newError(KindValidation, "invalid random words")
	ErrNotOwner                = newError(KindAuthorization, "caller is not the contract owner")
	ErrNotTicketHolder         = newError(KindAuthorization, "caller does not hold this ticket")
	ErrInvalidCredential       = newError(KindAuthorization, "invalid credentials")
	ErrUpkeepNotNeeded         = newError(KindTiming, "upkeep not needed")
	ErrDayAlreadyDrawn         = newError(KindTiming, "day already drawn")
	ErrDayNotDrawn             = newError(KindTiming, "day not drawn yet")
	ErrDayNotDistributed       = newError(KindTiming, "day not distributed yet")
	ErrAlreadyDistributed      = newError(KindTiming, "day already distributed")
	ErrAlreadyClaimed          = newError(KindTiming, "prize already claimed")
	ErrRequestNotPending       = newError(KindTiming, "randomness request is not pending")
	ErrRequestPending          = newError(KindTiming, "a randomness request is pending")
	ErrWouldDoubleTrigger      = newError(KindTiming, "change would re-trigger an already drawn slot")
	ErrNothingToRecover        = newError(KindTiming, "no outstanding randomness request")
	ErrTicketNotFound          = newError(KindNotFound, "ticket not found")
	ErrDayNotFound             = newError(KindNotFound, "game-day not found")
	ErrRequestNotFound         = newError(KindNotFound, "randomness request not found")
	ErrPaymentFailed           = newError(KindDependency, "payment transfer failed")
	ErrRandomnessRequestFailed = newError(KindDependency, "randomness request failed")
)

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Retryable reports whether the operation may succeed if attempted again later.
func Retryable(err error) bool {
	k := KindOf(err)
	return k == KindTiming || k == KindDependency
}

// wrap attaches detail to a sentinel while keeping it matchable.
func wrap(sentinel *Error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}

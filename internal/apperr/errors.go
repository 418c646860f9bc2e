package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the caller.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindPermission    Kind = "permission"
	KindStateConflict Kind = "state_conflict"
	KindNotFound      Kind = "not_found"
	KindCollaborator  Kind = "collaborator"
	KindInternal      Kind = "internal"
)

// Reason codes distinguish errors of the same kind that need different
// corrective actions.
const (
	ReasonAlreadyClaimed   = "already_claimed"
	ReasonAlreadyAssigned  = "already_assigned"
	ReasonWrongStatus      = "wrong_status"
	ReasonAlreadyPaid      = "already_paid"
	ReasonAlreadyRated     = "already_rated"
	ReasonNotOwner         = "not_owner"
	ReasonBadCredentials   = "bad_credentials"
	ReasonSuspended        = "suspended"
	ReasonWrongRole        = "wrong_role"
	ReasonWrongTrade       = "wrong_trade"
	ReasonTradesLocked     = "trades_locked"
	ReasonEmailTaken       = "email_taken"
	ReasonPinNotSet        = "pin_not_set"
	ReasonPinAlreadySet    = "pin_already_set"
	ReasonWrongPin         = "wrong_pin"
	ReasonPinLocked        = "pin_locked"
	ReasonVaultLocked      = "vault_locked"
	ReasonDeclined         = "declined"
	ReasonUnavailable      = "unavailable"
	ReasonPermissionDenied = "permission_denied"
)

// Collaborator names.
const (
	Location = "location"
	Photos   = "photos"
	Payments = "payments"
	OTP      = "otp"
)

// Error is the single error type returned by the service layer.
type Error struct {
	Kind         Kind
	Reason       string
	Collaborator string
	Msg          string
	Err          error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on kind and reason so callers can compare against the
// sentinel-style values returned by Conflict and friends.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Reason == "" || t.Reason == e.Reason
}

func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func Permission(reason, msg string) error {
	return &Error{Kind: KindPermission, Reason: reason, Msg: msg}
}

func Conflict(reason, msg string) error {
	return &Error{Kind: KindStateConflict, Reason: reason, Msg: msg}
}

func NotFound(what string) error {
	return &Error{Kind: KindNotFound, Msg: what + " not found"}
}

// Collaborator wraps a failure of an external dependency and names it.
func Collaborator(name, reason string, err error) error {
	return &Error{
		Kind:         KindCollaborator,
		Reason:       reason,
		Collaborator: name,
		Msg:          name + " unavailable",
		Err:          err,
	}
}

func Internal(msg string, err error) error {
	return &Error{Kind: KindInternal, Msg: msg, Err: err}
}

// As returns the *Error in err's chain, or nil.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// KindOf reports the kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	if e := As(err); e != nil {
		return e.Kind
	}
	return KindInternal
}

// ReasonOf reports the reason code of err, if any.
func ReasonOf(err error) string {
	if e := As(err); e != nil {
		return e.Reason
	}
	return ""
}

// HasReason reports whether err is an *Error with the given reason.
func HasReason(err error, reason string) bool {
	return ReasonOf(err) == reason
}

package errors

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"
)

// Root kinds of the ledger. Codes are part of the ABCI result surface and
// must never be renumbered.
var (
	// ErrInternal is used for every failure that is not a registered kind.
	ErrInternal = Register(1, "internal")

	ErrNotOwner     = Register(2, "caller is not the owner")
	ErrUnauthorized = Register(3, "unauthorized")

	ErrAlreadyRegistered = Register(10, "already registered")
	ErrNotRegistered     = Register(11, "not registered")

	ErrIneligible        = Register(20, "ineligible")
	ErrInsufficientFunds = Register(21, "insufficient funds")

	ErrInvalidAmount       = Register(30, "invalid amount")
	ErrInvalidValue        = Register(31, "invalid value")
	ErrInvalidProposalType = Register(32, "invalid proposal type")

	ErrUnknownProposal   = Register(40, "unknown proposal")
	ErrAlreadyVoted      = Register(41, "already voted")
	ErrProposalExpired   = Register(42, "proposal expired")
	ErrProposalNotActive = Register(43, "proposal not active")
	ErrProposalRejected  = Register(44, "proposal rejected")
	ErrAlreadyExecuted   = Register(45, "proposal already executed")
	ErrProposalActive    = Register(46, "proposal still active")

	ErrNotFound         = Register(50, "not found")
	ErrInvalidInput     = Register(51, "invalid input")
	ErrInvalidNonce     = Register(52, "invalid nonce")
	ErrInvalidSignature = Register(53, "invalid signature")
	ErrUnsupportedTx    = Register(54, "unsupported tx")
	ErrOverflow         = Register(55, "value overflow")
)

// Register returns an error instance that should be used as the base for
// creating error instances during runtime.
//
// Registering the same code twice panics. Use this function only during the
// program startup phase.
func Register(code uint32, description string) *Error {
	if e, ok := usedCodes[code]; ok {
		panic(fmt.Sprintf("error with code %d is already registered: %q", code, e.desc))
	}
	err := &Error{
		code: code,
		desc: description,
	}
	usedCodes[err.code] = err
	return err
}

var usedCodes = map[uint32]*Error{}

// Error is a root error kind. Every error returned by the ledger wraps one of
// them so that it can be tested with Is and reported with a stable code.
type Error struct {
	code uint32
	desc string
}

func (e Error) Error() string {
	return e.desc
}

func (e Error) ABCICode() uint32 {
	return e.code
}

// New returns a new error with the root cause set to this kind.
func (e *Error) New(description string) error {
	return Wrap(e, description)
}

// Newf is New with formatting.
func (e *Error) Newf(description string, args ...interface{}) error {
	return e.New(fmt.Sprintf(description, args...))
}

// Is check if given error instance is of a given kind. This involves
// unwrapping given error using the Cause or Unwrap method if available.
func (kind *Error) Is(err error) bool {
	// Reflect usage is necessary to correctly compare with
	// a nil implementation of an error.
	if kind == nil {
		if err == nil {
			return true
		}
		return reflect.ValueOf(err).IsNil()
	}

	for {
		if err == kind {
			return true
		}
		switch c := err.(type) {
		case causer:
			err = c.Cause()
		case unwrapper:
			err = c.Unwrap()
		default:
			return false
		}
		if err == nil {
			return false
		}
	}
}

// Wrap extends given error with an additional information.
//
// If err is nil, this returns nil, avoiding the need for an if statement when
// wrapping a error returned at the end of a function.
func Wrap(err error, description string) error {
	if err == nil {
		return nil
	}

	// Attach the stack only once, at the innermost wrap.
	if stackTrace(err) == nil {
		err = errors.WithStack(err)
	}

	return &wrappedError{
		parent: err,
		msg:    description,
	}
}

// Wrapf is Wrap with formatting.
func Wrapf(err error, format string, args ...interface{}) error {
	desc := fmt.Sprintf(format, args...)
	return Wrap(err, desc)
}

type wrappedError struct {
	msg    string
	parent error
}

func (e *wrappedError) Error() string {
	return fmt.Sprintf("%s: %s", e.msg, e.parent.Error())
}

func (e *wrappedError) Cause() error {
	return e.parent
}

func (e *wrappedError) Unwrap() error {
	return e.parent
}

type causer interface {
	Cause() error
}

type unwrapper interface {
	Unwrap() error
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

func stackTrace(err error) errors.StackTrace {
	for {
		if st, ok := err.(stackTracer); ok {
			return st.StackTrace()
		}
		if c, ok := err.(causer); ok {
			err = c.Cause()
		} else {
			return nil
		}
	}
}

// Is reports whether err is of the given kind.
func Is(err error, kind *Error) bool {
	return kind.Is(err)
}

package errors

import (
	"fmt"
)

// SuccessABCICode is the code of a successfully handled call.
const SuccessABCICode uint32 = 0

type coder interface {
	ABCICode() uint32
}

// ABCIInfo returns the ABCI result code and log message of the given error.
// Errors that do not wrap a registered kind are reported as internal, with
// their message redacted unless debug is set.
func ABCIInfo(err error, debug bool) (uint32, string) {
	if err == nil {
		return SuccessABCICode, ""
	}
	code := abciCode(err)
	if code == ErrInternal.code && !debug && !ErrInternal.Is(err) {
		return code, ErrInternal.desc
	}
	if debug {
		return code, fmt.Sprintf("%+v", err)
	}
	return code, err.Error()
}

// abciCode walks the error chain and returns the code of the first registered
// kind found.
func abciCode(err error) uint32 {
	for err != nil {
		if c, ok := err.(coder); ok {
			return c.ABCICode()
		}
		switch c := err.(type) {
		case causer:
			err = c.Cause()
		case unwrapper:
			err = c.Unwrap()
		default:
			return ErrInternal.code
		}
	}
	return ErrInternal.code
}

// FromABCI rebuilds an error from a result code and log, so that clients can
// test remote failures with Is.
func FromABCI(code uint32, log string) error {
	if code == SuccessABCICode {
		return nil
	}
	kind, ok := usedCodes[code]
	if !ok {
		return fmt.Errorf("unknown error code %d: %s", code, log)
	}
	return Wrap(kind, log)
}

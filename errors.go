package por

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Callers should use errors.Is against these rather
// than comparing *Error values directly, since every returned error wraps
// one of them.
var (
	// ErrDeserialization covers truncated streams, a length prefix that
	// overflows its bound (SafeInteger, max raw size, key-length caps), a
	// MAC whose length isn't 32, or any other malformed wire object.
	ErrDeserialization = errors.New("por: deserialization error")

	// ErrStateAuthentication indicates HMAC verification of a sealed State
	// failed. GenChallenge returns it as an error; Verify never does —
	// it reports false instead, since a failed audit is a normal outcome
	// there, not a programmer error.
	ErrStateAuthentication = errors.New("por: state authentication failed")

	// ErrInvalidInput covers programmer errors: Encode on a public
	// heartbeat, a key whose length isn't 32 bytes, and similar arity
	// mistakes.
	ErrInvalidInput = errors.New("por: invalid input")

	// ErrIO signals a required read/seek returned less than what the
	// caller demanded when a full result was mandatory. Short reads during
	// Encode/Prove are not reported this way — they are normal
	// end-of-file signals handled internally.
	ErrIO = errors.New("por: io error")
)

// Error wraps a sentinel with the operation that produced it, so a caller
// gets both `errors.Is(err, por.ErrDeserialization)` and a readable message.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("por.%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func errorf(op string, sentinel error, format string, args ...any) error {
	return &Error{Op: op, Err: fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))}
}

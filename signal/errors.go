package signal

import "errors"

var (
	// ErrInvalidReceiver is returned by Connect/ConnectAsync when the
	// receiver is nil.
	ErrInvalidReceiver = errors.New("signal: invalid receiver")

	// ErrNotCallable is returned when a nil handler function is passed to
	// any Connect variant.
	ErrNotCallable = errors.New("signal: handler is not callable")
)

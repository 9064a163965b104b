package hegemone

import (
	"context"
)

// Conn is a device selected on a bus whose lock is held by the caller.
// It is only valid inside the function passed to Session.
type Conn interface {
	Write(buffer []byte) error
	Read(buffer []byte) error
	// Tx writes w and reads len(r) bytes without releasing the bus in between
	// (repeated start, no stop condition after the write phase).
	Tx(w, r []byte) error
}

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

type AddressableTransactor interface {
	TxToAddr(ctx context.Context, address byte, w, r []byte) error
}

// SessionOpener runs fn with exclusive ownership of the bus and the device at
// address selected. Multi-step sequences that must not be interleaved with other
// traffic (latched registers) are issued from a single session.
type SessionOpener interface {
	Session(ctx context.Context, address byte, fn func(c Conn) error) error
}

type I2CBus interface {
	AddressableReader
	AddressableWriter
	AddressableTransactor
	SessionOpener
}

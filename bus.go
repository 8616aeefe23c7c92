package rotary

import (
	"context"
	"fmt"
	"time"
)

var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

// I2CBus is a raw addressable bus. Addresses are 7-bit.
type I2CBus interface {
	AddressableReader
	AddressableWriter
}

// RegisterReader reads len(buffer) bytes starting at register. Implementations that can
// issue a combined write/read transaction (repeated start) should do so.
type RegisterReader interface {
	ReadRegister(ctx context.Context, address, register byte, buffer []byte) error
}

// RegisterWriter writes buffer starting at register in a single bus transaction.
type RegisterWriter interface {
	WriteRegister(ctx context.Context, address, register byte, buffer []byte) error
}

// Transport is the platform capability set a register driver is built on.
// Drivers call Init before their first register access and Deinit when done.
type Transport interface {
	Init(ctx context.Context) error
	Deinit(ctx context.Context) error
	RegisterReader
	RegisterWriter
	// Delay blocks for d or until ctx is done.
	Delay(ctx context.Context, d time.Duration) error
	// Debug emits a diagnostic message. It is never required for correctness.
	Debug(msg string, args ...any)
}

package i2c

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mklimuk/rotary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockBus is a mock implementation of rotary.I2CBus using testify/mock
type MockBus struct {
	mock.Mock
}

func (m *MockBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	if data, ok := args.Get(0).([]byte); ok {
		copy(buffer, data)
	}
	return args.Error(1)
}

func (m *MockBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	return args.Error(0)
}

func (m *MockBus) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockBus) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockRegisterBus adds native register access to MockBus.
type MockRegisterBus struct {
	MockBus
}

func (m *MockRegisterBus) ReadRegister(ctx context.Context, address, register byte, buffer []byte) error {
	args := m.Called(ctx, address, register, buffer)
	if data, ok := args.Get(0).([]byte); ok {
		copy(buffer, data)
	}
	return args.Error(1)
}

func (m *MockRegisterBus) WriteRegister(ctx context.Context, address, register byte, buffer []byte) error {
	args := m.Called(ctx, address, register, buffer)
	return args.Error(0)
}

func TestTransport_NotInitialized(t *testing.T) {
	tr := NewTransport(Static(&MockBus{}))
	err := tr.ReadRegister(context.Background(), 0x36, 0x0C, make([]byte, 2))
	assert.ErrorIs(t, err, ErrTransportClosed)
	err = tr.WriteRegister(context.Background(), 0x36, 0x01, []byte{0x00})
	assert.ErrorIs(t, err, ErrTransportClosed)
	assert.NoError(t, tr.Deinit(context.Background()))
}

func TestTransport_FallbackRegisterAccess(t *testing.T) {
	ctx := context.Background()
	bus := &MockBus{}
	tr := NewTransport(Static(bus))
	require.NoError(t, tr.Init(ctx))

	bus.On("WriteToAddr", mock.Anything, byte(0x36), []byte{0x0C}).Return(nil).Once()
	bus.On("ReadFromAddr", mock.Anything, byte(0x36), mock.Anything).Return([]byte{0x08, 0x00}, nil).Once()
	buf := make([]byte, 2)
	require.NoError(t, tr.ReadRegister(ctx, 0x36, 0x0C, buf))
	assert.Equal(t, []byte{0x08, 0x00}, buf)

	bus.On("WriteToAddr", mock.Anything, byte(0x36), []byte{0x01, 0x08, 0x00}).Return(nil).Once()
	require.NoError(t, tr.WriteRegister(ctx, 0x36, 0x01, []byte{0x08, 0x00}))

	bus.On("Close").Return(nil).Once()
	require.NoError(t, tr.Deinit(ctx))
	assert.Nil(t, tr.Bus())
	bus.AssertExpectations(t)
}

func TestTransport_FallbackPointerWriteFails(t *testing.T) {
	ctx := context.Background()
	bus := &MockBus{}
	tr := NewTransport(Static(bus))
	require.NoError(t, tr.Init(ctx))

	nack := errors.New("nack")
	bus.On("WriteToAddr", mock.Anything, byte(0x36), []byte{0x0C}).Return(nack).Once()
	err := tr.ReadRegister(ctx, 0x36, 0x0C, make([]byte, 2))
	assert.ErrorIs(t, err, nack)
	bus.AssertNotCalled(t, "ReadFromAddr", mock.Anything, mock.Anything, mock.Anything)
}

func TestTransport_NativeRegisterAccess(t *testing.T) {
	ctx := context.Background()
	bus := &MockRegisterBus{}
	tr := NewTransport(Static(bus))
	require.NoError(t, tr.Init(ctx))

	bus.On("ReadRegister", mock.Anything, byte(0x36), byte(0x0B), mock.Anything).Return([]byte{0x20}, nil).Once()
	buf := make([]byte, 1)
	require.NoError(t, tr.ReadRegister(ctx, 0x36, 0x0B, buf))
	assert.Equal(t, byte(0x20), buf[0])

	bus.On("WriteRegister", mock.Anything, byte(0x36), byte(0xFF), []byte{0x80}).Return(nil).Once()
	require.NoError(t, tr.WriteRegister(ctx, 0x36, 0xFF, []byte{0x80}))

	bus.AssertExpectations(t)
	bus.AssertNotCalled(t, "WriteToAddr", mock.Anything, mock.Anything, mock.Anything)
}

func TestTransport_InitOpensOnce(t *testing.T) {
	ctx := context.Background()
	opened := 0
	bus := &MockBus{}
	tr := NewTransport(func(ctx context.Context) (rotary.I2CBus, error) {
		opened++
		return bus, nil
	})
	require.NoError(t, tr.Init(ctx))
	require.NoError(t, tr.Init(ctx))
	assert.Equal(t, 1, opened)

	bus.On("Close").Return(nil).Once()
	require.NoError(t, tr.Deinit(ctx))
	require.NoError(t, tr.Init(ctx))
	assert.Equal(t, 2, opened)
}

func TestTransport_InitError(t *testing.T) {
	noDevice := errors.New("no such device")
	tr := NewTransport(func(ctx context.Context) (rotary.I2CBus, error) {
		return nil, noDevice
	})
	err := tr.Init(context.Background())
	assert.ErrorIs(t, err, noDevice)
	assert.Nil(t, tr.Bus())

	assert.Error(t, NewTransport(nil).Init(context.Background()))
}

func TestTransport_DeinitCloseError(t *testing.T) {
	ctx := context.Background()
	bus := &MockBus{}
	tr := NewTransport(Static(bus))
	require.NoError(t, tr.Init(ctx))

	closeErr := errors.New("busy")
	bus.On("Close").Return(closeErr).Once()
	assert.ErrorIs(t, tr.Deinit(ctx), closeErr)
	assert.Nil(t, tr.Bus())
}

func TestTransport_Delay(t *testing.T) {
	tr := NewTransport(nil)
	start := time.Now()
	require.NoError(t, tr.Delay(context.Background(), 5*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := tr.Delay(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}

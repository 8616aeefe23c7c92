package position

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockTransport is a mock implementation of rotary.Transport using testify/mock
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Init(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTransport) Deinit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTransport) ReadRegister(ctx context.Context, address, register byte, buffer []byte) error {
	args := m.Called(ctx, address, register, buffer)
	if data, ok := args.Get(0).([]byte); ok && len(data) <= len(buffer) {
		copy(buffer, data)
	}
	return args.Error(1)
}

func (m *MockTransport) WriteRegister(ctx context.Context, address, register byte, buffer []byte) error {
	args := m.Called(ctx, address, register, buffer)
	return args.Error(0)
}

func (m *MockTransport) Delay(ctx context.Context, d time.Duration) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockTransport) Debug(msg string, args ...any) {}

// newInitedAS5600 returns a driver whose Init already went through the mock.
func newInitedAS5600(t mock.TestingT, tr *MockTransport, opts ...AS5600ConfigOption) *AS5600 {
	tr.On("Init", mock.Anything).Return(nil).Once()
	s := NewAS5600(tr, opts...)
	if err := s.Init(context.Background()); err != nil {
		t.Errorf("init: %v", err)
	}
	return s
}

package adapter

import (
	"context"
	"errors"
	"testing"

	"github.com/mklimuk/rotary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDevice answers every 64 byte request with reply(request).
type fakeDevice struct {
	requests [][]byte
	reply    func(req []byte) []byte
	pending  []byte
	closed   int
}

func (f *fakeDevice) Write(b []byte) (int, error) {
	req := append([]byte(nil), b...)
	f.requests = append(f.requests, req)
	res := make([]byte, 64)
	res[0] = req[0]
	if f.reply != nil {
		copy(res, f.reply(req))
	}
	f.pending = res
	return len(b), nil
}

func (f *fakeDevice) Read(b []byte) (int, error) {
	return copy(b, f.pending), nil
}

func (f *fakeDevice) Close() error {
	f.closed++
	return nil
}

func newTestAdapter(dev *fakeDevice) *MCP2221 {
	return NewMCP2221(
		withOpener(func() (hidDevice, error) { return dev, nil }),
		WithResponseWait(0),
	)
}

func TestMCP2221_ReadRegister(t *testing.T) {
	dev := &fakeDevice{reply: func(req []byte) []byte {
		if req[0] == cmdGetData {
			return []byte{cmdGetData, 0x00, 0x00, 0x02, 0x08, 0x00}
		}
		return nil
	}}
	d := newTestAdapter(dev)

	buf := make([]byte, 2)
	require.NoError(t, d.ReadRegister(context.Background(), 0x36, 0x0C, buf))
	assert.Equal(t, []byte{0x08, 0x00}, buf)

	require.Len(t, dev.requests, 3)
	assert.Equal(t, []byte{cmdWriteDataNoStop, 0x01, 0x00, 0x6C, 0x0C}, dev.requests[0][:5])
	assert.Equal(t, []byte{cmdReadDataRepeated, 0x02, 0x00, 0x6D}, dev.requests[1][:4])
	assert.Equal(t, byte(cmdGetData), dev.requests[2][0])
	assert.Equal(t, 3, dev.closed)
}

func TestMCP2221_WriteRegister(t *testing.T) {
	dev := &fakeDevice{}
	d := newTestAdapter(dev)

	require.NoError(t, d.WriteRegister(context.Background(), 0x36, 0x01, []byte{0x08, 0x00}))
	require.Len(t, dev.requests, 1)
	assert.Equal(t, []byte{cmdWriteData, 0x03, 0x00, 0x6C, 0x01, 0x08, 0x00}, dev.requests[0][:7])
}

func TestMCP2221_Busy(t *testing.T) {
	dev := &fakeDevice{reply: func(req []byte) []byte {
		return []byte{req[0], responseBusy}
	}}
	d := newTestAdapter(dev)

	err := d.WriteToAddr(context.Background(), 0x36, []byte{0x0B})
	assert.ErrorIs(t, err, rotary.ErrBusBusy)
	err = d.ReadRegister(context.Background(), 0x36, 0x0B, make([]byte, 1))
	assert.ErrorIs(t, err, rotary.ErrBusBusy)
}

func TestMCP2221_ReadSizeMismatch(t *testing.T) {
	dev := &fakeDevice{reply: func(req []byte) []byte {
		if req[0] == cmdGetData {
			return []byte{cmdGetData, 0x00, 0x00, 127}
		}
		return nil
	}}
	d := newTestAdapter(dev)
	err := d.ReadFromAddr(context.Background(), 0x36, make([]byte, 2))
	assert.ErrorContains(t, err, "invalid data size byte")
}

func TestMCP2221_TransferTooLong(t *testing.T) {
	dev := &fakeDevice{}
	d := newTestAdapter(dev)
	err := d.WriteToAddr(context.Background(), 0x36, make([]byte, 61))
	assert.Error(t, err)
	assert.Empty(t, dev.requests)
}

func TestMCP2221_OpenError(t *testing.T) {
	d := NewMCP2221(withOpener(func() (hidDevice, error) { return nil, ErrDeviceNotFound }))
	_, err := d.Status(context.Background())
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestMCP2221_CanceledContext(t *testing.T) {
	dev := &fakeDevice{}
	d := newTestAdapter(dev)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := d.WriteToAddr(ctx, 0x36, []byte{0x00})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, dev.requests)
}

func TestMCP2221_SetGPIO(t *testing.T) {
	dev := &fakeDevice{}
	d := newTestAdapter(dev)

	require.NoError(t, d.SetGPIO(context.Background(), 2, true))
	req := dev.requests[0]
	assert.Equal(t, byte(cmdSetGPIOValues), req[0])
	assert.Equal(t, []byte{0x01, 0x01, 0x01, 0x00}, req[10:14])
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x00}, req[2:6])

	assert.Error(t, d.SetGPIO(context.Background(), 4, true))
}

func TestMCP2221_ReadGPIO(t *testing.T) {
	dev := &fakeDevice{reply: func(req []byte) []byte {
		return []byte{cmdGetGPIOValues, 0x00, 0x01, 0x00, 0x00, 0x01, 0x00, 0xEF, 0x01, 0x00}
	}}
	d := newTestAdapter(dev)

	values, err := d.ReadGPIO(context.Background())
	require.NoError(t, err)
	assert.Equal(t, MCP2221GPIOValues{
		GPIO0Mode:  GPIOModeOut,
		GPIO0Value: 1,
		GPIO1Mode:  GPIOModeIn,
		GPIO1Value: 0,
		GPIO2Mode:  GPIOModeNoOperation,
		GPIO2Value: 0,
		GPIO3Mode:  GPIOModeOut,
		GPIO3Value: 1,
	}, values)
}

func TestMCP2221_GPIOParameters(t *testing.T) {
	dev := &fakeDevice{reply: func(req []byte) []byte {
		if req[0] == cmdGetSRAMSettings {
			return []byte{cmdGetSRAMSettings, 0x00, 0x00, 0x00, 0x08, 0x02, 0x00, 0x01}
		}
		return nil
	}}
	d := newTestAdapter(dev)

	params, err := d.GetGPIOParameters(context.Background())
	require.NoError(t, err)
	assert.Equal(t, GPIOModeIn, params.GPIO0Mode)
	assert.Equal(t, GPIOOperation, params.GPIO0Designation)
	assert.Equal(t, GPIO1ADC1, params.GPIO1Designation)
	assert.Equal(t, GPIOModeOut, params.GPIO2Mode)
	assert.Equal(t, GPIO3LEDI2C, params.GPIO3Designation)

	params.GPIO2Mode = GPIOModeOut
	params.GPIO2Designation = GPIOOperation
	require.NoError(t, d.SetGPIOParameters(context.Background(), params))
	req := dev.requests[1]
	assert.Equal(t, []byte{cmdSetSRAMSettings, 0x01, 0x08, 0x02, 0x00, 0x01}, req[:6])
}

func TestBufferToStatus(t *testing.T) {
	buf := make([]byte, 64)
	buf[9], buf[10] = 0x02, 0x01
	buf[11], buf[12] = 0x01, 0x00
	buf[13] = 3
	buf[14] = 0x76
	buf[15] = 10
	buf[16], buf[17] = 0x6C, 0x00
	buf[25] = 1

	status := bufferToStatus(buf)
	assert.Equal(t, &MCP2221Status{
		I2CDataBufferCounter:   3,
		I2CSpeedDivider:        0x76,
		I2CTimeout:             10,
		CurrentAddress:         "6c00",
		LastWriteRequestedSize: 0x0102,
		LastWriteSentSize:      1,
		ReadPending:            1,
	}, status)
}

func TestMCP2221_ReleaseBus(t *testing.T) {
	dev := &fakeDevice{}
	d := newTestAdapter(dev)
	require.NoError(t, d.Release(context.Background()))
	assert.Equal(t, []byte{cmdStatus, 0x00, statusCancelTransfer}, dev.requests[0][:3])
}

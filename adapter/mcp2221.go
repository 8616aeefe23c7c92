package adapter

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/karalabe/hid"
	"github.com/mklimuk/rotary"
	"github.com/mklimuk/rotary/snsctx"
)

const VendorID = 0x04D8
const ProductID = 0x00DD

// maxTransfer is the payload room of a single 64 byte HID report.
const maxTransfer = 60

var _ rotary.I2CBus = &MCP2221{}
var _ rotary.RegisterReader = &MCP2221{}
var _ rotary.RegisterWriter = &MCP2221{}

var ErrCommandUnsupported = errors.New("unsupported command")
var ErrCommandFailed = errors.New("command failed")
var ErrDeviceNotFound = errors.New("MCP2221 device not found")

// MCP2221 command codes
const (
	cmdStatus            = 0x10
	cmdGetData           = 0x40
	cmdSetGPIOValues     = 0x50
	cmdGetGPIOValues     = 0x51
	cmdWriteData         = 0x90
	cmdReadData          = 0x91
	cmdReadDataRepeated  = 0x93
	cmdWriteDataNoStop   = 0x94
	cmdGetSRAMSettings   = 0xB0
	cmdSetSRAMSettings   = 0xB1
	statusCancelTransfer = 0x10
	responseBusy         = 0x01
	responseReadError    = 0x41
)

// hidDevice is the part of hid.Device the adapter talks to.
type hidDevice interface {
	io.ReadWriteCloser
}

// OpenDeviceFunc opens the HID device for a single request.
type OpenDeviceFunc func() (hidDevice, error)

// MCP2221 is a Microchip MCP2221(A) USB to I2C/GPIO bridge. The device is opened for every
// request; requests are serialized so one adapter can be shared by several drivers.
type MCP2221 struct {
	mx           sync.Mutex
	open         OpenDeviceFunc
	request      []byte
	response     []byte
	responseWait time.Duration
}

type MCP2221Status struct {
	I2CDataBufferCounter   int    `yaml:"i2c_data_buffer_counter"`
	I2CSpeedDivider        int    `yaml:"i2c_speed_divider"`
	I2CTimeout             int    `yaml:"i2c_timeout"`
	CurrentAddress         string `yaml:"current_address"`
	LastWriteRequestedSize uint16 `yaml:"last_write_requested_size"`
	LastWriteSentSize      uint16 `yaml:"last_write_sent_size"`
	ReadPending            int    `yaml:"read_pending"`
}

type GPIOMode byte

const (
	GPIOModeOut         GPIOMode = 0b00000000
	GPIOModeIn          GPIOMode = 0b00001000
	GPIOModeNoOperation GPIOMode = 0xEF
)

func (m GPIOMode) String() string {
	switch m {
	case GPIOModeIn:
		return "INPUT"
	case GPIOModeOut:
		return "OUTPUT"
	default:
		return "NOOP"
	}
}

// GPIODesignation selects the function of a GP pin. Only GPIOOperation turns it into a plain
// digital pin; the other values are chip functions (ADC, DAC, clock output, LEDs).
type GPIODesignation byte

const (
	GPIOOperation    GPIODesignation = 0b00000000
	GPIO0LedUartRx   GPIODesignation = 0b00000001
	GPIO1ClockOutput GPIODesignation = 0b00000001
	GPIO1ADC1        GPIODesignation = 0b00000010
	GPIO2ADC2        GPIODesignation = 0b00000010
	GPIO2DAC1        GPIODesignation = 0b00000011
	GPIO3LEDI2C      GPIODesignation = 0b00000001
	GPIO3ADC3        GPIODesignation = 0b00000010
)

// GP pin layout of the SRAM settings and GPIO value reports
const (
	gpioCount          = 4
	gpioModeMask       = 0b00001000
	gpioOperationMask  = 0b00000111
	gpioValuesOffset   = 2
	gpioSetStride      = 4
	gpioGetStride      = 2
	gpioParametersBase = 4
	gpioAlter          = 0x01
	sramGPIOPrefix     = 0x01
)

type MCP2221GPIOValues struct {
	GPIO0Mode  GPIOMode `yaml:"GP0_mode"`
	GPIO0Value byte     `yaml:"GPIO0"`
	GPIO1Mode  GPIOMode `yaml:"GP1_mode"`
	GPIO1Value byte     `yaml:"GPIO1"`
	GPIO2Mode  GPIOMode `yaml:"GP2_mode"`
	GPIO2Value byte     `yaml:"GPIO2"`
	GPIO3Mode  GPIOMode `yaml:"GP3_mode"`
	GPIO3Value byte     `yaml:"GPIO3"`
}

type MCP2221GPIOParameters struct {
	GPIO0Mode        GPIOMode        `yaml:"GP0_mode"`
	GPIO0Designation GPIODesignation `yaml:"GP0_designation"`
	GPIO1Mode        GPIOMode        `yaml:"GP1_mode"`
	GPIO1Designation GPIODesignation `yaml:"GP1_designation"`
	GPIO2Mode        GPIOMode        `yaml:"GP2_mode"`
	GPIO2Designation GPIODesignation `yaml:"GP2_designation"`
	GPIO3Mode        GPIOMode        `yaml:"GP3_mode"`
	GPIO3Designation GPIODesignation `yaml:"GP3_designation"`
}

type MCP2221Option func(*MCP2221)

// WithDeviceIndex selects one of several connected adapters, in enumeration order.
func WithDeviceIndex(index int) MCP2221Option {
	return func(d *MCP2221) {
		d.open = enumerated(index)
	}
}

func WithResponseWait(wait time.Duration) MCP2221Option {
	return func(d *MCP2221) {
		d.responseWait = wait
	}
}

func withOpener(open OpenDeviceFunc) MCP2221Option {
	return func(d *MCP2221) {
		d.open = open
	}
}

func NewMCP2221(opts ...MCP2221Option) *MCP2221 {
	d := &MCP2221{
		open:         enumerated(-1),
		request:      make([]byte, 64),
		response:     make([]byte, 64),
		responseWait: 50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// enumerated opens the adapter at index; a negative index requires exactly one adapter.
func enumerated(index int) OpenDeviceFunc {
	return func() (hidDevice, error) {
		devs := hid.Enumerate(VendorID, ProductID)
		if len(devs) == 0 {
			return nil, ErrDeviceNotFound
		}
		i := index
		if i < 0 {
			if len(devs) > 1 {
				return nil, fmt.Errorf("ambiguous device identification: %d adapters connected", len(devs))
			}
			i = 0
		}
		if i >= len(devs) {
			return nil, fmt.Errorf("no device with id %d", i)
		}
		dev, err := devs[i].Open()
		if err != nil {
			return nil, fmt.Errorf("error opening device: %w", err)
		}
		return dev, nil
	}
}

func (d *MCP2221) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.write(ctx, cmdWriteData, address, buffer)
}

func (d *MCP2221) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.read(ctx, cmdReadData, address, buffer)
}

// ReadRegister sets the register pointer without a stop condition and reads the data back
// with a repeated start.
func (d *MCP2221) ReadRegister(ctx context.Context, address, register byte, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	err := d.write(ctx, cmdWriteDataNoStop, address, []byte{register})
	if err != nil {
		return err
	}
	return d.read(ctx, cmdReadDataRepeated, address, buffer)
}

func (d *MCP2221) WriteRegister(ctx context.Context, address, register byte, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.write(ctx, cmdWriteData, address, append([]byte{register}, buffer...))
}

func (d *MCP2221) write(ctx context.Context, cmd byte, address byte, buffer []byte) error {
	if len(buffer) > maxTransfer {
		return fmt.Errorf("write to %x failed: %d bytes exceed a single transfer", address, len(buffer))
	}
	d.resetBuffers()
	d.request[0] = cmd
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(buffer)))
	d.request[3] = address << 1
	copy(d.request[4:], buffer)
	err := d.send(ctx, true)
	if err != nil {
		return fmt.Errorf("write to %x failed: %w", address, err)
	}
	if d.response[1] == responseBusy {
		snsctx.Logger(ctx).Debug("adapter busy", "command", fmt.Sprintf("%#x", cmd))
		return rotary.ErrBusBusy
	}
	return nil
}

func (d *MCP2221) read(ctx context.Context, cmd byte, address byte, buffer []byte) error {
	if len(buffer) > maxTransfer {
		return fmt.Errorf("bus read from %x failed: %d bytes exceed a single transfer", address, len(buffer))
	}
	d.resetBuffers()
	d.request[0] = cmd
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(buffer)))
	d.request[3] = address<<1 + 1
	err := d.send(ctx, true)
	if err != nil {
		return fmt.Errorf("bus read from %x failed: %w", address, err)
	}
	if d.response[1] == responseBusy {
		snsctx.Logger(ctx).Debug("adapter busy", "command", fmt.Sprintf("%#x", cmd))
		return rotary.ErrBusBusy
	}
	d.resetBuffers()
	d.request[0] = cmdGetData
	err = d.send(ctx, true)
	if err != nil {
		return fmt.Errorf("error getting read data from adapter: %w", err)
	}
	if d.response[1] == responseReadError {
		return fmt.Errorf("error reading the I2C slave data from the I2C engine")
	}
	if d.response[3] == 127 || int(d.response[3]) != len(buffer) {
		return fmt.Errorf("invalid data size byte; expected %d, got %d", len(buffer), d.response[3])
	}
	copy(buffer, d.response[4:])
	return nil
}

func (d *MCP2221) SetGPIOParameters(ctx context.Context, params MCP2221GPIOParameters) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdSetSRAMSettings
	d.request[1] = sramGPIOPrefix
	d.request[2] = byte(params.GPIO0Designation) | byte(params.GPIO0Mode)
	d.request[3] = byte(params.GPIO1Designation) | byte(params.GPIO1Mode)
	d.request[4] = byte(params.GPIO2Designation) | byte(params.GPIO2Mode)
	d.request[5] = byte(params.GPIO3Designation) | byte(params.GPIO3Mode)
	err := d.send(ctx, true)
	if err != nil {
		return fmt.Errorf("set GP parameters command write failed: %w", err)
	}
	if d.response[1] == responseBusy {
		return ErrCommandFailed
	}
	return nil
}

func (d *MCP2221) GetGPIOParameters(ctx context.Context) (MCP2221GPIOParameters, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdGetSRAMSettings
	d.request[1] = sramGPIOPrefix
	err := d.send(ctx, true)
	if err != nil {
		return MCP2221GPIOParameters{}, fmt.Errorf("get GP parameters command write failed: %w", err)
	}
	if d.response[1] == responseBusy {
		return MCP2221GPIOParameters{}, ErrCommandUnsupported
	}
	b := d.response[gpioParametersBase:]
	return MCP2221GPIOParameters{
		GPIO0Mode:        GPIOMode(b[0] & gpioModeMask),
		GPIO0Designation: GPIODesignation(b[0] & gpioOperationMask),
		GPIO1Mode:        GPIOMode(b[1] & gpioModeMask),
		GPIO1Designation: GPIODesignation(b[1] & gpioOperationMask),
		GPIO2Mode:        GPIOMode(b[2] & gpioModeMask),
		GPIO2Designation: GPIODesignation(b[2] & gpioOperationMask),
		GPIO3Mode:        GPIOMode(b[3] & gpioModeMask),
		GPIO3Designation: GPIODesignation(b[3] & gpioOperationMask),
	}, nil
}

func (d *MCP2221) ReadGPIO(ctx context.Context) (MCP2221GPIOValues, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdGetGPIOValues
	err := d.send(ctx, true)
	var res MCP2221GPIOValues
	if err != nil {
		return res, fmt.Errorf("read GPIO values command write failed: %w", err)
	}
	if d.response[1] == responseBusy {
		return res, ErrCommandFailed
	}
	modes := [gpioCount]*GPIOMode{&res.GPIO0Mode, &res.GPIO1Mode, &res.GPIO2Mode, &res.GPIO3Mode}
	values := [gpioCount]*byte{&res.GPIO0Value, &res.GPIO1Value, &res.GPIO2Value, &res.GPIO3Value}
	for pin := 0; pin < gpioCount; pin++ {
		offset := gpioValuesOffset + pin*gpioGetStride
		*values[pin] = d.response[offset]
		*modes[pin] = GPIOModeNoOperation
		if d.response[offset+1] != byte(GPIOModeNoOperation) {
			*modes[pin] = GPIOMode(d.response[offset+1] << 3)
		}
	}
	return res, nil
}

// SetGPIO drives a GP pin configured for GPIO operation as an output.
func (d *MCP2221) SetGPIO(ctx context.Context, pin int, high bool) error {
	if pin < 0 || pin >= gpioCount {
		return fmt.Errorf("invalid GP pin %d", pin)
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdSetGPIOValues
	offset := gpioValuesOffset + pin*gpioSetStride
	d.request[offset] = gpioAlter
	if high {
		d.request[offset+1] = 0x01
	}
	d.request[offset+2] = gpioAlter
	d.request[offset+3] = byte(GPIOModeOut)
	err := d.send(ctx, true)
	if err != nil {
		return fmt.Errorf("set GPIO values command write failed: %w", err)
	}
	if d.response[1] != 0x00 {
		return ErrCommandFailed
	}
	return nil
}

func (d *MCP2221) Status(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatus
	err := d.send(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

func bufferToStatus(buffer []byte) *MCP2221Status {
	/*
		9-10: requested I2C transfer length (LE)
		11-12: already transferred number of bytes (LE)
		13: internal I2C data buffer counter
		14: current I2C communication speed divider
		15: current I2C timeout
		16-17: I2C address being used
		25: read pending
	*/
	status := &MCP2221Status{
		I2CDataBufferCounter: int(buffer[13]),
		I2CSpeedDivider:      int(buffer[14]),
		I2CTimeout:           int(buffer[15]),
		ReadPending:          int(buffer[25]),
		CurrentAddress:       hex.EncodeToString(buffer[16:18]),
	}
	status.LastWriteRequestedSize = binary.LittleEndian.Uint16(buffer[9:11])
	status.LastWriteSentSize = binary.LittleEndian.Uint16(buffer[11:13])
	return status
}

// Release cancels the current I2C transfer and frees the bus.
func (d *MCP2221) Release(ctx context.Context) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	_, err := d.releaseBus(ctx)
	return err
}

func (d *MCP2221) ReleaseBus(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.releaseBus(ctx)
}

func (d *MCP2221) releaseBus(ctx context.Context) (*MCP2221Status, error) {
	d.resetBuffers()
	d.request[0] = cmdStatus
	d.request[2] = statusCancelTransfer
	err := d.send(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

func (d *MCP2221) send(ctx context.Context, response bool) error {
	err := ctx.Err()
	if err != nil {
		return err
	}
	dev, err := d.open()
	if err != nil {
		return err
	}
	defer func() {
		err := dev.Close()
		if err != nil {
			snsctx.Logger(ctx).Debug("could not close adapter", "error", err)
		}
	}()
	log := snsctx.Logger(ctx)
	verbose := snsctx.IsVerbose(ctx)
	if verbose {
		log.Debug(fmt.Sprintf("sending message to adapter:\n%s", hex.Dump(d.request)))
	}
	n, err := dev.Write(d.request)
	if err != nil {
		return fmt.Errorf("could not write request: %w", err)
	}
	if n != 64 {
		return fmt.Errorf("short write: %d", n)
	}
	if !response {
		return nil
	}
	if d.responseWait > 0 {
		time.Sleep(d.responseWait)
	}
	n, err = dev.Read(d.response)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}
	if n != 64 {
		return fmt.Errorf("short read: %d", n)
	}
	if verbose {
		log.Debug(fmt.Sprintf("read message from adapter:\n%s", hex.Dump(d.response)))
	}
	return nil
}

func (d *MCP2221) resetBuffers() {
	clear(d.request)
	clear(d.response)
}

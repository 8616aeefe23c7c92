package position

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnums(t *testing.T) {
	pm, err := ParsePowerMode("LPM3")
	require.NoError(t, err)
	assert.Equal(t, PowerModeLPM3, pm)

	h, err := ParseHysteresis("2lsb")
	require.NoError(t, err)
	assert.Equal(t, Hysteresis2LSB, h)

	o, err := ParseOutputStage("pwm")
	require.NoError(t, err)
	assert.Equal(t, OutputStagePWM, o)

	f, err := ParsePWMFrequency("460Hz")
	require.NoError(t, err)
	assert.Equal(t, PWMFrequency460Hz, f)

	sf, err := ParseSlowFilter("8x")
	require.NoError(t, err)
	assert.Equal(t, SlowFilter8x, sf)

	ff, err := ParseFastFilterThreshold("10lsb")
	require.NoError(t, err)
	assert.Equal(t, FastFilter10LSB, ff)
	assert.Equal(t, FastFilterThreshold(0x07), ff)

	_, err = ParseSlowFilter("32x")
	assert.ErrorIs(t, err, ErrInvalidParameter)
	_, err = ParseOutputStage("")
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestEnumString(t *testing.T) {
	assert.Equal(t, "nom", PowerModeNominal.String())
	assert.Equal(t, "analog-full", OutputStageAnalogFull.String())
	assert.Equal(t, "slow-only", FastFilterSlowOnly.String())
	assert.Equal(t, "invalid(3)", OutputStage(3).String())
	assert.Equal(t, "invalid(9)", FastFilterThreshold(9).String())
}

func TestEnumValid(t *testing.T) {
	assert.True(t, PowerModeLPM3.Valid())
	assert.False(t, PowerMode(4).Valid())
	assert.True(t, OutputStagePWM.Valid())
	assert.False(t, OutputStage(3).Valid())
	assert.True(t, FastFilter10LSB.Valid())
	assert.False(t, FastFilterThreshold(8).Valid())

	_, err := OutputStage(3).MarshalText()
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestBurn(t *testing.T) {
	tests := []struct {
		name     string
		expected Burn
	}{
		{"cmd1", 0x01},
		{"cmd2", 0x11},
		{"cmd3", 0x10},
		{"angle", 0x80},
		{"SETTING", 0x40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := ParseBurn(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, b)
			assert.True(t, b.Valid())
		})
	}
	_, err := ParseBurn("all")
	assert.ErrorIs(t, err, ErrInvalidParameter)
	assert.False(t, Burn(0x20).Valid())
	assert.Equal(t, "burn(0x20)", Burn(0x20).String())
}

func TestStatus(t *testing.T) {
	assert.Equal(t, "none", Status(0).String())
	assert.Equal(t, "MD|MH", (StatusMagnetDetected | StatusMagnetTooStrong).String())
	s := Status(0b0011_1000)
	assert.True(t, s.MagnetDetected())
	assert.True(t, s.MagnetTooWeak())
	assert.True(t, s.MagnetTooStrong())
	assert.False(t, Status(0b0000_0111).MagnetDetected())
}

func TestDirection(t *testing.T) {
	d, err := ParseDirection("CCW")
	require.NoError(t, err)
	assert.Equal(t, CounterClockwise, d)
	assert.True(t, d.PinHigh())
	assert.False(t, Clockwise.PinHigh())
	assert.Equal(t, "cw", Clockwise.String())
	_, err = ParseDirection("left")
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

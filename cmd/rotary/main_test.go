package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/mklimuk/rotary"
	"github.com/mklimuk/rotary/cmd/rotary/console"
	"github.com/mklimuk/rotary/position"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func runCaptured(t *testing.T, args ...string) (int, string) {
	t.Helper()
	out := &bytes.Buffer{}
	console.SetOutput(out, &bytes.Buffer{})
	t.Cleanup(func() { console.SetOutput(os.Stdout, os.Stderr) })
	code := run(append([]string{"rotary"}, args...))
	return code, out.String()
}

// withSimulator makes every command in the test talk to the same simulated sensor.
func withSimulator(t *testing.T) *position.SimulatedAS5600 {
	t.Helper()
	sim := position.NewSimulatedAS5600()
	openTransport = func(c *cli.Context) (rotary.Transport, error) { return sim, nil }
	t.Cleanup(func() { openTransport = newTransport })
	return sim
}

func TestInfo(t *testing.T) {
	code, out := runCaptured(t, "info")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "chip_name: AMS AS5600")
	assert.Contains(t, out, "driver_version: 1000")
}

func TestConvert(t *testing.T) {
	tests := []struct {
		args     []string
		code     int
		expected string
	}{
		{[]string{"convert", "--raw", "2048"}, 0, "180.000\n"},
		{[]string{"convert", "--raw", "0x400"}, 0, "90.000\n"},
		{[]string{"convert", "--deg", "90"}, 0, "1024\n"},
		{[]string{"convert", "--deg", "-90"}, 0, "3072\n"},
		{[]string{"convert", "--raw", "4096"}, console.CodeUsage, ""},
		{[]string{"convert"}, console.CodeUsage, ""},
	}
	for _, tt := range tests {
		t.Run(tt.args[len(tt.args)-1], func(t *testing.T) {
			code, out := runCaptured(t, tt.args...)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestSimulatedSensor(t *testing.T) {
	code, out := runCaptured(t, "--adapter", "sim", "angle")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, console.PictoCompass)

	code, out = runCaptured(t, "-a", "sim", "angle", "--watch", "--count", "2", "--interval", "1ms")
	assert.Equal(t, 0, code)
	assert.Equal(t, 2, bytes.Count([]byte(out), []byte(console.PictoCompass)))

	code, out = runCaptured(t, "-a", "sim", "status")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "magnet_detected: true")
	assert.Contains(t, out, "agc: 128")

	code, out = runCaptured(t, "-a", "sim", "register", "read", "0x1A")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "00000000  80")
}

func TestConfigSet(t *testing.T) {
	code, out := runCaptured(t, "-a", "sim", "config", "set", "--hysteresis", "2lsb", "--fast-filter", "10lsb", "--watchdog")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "hysteresis: 2lsb")
	assert.Contains(t, out, "fast_filter_threshold: 10lsb")
	assert.Contains(t, out, "watch_dog: true")
	assert.Contains(t, out, "power_mode: nom")

	code, _ = runCaptured(t, "-a", "sim", "config", "set", "--hysteresis", "5lsb")
	assert.Equal(t, console.CodeUsage, code)

	code, _ = runCaptured(t, "-a", "sim", "config", "set")
	assert.Equal(t, console.CodeUsage, code)
}

func TestConfigApply(t *testing.T) {
	profile := filepath.Join(t.TempDir(), "profile.yaml")
	err := os.WriteFile(profile, []byte("power_mode: lpm1\noutput_stage: pwm\npwm_frequency: 920hz\n"), 0o600)
	require.NoError(t, err)

	code, out := runCaptured(t, "-a", "sim", "config", "apply", "--file", profile)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "applied")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("power_mode: turbo\n"), 0o600))
	code, _ = runCaptured(t, "-a", "sim", "config", "apply", "--file", bad)
	assert.Equal(t, console.CodeUsage, code)

	unknown := filepath.Join(t.TempDir(), "unknown.yaml")
	require.NoError(t, os.WriteFile(unknown, []byte("gain: 3\n"), 0o600))
	code, _ = runCaptured(t, "-a", "sim", "config", "apply", "--file", unknown)
	assert.Equal(t, console.CodeUsage, code)
}

func TestPositionSet(t *testing.T) {
	code, out := runCaptured(t, "-a", "sim", "position", "set", "--start", "90", "--max", "180")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "start position set to 1024")
	assert.Contains(t, out, "max angle set to 2048")

	code, _ = runCaptured(t, "-a", "sim", "position", "set")
	assert.Equal(t, console.CodeUsage, code)

	code, out = runCaptured(t, "-a", "sim", "position", "get")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "max_angle:")
}

func TestBurn(t *testing.T) {
	code, out := runCaptured(t, "-a", "sim", "burn", "--yes", "angle")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "angle burns used: 1 of 3")

	code, out = runCaptured(t, "-a", "sim", "burn", "cmd1")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "cmd1 command sent")

	code, _ = runCaptured(t, "-a", "sim", "burn", "--yes", "everything")
	assert.Equal(t, console.CodeUsage, code)

	code, _ = runCaptured(t, "-a", "sim", "burn")
	assert.Equal(t, console.CodeUsage, code)
}

func TestAdapterSelection(t *testing.T) {
	code, _ := runCaptured(t, "-a", "serial", "angle")
	assert.Equal(t, console.CodeUsage, code)

	code, _ = runCaptured(t, "-a", "sim", "--address", "0x40", "status")
	assert.Equal(t, 0, code)

	code, _ = runCaptured(t, "-a", "sim", "direction", "cw")
	assert.Equal(t, console.CodeUsage, code)
}

func TestPositionSetOutOfRange(t *testing.T) {
	tests := [][]string{
		{"--max", "400"},
		{"--max", "360"},
		{"--start", "-10"},
		{"--stop", "1e9"},
		{"--stop", "NaN"},
		{"--start", "90", "--max", "400"},
	}
	for _, args := range tests {
		t.Run(args[len(args)-1], func(t *testing.T) {
			sim := withSimulator(t)
			code, out := runCaptured(t, append([]string{"-a", "sim", "position", "set"}, args...)...)
			assert.Equal(t, console.CodeUsage, code)
			assert.Empty(t, out)
			assert.Empty(t, sim.Writes())
		})
	}
}

func TestPositionSetWrites(t *testing.T) {
	sim := withSimulator(t)
	code, out := runCaptured(t, "-a", "sim", "position", "set", "--stop", "270")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "stop position set to 3072")
	assert.Equal(t, byte(0x0C), sim.Register(0x03))
	assert.Equal(t, byte(0x00), sim.Register(0x04))
}

func TestConfigSetParsesBeforeWriting(t *testing.T) {
	sim := withSimulator(t)
	code, out := runCaptured(t, "-a", "sim", "config", "set", "--hysteresis", "2lsb", "--fast-filter", "bogus")
	assert.Equal(t, console.CodeUsage, code)
	assert.Empty(t, out)
	assert.Empty(t, sim.Writes())
}

func TestConfigApplyPositions(t *testing.T) {
	sim := withSimulator(t)
	profile := filepath.Join(t.TempDir(), "profile.yaml")
	content := "hysteresis: 1lsb\npositions:\n  start: 90\n  max_angle: 180\n"
	require.NoError(t, os.WriteFile(profile, []byte(content), 0o600))

	code, out := runCaptured(t, "-a", "sim", "config", "apply", "--file", profile)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "start position set to 1024")
	assert.Contains(t, out, "max angle set to 2048")
	assert.Equal(t, byte(0x04), sim.Register(0x01))
	assert.Equal(t, byte(0x08), sim.Register(0x05))
	assert.Equal(t, byte(0x04), sim.Register(0x08))

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("positions:\n  stop: 400\n"), 0o600))
	before := len(sim.Writes())
	code, _ = runCaptured(t, "-a", "sim", "config", "apply", "--file", bad)
	assert.Equal(t, console.CodeUsage, code)
	assert.Len(t, sim.Writes(), before)
}

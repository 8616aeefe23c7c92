package position

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRawToDegrees(t *testing.T) {
	tests := []struct {
		given    uint16
		expected float64
	}{
		{0, 0.0},
		{1, 0.087890625},
		{1024, 90.0},
		{2048, 180.0},
		{3072, 270.0},
		{4095, 359.912109375},
		{0x1800, 180.0}, // bits above 11 are ignored
	}
	for _, test := range tests {
		t.Run(fmt.Sprint(test.given), func(t *testing.T) {
			assert.Equal(t, test.expected, RawToDegrees(test.given))
		})
	}
}

func TestDegreesToRaw(t *testing.T) {
	tests := []struct {
		given    float64
		expected uint16
	}{
		{0, 0},
		{90, 1024},
		{180, 2048},
		{359.98, 0},
		{359.95, 4095},
		{360, 0},
		{450, 1024},
		{-90, 3072},
		{-360, 0},
		{0.04, 0},
		{0.05, 1},
		{math.NaN(), 0},
		{math.Inf(1), 0},
		{math.Inf(-1), 0},
	}
	for _, test := range tests {
		t.Run(fmt.Sprint(test.given), func(t *testing.T) {
			assert.Equal(t, test.expected, DegreesToRaw(test.given))
		})
	}
}

func TestDegreesToRaw_RoundTrip(t *testing.T) {
	for raw := uint16(0); raw < Resolution; raw++ {
		if got := DegreesToRaw(RawToDegrees(raw)); got != raw {
			t.Fatalf("round trip of %d returned %d", raw, got)
		}
	}
}

func TestDegreesToRaw_Tolerance(t *testing.T) {
	for deg := 0.0; deg < 360; deg += 0.01 {
		back := RawToDegrees(DegreesToRaw(deg))
		diff := math.Abs(back - deg)
		if diff > 180 {
			diff = 360 - diff
		}
		assert.LessOrEqual(t, diff, DegreesPerStep/2+1e-9, "deg %f", deg)
	}
}

func TestCheckDegrees(t *testing.T) {
	for _, deg := range []float64{0, 0.5, 180, 359.9} {
		assert.NoError(t, CheckDegrees(deg), "%v", deg)
	}
	for _, deg := range []float64{-10, -0.001, 360, 400, 1e9, math.NaN(), math.Inf(1), math.Inf(-1)} {
		assert.ErrorIs(t, CheckDegrees(deg), ErrInvalidParameter, "%v", deg)
	}
}

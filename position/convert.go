package position

import (
	"fmt"
	"math"
)

// Resolution is the number of raw steps in a full turn.
const Resolution = 4096

// DegreesPerStep is the angle covered by one raw LSB (~0.088°).
const DegreesPerStep = 360.0 / Resolution

// RawToDegrees converts a 12-bit register value to degrees in [0, 360).
// Bits above bit 11 are ignored.
func RawToDegrees(raw uint16) float64 {
	return float64(raw&max12) * 360.0 / Resolution
}

// DegreesToRaw converts an angle to its nearest 12-bit register value. The angle is circular:
// negative values and values of 360° or more wrap around. NaN and infinities map to 0.
func DegreesToRaw(deg float64) uint16 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return uint16(math.Round(deg*Resolution/360.0)) % Resolution
}

// CheckDegrees rejects angles a position register cannot hold: non-finite values and
// anything outside [0, 360).
func CheckDegrees(deg float64) error {
	if math.IsNaN(deg) || math.IsInf(deg, 0) || deg < 0 || deg >= 360 {
		return fmt.Errorf("%w: angle %v is outside [0, 360)", ErrInvalidParameter, deg)
	}
	return nil
}

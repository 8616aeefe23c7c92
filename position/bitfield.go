package position

// field describes a group of bits inside a single register byte.
type field struct {
	reg   register
	shift uint8
	width uint8
}

func (f field) mask() byte {
	return byte((1<<f.width)-1) << f.shift
}

// max is the largest value the field can hold.
func (f field) max() byte {
	return byte((1 << f.width) - 1)
}

func (f field) extract(b byte) byte {
	return (b & f.mask()) >> f.shift
}

// insert replaces the field bits of b with v, leaving every other bit untouched.
// Bits of v above the field width are dropped.
func (f field) insert(b, v byte) byte {
	return (b &^ f.mask()) | ((v << f.shift) & f.mask())
}

const max12 = 0x0FFF

// join12 assembles a 12-bit value from the high (bits 11:8 in the low nibble) and low register bytes.
func join12(hi, lo byte) uint16 {
	return uint16(hi&0x0F)<<8 | uint16(lo)
}

// split12 splits a 12-bit value into its high nibble and low byte.
func split12(v uint16) (hi, lo byte) {
	return byte(v>>8) & 0x0F, byte(v)
}

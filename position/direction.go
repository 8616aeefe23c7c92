package position

// Direction is the rotation sense in which the angle increases. It is selected with the DIR
// pin, not through a register.
type Direction byte

const (
	// Clockwise needs DIR tied low.
	Clockwise Direction = iota
	// CounterClockwise needs DIR tied high.
	CounterClockwise
)

var directionNames = []string{"cw", "ccw"}

func (d Direction) Valid() bool { return d <= CounterClockwise }

func (d Direction) String() string { return enumName(directionNames, byte(d)) }

// PinHigh reports the DIR pin level selecting d.
func (d Direction) PinHigh() bool { return d == CounterClockwise }

func ParseDirection(s string) (Direction, error) {
	v, err := parseEnum("direction", directionNames, s)
	return Direction(v), err
}

package convert

import (
	"errors"
	"fmt"
	"math"

	"github.com/i474232898/watch-bridge/internal/protocol"
)

// ErrUnsupportedUnit is returned for a source or target unit the converter does not know.
var ErrUnsupportedUnit = errors.New("unsupported temperature unit")

// SourceUnit is the unit a provider reports temperatures in.
type SourceUnit int

const (
	Kelvin SourceUnit = iota + 1
	Fahrenheit
)

func (u SourceUnit) String() string {
	switch u {
	case Kelvin:
		return "K"
	case Fahrenheit:
		return "F"
	default:
		return fmt.Sprintf("SourceUnit(%d)", int(u))
	}
}

// ParseSourceUnit maps a provider unit marker ("K" or "F") to a SourceUnit.
func ParseSourceUnit(marker string) (SourceUnit, error) {
	switch marker {
	case "K":
		return Kelvin, nil
	case "F":
		return Fahrenheit, nil
	default:
		return 0, fmt.Errorf("%w: provider unit %q", ErrUnsupportedUnit, marker)
	}
}

// ConvertTemperature converts value from the provider unit to the unit requested by the watch
// and rounds to the nearest integer.
func ConvertTemperature(value float64, source SourceUnit, target protocol.TemperatureUnit) (int, error) {
	if target != protocol.Celsius && target != protocol.Fahrenheit {
		return 0, fmt.Errorf("%w: requested unit %d", ErrUnsupportedUnit, int32(target))
	}

	switch source {
	case Kelvin:
		c := value - 273.15
		if target == protocol.Fahrenheit {
			return round(c*9/5 + 32), nil
		}
		return round(c), nil
	case Fahrenheit:
		if target == protocol.Fahrenheit {
			return round(value), nil
		}
		return round((value - 32) * 5 / 9), nil
	default:
		return 0, fmt.Errorf("%w: source unit %d", ErrUnsupportedUnit, int(source))
	}
}

// round rounds half away from zero.
func round(v float64) int {
	return int(math.Round(v))
}

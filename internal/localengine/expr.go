package localengine

import (
	"fmt"
	"strconv"
	"strings"
)

type dimension int

const (
	dimUnitless dimension = iota
	dimLength
	dimAngle
)

type unitDef struct {
	dim dimension
	// factor converts to the base unit: cm for length, rad for angle.
	factor float64
}

var units = map[string]unitDef{
	"in":  {dimLength, 2.54},
	"ft":  {dimLength, 30.48},
	"mm":  {dimLength, 0.1},
	"cm":  {dimLength, 1},
	"m":   {dimLength, 100},
	"deg": {dimAngle, 0.017453292519943295},
	"rad": {dimAngle, 1},
	"ul":  {dimUnitless, 1},
}

// evaluate parses "<number> [unit]". A bare number takes the parameter's own
// units. The unit must have the same dimension as the parameter.
func evaluate(expr, paramUnits string) (float64, error) {
	s := strings.TrimSpace(expr)
	if s == "" {
		return 0, fmt.Errorf("empty expression")
	}
	i := numberPrefix(s)
	if i == 0 {
		return 0, fmt.Errorf("expression %q: expected a number", expr)
	}
	v, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return 0, fmt.Errorf("expression %q: %w", expr, err)
	}
	unit := strings.TrimSpace(s[i:])
	if unit == "" {
		unit = paramUnits
	}
	if unit == "" {
		unit = "ul"
	}
	def, ok := units[unit]
	if !ok {
		return 0, fmt.Errorf("expression %q: unknown unit %q", expr, unit)
	}
	if paramUnits != "" {
		want, ok := units[paramUnits]
		if ok && want.dim != def.dim {
			return 0, fmt.Errorf("expression %q: unit %s does not match parameter units %s", expr, unit, paramUnits)
		}
	}
	return v * def.factor, nil
}

func numberPrefix(s string) int {
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c == '.':
		case (c == '-' || c == '+') && (i == 0 || s[i-1] == 'e' || s[i-1] == 'E'):
		case (c == 'e' || c == 'E') && i > 0 && i+1 < len(s) && (isDigit(s[i+1]) || s[i+1] == '-' || s[i+1] == '+'):
		default:
			return i
		}
		i++
	}
	return i
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

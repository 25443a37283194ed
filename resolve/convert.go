package resolve

import (
	"math"
	"strconv"
	"strings"

	"github.com/wippyai/nvmbuild/cell"
	"github.com/wippyai/nvmbuild/errors"
	"github.com/wippyai/nvmbuild/field"
	"github.com/wippyai/nvmbuild/internal/abi"
)

// Convert turns one raw cell into a value of type t. Numbers and numeric
// text (decimal, 0x, 0b and 0o prefixed) are accepted. Nothing is clamped:
// fractions into integer types, values outside the type's range and
// non-numeric text fail. In strict mode integral values that a float type
// cannot represent exactly also fail.
func Convert(t field.ScalarType, c cell.Cell, strict bool) (field.Value, error) {
	var num any
	switch c.Kind() {
	case cell.KindNumber:
		num, _ = c.Number()
	case cell.KindText:
		s, _ := c.Text()
		n, ok := parseNumber(s)
		if !ok {
			return field.Value{}, errors.TypeConversion(nil, c.String(), t.String(), "not a number")
		}
		num = n
	case cell.KindReference:
		return field.Value{}, errors.TypeConversion(nil, c.String(), t.String(), "reference where a single value is expected")
	default:
		return field.Value{}, errors.TypeConversion(nil, c.String(), t.String(), "empty cell")
	}

	v, ok := coerce(t, num, strict)
	if !ok {
		return field.Value{}, errors.TypeConversion(nil, c.String(), t.String(), reason(t, num, strict))
	}
	return v, nil
}

func coerce(t field.ScalarType, num any, strict bool) (field.Value, bool) {
	switch {
	case t.IsFloat():
		exact := strict
		if f, isFloat := num.(float64); isFloat {
			exact = strict && f == math.Trunc(f)
		}
		f, ok := abi.CoerceToFloat(num, t.Bits(), exact)
		if !ok {
			return field.Value{}, false
		}
		return field.FloatValue(t, f), true
	case t.IsSigned():
		i, ok := abi.CoerceToSigned(num, t.Bits())
		if !ok {
			return field.Value{}, false
		}
		return field.IntValue(t, i), true
	default:
		u, ok := abi.CoerceToUnsigned(num, t.Bits())
		if !ok {
			return field.Value{}, false
		}
		return field.UintValue(t, u), true
	}
}

func reason(t field.ScalarType, num any, strict bool) string {
	if f, ok := num.(float64); ok {
		switch {
		case math.IsNaN(f) || math.IsInf(f, 0):
			return "not a finite number"
		case !t.IsFloat() && f != math.Trunc(f):
			return "fractional value for an integer type"
		case t.IsFloat() && strict:
			return "not exactly representable"
		}
	} else if t.IsFloat() && strict {
		return "not exactly representable"
	}
	return "out of range"
}

// parseNumber reads decimal integers, prefixed integers and decimal floats.
// A leading zero does not mean octal.
func parseNumber(s string) (any, bool) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "_", "")
	if s == "" {
		return nil, false
	}

	neg := false
	body := s
	if body[0] == '-' || body[0] == '+' {
		neg = body[0] == '-'
		body = body[1:]
	}

	base := 0
	if len(body) > 2 && body[0] == '0' {
		switch body[1] {
		case 'x', 'X':
			base = 16
		case 'b', 'B':
			base = 2
		case 'o', 'O':
			base = 8
		}
	}
	if base != 0 {
		u, err := strconv.ParseUint(body[2:], base, 64)
		if err != nil {
			return nil, false
		}
		if !neg {
			return u, true
		}
		if u > 1<<63 {
			return nil, false
		}
		return -int64(u), true
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, true
	}
	if u, err := strconv.ParseUint(strings.TrimPrefix(s, "+"), 10, 64); err == nil {
		return u, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, false
	}
	return f, true
}

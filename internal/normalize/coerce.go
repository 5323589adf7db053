package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	floatPtrType = reflect.TypeOf((*float64)(nil))
	intPtrType   = reflect.TypeOf((*int64)(nil))
	boolPtrType  = reflect.TypeOf((*bool)(nil))
	stringType   = reflect.TypeOf("")
)

// coerceHook converts loosely typed source values into the decoded field
// types. A value that cannot be read as the target type becomes nil, which
// leaves the field absent rather than failing the whole record.
func coerceHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	switch to {
	case floatPtrType:
		if v, ok := toFloat(data); ok {
			return v, nil
		}
		return nil, nil
	case intPtrType:
		if v, ok := toInt(data); ok {
			return v, nil
		}
		return nil, nil
	case boolPtrType:
		if v, ok := toBool(data); ok {
			return v, nil
		}
		return nil, nil
	case stringType:
		return toString(data), nil
	}
	return data, nil
}

// usable reports whether coerceHook would produce a value for data.
func usable(to reflect.Type, data any) bool {
	var ok bool
	switch to {
	case floatPtrType:
		_, ok = toFloat(data)
	case intPtrType:
		_, ok = toInt(data)
	case boolPtrType:
		_, ok = toBool(data)
	case stringType:
		ok = strings.TrimSpace(toString(data)) != ""
	default:
		ok = true
	}
	return ok
}

func toFloat(data any) (float64, bool) {
	var f float64
	switch v := data.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(v)
		s = strings.TrimPrefix(s, "$")
		s = strings.ReplaceAll(s, ",", "")
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// toInt reads token counts, accepting shorthand such as "128k" or "1M".
func toInt(data any) (int64, bool) {
	if s, ok := data.(string); ok {
		s = strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, ",", "")))
		multiplier := int64(1)
		switch {
		case strings.HasSuffix(s, "k"):
			multiplier, s = 1_000, strings.TrimSuffix(s, "k")
		case strings.HasSuffix(s, "m"):
			multiplier, s = 1_000_000, strings.TrimSuffix(s, "m")
		}
		d, err := decimal.NewFromString(strings.TrimSpace(s))
		if err != nil || d.IsNegative() {
			return 0, false
		}
		return d.Mul(decimal.NewFromInt(multiplier)).IntPart(), true
	}
	f, ok := toFloat(data)
	if !ok || f < 0 {
		return 0, false
	}
	return int64(f), true
}

func toBool(data any) (bool, bool) {
	switch v := data.(type) {
	case bool:
		return v, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes", "y":
			return true, true
		case "false", "0", "no", "n":
			return false, true
		}
	case float64:
		return v != 0, true
	}
	return false, false
}

func toString(data any) string {
	switch v := data.(type) {
	case string:
		return v
	case nil:
		return ""
	case map[string]any, []any:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

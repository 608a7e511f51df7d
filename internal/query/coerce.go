package query

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
)

type float64er interface {
	Float64() float64
}

// coerceInteger converts a scanned driver value to int64. Fractional values
// are truncated toward zero.
func coerceInteger(value any) (int64, error) {
	switch typed := value.(type) {
	case int64:
		return typed, nil
	case int32:
		return int64(typed), nil
	case int16:
		return int64(typed), nil
	case int8:
		return int64(typed), nil
	case int:
		return int64(typed), nil
	case uint64:
		if typed > math.MaxInt64 {
			return 0, fmt.Errorf("result %d overflows int64", typed)
		}
		return int64(typed), nil
	case uint32:
		return int64(typed), nil
	case uint16:
		return int64(typed), nil
	case uint8:
		return int64(typed), nil
	case float64:
		return truncateFloat(typed)
	case float32:
		return truncateFloat(float64(typed))
	case bool:
		if typed {
			return 1, nil
		}
		return 0, nil
	case []byte:
		return parseDecimal(string(typed))
	case string:
		return parseDecimal(typed)
	case *big.Int:
		if typed == nil {
			return 0, nil
		}
		if !typed.IsInt64() {
			return 0, fmt.Errorf("result %s overflows int64", typed.String())
		}
		return typed.Int64(), nil
	case float64er:
		return truncateFloat(typed.Float64())
	default:
		if converter, ok := addressableFloat64er(value); ok {
			return truncateFloat(converter.Float64())
		}
		return 0, fmt.Errorf("result of type %T is not numeric", value)
	}
}

// addressableFloat64er covers driver decimal types whose Float64 method has a
// pointer receiver but are scanned by value.
func addressableFloat64er(value any) (float64er, bool) {
	if value == nil {
		return nil, false
	}
	ptr := reflect.New(reflect.TypeOf(value))
	ptr.Elem().Set(reflect.ValueOf(value))
	converter, ok := ptr.Interface().(float64er)
	return converter, ok
}

func truncateFloat(value float64) (int64, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("result %v is not a finite number", value)
	}
	truncated := math.Trunc(value)
	if truncated >= math.MaxInt64 || truncated < math.MinInt64 {
		return 0, fmt.Errorf("result %v overflows int64", value)
	}
	return int64(truncated), nil
}

func parseDecimal(raw string) (int64, error) {
	text := strings.TrimSpace(raw)
	if parsed, err := strconv.ParseInt(text, 10, 64); err == nil {
		return parsed, nil
	}
	rat, ok := new(big.Rat).SetString(text)
	if !ok {
		return 0, fmt.Errorf("result %q is not numeric", raw)
	}
	// Quo truncates toward zero.
	quotient := new(big.Int).Quo(rat.Num(), rat.Denom())
	if !quotient.IsInt64() {
		return 0, fmt.Errorf("result %q overflows int64", raw)
	}
	return quotient.Int64(), nil
}

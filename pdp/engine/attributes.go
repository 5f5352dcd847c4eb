package engine

import (
	"fmt"
)

// attributeEquals compares two attribute values, treating numeric values
// of different Go types as equal when their values match.
func attributeEquals(a, b interface{}) bool {
	if fa, ok := toFloat64(a); ok {
		if fb, ok := toFloat64(b); ok {
			return fa == fb
		}
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

// attributeIn reports whether value is a member of the condition's list.
func attributeIn(value, list interface{}) bool {
	switch items := list.(type) {
	case []interface{}:
		for _, item := range items {
			if attributeEquals(value, item) {
				return true
			}
		}
	case []string:
		for _, item := range items {
			if attributeEquals(value, item) {
				return true
			}
		}
	}
	return false
}

func numericPair(a, b interface{}) (float64, float64, bool) {
	fa, okA := toFloat64(a)
	fb, okB := toFloat64(b)
	return fa, fb, okA && okB
}

// numericBetween expects bounds as a two-element list [low, high],
// inclusive on both ends.
func numericBetween(value, bounds interface{}) bool {
	items, ok := bounds.([]interface{})
	if !ok || len(items) != 2 {
		return false
	}
	v, okV := toFloat64(value)
	low, okL := toFloat64(items[0])
	high, okH := toFloat64(items[1])
	return okV && okL && okH && v >= low && v <= high
}

func toFloat64(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case uint:
		return float64(v), true
	default:
		return 0, false
	}
}

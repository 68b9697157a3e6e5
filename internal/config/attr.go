package config

import (
	"fmt"
	"strconv"
	"strings"
)

// AttrString renders a raw catalog attribute as a string id or label.
func AttrString(v interface{}) (string, bool) {
	switch s := v.(type) {
	case nil:
		return "", false
	case string:
		return s, true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case int:
		return strconv.Itoa(s), true
	}
	return fmt.Sprintf("%v", v), true
}

// AttrFloat coerces a raw catalog attribute to float64.
// Numeric strings are accepted since DBF readers often emit text columns.
func AttrFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

// AttrBool coerces a raw catalog attribute to bool. Numbers are true when non-zero.
func AttrBool(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		p, err := strconv.ParseBool(strings.TrimSpace(b))
		return err == nil && p
	}
	f, ok := AttrFloat(v)
	return ok && f != 0
}

package tickspot

import (
	"reflect"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// wireDateLayout is the date form the API accepts for date parameters.
const wireDateLayout = "2006-01-02"

// wireDate converts a date-like value to its wire form. Strings are assumed
// to be formatted already and pass through untouched.
func wireDate(v any, field string) (string, error) {
	switch d := v.(type) {
	case string:
		return d, nil
	case time.Time:
		return d.Format(wireDateLayout), nil
	case *time.Time:
		if d != nil {
			return d.Format(wireDateLayout), nil
		}
	}
	return "", &ArgumentError{Field: field, Reason: "is not a date"}
}

// requireNumber checks that v has a numeric runtime type and returns its
// canonical decimal text. Zero is a valid identifier.
func requireNumber(v any, field string) (string, error) {
	if d, ok := v.(decimal.Decimal); ok {
		return d.String(), nil
	}
	if v != nil {
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return strconv.FormatInt(rv.Int(), 10), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return strconv.FormatUint(rv.Uint(), 10), nil
		case reflect.Float32:
			return strconv.FormatFloat(rv.Float(), 'f', -1, 32), nil
		case reflect.Float64:
			return strconv.FormatFloat(rv.Float(), 'f', -1, 64), nil
		}
	}
	return "", &ArgumentError{Field: field, Reason: "is not numerical"}
}

func flag(b bool) string {
	return strconv.FormatBool(b)
}

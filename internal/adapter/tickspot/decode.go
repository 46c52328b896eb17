package tickspot

import (
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// timeLayouts are the forms dates and timestamps take in API responses.
var timeLayouts = []string{
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	"2006-01-02 15:04:05 -0700",
}

var (
	timeType    = reflect.TypeOf(time.Time{})
	decimalType = reflect.TypeOf(decimal.Decimal{})
)

// decode copies a normalized tree into out. Keys are snake_case element
// names; they match exported fields ignoring case and underscores.
func decode(in any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			containerToSliceHook,
			stringToDecimalHook,
			stringToTimeHook,
		),
		WeaklyTypedInput: true,
		MatchName:        matchName,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(in); err != nil {
		return &ParseError{Err: errors.Wrap(err, "decode")}
	}
	return nil
}

func matchName(key, field string) bool {
	return strings.EqualFold(strings.ReplaceAll(key, "_", ""), field)
}

// containerToSliceHook lets a nested container such as
// {"projects": {"project": [...]}} fill a []Project field directly.
func containerToSliceHook(from, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.Slice {
		return data, nil
	}
	switch d := data.(type) {
	case string:
		if strings.TrimSpace(d) == "" {
			return []any{}, nil
		}
	case map[string]any:
		if len(d) != 1 {
			return data, nil
		}
		for _, v := range d {
			if items, ok := v.([]any); ok {
				return items, nil
			}
		}
	}
	return data, nil
}

func stringToDecimalHook(from, to reflect.Type, data any) (any, error) {
	if to != decimalType || from.Kind() != reflect.String {
		return data, nil
	}
	s := strings.TrimSpace(data.(string))
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func stringToTimeHook(from, to reflect.Type, data any) (any, error) {
	if to != timeType || from.Kind() != reflect.String {
		return data, nil
	}
	s := strings.TrimSpace(data.(string))
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return nil, errors.Errorf("unrecognised time %q", s)
}

// collection pulls the repeated child out of a normalized container,
// e.g. tree["clients"]["client"]. A missing container yields nil.
func collection(tree map[string]any, container, tag string) []any {
	c, ok := tree[container].(map[string]any)
	if !ok {
		return nil
	}
	items, _ := c[tag].([]any)
	return items
}

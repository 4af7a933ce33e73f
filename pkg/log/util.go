package log

import (
	"fmt"

	"go.uber.org/zap"
)

// toFields turns logr-style key/value arguments into zap fields.
// Bare errors and zap.Fields may appear anywhere in the list and consume a
// single slot. A trailing unpaired value is kept under "arg#<index>"; a
// non-string key is kept under "invalid_key_<index>" together with its value.
func toFields(args ...any) []zap.Field {
	if len(args) == 0 {
		return nil
	}

	fields := make([]zap.Field, 0, len(args)/2+1)
	for i := 0; i < len(args); {
		switch v := args[i].(type) {
		case zap.Field:
			fields = append(fields, v)
			i++
			continue
		case error:
			fields = append(fields, zap.Error(v))
			i++
			continue
		}

		if i == len(args)-1 {
			fields = append(fields, zap.Any(fmt.Sprintf("arg#%d", i), args[i]))
			break
		}

		key, val := args[i], args[i+1]
		if name, ok := key.(string); ok {
			fields = append(fields, field(name, val))
		} else {
			fields = append(fields, zap.Any(fmt.Sprintf("invalid_key_%d", i), map[string]any{
				"key":   key,
				"value": val,
			}))
		}
		i += 2
	}
	return fields
}

// field builds a single typed field.
func field(key string, val any) zap.Field {
	switch v := val.(type) {
	case error:
		return zap.NamedError(key, v)
	case []string:
		return zap.Strings(key, v)
	case fmt.Stringer:
		return zap.Stringer(key, v)
	case []byte:
		return zap.Binary(key, v)
	default:
		// zap.Any dispatches to the typed constructors for scalars, durations and times.
		return zap.Any(key, v)
	}
}

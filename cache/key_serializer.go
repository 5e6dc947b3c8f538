package cache

import (
	"fmt"
	"reflect"
	"strings"
)

// KeySeparator is the default delimiter between key segments. It yields keys
// such as "translations_export_en".
const KeySeparator = "_"

// KeySerializer builds a cache key from a namespace and arguments.
// Implementations must be deterministic: the same inputs always produce the
// same key, across processes, because keys are shared through external
// backends.
type KeySerializer interface {
	SerializeKey(namespace string, args ...any) string
}

type defaultKeySerializer struct {
	separator string
}

// NewDefaultKeySerializer returns a serializer joining segments with
// KeySeparator.
func NewDefaultKeySerializer() KeySerializer {
	return &defaultKeySerializer{separator: KeySeparator}
}

// NewKeySerializer returns a serializer joining segments with separator.
func NewKeySerializer(separator string) KeySerializer {
	return &defaultKeySerializer{separator: separator}
}

func (s *defaultKeySerializer) SerializeKey(namespace string, args ...any) string {
	if len(args) == 0 {
		return namespace
	}

	parts := make([]string, 0, len(args)+1)
	parts = append(parts, namespace)
	for _, arg := range args {
		parts = append(parts, s.serializeValue(arg))
	}
	return strings.Join(parts, s.separator)
}

func (s *defaultKeySerializer) serializeValue(v any) string {
	if v == nil {
		return "nil"
	}

	switch typed := v.(type) {
	case string:
		return typed
	case fmt.Stringer:
		return typed.String()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return "nil"
		}
		return s.serializeValue(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		parts := make([]string, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			parts[i] = s.serializeValue(rv.Index(i).Interface())
		}
		return strings.Join(parts, ",")
	case reflect.Func, reflect.Chan, reflect.Map, reflect.Struct:
		// No stable textual form; callers should pass explicit identifiers.
		return fmt.Sprintf("%s:%T", rv.Kind(), v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

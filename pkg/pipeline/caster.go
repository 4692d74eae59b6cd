package pipeline

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// Caster coerces the value returned by a step before it is handed to the next one.
type Caster func(value any) (any, error)

// CasterKind selects one of the built-in casters.
type CasterKind int

const (
	NoCast CasterKind = iota
	CastToArray
	CastToObject
	CastToString
	CastToInt
	CastToBool
	CastToFloat
)

var builtinCasters = map[CasterKind]Caster{
	CastToArray:  ToArray,
	CastToObject: ToObject,
	CastToString: ToString,
	CastToInt:    ToInt,
	CastToBool:   ToBool,
	CastToFloat:  ToFloat,
}

func (k CasterKind) String() string {
	switch k {
	case NoCast:
		return "none"
	case CastToArray:
		return "array"
	case CastToObject:
		return "object"
	case CastToString:
		return "string"
	case CastToInt:
		return "int"
	case CastToBool:
		return "bool"
	case CastToFloat:
		return "float"
	default:
		return "CasterKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Caster returns the built-in caster for k. NoCast yields nil.
func (k CasterKind) Caster() (Caster, error) {
	if k == NoCast {
		return nil, nil
	}
	c, ok := builtinCasters[k]
	if !ok {
		return nil, errors.Wrapf(ErrArgument, "unknown caster %s", k)
	}

	return c, nil
}

// ToArray coerces value to a []any.
// Slices and arrays yield their elements, maps their values ordered by key, nil an empty slice.
// Any other value is wrapped in a one element slice.
func ToArray(value any) (any, error) {
	if value == nil {
		return []any{}, nil
	}
	if s, ok := value.([]any); ok {
		return s, nil
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out, err := cast.ToSliceE(value)
		if err == nil {
			return out, nil
		}
		out = make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}

		return out, nil
	case reflect.Map:
		keys := sortedMapKeys(rv)
		out := make([]any, 0, len(keys))
		for _, key := range keys {
			out = append(out, rv.MapIndex(key).Interface())
		}

		return out, nil
	default:
		return []any{value}, nil
	}
}

// ToObject coerces value to a map[string]any.
// A map[string]any is returned as is. Struct fields, map keys and slice indexes become keys.
// Scalars are stored under "scalar".
func ToObject(value any) (any, error) {
	if value == nil {
		return map[string]any{}, nil
	}
	if m, ok := value.(map[string]any); ok {
		return m, nil
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return map[string]any{}, nil
		}
		if rv.Elem().Kind() == reflect.Struct {
			rv = rv.Elem()
		}
	}

	switch rv.Kind() {
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[mapKey(iter.Key())] = iter.Value().Interface()
		}

		return out, nil
	case reflect.Struct:
		out := make(map[string]any, rv.NumField())
		rt := rv.Type()
		for i := 0; i < rt.NumField(); i++ {
			if !rt.Field(i).IsExported() {
				continue
			}
			out[rt.Field(i).Name] = rv.Field(i).Interface()
		}

		return out, nil
	case reflect.Slice, reflect.Array:
		out := make(map[string]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[strconv.Itoa(i)] = rv.Index(i).Interface()
		}

		return out, nil
	default:
		return map[string]any{"scalar": value}, nil
	}
}

func ToString(value any) (any, error) {
	s, err := cast.ToStringE(value)
	if err != nil {
		return nil, errors.Wrapf(ErrCast, "to string: %v", err)
	}

	return s, nil
}

func ToInt(value any) (any, error) {
	i, err := cast.ToIntE(value)
	if err != nil {
		return nil, errors.Wrapf(ErrCast, "to int: %v", err)
	}

	return i, nil
}

func ToBool(value any) (any, error) {
	b, err := cast.ToBoolE(value)
	if err != nil {
		return nil, errors.Wrapf(ErrCast, "to bool: %v", err)
	}

	return b, nil
}

func ToFloat(value any) (any, error) {
	f, err := cast.ToFloat64E(value)
	if err != nil {
		return nil, errors.Wrapf(ErrCast, "to float: %v", err)
	}

	return f, nil
}

func mapKey(key reflect.Value) string {
	k := key.Interface()
	if s, err := cast.ToStringE(k); err == nil {
		return s
	}

	return fmt.Sprint(k)
}

func sortedMapKeys(rv reflect.Value) []reflect.Value {
	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return mapKey(keys[i]) < mapKey(keys[j])
	})

	return keys
}
